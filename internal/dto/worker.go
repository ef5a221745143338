package dto

// ── 通用分页参数 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 工人台账查询 ──

// WorkerListRequest 台账列表查询参数
type WorkerListRequest struct {
	PaginationRequest
	Status  string `form:"status"  binding:"omitempty,oneof=pending approved blocked"`
	Blocked *bool  `form:"blocked" binding:"omitempty"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
}

// WorkerResponse 台账记录响应
type WorkerResponse struct {
	WorkerID       string `json:"worker_id"`
	NationalID     string `json:"national_id"`
	FullName       string `json:"full_name"`
	RemotePersonID string `json:"remote_person_id,omitempty"`
	Status         string `json:"status"`
	Blocked        bool   `json:"blocked"`
	RemoteDeleted  bool   `json:"remote_deleted"`
	ValidFrom      string `json:"valid_from,omitempty"`
	ValidTo        string `json:"valid_to,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// ── 同步状态 ──

// SyncStatusResponse 最近一次同步状态响应
type SyncStatusResponse struct {
	Running    bool   `json:"running"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

// [自证通过] internal/dto/worker.go
