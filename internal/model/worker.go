package model

import "time"

// 工人状态枚举（与上游系统约定一致）
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusBlocked  = "blocked"
)

// Worker 工人台账表 — 对应 workers
// 每个曾经同步过的工人一条记录；封禁/删除后保留为墓碑记录（RemoteDeleted=true），
// 用于幂等去重、审计以及对已封禁身份的人脸查重。
type Worker struct {
	WorkerID       string    `gorm:"column:worker_id;primaryKey"            json:"worker_id"`
	NationalID     string    `gorm:"column:national_id;not null;index"      json:"national_id"`
	FullName       string    `gorm:"column:full_name;not null;default:''"   json:"full_name"`
	RemotePersonID string    `gorm:"column:remote_person_id;not null;default:''" json:"remote_person_id"`
	Status         string    `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Blocked        bool      `gorm:"column:blocked;not null;default:false"  json:"blocked"`
	RemoteDeleted  bool      `gorm:"column:remote_deleted;not null;default:false" json:"remote_deleted"`
	ValidFrom      string    `gorm:"column:valid_from;not null;default:''"  json:"valid_from"`
	ValidTo        string    `gorm:"column:valid_to;not null;default:''"    json:"valid_to"`
	FacePath       string    `gorm:"column:face_path;not null;default:''"   json:"face_path"`
	IDCardPath     string    `gorm:"column:id_card_path;not null;default:''" json:"id_card_path"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"             json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null"             json:"updated_at"`
}

// TableName 指定表名
func (Worker) TableName() string { return "workers" }

// HasRemoteIdentity 台账记录是否持有存活的远端身份
func (w *Worker) HasRemoteIdentity() bool {
	return w.RemotePersonID != "" && !w.RemoteDeleted
}

// [自证通过] internal/model/worker.go
