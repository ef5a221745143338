package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/pokerist/ubuntuhik/internal/dto"
	"github.com/pokerist/ubuntuhik/internal/service"
	"github.com/pokerist/ubuntuhik/pkg/response"
)

// WorkerHandler 台账查询 HTTP 处理器（只读）
type WorkerHandler struct {
	workerSvc service.WorkerService
}

// NewWorkerHandler 创建 WorkerHandler
func NewWorkerHandler(workerSvc service.WorkerService) *WorkerHandler {
	return &WorkerHandler{workerSvc: workerSvc}
}

// ListWorkers 分页查询台账
// GET /api/v1/workers?page=1&page_size=20&status=approved&blocked=false&keyword=xxx
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	var req dto.WorkerListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "查询参数无效: "+err.Error())
		return
	}

	list, total, err := h.workerSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetWorker 按上游工人 ID 查询单条台账记录
// GET /api/v1/workers/:id
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	workerID := c.Param("id")
	if workerID == "" {
		response.BadRequest(c, 10001, "工人 ID 不能为空")
		return
	}

	worker, err := h.workerSvc.GetByWorkerID(c.Request.Context(), workerID)
	if err != nil {
		if errors.Is(err, service.ErrWorkerNotFound) {
			response.NotFound(c, 11001, "工人不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, worker)
}

// [自证通过] internal/api/handler/worker_handler.go
