package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pokerist/ubuntuhik/config"
)

// Client Redis 客户端封装
// 当前用于向外部看板发布最近一次同步状态；连接失败时降级运行，不影响同步
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 同步状态发布 ──

const lastPassKey = "hydepark:sync:last_pass"

// PublishPassStatus 将最近一次同步状态（JSON）写入 Redis，供外部看板读取
func (c *Client) PublishPassStatus(ctx context.Context, payload []byte) error {
	return c.rdb.Set(ctx, lastPassKey, payload, 0).Err()
}

// LastPassStatus 读取最近一次同步状态；键不存在时返回 nil
func (c *Client) LastPassStatus(ctx context.Context) ([]byte, error) {
	data, err := c.rdb.Get(ctx, lastPassKey).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	return data, err
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
