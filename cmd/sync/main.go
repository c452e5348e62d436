package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.clinic.sync/internal/config"
	"sudooom.clinic.sync/internal/gateway"
	"sudooom.clinic.sync/internal/handler"
	"sudooom.clinic.sync/internal/health"
	clinicNats "sudooom.clinic.sync/internal/nats"
	"sudooom.clinic.sync/internal/readstate"
	"sudooom.clinic.sync/internal/repository"
	"sudooom.clinic.sync/internal/router"
	"sudooom.clinic.sync/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CLINIC_SYNC_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	}))
	slog.SetDefault(logger)

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := clinicNats.NewClient(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 网关客户端
	gw := gateway.NewClient(cfg.Gateway)
	instanceName := gateway.InstanceName(cfg.Sync.ClinicID)

	// 确保实例行存在
	instanceRepo := repository.NewInstanceRepository(db)
	instanceID, err := instanceRepo.Ensure(ctx, cfg.Sync.ClinicID, instanceName)
	if err != nil {
		logger.Error("Failed to ensure instance row", "error", err)
		os.Exit(1)
	}
	logger.Info("Gateway instance ready", "instance", instanceName, "id", instanceID)

	// 初始化服务
	publisher := clinicNats.NewEventPublisher(natsClient.Conn())
	tracker := readstate.NewRedisTracker(redisClient, instanceName)
	chatRepo := repository.NewChatRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	syncService := service.NewSyncService(gw, chatRepo, tracker, publisher, instanceName, instanceID)
	mediaCache := service.NewMediaCache(cfg.Sync.MediaCacheSize)
	messageService := service.NewMessageService(gw, chatRepo, messageRepo, tracker,
		syncService, mediaCache, instanceName, instanceID)
	contactService := service.NewContactService(gw, leadRepo, publisher, cfg.Sync.ClinicID, instanceName)
	instanceService := service.NewInstanceService(gw, redisClient, instanceName)

	// 启动轮询
	chatInterval := cfg.Sync.ChatInterval
	if chatInterval <= 0 {
		chatInterval = 5 * time.Second
	}
	contactInterval := cfg.Sync.ContactInterval
	if contactInterval <= 0 {
		contactInterval = 30 * time.Second
	}

	chatPoller := service.NewPoller("chat-sync", chatInterval, syncService.SyncOnce)
	chatPoller.Start(ctx)

	contactPoller := service.NewPoller("contact-import", contactInterval, contactService.ImportOnce)
	contactPoller.Start(ctx)

	// HTTP 服务
	healthChecker := health.NewChecker(gw, instanceName, natsClient.Conn(), redisClient, db)
	chatHandler := handler.NewChatHandler(syncService, messageService, cfg.Sync.MessageLimit)
	instanceHandler := handler.NewInstanceHandler(instanceService)

	engine := router.SetupRouter(cfg, chatHandler, instanceHandler, healthChecker)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Sync service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	chatPoller.Stop()
	contactPoller.Stop()
	logger.Info("Sync service stopped")
}

// parseLogLevel 解析日志级别，无法识别时退回 Info
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
