package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"jobsvc/internal/app/config"
	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/app/domains/modules/mdnotify"
	"jobsvc/internal/app/domains/modules/mdqueue"
	"jobsvc/internal/app/domains/repo/rpjoborder"
	"jobsvc/internal/app/domains/services/svjoborder"
	"jobsvc/internal/app/health"
	"jobsvc/internal/app/infra/mq/lmstfy"
	"jobsvc/internal/app/infra/persistence/redis"
	"jobsvc/internal/app/pkg/idgen"
	"jobsvc/internal/app/pkg/logger"
	healthhandler "jobsvc/internal/app/server/handlers/health"
	"jobsvc/internal/app/server/handlers/joborder"
	"jobsvc/internal/app/server/routers"
	"jobsvc/internal/app/sweeper"
)

// App 组装完成的应用
type App struct {
	Engine  *gin.Engine
	Sweeper *sweeper.Sweeper // 未启用时为 nil
	Logger  logger.Logger
}

// InitializeApp 按配置组装各层依赖，返回的 cleanup 负责释放连接
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	appLogger, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger failed: %w", err)
	}
	ctx := context.Background()

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		_ = appLogger.Sync()
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	probe := health.NewProbe(2*time.Second, appLogger)

	// 1. Repository
	var repo rpjoborder.JobOrderRepository
	switch cfg.App.Backend {
	case config.BackendMySQL:
		db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
		if err != nil {
			return fail(fmt.Errorf("init database failed: %w", err))
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fail(fmt.Errorf("get sql.DB failed: %w", err))
		}
		cleanups = append(cleanups, func() { _ = sqlDB.Close() })
		if cfg.MySQL.AutoMigrate {
			if err := rpjoborder.AutoMigrate(db); err != nil {
				return fail(fmt.Errorf("auto migrate failed: %w", err))
			}
		}
		probe.Register("mysql", health.CheckerFunc(sqlDB.PingContext))
		repo = rpjoborder.NewJobOrderRepository(db)
		appLogger.Infof(ctx, "Database connected")
	default:
		repo = rpjoborder.NewMemoryJobOrderRepository(idgen.New(cfg.App.NodeID))
		appLogger.Infof(ctx, "Using in-memory job order repository")
	}

	// 2. Redis
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fail(fmt.Errorf("init redis failed: %w", err))
		}
		cleanups = append(cleanups, func() { _ = redisClient.Close() })
		probe.Register("redis", health.CheckerFunc(redisClient.Ping))
		appLogger.Infof(ctx, "Redis connected")
	}

	// 3. Queuer
	var queuer mdqueue.Queuer
	if cfg.UsesLmstfy() {
		lmstfyClient := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		queuer = mdqueue.NewLmstfyQueuer(lmstfyClient, redisClient, mdqueue.LmstfyConfig{
			Queue: cfg.Lmstfy.Queue,
			TTL:   cfg.Lmstfy.TTL,
			Tries: cfg.Lmstfy.Tries,
		})
		appLogger.Infof(ctx, "Lmstfy queuer initialized, namespace: %s, queue: %s", lmstfyClient.Namespace(), cfg.Lmstfy.Queue)
	} else {
		queuer = mdqueue.NewMemoryQueuer()
		appLogger.Infof(ctx, "Using in-memory queuer")
	}

	// 4. Notifier
	var notifier mdnotify.Notifier
	switch cfg.Notifier.Kind {
	case config.NotifierRedis:
		notifier = mdnotify.NewRedisNotifier(redisClient, cfg.Notifier.ChannelPrefix, cfg.Notifier.RequireSubscriber)
	default:
		notifier = mdnotify.NewLogNotifier(appLogger)
	}

	// 5. Service
	timeout := cfg.Service.Timeout
	opts := []svjoborder.Option{
		svjoborder.WithLogger(appLogger),
		svjoborder.WithDefaults(etjoborder.JobParams{
			MaxRetry: cfg.Service.MaxRetry,
			Timeout:  &timeout,
		}),
	}
	if cfg.Lock.Kind == config.LockRedis {
		opts = append(opts, svjoborder.WithLocker(redis.NewLocker(redisClient, "jobsvc:lock:", cfg.Lock.TTL)))
	}
	jobOrderService := svjoborder.NewJobOrderService(repo, queuer, notifier, opts...)

	// 6. HTTP
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := routers.SetupRoutes(
		joborder.NewJobOrderHandler(jobOrderService, appLogger),
		healthhandler.NewHealthHandler(probe),
		appLogger,
	)

	app := &App{Engine: engine, Logger: appLogger}
	if cfg.Sweeper.Enabled {
		app.Sweeper = sweeper.NewSweeper(jobOrderService, sweeper.Config{
			Interval:  cfg.Sweeper.Interval,
			BatchSize: cfg.Sweeper.BatchSize,
		}, appLogger)
	}
	return app, cleanup, nil
}
