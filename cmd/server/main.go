package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"interntrack/internal/cache"
	"interntrack/internal/flash"
	"interntrack/internal/handler"
	"interntrack/internal/httpserver"
	"interntrack/internal/mqhandler"
	"interntrack/internal/repository"
	"interntrack/internal/service"
	"interntrack/migrations"
	"interntrack/pkg/config"
	"interntrack/pkg/db"
	"interntrack/pkg/logger"
	"interntrack/pkg/mq"
	"interntrack/pkg/otel"
	"interntrack/pkg/outbox"
	"interntrack/pkg/redis"
	"interntrack/pkg/util"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	flashTTL    = 10 * time.Minute
	dedupTTL    = 24 * time.Hour
	retryTTL    = time.Hour
	maxRequeues = 3
)

// errMQDisabled is returned by outbox replays when no broker is configured.
var errMQDisabled = errors.New("message queue is disabled")

type disabledPublisher struct{}

func (disabledPublisher) PublishWithContext(context.Context, string, any) error {
	return errMQDisabled
}

func main() {
	cfg, err := config.Load(config.GetConfigEnv(), config.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	log.Info("Starting interntrack...",
		zap.String("env", cfg.Env),
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.Bool("mq_enabled", cfg.MQ.Enabled),
		zap.Bool("llm_enabled", cfg.LLM.Enabled),
	)

	shutdownOtel, err := otel.Init(cfg.Otel, version, log)
	if err != nil {
		log.Warn("Failed to init OpenTelemetry, continuing without tracing", zap.Error(err))
		shutdownOtel = func() {}
	}
	defer shutdownOtel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	log.Info("Initializing database connection...")
	pool, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(ctx, pool, migrations.FS, log); err != nil {
			log.Fatal("Failed to migrate DB", zap.Error(err))
		}
	}
	txm := db.NewTxManager(pool)
	log.Info("Database connection established successfully")

	// Redis
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool, log)
	projectRepo := repository.NewProjectRepository(pool, log)
	taskRepo := repository.NewTaskRepository(pool, log)
	timeLogRepo := repository.NewTimeLogRepository(pool, log)
	deliverableRepo := repository.NewDeliverableRepository(pool, log)
	noteRepo := repository.NewNoteRepository(pool, log)
	listItemRepo := repository.NewListItemRepository(pool, log)
	activityRepo := repository.NewActivityRepository(pool, log)
	reportRepo := repository.NewReportRepository(pool, log)

	outboxRepo := outbox.NewRepository(pool)
	events := outbox.NewWriter(outboxRepo)

	// MQ
	var (
		publisher outbox.EventPublisher = disabledPublisher{}
		consumer  *mq.Consumer
	)
	if cfg.MQ.Enabled {
		pub, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init publisher", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub

		log.Info("Initializing MQ consumer for activity feed...",
			zap.String("queue", cfg.MQ.ActivityQueue),
			zap.String("routing_key", "#"),
		)
		consumer, err = mq.NewConsumer(cfg.MQ.URL, cfg.MQ.ActivityQueue, "#", log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.Error(err))
		}
		defer consumer.Close()
		consumer.WithDeadLetter(pub, util.NewRetryCounter(rdb, retryTTL), maxRequeues)
	}

	focusCache := cache.NewFocusCache(rdb, cfg.SmartFocus.CacheTTL)
	flashStore := flash.NewStore(rdb, flashTTL)

	var advisor service.FocusAdvisor
	if cfg.LLM.Enabled {
		advisor = service.NewLLMClient(cfg.LLM, log)
	}

	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL, log)
	projectService := service.NewProjectService(projectRepo, txm, events, log)
	taskService := service.NewTaskService(taskRepo, txm, events, focusCache, log)
	timeLogService := service.NewTimeLogService(timeLogRepo, txm, events, log)
	deliverableService := service.NewDeliverableService(deliverableRepo, txm, events, log)
	noteService := service.NewNoteService(noteRepo, log)
	listItemService := service.NewListItemService(listItemRepo, txm, log)
	focusService := service.NewSmartFocusService(taskRepo, advisor, focusCache,
		cfg.SmartFocus.MaxTasks, cfg.SmartFocus.MaxSuggestions, log)
	reportService := service.NewReportService(reportRepo, taskRepo, timeLogRepo, deliverableRepo, listItemRepo, log)
	activityService := service.NewActivityService(activityRepo, log)
	orchestrator := service.NewOrchestrator(taskRepo, timeLogService, txm, events, focusCache,
		cfg.Orchestrator.Interval, cfg.Orchestrator.MaxTimer, log)
	replayService := outbox.NewReplayService(outboxRepo, publisher, log)

	if consumer != nil {
		activityHandler := mqhandler.NewActivityHandler(activityService, util.NewDeduper(rdb, dedupTTL, log), log)
		consumer.SetHandler(activityHandler.Handle)
		go func() {
			log.Info("Starting activity consumer...")
			if err := consumer.StartConsuming(); err != nil {
				log.Error("Activity consumer failed", zap.Error(err))
			}
		}()

		dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
			WithInterval(cfg.Outbox.Interval).
			WithBatchSize(cfg.Outbox.BatchSize).
			WithMaxRetries(cfg.Outbox.MaxRetries)
		go dispatcher.Start(ctx)
	}
	go orchestrator.Start(ctx)

	gin.SetMode(cfg.Server.Mode)
	opts := httpserver.Options{
		JWTSecret:    cfg.JWT.Secret,
		AllowOrigins: cfg.Server.AllowOrigins,
		DB:           pool,
		Logger:       log,
	}
	if consumer != nil {
		opts.MQ = consumer
	}
	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:         handler.NewAuthHandler(userService, flashStore, log),
		Users:        handler.NewUserHandler(userService, flashStore, log),
		Projects:     handler.NewProjectHandler(projectService, flashStore, log),
		Tasks:        handler.NewTaskHandler(taskService, flashStore, log),
		TimeLogs:     handler.NewTimeLogHandler(timeLogService, flashStore, log),
		Deliverables: handler.NewDeliverableHandler(deliverableService, flashStore, log),
		Notes:        handler.NewNoteHandler(noteService, flashStore, log),
		ListItems:    handler.NewListItemHandler(listItemService, flashStore, log),
		Insights:     handler.NewInsightHandler(focusService, reportService, activityService, log),
		Admin:        handler.NewAdminHandler(replayService, flashStore, log),
	}, opts)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Handler(),
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down...", zap.String("signal", sig.String()))

	cancel()
	if consumer != nil {
		consumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
