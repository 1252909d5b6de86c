// Package main - точка входа REST API сервера GeoPresensi Attendance Hub.
//
// Сервер обслуживает геозонную посещаемость школьного персонала:
// отметки прихода и ухода, заявления об отсутствии, дополнительные
// обязанности, рейтинги и месячные отчёты.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, планировщик, экспорт XLSX
// - Interface: HTTP handlers
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

	"github.com/geopresensi/attendance-hub/config"
	"github.com/geopresensi/attendance-hub/internal/application/command"
	"github.com/geopresensi/attendance-hub/internal/application/eventhandler"
	"github.com/geopresensi/attendance-hub/internal/application/query"
	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/export/excel"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/messaging"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/persistence/postgres"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/scheduler"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/geopresensi/attendance-hub/internal/interface/http"
	"github.com/geopresensi/attendance-hub/internal/interface/http/handlers"
	"github.com/geopresensi/attendance-hub/pkg/logger"
	"github.com/geopresensi/attendance-hub/pkg/retry"
)

// eventBus объединяет оба варианта шины (in-memory и Redis).
type eventBus interface {
	shared.EventPublisher
	Subscribe(eventType shared.EventType, handler shared.EventHandler) error
	Metrics() *messaging.EventBusMetrics
	Close() error
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting GeoPresensi Attendance Hub",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	var dbConn *postgres.Connection
	err = retry.Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	},
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database connection failed, retrying",
				"attempt", attempt, "delay", delay.String(), "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ И SEED КОНФИГУРАЦИИ ШКОЛЫ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		appliedCount := 0
		for _, m := range status {
			if m.IsApplied {
				appliedCount++
			}
		}
		log.Info("migrations completed", "applied", appliedCount, "total", len(status))
	}

	configStore := postgres.NewConfigStore(dbConn)
	schoolCfg, err := configStore.SeedDefault(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed school config: %w", err)
	}
	log.Info("school config loaded",
		"school", schoolCfg.SchoolName,
		"radius_m", schoolCfg.RadiusMeters,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, falling back to in-memory mode", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И ДОМЕННЫХ СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	userRepo := postgres.NewUserRepository(dbConn)
	recordStore := postgres.NewAttendanceStore(dbConn)

	engine := attendance.NewEngine()
	aggregator := scoring.NewAggregator()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")

	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = log

	var bus eventBus
	useRedisBus := redisCache != nil && cfg.Features.IsEnabled(config.FeatureEventsRedisBus, nil)
	if useRedisBus {
		bus, err = messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         redis.NewPubSubAdapter(redisCache),
			LocalBusConfig: localBusCfg,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis event bus: %w", err)
		}
		log.Info("using Redis event bus")
	} else {
		bus = messaging.NewInMemoryEventBus(localBusCfg)
		log.Info("using in-memory event bus")
	}
	defer func() {
		log.Info("closing event bus...")
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if leaderboardCache != nil {
		recorded := eventhandler.NewOnAttendanceRecordedHandler(leaderboardCache, log)
		for _, eventType := range recorded.EventTypes() {
			if err := bus.Subscribe(eventType, recorded.Handle); err != nil {
				return fmt.Errorf("failed to subscribe %s: %w", eventType, err)
			}
		}
		log.Info("leaderboard invalidation handler registered")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	checkInCmd := command.NewCheckInHandler(userRepo, recordStore, configStore, engine, bus)
	checkOutCmd := command.NewCheckOutHandler(recordStore, configStore, engine, bus)
	fileExcuseCmd := command.NewFileExcuseHandler(userRepo, recordStore, engine, bus)
	reportTaskCmd := command.NewReportTaskHandler(userRepo, recordStore, engine, bus)
	overrideStatusCmd := command.NewOverrideStatusHandler(userRepo, recordStore, engine, bus)
	recomputePointsCmd := command.NewRecomputePointsHandler(userRepo, recordStore, engine, bus)
	saveConfigCmd := command.NewSaveConfigHandler(userRepo, configStore, bus)
	userAdminCmd := command.NewUserAdminHandler(userRepo, bus)
	importStaffCmd := command.NewImportStaffCSVHandler(userAdminCmd)

	var queryCache query.LeaderboardCache
	if leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
		queryCache = leaderboardCache
	}
	leaderboardQuery := query.NewGetLeaderboardHandler(recordStore, userRepo, aggregator, queryCache)
	myDayQuery := query.NewGetMyDayHandler(userRepo, recordStore, configStore, engine, aggregator)
	monthlyReportQuery := query.NewGetMonthlyReportHandler(recordStore, userRepo, aggregator,
		func(ctx context.Context) string {
			current, err := configStore.Load(ctx)
			if err != nil {
				return ""
			}
			return current.SchoolName
		})

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ИНИЦИАЛИЗАЦИЯ СЕССИЙ
	// ─────────────────────────────────────────────────────────────────────────
	var sessions handlers.SessionStore
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureSessionsRedis, nil) {
		sessions = redis.NewSessionStore(redisCache, cfg.HTTP.SessionTTL)
		log.Info("using Redis session store", "ttl", cfg.HTTP.SessionTTL.String())
	} else {
		sessions = handlers.NewMemorySessionStore(cfg.HTTP.SessionTTL)
		log.Info("using in-memory session store", "ttl", cfg.HTTP.SessionTTL.String())
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ПЛАНИРОВЩИК ФОНОВЫХ ЗАДАЧ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("initializing scheduler...")
		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:   log,
			Timezone: cfg.App.Location,
		})

		if leaderboardCache != nil {
			rebuildJob := jobs.NewRebuildLeaderboardJob(
				recordStore, userRepo, aggregator, leaderboardCache, bus, log,
				jobs.RebuildLeaderboardConfig{Timeout: cfg.Scheduler.JobTimeout},
			)
			rebuildCron, err := scheduler.ParseCronExpression(cfg.Scheduler.LeaderboardRebuildCron)
			if err != nil {
				return fmt.Errorf("invalid leaderboard rebuild cron: %w", err)
			}
			if err := sched.Register(rebuildJob, rebuildCron); err != nil {
				return fmt.Errorf("failed to register rebuild job: %w", err)
			}
		}

		if cfg.Features.IsEnabled(config.FeatureReportsAbsenceDigest, nil) {
			digestJob := jobs.NewAbsenceDigestJob(userRepo, recordStore, configStore, engine, bus, log)
			digestCron, err := scheduler.ParseCronExpression(cfg.Scheduler.AbsenceDigestCron)
			if err != nil {
				return fmt.Errorf("invalid absence digest cron: %w", err)
			}
			if err := sched.Register(digestJob, digestCron); err != nil {
				return fmt.Errorf("failed to register digest job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
		log.Info("scheduler started", "jobs", len(sched.ListJobs()))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 13. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.EnableMetrics = cfg.Observability.MetricsEnabled
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	var reportWriter *excel.ReportWriter
	if cfg.Features.IsEnabled(config.FeatureReportsExcelExport, nil) {
		reportWriter = excel.NewReportWriter()
	}

	httpDeps := httpserver.Dependencies{
		CheckInHandler:         checkInCmd,
		CheckOutHandler:        checkOutCmd,
		FileExcuseHandler:      fileExcuseCmd,
		ReportTaskHandler:      reportTaskCmd,
		OverrideStatusHandler:  overrideStatusCmd,
		RecomputePointsHandler: recomputePointsCmd,
		SaveConfigHandler:      saveConfigCmd,
		UserAdminHandler:       userAdminCmd,
		ImportStaffCSVHandler:  importStaffCmd,

		GetLeaderboardHandler:   leaderboardQuery,
		GetMyDayHandler:         myDayQuery,
		GetMonthlyReportHandler: monthlyReportQuery,

		UserRepo:    userRepo,
		Sessions:    sessions,
		ConfigStore: configStore,

		ReportWriter: reportWriter,

		Logger:        setupHTTPLogger(cfg),
		HealthChecker: health,
		Scheduler:     sched,
		BusMetrics:    bus.Metrics(),
	}

	srv := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 14. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", srv.Address())
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("GeoPresensi Attendance Hub is running", "http_address", srv.Address())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование инфраструктуры.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// setupHTTPLogger настраивает логгер HTTP-слоя.
func setupHTTPLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	return logger.New(opts)
}
