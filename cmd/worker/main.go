// Package main - точка входа фонового процесса (Worker) GeoPresensi Attendance Hub.
//
// Worker выполняет периодические задачи отдельно от API сервера:
// - ночная пересборка рейтингов в кэше
// - дайджест сотрудников без отметки за день
//
// Разделение позволяет перезапускать API без потери расписания
// и наоборот. Оба процесса делят одну базу и один Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geopresensi/attendance-hub/config"
	"github.com/geopresensi/attendance-hub/internal/domain/attendance"
	"github.com/geopresensi/attendance-hub/internal/domain/scoring"
	"github.com/geopresensi/attendance-hub/internal/domain/shared"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/messaging"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/persistence/postgres"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/persistence/redis"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/scheduler"
	"github.com/geopresensi/attendance-hub/internal/infrastructure/scheduler/jobs"
	"github.com/geopresensi/attendance-hub/pkg/retry"
)

// eventBus объединяет оба варианта шины (in-memory и Redis).
type eventBus interface {
	shared.EventPublisher
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting GeoPresensi worker",
		"env", cfg.App.Environment,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	userRepo := postgres.NewUserRepository(dbConn)
	recordStore := postgres.NewAttendanceStore(dbConn)
	configStore := postgres.NewConfigStore(dbConn)

	engine := attendance.NewEngine()
	aggregator := scoring.NewAggregator()

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (кэш рейтингов) — обязателен для rebuild job
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard rebuild disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Event bus: worker публикует события о завершённых задачах
	// ─────────────────────────────────────────────────────────────────────────
	localBusCfg := messaging.DefaultInMemoryEventBusConfig()
	localBusCfg.Logger = log

	var bus eventBus
	if redisCache != nil && cfg.Features.IsEnabled(config.FeatureEventsRedisBus, nil) {
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
		_ = bus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
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
		digestJob := jobs.NewAbsenceDigestJob(
			userRepo, recordStore, configStore, engine, bus, log,
		)
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

	log.Info("worker is running", "jobs", len(sched.ListJobs()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	log.Info("worker shutdown complete")
	return nil
}

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
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
