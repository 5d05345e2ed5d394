package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gastolog/gastobot/internal/cycle"
	"github.com/gastolog/gastobot/internal/database"
	"github.com/gastolog/gastobot/internal/dispatch"
	apperrors "github.com/gastolog/gastobot/internal/errors"
	"github.com/gastolog/gastobot/internal/health"
	"github.com/gastolog/gastobot/internal/jobs"
	jobhandlers "github.com/gastolog/gastobot/internal/jobs/handlers"
	"github.com/gastolog/gastobot/internal/lifecycle"
	"github.com/gastolog/gastobot/internal/poll"
	"github.com/gastolog/gastobot/internal/ratelimit"
	"github.com/gastolog/gastobot/internal/repository"
	"github.com/gastolog/gastobot/internal/sink"
	"github.com/gastolog/gastobot/internal/telegram"
	"github.com/gastolog/gastobot/pkg/config"
	"github.com/gastolog/gastobot/pkg/graceful"
	"github.com/gastolog/gastobot/pkg/logger"
	"github.com/gastolog/gastobot/pkg/metrics"
	appredis "github.com/gastolog/gastobot/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("gastobot exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, logLevel := logger.New(*cfg)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
	}

	log.Info("starting gastobot",
		slog.String("env", cfg.AppEnv),
		slog.String("scheduler", cfg.Bot.Scheduler),
		slog.String("state_backend", cfg.State.Backend),
	)

	shutdown := lifecycle.NewShutdown(log)

	watcher, err := config.NewWatcher(v, log, func(level string) {
		logLevel.Set(logger.ParseLevel(level))
	})
	if err != nil {
		log.Warn("config watcher unavailable", slog.Any("error", err))
	} else {
		go watcher.Run()
		shutdown.Register("config-watcher", func(context.Context) error {
			return watcher.Close()
		})
	}

	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	shutdown.Register("postgres", func(context.Context) error {
		return db.Close()
	})

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	var redisClient *appredis.Client
	needsRedis := cfg.State.Backend == "redis" || cfg.Bot.Scheduler == "asynq"
	if needsRedis {
		redisClient, err = appredis.New(ctx, appredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	var store poll.Store
	switch cfg.State.Backend {
	case "redis":
		store = repository.NewPollStateRepository(appredis.NewMetricsClient(redisClient))
	default:
		if cfg.State.FilePath == "" {
			return apperrors.NewConfigError("state.file_path is required for the file backend")
		}
		store = poll.NewFileStore(cfg.State.FilePath)
	}

	tgClient := telegram.NewClient(cfg.Bot.Token)
	fetcher := poll.NewFetcher(tgClient, cfg.Bot.PollTimeout, log)
	ledger := sink.NewPostgresSink(db, log)
	limiter := ratelimit.NewMemoryLimiter(log)
	dispatcher := dispatch.NewDispatcher(tgClient, ledger, limiter, cfg.Bot.TargetChatID, log)
	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled)
	runner := cycle.NewRunner(fetcher, dispatcher, store, errHandler, log)

	go metrics.NewStateCollector(func(ctx context.Context) (int64, int64, error) {
		state, err := store.Load(ctx)
		return state.Offset, state.LastHandled, err
	}).Run(ctx)

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("telegram", health.NewTelegramChecker(tgClient))
	if redisClient != nil {
		checker.AddCheck("redis", health.CheckFunc(redisClient.HealthCheck))
	}
	if fileStore, ok := store.(*poll.FileStore); ok {
		checker.AddCheck("poll-state", health.CheckFunc(fileStore.HealthCheck))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())

	httpServer := graceful.NewServer(log, &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           logger.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	go func() {
		if err := httpServer.ListenAndServe(ctx); err != nil {
			log.Error("http server failed", slog.Any("error", err))
		}
	}()

	switch cfg.Bot.Scheduler {
	case "asynq":
		if err := runAsynq(ctx, cfg, runner, log, shutdown); err != nil {
			return err
		}
	default:
		go func() {
			_ = runner.Loop(ctx, cfg.Bot.PollInterval)
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	if cfg.Sentry.Enabled {
		sentry.Flush(2 * time.Second)
	}

	log.Info("gastobot stopped")

	return nil
}

func runAsynq(ctx context.Context, cfg *config.Config, runner *cycle.Runner, log *slog.Logger, shutdown *lifecycle.Shutdown) error {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	scheduler := jobs.NewScheduler(redisOpt, log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled tasks: %w", err)
	}
	scheduler.Run()
	shutdown.Register("scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})

	worker := jobs.NewWorker(redisOpt, log)
	worker.RegisterHandler(jobs.TaskTypePollCycle, jobhandlers.NewPollCycleHandler(runner, log))
	shutdown.Register("worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker failed", slog.Any("error", err))
		}
	}()

	return nil
}
