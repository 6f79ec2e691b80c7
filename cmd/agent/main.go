package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luisherrera/milltrack-agent/api/routes"
	"github.com/luisherrera/milltrack-agent/internal/backend"
	"github.com/luisherrera/milltrack-agent/internal/engine"
	"github.com/luisherrera/milltrack-agent/internal/netmon"
	"github.com/luisherrera/milltrack-agent/internal/queue"
	"github.com/luisherrera/milltrack-agent/pkg/auth/session"
	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/db"
	"github.com/luisherrera/milltrack-agent/pkg/events"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
	"github.com/luisherrera/milltrack-agent/pkg/metrics"
	"github.com/luisherrera/milltrack-agent/pkg/migrate"
	"github.com/luisherrera/milltrack-agent/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "agent"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "agent",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	registry := prometheus.NewRegistry()
	queueMetrics := metrics.NewQueueMetrics(registry)
	bus := events.NewBus()

	var store queue.Store
	var storePinger db.Pinger

	if cfg.Queue.IsRedis() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store = queue.NewRedisStore(redisClient, cfg.Queue.StorageKey)
		storePinger = redisClient
	} else {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap local database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing local database", err)
			}
		}()

		if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}

		store = queue.NewGormStore(dbClient.DB())
		storePinger = dbClient
	}

	sessions := session.NewManager(cfg.Session)

	queueService := queue.NewService(queue.ServiceParams{
		Store:      store,
		Bus:        bus,
		Logger:     logg,
		Metrics:    queueMetrics,
		MaxRetries: cfg.Queue.MaxRetries,
	})

	probeURL := cfg.Net.ProbeURL
	if probeURL == "" {
		probeURL = netmon.ProbeURLFor(cfg.Backend.BaseURL)
	}
	monitor := netmon.New(netmon.Params{
		Probe:          netmon.NewHTTPProbe(probeURL, cfg.Net.ProbeTimeout),
		Queue:          queueService,
		Sessions:       sessions,
		Logger:         logg,
		Interval:       cfg.Net.ProbeInterval,
		BackgroundWake: cfg.Sync.BackgroundWake,
	})

	syncEngine := engine.New(engine.Params{
		Queue:     queueService,
		Submitter: backend.NewRESTSubmitter(cfg.Backend, cfg.Sync, sessions),
		Sessions:  sessions,
		Conn:      monitor,
		Logger:    logg,
		Metrics:   queueMetrics,
	})
	monitor.Bind(syncEngine)

	go monitor.Run(ctx)

	addr := ":" + cfg.App.Port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"factory": cfg.Agent.FactoryID,
	})
	logg.Info(startCtx, "starting agent server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			Store:    storePinger,
			Queue:    queueService,
			Monitor:  monitor,
			Sessions: sessions,
			Bus:      bus,
			Registry: registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
		logg.Info(context.Background(), "agent stopped")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "agent server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
