package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bloodbridge/internal/connectivity"
	"bloodbridge/internal/interceptor"
	"bloodbridge/internal/kv"
	"bloodbridge/internal/localstore"
	"bloodbridge/internal/localstore/store"
	"bloodbridge/internal/offline"
	"bloodbridge/internal/platform/config"
	"bloodbridge/internal/platform/httpserver"
	"bloodbridge/internal/platform/kafka"
	"bloodbridge/internal/platform/logger"
	"bloodbridge/internal/platform/metrics"
	"bloodbridge/internal/platform/middleware"
	"bloodbridge/internal/platform/postgres"
	redisplatform "bloodbridge/internal/platform/redis"
	"bloodbridge/internal/remote"
	"bloodbridge/internal/resourcecache"
	"bloodbridge/internal/synccoord"
	"bloodbridge/internal/syncevents"
	httptransport "bloodbridge/internal/transport/http"
)

// main wires high-level dependencies and keeps the process lifecycle small.
// Offline behaviour lives in the internal packages.
func main() {
	config.LoadDotEnv()
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bloodbridge stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := metrics.NewRegistry()
	checks := map[string]func(context.Context) error{}

	rc, err := redisplatform.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var kvStore kv.Store = kv.NewInMemoryStore()
	if rc != nil {
		defer rc.Close()
		kvStore = kv.NewRedisStore(rc.Client, kv.WithNamespace("bloodbridge:"+cfg.ClientID+":"))
		checks["redis"] = rc.Health
		log.Info("using redis cache backend")
	}

	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks["postgres"] = db.PingContext
	}

	cache := resourcecache.New(kvStore,
		resourcecache.WithTTL(cfg.CacheTTL),
		resourcecache.WithSchemaVersion(cfg.SchemaVersion),
		resourcecache.WithLogger(log),
	)
	if err := cache.Init(ctx); err != nil {
		// retried lazily on first use
		log.Warn("resource cache init failed", "error", err)
	}

	rules, err := interceptor.LoadRules(cfg.RulesPath)
	if err != nil {
		return err
	}
	responses := interceptor.NewResponseCache(kvStore, cfg.SchemaVersion)
	ic := interceptor.New(responses,
		interceptor.WithRules(rules),
		interceptor.WithTTL(cfg.CacheTTL),
		interceptor.WithLogger(log),
		interceptor.WithMetrics(interceptor.NewMetrics(reg)),
	)

	client := remote.NewClient(cfg.RemoteBaseURL,
		remote.WithTimeout(cfg.RemoteTimeout),
		remote.WithLogger(log),
	)
	monitor := connectivity.New(cfg.HealthEndpoint(),
		connectivity.WithInterval(cfg.ProbeInterval),
		connectivity.WithLogger(log),
	)

	coordOpts := []synccoord.Option{
		synccoord.WithLogger(log),
		synccoord.WithMetrics(synccoord.NewMetrics(reg)),
	}
	if rc != nil {
		coordOpts = append(coordOpts, synccoord.WithLease(synccoord.NewRedisLease(rc.Client)))
	}
	coord, err := synccoord.New(st, client, coordOpts...)
	if err != nil {
		return fmt.Errorf("sync coordinator: %w", err)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, kafka.WithLogger(log))
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			log.Warn("could not ensure sync events topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		detach := syncevents.NewSink(producer,
			syncevents.WithSource(cfg.ClientID),
			syncevents.WithLogger(log),
		).Attach(coord)
		defer detach()
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := producer.Flush(flushCtx); err != nil {
				log.Warn("kafka flush failed", "error", err)
			}
		}()
	}

	svc, err := offline.New(st, cache, client,
		offline.WithReader(client),
		offline.WithResponseCache(responses),
		offline.WithSyncer(coord),
		offline.WithConnectivity(monitor),
		offline.WithLogger(log),
		offline.WithMetrics(offline.NewMetrics(reg)),
	)
	if err != nil {
		return fmt.Errorf("offline service: %w", err)
	}

	target, err := url.Parse(cfg.RemoteBaseURL)
	if err != nil {
		return fmt.Errorf("parse remote base url: %w", err)
	}
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Handler:     httptransport.NewHandler(svc, monitor, log),
		Proxy:       httptransport.NewProxy(target, ic, log),
		Metrics:     metrics.Handler(reg),
		HTTPMetrics: middleware.NewHTTPMetrics(reg),
		Checks:      checks,
		Logger:      log,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})
	g.Go(func() error {
		return coord.Run(gctx, monitor.Restored())
	})
	g.Go(func() error {
		if _, err := svc.HydrateReferenceData(gctx, false); err != nil {
			log.Warn("initial reference data hydration incomplete", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting bloodbridge", "addr", cfg.Addr, "env", cfg.Env, "client_id", cfg.ClientID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		ic.Wait()
		return nil
	})
	return g.Wait()
}

// openStore picks the PostgreSQL store when DATABASE_URL is set and the
// in-memory store otherwise. db is nil for the in-memory store.
func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (localstore.Store, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, sync queue will not survive restarts")
		return store.NewInMemoryStore(), nil, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	version, err := store.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate local store: %w", err)
	}
	log.Info("local store ready", "backend", "postgres", "schema_version", version)
	return store.NewPostgres(db), db, nil
}
