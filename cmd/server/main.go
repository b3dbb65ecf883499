package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"vismooc/internal/auth"
	"vismooc/internal/mooc/service"
	moocstore "vismooc/internal/mooc/store"
	"vismooc/internal/passport"
	"vismooc/internal/platform/config"
	"vismooc/internal/platform/httpserver"
	"vismooc/internal/platform/logger"
	"vismooc/internal/platform/metrics"
	platformredis "vismooc/internal/platform/redis"
	"vismooc/internal/session"
	httptransport "vismooc/internal/transport/http"
	"vismooc/pkg/platform/audit"
	auditpublisher "vismooc/pkg/platform/audit/publisher"
	auditworker "vismooc/pkg/platform/audit/worker"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}

	var sessionStore session.Store
	if redisClient != nil {
		sessionStore = session.NewRedisStore(redisClient.Client)
	} else {
		log.Warn("redis not configured, sessions are in-memory")
		sessionStore = session.NewMemoryStore()
	}

	var dataStore moocstore.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Postgres.URL)
		if err != nil {
			log.Error("postgres setup failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		dataStore = moocstore.NewPostgres(pool)
	} else {
		log.Warn("postgres not configured, course data is in-memory")
		dataStore = moocstore.NewInMemory()
	}

	var auditStore audit.Store
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := auditpublisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka setup failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditStore = kafka
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	events := make(chan audit.Event, 256)

	m := metrics.New()
	moocService := service.New(dataStore)
	provider := auth.NewProvider(moocService, events, m)

	authnOpts := []passport.Option{passport.WithLogger(log)}
	if cfg.TrustProxy {
		authnOpts = append(authnOpts, passport.WithTrustProxy())
	}
	authn := passport.New(authnOpts...)
	strategy, err := provider.Strategy(cfg.OAuth)
	if err != nil {
		log.Error("oauth strategy setup failed", "error", err)
		os.Exit(1)
	}
	if err := provider.Register(authn, strategy); err != nil {
		log.Error("strategy registration failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Log:     log,
		Metrics: m,
		Sessions: session.Middleware(sessionStore, log, session.Options{
			SigningKey: []byte(cfg.JWTSigningKey),
			TTL:        cfg.SessionTTL,
			Secure:     cfg.TrustProxy,
		}),
		Authn:    authn,
		Provider: provider,
		Data:     moocService,
		Cache:    redisClient,
		Events:   events,
	})

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditworker.New(auditStore, events).Run(ctx)
	})
	group.Go(func() error {
		log.Info("starting vismooc", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
