package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"caseflow/internal/lifecycle/metrics"
	"caseflow/internal/lifecycle/ports"
	"caseflow/internal/lifecycle/service"
	casememory "caseflow/internal/lifecycle/store/memory"
	casepostgres "caseflow/internal/lifecycle/store/postgres"
	"caseflow/internal/outbox"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/kafka"
	"caseflow/internal/platform/logger"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/internal/projection"
	projmemory "caseflow/internal/projection/store/memory"
	"caseflow/internal/refdata"
	refmemory "caseflow/internal/refdata/store/memory"
	refredis "caseflow/internal/refdata/store/redis"
	"caseflow/internal/resolver"
	decmemory "caseflow/internal/resolver/store/memory"
	decpostgres "caseflow/internal/resolver/store/postgres"
	"caseflow/internal/timer"
	httptransport "caseflow/internal/transport/http"
	"caseflow/internal/validation"
	"caseflow/pkg/platform/middleware/auth"
)

// main wires dependencies and runs the server; business logic lives in the
// internal packages. Postgres, Redis and Kafka are each optional so a bare
// process still serves the full API from memory.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		caseStore     ports.CaseStore
		decisionStore ports.DecisionStore
		outboxStore   outbox.Store
		svcOpts       []service.Option
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		caseStore = casepostgres.New(db)
		decisionStore = decpostgres.New(db)
		outboxStore = outbox.NewPostgresStore(db)
		svcOpts = append(svcOpts, service.WithTxRunner(service.NewSQLTxRunner(db)))
		log.Info("using postgres stores")
	} else {
		caseStore = casememory.New()
		decisionStore = decmemory.New()
		outboxStore = outbox.NewMemoryStore()
		log.Warn("no database configured, state is in-memory only")
	}

	var source refdata.Source = refmemory.Seeded()
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		source = refredis.New(redisClient.Client, source, cfg.Redis.CacheTTL)
		log.Info("reference data cached in redis", "ttl", cfg.Redis.CacheTTL)
	}

	engine, err := validation.NewEngine(source)
	if err != nil {
		return fmt.Errorf("build validation engine: %w", err)
	}

	publisher := outbox.NewPublisher(outboxStore)
	timers := timer.NewManager(publisher,
		timer.WithTTL(cfg.MaterialExpiryTTL),
		timer.WithLogger(log),
	)
	defer timers.Shutdown()

	projStore := projmemory.New()

	svc, err := service.New(
		caseStore,
		decisionStore,
		publisher,
		engine,
		resolver.New(),
		append(svcOpts,
			service.WithLogger(log),
			service.WithMetrics(metrics.New()),
			service.WithTimerScheduler(timers),
			service.WithProjector(projection.NewProjector(projStore)),
		)...,
	)
	if err != nil {
		return fmt.Errorf("build lifecycle service: %w", err)
	}

	verifier := auth.NewVerifier(cfg.JWTSigningKey, cfg.JWTIssuer)
	handler := httptransport.NewHandler(svc, projStore, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, verifier, log))

	g, ctx := errgroup.WithContext(ctx)

	kafkaClient, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka.Topic); err != nil {
			return err
		}
		relay := outbox.NewRelay(outboxStore, kafkaClient, cfg.Kafka.Topic,
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithLogger(log),
		)
		g.Go(func() error { return relay.Run(ctx) })
		log.Info("outbox relay started", "topic", cfg.Kafka.Topic)
	} else {
		log.Warn("no kafka brokers configured, events stay in the outbox")
	}

	g.Go(func() error {
		log.Info("caseflow listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
