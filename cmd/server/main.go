// Command server runs the NADA wallet service: the transaction guard,
// exchange API, and audit trail behind a single HTTP listener.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"nadawallet/internal/account"
	accountstore "nadawallet/internal/account/store"
	"nadawallet/internal/audit"
	"nadawallet/internal/audit/publisher"
	auditstore "nadawallet/internal/audit/store"
	"nadawallet/internal/exchange"
	exchangehandler "nadawallet/internal/exchange/handler"
	"nadawallet/internal/guard"
	guardmetrics "nadawallet/internal/guard/metrics"
	"nadawallet/internal/guard/ports"
	"nadawallet/internal/jwtauth"
	"nadawallet/internal/ledger"
	ledgerstore "nadawallet/internal/ledger/store"
	"nadawallet/internal/platform/config"
	"nadawallet/internal/platform/httpserver"
	"nadawallet/internal/platform/logger"
	platformmetrics "nadawallet/internal/platform/metrics"
	"nadawallet/internal/platform/postgres"
	platformredis "nadawallet/internal/platform/redis"
	httptransport "nadawallet/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var (
		accounts    account.Store
		ledgerStore ledger.Store
		auditStore  audit.Store
		counter     ports.ExchangeCounter
		health      = map[string]httptransport.HealthChecker{}
	)

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}

		accounts = accountstore.NewPostgresStore(db)
		pgLedger := ledgerstore.NewPostgresStore(db)
		ledgerStore = pgLedger
		counter = pgLedger
		auditStore = auditstore.NewPostgresStore(db)
		health["postgres"] = dbHealth{db}
	} else {
		// No database configured: run everything in memory for local
		// development.
		log.Warn("no database configured, using in-memory stores")
		accounts = accountstore.NewMemoryStore()
		memLedger := ledgerstore.NewMemoryStore()
		ledgerStore = memLedger
		counter = memLedger
		auditStore = auditstore.NewMemoryStore()
	}

	var velocity exchange.VelocityRecorder
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		index := ledgerstore.NewRedisVelocityIndex(redisClient.Client)
		counter = index
		velocity = index
		health["redis"] = redisClient
		log.Info("redis velocity index enabled")
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := publisher.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer kafkaPub.Close()
		go kafkaPub.Run(ctx)
		auditOpts = append(auditOpts, audit.WithSink(kafkaPub))
		log.Info("kafka audit fan-out enabled", "topic", cfg.Kafka.Topic)
	}
	trail := audit.NewLogger(auditStore, auditOpts...)

	guardSvc, err := guard.New(counter, accounts, trail,
		guard.WithLogger(log),
		guard.WithMetrics(guardmetrics.New()),
	)
	if err != nil {
		return err
	}

	exchangeOpts := []exchange.Option{
		exchange.WithLogger(log),
		exchange.WithDenySuspicious(cfg.DenySuspicious),
	}
	if velocity != nil {
		exchangeOpts = append(exchangeOpts, exchange.WithVelocityRecorder(velocity))
	}
	exchangeSvc, err := exchange.New(accounts, ledgerStore, guardSvc, trail, exchangeOpts...)
	if err != nil {
		return err
	}

	if cfg.UsingDefaultJWTKey() {
		log.Warn("JWT_SIGNING_KEY is unset, using the development signing key; do not run this in production")
	}
	jwtService := jwtauth.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: jwtauth.NewMiddlewareAdapter(jwtService),
		Wallet:    exchangehandler.New(exchangeSvc, log),
		Metrics:   platformmetrics.NewHTTP(),
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting nada wallet service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
