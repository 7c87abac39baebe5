package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"foodtrust/internal/audit"
	"foodtrust/internal/audit/outbox"
	"foodtrust/internal/jwt_token"
	"foodtrust/internal/manufacturer"
	"foodtrust/internal/platform/config"
	"foodtrust/internal/platform/httpserver"
	"foodtrust/internal/platform/logger"
	"foodtrust/internal/platform/metrics"
	platformpg "foodtrust/internal/platform/postgres"
	platformredis "foodtrust/internal/platform/redis"
	"foodtrust/internal/registry"
	"foodtrust/internal/registry/cache"
	registrystore "foodtrust/internal/registry/store"
	httptransport "foodtrust/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		productStore registrystore.Store
		auditStore   audit.Store
		txRunner     registry.TxRunner
		relay        *outbox.Relay
	)

	if cfg.DatabaseURL != "" {
		db, err := platformpg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := platformpg.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}

		productStore = registrystore.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		txRunner = newRegistryPostgresTx(db)

		if len(cfg.Kafka.Brokers) > 0 {
			relay, err = outbox.NewRelay(db, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.PollInterval, log, m)
			if err != nil {
				log.Error("kafka connect failed", "error", err)
				os.Exit(1)
			}
			defer relay.Close()
			if err := relay.EnsureTopic(ctx); err != nil {
				log.Error("audit topic setup failed", "error", err)
				os.Exit(1)
			}
		} else {
			log.Warn("no kafka brokers configured, audit events stay database-only")
		}
	} else {
		// Reachable only with the explicit FOODTRUST_IN_MEMORY opt-in.
		log.Warn("running on in-memory stores, records and audit events will not survive restart")
		productStore = registrystore.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		txRunner = registry.NoopTxRunner{}
	}

	auditor := audit.NewPublisher(auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(m),
	)

	var serviceOpts []registry.ServiceOption
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		serviceOpts = append(serviceOpts, registry.WithCache(cache.New(redisClient.Client, cfg.RecordCacheTTL)))
	}

	registrySvc := registry.NewService(productStore, auditor, txRunner, log, m, serviceOpts...)
	credentials := manufacturer.NewCredentialStore(cfg.ManufacturerCredentials)
	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenTTL)

	handler := httptransport.NewHandler(registrySvc, credentials, tokens, log)
	router := httptransport.NewRouter(handler, log, m, tokens)
	srv := httpserver.New(cfg.Addr, router, cfg.HTTP)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting foodtrust registry", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if relay != nil {
		group.Go(func() error {
			log.Info("starting audit outbox relay", "topic", cfg.Kafka.Topic)
			if err := relay.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
