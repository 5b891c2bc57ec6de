// cmd/api/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/domain/pricing"
	"github.com/undercontrol/storefront/internal/domain/session"
	"github.com/undercontrol/storefront/internal/infrastructure/database/postgres"
	"github.com/undercontrol/storefront/internal/infrastructure/database/redis"
	"github.com/undercontrol/storefront/internal/infrastructure/storage"
	apihttp "github.com/undercontrol/storefront/internal/interfaces/http"
	"github.com/undercontrol/storefront/internal/interfaces/http/routes"
	"github.com/undercontrol/storefront/internal/pkg/auth"
	"github.com/undercontrol/storefront/internal/pkg/email"
	"github.com/undercontrol/storefront/internal/pkg/logger"
	"github.com/undercontrol/storefront/internal/pkg/money"
	"github.com/undercontrol/storefront/internal/pkg/pdf"
)

func main() {
	resetStorage := flag.Bool("reset-storage", false, "drop and recreate the postgres storage table before starting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("Starting storefront")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalogue.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalogue.Load(cfg.Catalog.Path)
		if err != nil {
			log.WithError(err).Fatal("Failed to load catalogue")
		}
	}

	stores, err := openStorage(ctx, cfg, log, *resetStorage)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer stores.store.Close()

	policy := pricing.ShippingPolicy{
		FreeThreshold: money.Cents(cfg.Shipping.FreeThresholdCents),
		FlatFee:       money.Cents(cfg.Shipping.FlatFeeCents),
	}
	assembler := order.NewAssembler(cat, policy)

	mailer := email.NewEmailService(cfg, log)
	if !mailer.IsConfigured() {
		log.WithField("provider", cfg.External.Email.Provider).Warn("Email provider is not configured; order submission will fail")
	}

	submitter := newSubmitter(cfg, mailer, log)

	registry := session.NewRegistry(session.Options{
		Backend:       stores.store,
		Catalogue:     cat,
		Assembler:     assembler,
		Submitter:     submitter,
		SubmitTimeout: cfg.Checkout.SubmitTimeout,
		Logger:        log,
	})
	go registry.RunJanitor(ctx, time.Minute, cfg.Session.IdleEvict)

	server := apihttp.NewServer(cfg, routes.Dependencies{
		Catalogue: cat,
		Assembler: assembler,
		Registry:  registry,
		Tokens:    auth.NewSessionTokens(cfg),
		Mailer:    mailer,
		PDF:       pdf.NewService(cfg),
		Storage:   stores.store,
		Redis:     stores.redis,
		Logger:    log,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	log.Info("Server shutdown completed")
}

type backends struct {
	store storage.Backend
	// redis is set when the redis driver is in use and backs rate limiting
	redis *goredis.Client
}

// openStorage connects the configured cart storage driver
func openStorage(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, reset bool) (backends, error) {
	switch cfg.Storage.Driver {
	case "file":
		file, err := storage.NewFile(cfg.Storage.FilePath)
		if err != nil {
			return backends{}, err
		}
		log.WithField("path", cfg.Storage.FilePath).Info("Using file storage")
		return backends{store: file}, nil

	case "redis":
		client, err := redis.NewConnection(cfg, log)
		if err != nil {
			return backends{}, err
		}
		return backends{store: client, redis: client.GetClient()}, nil

	case "postgres":
		db, err := postgres.NewConnection(cfg, log)
		if err != nil {
			return backends{}, err
		}

		migration := postgres.NewMigration(db.GetDB(), log)
		if reset {
			if err := migration.DropAllTables(); err != nil {
				return backends{}, fmt.Errorf("failed to reset storage: %w", err)
			}
		}
		if err := migration.RunAutoMigrations(); err != nil {
			return backends{}, fmt.Errorf("database migration failed: %w", err)
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}

		store := postgres.NewStore(db.GetDB(), cfg.Storage.TTL)
		go purgeExpired(ctx, store, log)
		return backends{store: store}, nil

	default:
		log.Info("Using in-memory storage; carts are lost on restart")
		return backends{store: storage.NewMemory()}, nil
	}
}

// purgeExpired removes expired postgres entries every hour
func purgeExpired(ctx context.Context, store *postgres.Store, log logrus.FieldLogger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Warn("Failed to purge expired storage entries")
				continue
			}
			if n > 0 {
				log.WithField("removed", n).Info("Purged expired storage entries")
			}
		}
	}
}

// newSubmitter posts to a remote order endpoint when one is configured and
// calls the mailer in-process otherwise
func newSubmitter(cfg *config.Config, mailer *email.EmailService, log logrus.FieldLogger) checkout.Submitter {
	if url := cfg.Checkout.OrderEndpointURL; url != "" {
		log.WithField("endpoint", url).Info("Submitting orders to remote endpoint")
		return checkout.NewHTTPSubmitter(url, &http.Client{Timeout: cfg.Checkout.SubmitTimeout})
	}
	return checkout.NewDirectSubmitter(mailer)
}
