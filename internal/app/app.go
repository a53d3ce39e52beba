// Package app wires configuration, storage, the general ledger client and
// the services into a runnable unit shared by the server and the CLI.
package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/config"
	"github.com/prisonfinance/ledgersync/internal/database"
	"github.com/prisonfinance/ledgersync/internal/events"
	"github.com/prisonfinance/ledgersync/internal/generalledger"
	"github.com/prisonfinance/ledgersync/internal/handlers"
	"github.com/prisonfinance/ledgersync/internal/legacytime"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/reference"
	"github.com/prisonfinance/ledgersync/internal/repository"
	"github.com/prisonfinance/ledgersync/internal/services"
)

type App struct {
	Config   *config.Config
	Store    repository.Store
	Catalog  *reference.Catalog
	Ledger   services.GeneralLedger
	Registry *prometheus.Registry
	Metrics  *services.Metrics

	Sync           *services.SyncService
	Migration      *services.MigrationService
	Reconciliation *services.ReconciliationService
	Merge          *services.MergeService
	Forwarding     *services.ForwardingService

	redis   redis.Cmdable
	closers []func() error
}

// Build assembles the services around an already opened store. rdb may be
// nil, in which case no events are published or consumed.
func Build(cfg *config.Config, store repository.Store, ledger services.GeneralLedger, rdb redis.Cmdable) (*App, error) {
	if err := legacytime.SetZone(cfg.Ledger.LegacyTimeZone); err != nil {
		return nil, err
	}

	catalog, err := reference.Load(cfg.Ledger.CatalogPath)
	if err != nil {
		return nil, err
	}

	if ledger == nil {
		var opts []generalledger.Option
		if cfg.GeneralLedger.Token != "" {
			opts = append(opts, generalledger.WithBearerToken(cfg.GeneralLedger.Token))
		}
		ledger = generalledger.NewClient(cfg.GeneralLedger.URL, cfg.GeneralLedger.Timeout, opts...)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewMetrics(registry)

	var publisher services.EventPublisher
	if rdb != nil {
		publisher = events.NewPublisher(rdb, cfg.Queues.Transactions)
	}

	engine := services.NewPostingEngine(services.NewAccountResolver(catalog), publisher, metrics)
	migrationTypes := cfg.Ledger.MigrationTransactionTypes

	return &App{
		Config:         cfg,
		Store:          store,
		Catalog:        catalog,
		Ledger:         ledger,
		Registry:       registry,
		Metrics:        metrics,
		Sync:           services.NewSyncService(store, engine, metrics),
		Migration:      services.NewMigrationService(store, catalog, engine, ledger, migrationTypes, metrics),
		Reconciliation: services.NewReconciliationService(store, catalog, ledger),
		Merge:          services.NewMergeService(store, metrics),
		Forwarding:     services.NewForwardingService(ledger, catalog, migrationTypes, metrics),
		redis:          rdb,
	}, nil
}

// Open connects to Postgres and Redis and builds the App. The schema is
// created when missing.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	store := repository.NewPostgres(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// A nil *redis.Client must not become a non-nil interface.
	var rdb redis.Cmdable
	client := database.OpenRedis(ctx, cfg.Redis)
	if client != nil {
		rdb = client
	}

	a, err := Build(cfg, store, nil, rdb)
	if err != nil {
		closeAll(db, client)
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	if client != nil {
		a.closers = append(a.closers, client.Close)
	}
	return a, nil
}

func closeAll(db *sql.DB, client *redis.Client) {
	db.Close()
	if client != nil {
		client.Close()
	}
}

func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Consumer returns the event consumer, or nil when Redis is not available.
// Forwarding is registered only when the general ledger is enabled.
func (a *App) Consumer() *events.Consumer {
	if a.redis == nil {
		return nil
	}

	q := a.Config.Queues
	consumer := events.NewConsumer(a.redis, q.DeadLetter, q.Transactions, q.DomainEvents)
	consumer.Handle(models.EventPrisonerMerged, events.MergeHandler(a.Merge))
	if a.Config.GeneralLedger.Enabled {
		consumer.Handle(models.EventTransactionRecorded, events.ForwardingHandler(a.Forwarding))
	} else {
		log.Info().Msg("general ledger forwarding disabled")
	}
	return consumer
}

func (a *App) Router() http.Handler {
	return handlers.NewRouter(handlers.RouterConfig{
		Sync:           handlers.NewSyncHandler(a.Sync),
		Migration:      handlers.NewMigrationHandler(a.Migration),
		Reconciliation: handlers.NewReconciliationHandler(a.Reconciliation),
		Merge:          handlers.NewMergeHandler(a.Merge),
		JWTSecret:      a.Config.JWT.SecretKey,
		RequiredRole:   a.Config.JWT.RequiredRole,
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		RequestTimeout: a.Config.Server.WriteTimeout,
		Gatherer:       a.Registry,
	})
}
