package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/prisonfinance/ledgersync/docs"
	mW "github.com/prisonfinance/ledgersync/internal/middleware"
	"github.com/prisonfinance/ledgersync/internal/services"
)

type RouterConfig struct {
	Sync           *SyncHandler
	Migration      *MigrationHandler
	Reconciliation *ReconciliationHandler
	Merge          *MergeHandler

	JWTSecret      string
	RequiredRole   string
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		services.SendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mW.RequireRole(cfg.JWTSecret, cfg.RequiredRole))

		r.Post("/sync/offender-transactions", cfg.Sync.SyncOffenderTransaction)
		r.Post("/sync/general-ledger-transactions", cfg.Sync.SyncGeneralLedgerTransaction)

		r.Post("/migrate/prisoner-balances/{prisonNumber}", cfg.Migration.MigratePrisonerBalances)
		r.Post("/migrate/general-ledger-balances/{prisonId}", cfg.Migration.MigrateGeneralLedgerBalances)

		r.Get("/reconcile/prisoners/{prisonNumber}", cfg.Reconciliation.ReconcilePrisoner)
		r.Get("/reconcile/prisoners/{prisonNumber}/general-ledger", cfg.Reconciliation.ComparePrisonerWithGeneralLedger)
		r.Get("/reconcile/prisons/{prisonId}", cfg.Reconciliation.ReconcilePrison)
		r.Get("/reconcile/prisons/{prisonId}/general-ledger", cfg.Reconciliation.ComparePrisonWithGeneralLedger)

		r.Post("/merge", cfg.Merge.Merge)
	})

	return r
}
