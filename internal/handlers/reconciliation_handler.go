package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prisonfinance/ledgersync/internal/services"
)

// ReconciliationHandler serves read-only balance reports.
type ReconciliationHandler struct {
	service *services.ReconciliationService
}

func NewReconciliationHandler(service *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// ReconcilePrisoner returns a prisoner's balances per prison and account code
// @Summary Prisoner balances
// @Tags Reconciliation
// @Produce json
// @Security BearerAuth
// @Param prisonNumber path string true "Prisoner number"
// @Success 200 {array} models.EstablishmentBalance
// @Router /reconcile/prisoners/{prisonNumber} [get]
func (h *ReconciliationHandler) ReconcilePrisoner(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.ReconcilePrisoner(r.Context(), chi.URLParam(r, "prisonNumber"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, balances)
}

// ComparePrisonerWithGeneralLedger compares local and general ledger balances
// @Summary Prisoner general ledger comparison
// @Tags Reconciliation
// @Produce json
// @Security BearerAuth
// @Param prisonNumber path string true "Prisoner number"
// @Success 200 {object} models.ReconciliationReport
// @Failure 502 {object} services.ErrorResponse
// @Router /reconcile/prisoners/{prisonNumber}/general-ledger [get]
func (h *ReconciliationHandler) ComparePrisonerWithGeneralLedger(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CompareWithGeneralLedger(r.Context(), chi.URLParam(r, "prisonNumber"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, report)
}

// ReconcilePrison returns the balance of every account held at a prison
// @Summary Prison balances
// @Tags Reconciliation
// @Produce json
// @Security BearerAuth
// @Param prisonId path string true "Prison id"
// @Success 200 {array} models.AccountBalance
// @Router /reconcile/prisons/{prisonId} [get]
func (h *ReconciliationHandler) ReconcilePrison(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.ReconcilePrison(r.Context(), chi.URLParam(r, "prisonId"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, balances)
}

// ComparePrisonWithGeneralLedger compares prison account totals with the general ledger
// @Summary Prison general ledger comparison
// @Tags Reconciliation
// @Produce json
// @Security BearerAuth
// @Param prisonId path string true "Prison id"
// @Success 200 {object} models.PrisonReconciliationReport
// @Failure 502 {object} services.ErrorResponse
// @Router /reconcile/prisons/{prisonId}/general-ledger [get]
func (h *ReconciliationHandler) ComparePrisonWithGeneralLedger(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CompareGeneralLedgerForPrison(r.Context(), chi.URLParam(r, "prisonId"))
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, report)
}
