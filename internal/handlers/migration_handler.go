package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/services"
)

type MigrationHandler struct {
	service   *services.MigrationService
	validator *services.ValidationHelper
}

func NewMigrationHandler(service *services.MigrationService) *MigrationHandler {
	return &MigrationHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// MigratePrisonerBalances loads a prisoner's legacy balances
// @Summary Migrate prisoner balances
// @Description Adjusts local balances to the legacy figures with opening balance postings and pushes statement balances to the general ledger
// @Tags Migration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param prisonNumber path string true "Prisoner number"
// @Param request body models.PrisonerBalancesRequest true "Legacy balances"
// @Success 200 {object} models.MigrationResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /migrate/prisoner-balances/{prisonNumber} [post]
func (h *MigrationHandler) MigratePrisonerBalances(w http.ResponseWriter, r *http.Request) {
	prisonNumber := chi.URLParam(r, "prisonNumber")

	var req models.PrisonerBalancesRequest
	if !decodeBody(w, r, h.validator, &req, true) {
		return
	}

	result, err := h.service.MigratePrisonerBalances(r.Context(), prisonNumber, req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, result)
}

// MigrateGeneralLedgerBalances loads a prison's legacy account balances
// @Summary Migrate general ledger balances
// @Tags Migration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param prisonId path string true "Prison id"
// @Param request body models.GeneralLedgerBalancesRequest true "Legacy balances"
// @Success 200 {object} models.MigrationResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 502 {object} services.ErrorResponse
// @Router /migrate/general-ledger-balances/{prisonId} [post]
func (h *MigrationHandler) MigrateGeneralLedgerBalances(w http.ResponseWriter, r *http.Request) {
	prisonID := chi.URLParam(r, "prisonId")

	var req models.GeneralLedgerBalancesRequest
	if !decodeBody(w, r, h.validator, &req, true) {
		return
	}

	result, err := h.service.MigrateGeneralLedgerBalances(r.Context(), prisonID, req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, result)
}
