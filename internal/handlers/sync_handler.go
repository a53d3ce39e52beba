package handlers

import (
	"net/http"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/services"
)

type SyncHandler struct {
	service   *services.SyncService
	validator *services.ValidationHelper
}

func NewSyncHandler(service *services.SyncService) *SyncHandler {
	return &SyncHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// SyncOffenderTransaction records a prisoner transaction from the legacy system
// @Summary Sync offender transaction
// @Description Posts a legacy prisoner transaction. Replays answer PROCESSED, changed bodies for a known transaction answer UPDATED
// @Tags Sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OffenderTransactionRequest true "Legacy offender transaction"
// @Success 201 {object} models.SyncResponse
// @Success 200 {object} models.SyncResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /sync/offender-transactions [post]
func (h *SyncHandler) SyncOffenderTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.OffenderTransactionRequest
	if !decodeBody(w, r, h.validator, &req, false) {
		return
	}
	h.sync(w, r, &req)
}

// SyncGeneralLedgerTransaction records a prison-level transaction from the legacy system
// @Summary Sync general ledger transaction
// @Tags Sync
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GeneralLedgerTransactionRequest true "Legacy general ledger transaction"
// @Success 201 {object} models.SyncResponse
// @Success 200 {object} models.SyncResponse
// @Failure 400 {object} services.ErrorResponse
// @Router /sync/general-ledger-transactions [post]
func (h *SyncHandler) SyncGeneralLedgerTransaction(w http.ResponseWriter, r *http.Request) {
	var req models.GeneralLedgerTransactionRequest
	if !decodeBody(w, r, h.validator, &req, false) {
		return
	}
	h.sync(w, r, &req)
}

func (h *SyncHandler) sync(w http.ResponseWriter, r *http.Request, req models.SyncRequest) {
	resp, err := h.service.Sync(r.Context(), req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	status := http.StatusOK
	if resp.Action == models.SyncActionCreated {
		status = http.StatusCreated
	}
	services.SendJSON(w, status, resp)
}
