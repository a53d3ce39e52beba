package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/middleware"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/services"
)

type MergeHandler struct {
	service   *services.MergeService
	validator *services.ValidationHelper
}

func NewMergeHandler(service *services.MergeService) *MergeHandler {
	return &MergeHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// Merge folds a removed prisoner number into the surviving one
// @Summary Merge prisoner accounts
// @Description Operator-triggered merge, identical to handling a prisoner.merged event. Safe to repeat
// @Tags Merge
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.MergeRequest true "Merge request"
// @Success 200 {object} models.MergeResult
// @Failure 400 {object} services.ErrorResponse
// @Router /merge [post]
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req models.MergeRequest
	if !decodeBody(w, r, h.validator, &req, true) {
		return
	}

	log.Info().
		Str("principal", middleware.Principal(r.Context())).
		Str("from", req.RemovedPrisonerNumber).
		Str("to", req.SurvivingPrisonerNumber).
		Msg("merge requested")

	result, err := h.service.MergeAccounts(r.Context(), req.RemovedPrisonerNumber, req.SurvivingPrisonerNumber)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	services.SendJSON(w, http.StatusOK, result)
}
