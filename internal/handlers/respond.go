package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/services"
)

const maxBodyBytes = 1_048_576

// decodeBody reads a single JSON object into dst and validates it. It writes
// the error response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v *services.ValidationHelper, dst any, strict bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := v.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// sendServiceError maps domain failures onto HTTP status codes.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case models.IsClientError(err):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case models.IsRemoteError(err):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("general ledger call failed")
		services.SendErrorResponse(w, err.Error(), http.StatusBadGateway, nil)
	case errors.Is(err, r.Context().Err()):
		services.SendErrorResponse(w, "Request cancelled", http.StatusServiceUnavailable, nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
