package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/models"
)

func validGeneralLedgerRequest() models.GeneralLedgerTransactionRequest {
	return models.GeneralLedgerTransactionRequest{
		TransactionID:   101,
		RequestID:       uuid.New(),
		CaseloadID:      "MDI",
		TransactionType: "GJ",
		CreatedBy:       "JD12345",
		GeneralLedgerEntries: []models.GeneralLedgerEntry{
			{EntrySequence: 1, Code: 1501, PostingType: models.PostingDebit, Amount: decimal.RequireFromString("45.00")},
			{EntrySequence: 2, Code: 2501, PostingType: models.PostingCredit, Amount: decimal.RequireFromString("45.00")},
		},
	}
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid request", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("missing request id and caseload", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		req.RequestID = uuid.Nil
		req.CaseloadID = ""

		err := vh.ValidateStruct(&req)
		require.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		require.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("three decimal places", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		req.GeneralLedgerEntries[0].Amount = decimal.RequireFromString("45.001")

		err := vh.ValidateStruct(&req)
		require.Error(t, err)
		validationErrors := err.(validator.ValidationErrors)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "money2dp", validationErrors[0].Tag())
	})

	t.Run("amount beyond ledger range", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		req.GeneralLedgerEntries[0].Amount = decimal.RequireFromString("184467440737095517.16")

		err := vh.ValidateStruct(&req)
		require.Error(t, err)
		validationErrors := err.(validator.ValidationErrors)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "money2dp", validationErrors[0].Tag())
	})

	t.Run("negative amount", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		req.GeneralLedgerEntries[1].Amount = decimal.RequireFromString("-1")

		err := vh.ValidateStruct(&req)
		require.Error(t, err)
		validationErrors := err.(validator.ValidationErrors)
		require.Len(t, validationErrors, 1)
		assert.Equal(t, "nonnegative", validationErrors[0].Tag())
	})

	t.Run("bad posting type", func(t *testing.T) {
		req := validGeneralLedgerRequest()
		req.GeneralLedgerEntries[1].PostingType = "XX"
		assert.Error(t, vh.ValidateStruct(&req))
	})

	t.Run("negative migrated balance is allowed", func(t *testing.T) {
		req := models.PrisonerBalancesRequest{AccountBalances: []models.PrisonerAccountBalance{
			{PrisonID: "MDI", AccountCode: 2101, Balance: decimal.RequireFromString("-3.20")},
		}}
		assert.NoError(t, vh.ValidateStruct(&req))
	})
}

func TestSendErrorResponse(t *testing.T) {
	t.Run("with validation errors", func(t *testing.T) {
		vh := NewValidationHelper()
		req := validGeneralLedgerRequest()
		req.CaseloadID = ""
		validationErr := vh.ValidateStruct(&req)

		w := httptest.NewRecorder()
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, validationErr)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Validation failed", response.Error)
		assert.Contains(t, response.Details, "GeneralLedgerTransactionRequest.CaseloadID")
	})

	t.Run("without validation errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		SendErrorResponse(w, "Internal error", http.StatusInternalServerError, nil)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Internal error", response.Error)
		assert.Nil(t, response.Details)
	})
}
