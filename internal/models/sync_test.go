package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/legacytime"
)

const offenderBody = `{
  "transactionId": 19228028,
  "requestId": "a1b2c3d4-0000-4000-8000-000000000001",
  "caseloadId": "MDI",
  "transactionTimestamp": "2024-06-18T14:30:00",
  "createdAt": "2024-06-18T14:30:01",
  "createdBy": "JD12345",
  "createdByDisplayName": "J Doe",
  "offenderTransactions": [
    {
      "entrySequence": 1,
      "offenderId": 1015388,
      "offenderDisplayId": "AA001AA",
      "offenderBookingId": 455987,
      "subAccountType": "REG",
      "postingType": "CR",
      "type": "OT",
      "description": "Sub-Account Transfer",
      "amount": 162.00,
      "generalLedgerEntries": [
        {"entrySequence": 1, "code": 2101, "postingType": "DR", "amount": 162.00},
        {"entrySequence": 2, "code": 2102, "postingType": "CR", "amount": 162.00}
      ]
    },
    {
      "entrySequence": 2,
      "offenderId": 1015388,
      "offenderDisplayId": "AA001AA",
      "subAccountType": "SPND",
      "postingType": "CR",
      "type": "NOTE",
      "description": "audit only",
      "amount": 0,
      "generalLedgerEntries": []
    }
  ]
}`

func TestOffenderTransactionRequest_Postings(t *testing.T) {
	var req OffenderTransactionRequest
	require.NoError(t, json.Unmarshal([]byte(offenderBody), &req))

	syncID := uuid.New()
	drafts := req.Postings(syncID)

	require.Len(t, drafts, 1)
	d := drafts[0]
	assert.Equal(t, "OT", d.Header.TransactionType)
	assert.Equal(t, "MDI", d.Header.PrisonCode)
	assert.Equal(t, syncID, d.Header.SynchronizedTransactionID)
	assert.Equal(t, int64(19228028), *d.Header.LegacyTransactionID)
	assert.Equal(t, time.Date(2024, time.June, 18, 13, 30, 0, 0, time.UTC), d.Header.Timestamp)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, "AA001AA", d.Lines[0].PrisonerNumber)
	assert.Equal(t, 2101, d.Lines[0].AccountCode)
	assert.True(t, decimal.NewFromInt(162).Equal(d.Lines[1].Amount))
}

func TestGeneralLedgerTransactionRequest_Postings(t *testing.T) {
	req := &GeneralLedgerTransactionRequest{
		TransactionID:        7,
		RequestID:            uuid.New(),
		CaseloadID:           "LEI",
		TransactionType:      "GJ",
		TransactionTimestamp: legacytime.NewLocalDateTime(2024, time.January, 2, 8, 0, 0),
		GeneralLedgerEntries: []GeneralLedgerEntry{
			{EntrySequence: 1, Code: 1501, PostingType: PostingDebit, Amount: decimal.NewFromInt(45)},
			{EntrySequence: 2, Code: 2501, PostingType: PostingCredit, Amount: decimal.NewFromInt(45)},
		},
	}

	drafts := req.Postings(uuid.New())
	require.Len(t, drafts, 1)
	assert.Len(t, drafts[0].Lines, 2)
	assert.Empty(t, drafts[0].Lines[0].PrisonerNumber)
	assert.Equal(t, time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC), drafts[0].Header.Timestamp)
}

func TestDecodeSyncRequest(t *testing.T) {
	req, err := DecodeSyncRequest(KindOffenderTransaction, []byte(offenderBody))
	require.NoError(t, err)
	assert.Equal(t, KindOffenderTransaction, req.Kind())
	assert.Equal(t, int64(19228028), req.LegacyID())
	assert.Equal(t, "MDI", req.Caseload())

	_, err = DecodeSyncRequest("SOMETHING_ELSE", []byte(`{}`))
	assert.Error(t, err)
}

func TestAccountClassification_NaturalSide(t *testing.T) {
	assert.Equal(t, PostingDebit, ClassificationAsset.NaturalSide())
	assert.Equal(t, PostingDebit, ClassificationDisbursement.NaturalSide())
	assert.Equal(t, PostingCredit, ClassificationLiability.NaturalSide())
	assert.Equal(t, PostingCredit, ClassificationReceipt.NaturalSide())
}
