package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/legacytime"
)

// RequestKind discriminates the stored body of a sync payload.
type RequestKind string

const (
	KindOffenderTransaction      RequestKind = "OFFENDER_TRANSACTION"
	KindGeneralLedgerTransaction RequestKind = "GENERAL_LEDGER_TRANSACTION"
)

// SyncRequest is implemented by every request the legacy system can push.
type SyncRequest interface {
	Kind() RequestKind
	IdempotencyKey() uuid.UUID
	LegacyID() int64
	Caseload() string
	BusinessTime() legacytime.LocalDateTime
	// Postings converts the request into balanced posting drafts.
	Postings(synchronizedID uuid.UUID) []PostingDraft
}

// GeneralLedgerEntry is one line of a legacy general ledger posting.
type GeneralLedgerEntry struct {
	EntrySequence int             `json:"entrySequence" validate:"gte=1"`
	Code          int             `json:"code" validate:"required"`
	PostingType   PostingType     `json:"postingType" validate:"required,oneof=DR CR"`
	Amount        decimal.Decimal `json:"amount" validate:"money2dp,nonnegative"`
}

// OffenderTransaction is a single prisoner-facing movement within a request.
type OffenderTransaction struct {
	EntrySequence        int                  `json:"entrySequence" validate:"gte=1"`
	OffenderID           int64                `json:"offenderId"`
	OffenderDisplayID    string               `json:"offenderDisplayId" validate:"required"`
	OffenderBookingID    *int64               `json:"offenderBookingId,omitempty"`
	SubAccountType       string               `json:"subAccountType" validate:"required,oneof=REG SPND SAV"`
	PostingType          PostingType          `json:"postingType" validate:"required,oneof=DR CR"`
	Type                 string               `json:"type" validate:"required"`
	Description          string               `json:"description"`
	Amount               decimal.Decimal      `json:"amount" validate:"money2dp,nonnegative"`
	Reference            *string              `json:"reference,omitempty"`
	GeneralLedgerEntries []GeneralLedgerEntry `json:"generalLedgerEntries" validate:"dive"`
}

// OffenderTransactionRequest groups the prisoner movements of one legacy transaction.
type OffenderTransactionRequest struct {
	TransactionID             int64                     `json:"transactionId" validate:"required,gt=0"`
	RequestID                 uuid.UUID                 `json:"requestId" validate:"required"`
	CaseloadID                string                    `json:"caseloadId" validate:"required"`
	TransactionTimestamp      legacytime.LocalDateTime  `json:"transactionTimestamp"`
	CreatedAt                 legacytime.LocalDateTime  `json:"createdAt"`
	CreatedBy                 string                    `json:"createdBy" validate:"required"`
	CreatedByDisplayName      string                    `json:"createdByDisplayName"`
	LastModifiedAt            *legacytime.LocalDateTime `json:"lastModifiedAt,omitempty"`
	LastModifiedBy            *string                   `json:"lastModifiedBy,omitempty"`
	LastModifiedByDisplayName *string                   `json:"lastModifiedByDisplayName,omitempty"`
	OffenderTransactions      []OffenderTransaction     `json:"offenderTransactions" validate:"required,min=1,dive"`
}

func (r *OffenderTransactionRequest) Kind() RequestKind { return KindOffenderTransaction }
func (r *OffenderTransactionRequest) IdempotencyKey() uuid.UUID { return r.RequestID }
func (r *OffenderTransactionRequest) LegacyID() int64 { return r.TransactionID }
func (r *OffenderTransactionRequest) Caseload() string { return r.CaseloadID }
func (r *OffenderTransactionRequest) BusinessTime() legacytime.LocalDateTime { return r.TransactionTimestamp }

// Postings returns one draft per offender transaction that carries general
// ledger entries. Items without entries are kept only in the audit payload.
func (r *OffenderTransactionRequest) Postings(synchronizedID uuid.UUID) []PostingDraft {
	legacyID := r.TransactionID
	drafts := make([]PostingDraft, 0, len(r.OffenderTransactions))
	for _, item := range r.OffenderTransactions {
		if len(item.GeneralLedgerEntries) == 0 {
			continue
		}
		lines := make([]EntryLine, 0, len(item.GeneralLedgerEntries))
		for _, gl := range item.GeneralLedgerEntries {
			lines = append(lines, EntryLine{
				EntrySequence:  gl.EntrySequence,
				AccountCode:    gl.Code,
				PrisonerNumber: item.OffenderDisplayID,
				PostingType:    gl.PostingType,
				Amount:         gl.Amount,
			})
		}
		drafts = append(drafts, PostingDraft{
			Header: TransactionHeader{
				TransactionType:           item.Type,
				Description:               item.Description,
				Timestamp:                 legacytime.ToUTCInstant(r.TransactionTimestamp),
				LegacyTransactionID:       &legacyID,
				SynchronizedTransactionID: synchronizedID,
				PrisonCode:                r.CaseloadID,
			},
			Lines: lines,
		})
	}
	return drafts
}

// GeneralLedgerTransactionRequest is a prison-level posting with no prisoner involved.
type GeneralLedgerTransactionRequest struct {
	TransactionID             int64                     `json:"transactionId" validate:"required,gt=0"`
	RequestID                 uuid.UUID                 `json:"requestId" validate:"required"`
	Description               string                    `json:"description"`
	Reference                 *string                   `json:"reference,omitempty"`
	CaseloadID                string                    `json:"caseloadId" validate:"required"`
	TransactionType           string                    `json:"transactionType" validate:"required"`
	TransactionTimestamp      legacytime.LocalDateTime  `json:"transactionTimestamp"`
	CreatedAt                 legacytime.LocalDateTime  `json:"createdAt"`
	CreatedBy                 string                    `json:"createdBy" validate:"required"`
	CreatedByDisplayName      string                    `json:"createdByDisplayName"`
	LastModifiedAt            *legacytime.LocalDateTime `json:"lastModifiedAt,omitempty"`
	LastModifiedBy            *string                   `json:"lastModifiedBy,omitempty"`
	LastModifiedByDisplayName *string                   `json:"lastModifiedByDisplayName,omitempty"`
	GeneralLedgerEntries      []GeneralLedgerEntry      `json:"generalLedgerEntries" validate:"required,min=1,dive"`
}

func (r *GeneralLedgerTransactionRequest) Kind() RequestKind { return KindGeneralLedgerTransaction }
func (r *GeneralLedgerTransactionRequest) IdempotencyKey() uuid.UUID { return r.RequestID }
func (r *GeneralLedgerTransactionRequest) LegacyID() int64 { return r.TransactionID }
func (r *GeneralLedgerTransactionRequest) Caseload() string { return r.CaseloadID }
func (r *GeneralLedgerTransactionRequest) BusinessTime() legacytime.LocalDateTime {
	return r.TransactionTimestamp
}

func (r *GeneralLedgerTransactionRequest) Postings(synchronizedID uuid.UUID) []PostingDraft {
	legacyID := r.TransactionID
	lines := make([]EntryLine, 0, len(r.GeneralLedgerEntries))
	for _, gl := range r.GeneralLedgerEntries {
		lines = append(lines, EntryLine{
			EntrySequence: gl.EntrySequence,
			AccountCode:   gl.Code,
			PostingType:   gl.PostingType,
			Amount:        gl.Amount,
		})
	}
	return []PostingDraft{{
		Header: TransactionHeader{
			TransactionType:           r.TransactionType,
			Description:               r.Description,
			Timestamp:                 legacytime.ToUTCInstant(r.TransactionTimestamp),
			LegacyTransactionID:       &legacyID,
			SynchronizedTransactionID: synchronizedID,
			PrisonCode:                r.CaseloadID,
		},
		Lines: lines,
	}}
}

// DecodeSyncRequest rebuilds a typed request from a stored payload body.
func DecodeSyncRequest(kind RequestKind, body []byte) (SyncRequest, error) {
	var req SyncRequest
	switch kind {
	case KindOffenderTransaction:
		req = &OffenderTransactionRequest{}
	case KindGeneralLedgerTransaction:
		req = &GeneralLedgerTransactionRequest{}
	default:
		return nil, fmt.Errorf("unknown request kind %q", kind)
	}
	if err := json.Unmarshal(body, req); err != nil {
		return nil, fmt.Errorf("decode %s body: %w", kind, err)
	}
	return req, nil
}

// SyncPayload is the audit record of a received sync request.
type SyncPayload struct {
	ID                        int64           `json:"id" db:"id"`
	Timestamp                 time.Time       `json:"timestamp" db:"timestamp"`
	LegacyTransactionID       *int64          `json:"legacyTransactionId,omitempty" db:"legacy_transaction_id"`
	SynchronizedTransactionID uuid.UUID       `json:"synchronizedTransactionId" db:"synchronized_transaction_id"`
	RequestID                 uuid.UUID       `json:"requestId" db:"request_id"`
	CaseloadID                string          `json:"caseloadId" db:"caseload_id"`
	RequestTypeIdentifier     RequestKind     `json:"requestTypeIdentifier" db:"request_type_identifier"`
	TransactionTimestamp      time.Time       `json:"transactionTimestamp" db:"transaction_timestamp"`
	Body                      json.RawMessage `json:"body" db:"body"`
}

// SyncAction tells the caller what a sync call did.
type SyncAction string

const (
	SyncActionCreated   SyncAction = "CREATED"
	SyncActionUpdated   SyncAction = "UPDATED"
	SyncActionProcessed SyncAction = "PROCESSED"
)

// SyncResponse is returned for every accepted sync request.
type SyncResponse struct {
	SynchronizedTransactionID uuid.UUID  `json:"synchronizedTransactionId"`
	Action                    SyncAction `json:"action"`
}
