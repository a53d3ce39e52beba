package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReversalTransactionType marks the transaction that cancels earlier postings of a corrected request.
const ReversalTransactionType = "REV"

// Transaction is the header of a single accounting event.
type Transaction struct {
	ID                        uuid.UUID `json:"id" db:"id"`
	TransactionType           string    `json:"transactionType" db:"transaction_type"`
	Description               string    `json:"description" db:"description"`
	Timestamp                 time.Time `json:"timestamp" db:"timestamp"`
	LegacyTransactionID       *int64    `json:"legacyTransactionId,omitempty" db:"legacy_transaction_id"`
	SynchronizedTransactionID uuid.UUID `json:"synchronizedTransactionId" db:"synchronized_transaction_id"`
	PrisonCode                string    `json:"prisonCode" db:"prison_code"`
	CreatedAt                 time.Time `json:"createdAt" db:"created_at"`
}

// TransactionHeader carries everything needed to create a Transaction
// except the generated identifiers.
type TransactionHeader struct {
	TransactionType           string
	Description               string
	Timestamp                 time.Time
	LegacyTransactionID       *int64
	SynchronizedTransactionID uuid.UUID
	PrisonCode                string
}

// EntryLine is an unresolved posting: the account is identified by code and owner.
type EntryLine struct {
	EntrySequence  int
	AccountCode    int
	PrisonerNumber string
	PostingType    PostingType
	Amount         decimal.Decimal
	// Account skips resolution when set.
	Account *Account
}

// PostingDraft is a header plus its entry lines, ready for the posting engine.
type PostingDraft struct {
	Header TransactionHeader
	Lines  []EntryLine
}
