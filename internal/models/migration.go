package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/legacytime"
)

// MigrationKind tells whose balances a migration payload carries.
type MigrationKind string

const (
	MigrationPrisoner      MigrationKind = "PRISONER"
	MigrationGeneralLedger MigrationKind = "GENERAL_LEDGER"
)

// OpeningBalanceType is the transaction type of migration adjustments.
const OpeningBalanceType = "OB"

// MigrationClearingAccountCode is the prison account that takes the other
// side of every opening balance adjustment.
const MigrationClearingAccountCode = 9999

// PrisonerAccountBalance is the legacy balance of one prisoner sub-account at one prison.
type PrisonerAccountBalance struct {
	PrisonID      string                   `json:"prisonId" validate:"required"`
	AccountCode   int                      `json:"accountCode" validate:"required"`
	Balance       decimal.Decimal          `json:"balance" validate:"money2dp"`
	HoldBalance   decimal.Decimal          `json:"holdBalance" validate:"money2dp"`
	AsOfTimestamp legacytime.LocalDateTime `json:"asOfTimestamp"`
	TransactionID *int64                   `json:"transactionId,omitempty"`
}

type PrisonerBalancesRequest struct {
	AccountBalances []PrisonerAccountBalance `json:"accountBalances" validate:"required,min=1,dive"`
}

// GeneralLedgerAccountBalance is the legacy balance of one prison account.
type GeneralLedgerAccountBalance struct {
	AccountCode   int                      `json:"accountCode" validate:"required"`
	Balance       decimal.Decimal          `json:"balance" validate:"money2dp"`
	AsOfTimestamp legacytime.LocalDateTime `json:"asOfTimestamp"`
}

type GeneralLedgerBalancesRequest struct {
	AccountBalances []GeneralLedgerAccountBalance `json:"accountBalances" validate:"required,min=1,dive"`
}

// MigratedBalancePayload is the audit record of a migration request.
type MigratedBalancePayload struct {
	ID        int64           `json:"id" db:"id"`
	Kind      MigrationKind   `json:"kind" db:"kind"`
	OwnerID   string          `json:"ownerId" db:"owner_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Body      json.RawMessage `json:"body" db:"body"`
}

// MigrationResult summarises the work done by one migration call.
type MigrationResult struct {
	OwnerID         string   `json:"ownerId"`
	LocalPostings   int      `json:"localPostings"`
	RemotePostings  int      `json:"remotePostings"`
	SubAccountsSeen []string `json:"subAccountsSeen,omitempty"`
}
