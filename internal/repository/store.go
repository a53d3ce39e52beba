/*
Package repository persists accounts, transactions and audit payloads.

Ledger tables are append-only: entries are never updated except when a
prisoner merge re-points them to the surviving prisoner's account. Balances
are always computed from entries, never stored.

Two implementations exist:
  - Postgres: production, lib/pq
  - Memory:   tests and local runs
*/
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/prisonfinance/ledgersync/internal/models"
)

var (
	// ErrNotFound is returned by Find* methods when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// AccountStore holds ledger accounts.
type AccountStore interface {
	FindPrisonAccount(ctx context.Context, prisonCode string, accountCode int) (*models.Account, error)
	FindPrisonerAccount(ctx context.Context, prisonerNumber string, subAccountType models.SubAccountType) (*models.Account, error)

	// CreateAccountIfAbsent inserts the account unless one with the same owner
	// key exists. It reports whether a row was written.
	CreateAccountIfAbsent(ctx context.Context, account models.Account) (bool, error)

	ListPrisonerAccounts(ctx context.Context, prisonerNumber string) ([]models.Account, error)
	ListPrisonAccounts(ctx context.Context, prisonCode string) ([]models.Account, error)

	// ReassignAccountOwner moves a prisoner account to another prisoner.
	ReassignAccountOwner(ctx context.Context, accountID uuid.UUID, prisonerNumber string) error

	// MoveEntries re-points every entry of one account to another and returns the count.
	MoveEntries(ctx context.Context, fromAccountID, toAccountID uuid.UUID) (int64, error)
}

// MovementFilter narrows ListMovements.
type MovementFilter struct {
	AccountIDs []uuid.UUID
	// PrisonCode keeps only transactions owned by this prison when set.
	PrisonCode string
	// Since keeps only transactions strictly after this instant when set.
	Since *time.Time
	// ExcludeTypes drops transactions of these types.
	ExcludeTypes []string
}

// TransactionStore holds transactions and their entries.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx models.Transaction, entries []models.TransactionEntry) error
	ListEntriesBySynchronizedID(ctx context.Context, synchronizedID uuid.UUID) ([]models.PostedEntry, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]models.LedgerMovement, error)
}

// SyncPayloadStore is the audit log of received sync requests.
type SyncPayloadStore interface {
	FindSyncPayloadByRequestID(ctx context.Context, requestID uuid.UUID) (*models.SyncPayload, error)
	FindLatestSyncPayloadByLegacyID(ctx context.Context, legacyTransactionID int64) (*models.SyncPayload, error)

	// InsertSyncPayload sets p.ID. A second payload with the same request id fails with ErrDuplicateKey.
	InsertSyncPayload(ctx context.Context, p *models.SyncPayload) error
}

// MigrationStore is the audit log of migration requests.
type MigrationStore interface {
	InsertMigratedPayload(ctx context.Context, p *models.MigratedBalancePayload) error
	FindLatestMigratedPayload(ctx context.Context, kind models.MigrationKind, ownerID string) (*models.MigratedBalancePayload, error)
}

// Store is everything the engine persists.
type Store interface {
	AccountStore
	TransactionStore
	SyncPayloadStore
	MigrationStore

	// WithTx runs fn atomically. fn must use the Store it is given.
	WithTx(ctx context.Context, fn func(Store) error) error
}
