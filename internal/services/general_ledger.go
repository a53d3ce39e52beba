package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prisonfinance/ledgersync/internal/generalledger"
	"github.com/prisonfinance/ledgersync/internal/models"
)

// GeneralLedger is the external ledger as seen by the services.
type GeneralLedger interface {
	FindAccountByReference(ctx context.Context, reference string) ([]generalledger.Account, error)
	CreateAccount(ctx context.Context, reference string) (*generalledger.Account, error)
	FindSubAccount(ctx context.Context, parentReference, subReference string) ([]generalledger.SubAccount, error)
	CreateSubAccount(ctx context.Context, parentID uuid.UUID, subReference string) (*generalledger.SubAccount, error)
	PostStatementBalance(ctx context.Context, subAccountID uuid.UUID, amountMinorUnits int64, asOf time.Time) error
	GetSubAccountBalance(ctx context.Context, subAccountID uuid.UUID) (*generalledger.SubAccountBalance, error)
	PostTransaction(ctx context.Context, idempotencyKey uuid.UUID, req generalledger.TransactionRequest) (*generalledger.TransactionResponse, error)
}

var _ GeneralLedger = (*generalledger.Client)(nil)

// EventPublisher delivers domain events to the bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// AccountCatalog is the static account code reference data.
type AccountCatalog interface {
	Lookup(code int) (models.AccountCodeLookup, error)
	SubAccountTypeFor(code int) (models.SubAccountType, bool)
	RemoteSubAccountFor(code int) (string, bool)
	PrisonerAccountCodes() []int
}

func findOrCreateAccount(ctx context.Context, gl GeneralLedger, reference string) (*generalledger.Account, error) {
	accounts, err := gl.FindAccountByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		return &accounts[0], nil
	}
	account, err := gl.CreateAccount(ctx, reference)
	if err != nil {
		return nil, err
	}
	if account.ID == uuid.Nil {
		return nil, &models.RemoteStateError{Operation: "createAccount", Reason: fmt.Sprintf("no id returned for %s", reference)}
	}
	return account, nil
}

func findOrCreateSubAccount(ctx context.Context, gl GeneralLedger, parent *generalledger.Account, reference string) (*generalledger.SubAccount, error) {
	subAccounts, err := gl.FindSubAccount(ctx, parent.Reference, reference)
	if err != nil {
		return nil, err
	}
	if len(subAccounts) > 0 {
		return &subAccounts[0], nil
	}
	subAccount, err := gl.CreateSubAccount(ctx, parent.ID, reference)
	if err != nil {
		return nil, err
	}
	if subAccount.ID == uuid.Nil {
		return nil, &models.RemoteStateError{Operation: "createSubAccount", Reason: fmt.Sprintf("no id returned for %s/%s", parent.Reference, reference)}
	}
	return subAccount, nil
}
