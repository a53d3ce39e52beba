package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// AccountResolver finds ledger accounts by code and owner, creating them on first use.
type AccountResolver struct {
	catalog AccountCatalog
	now     func() time.Time
	newID   func() uuid.UUID
}

func NewAccountResolver(catalog AccountCatalog) *AccountResolver {
	return &AccountResolver{
		catalog: catalog,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// ResolveAccount returns the account for accountCode. Codes carrying a
// sub-account type belong to the prisoner, all others to the prison.
//
// Creation goes through CreateAccountIfAbsent followed by a re-read, so two
// concurrent callers end up with the same row.
func (r *AccountResolver) ResolveAccount(ctx context.Context, store repository.AccountStore, accountCode int, prisonerNumber, prisonCode string) (*models.Account, error) {
	lookup, err := r.catalog.Lookup(accountCode)
	if err != nil {
		return nil, err
	}

	candidate := models.Account{
		AccountCode:    accountCode,
		PostingType:    lookup.PostingType,
		Name:           lookup.Name,
		SubAccountType: lookup.SubAccountType,
	}

	var find func() (*models.Account, error)
	if lookup.SubAccountType != "" {
		if prisonerNumber == "" {
			return nil, fmt.Errorf("account code %d: %w", accountCode, models.ErrPrisonerRequired)
		}
		candidate.PrisonerNumber = prisonerNumber
		find = func() (*models.Account, error) {
			return store.FindPrisonerAccount(ctx, prisonerNumber, lookup.SubAccountType)
		}
	} else {
		candidate.PrisonCode = prisonCode
		find = func() (*models.Account, error) {
			return store.FindPrisonAccount(ctx, prisonCode, accountCode)
		}
	}

	account, err := find()
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find account %d: %w", accountCode, err)
	}

	candidate.ID = r.newID()
	candidate.CreatedAt = r.now().UTC()
	created, err := store.CreateAccountIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create account %d: %w", accountCode, err)
	}
	if created {
		log.Info().
			Int("accountCode", accountCode).
			Str("prisonerNumber", prisonerNumber).
			Str("prisonCode", candidate.PrisonCode).
			Msg("created ledger account")
		return &candidate, nil
	}

	account, err = find()
	if err != nil {
		return nil, fmt.Errorf("re-read account %d: %w", accountCode, err)
	}
	return account, nil
}
