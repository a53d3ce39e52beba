package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// ReconciliationService recomputes balances from entries and compares them
// with the general ledger. It reports differences and never corrects them.
type ReconciliationService struct {
	store   repository.Store
	catalog AccountCatalog
	ledger  GeneralLedger
}

func NewReconciliationService(store repository.Store, catalog AccountCatalog, ledger GeneralLedger) *ReconciliationService {
	return &ReconciliationService{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
	}
}

func netMovement(ctx context.Context, store repository.TransactionStore, filter repository.MovementFilter) (decimal.Decimal, error) {
	movements, err := store.ListMovements(ctx, filter)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list movements: %w", err)
	}
	return lo.Reduce(movements, func(total decimal.Decimal, m models.LedgerMovement, _ int) decimal.Decimal {
		return total.Add(m.Signed())
	}, decimal.Zero), nil
}

// CalculateBalance is the natural-signed sum of every entry on the account.
func (s *ReconciliationService) CalculateBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return netMovement(ctx, s.store, repository.MovementFilter{AccountIDs: []uuid.UUID{accountID}})
}

// CalculateEstablishmentBalance is CalculateBalance limited to entries posted at prisonCode.
func (s *ReconciliationService) CalculateEstablishmentBalance(ctx context.Context, accountID uuid.UUID, prisonCode string) (decimal.Decimal, error) {
	return netMovement(ctx, s.store, repository.MovementFilter{
		AccountIDs: []uuid.UUID{accountID},
		PrisonCode: prisonCode,
	})
}

// CalculateNetBalanceAdjustment is the natural-signed movement strictly after
// since, ignoring transactions of the excluded types. An empty prisonCode
// covers every establishment.
func (s *ReconciliationService) CalculateNetBalanceAdjustment(ctx context.Context, accountID uuid.UUID, prisonCode string, since time.Time, excludedTypes []string) (decimal.Decimal, error) {
	return netMovement(ctx, s.store, repository.MovementFilter{
		AccountIDs:   []uuid.UUID{accountID},
		PrisonCode:   prisonCode,
		Since:        &since,
		ExcludeTypes: excludedTypes,
	})
}

// WithStore returns a copy that reads through store, typically an open transaction.
func (s *ReconciliationService) WithStore(store repository.Store) *ReconciliationService {
	c := *s
	c.store = store
	return &c
}

type establishmentKey struct {
	prisonID    string
	accountCode int
}

// ReconcilePrisoner breaks a prisoner's balances down by establishment and
// account code. Hold balances come from the latest prisoner migration.
func (s *ReconciliationService) ReconcilePrisoner(ctx context.Context, prisonerNumber string) ([]models.EstablishmentBalance, error) {
	accounts, err := s.store.ListPrisonerAccounts(ctx, prisonerNumber)
	if err != nil {
		return nil, fmt.Errorf("list prisoner accounts: %w", err)
	}

	totals := make(map[establishmentKey]*models.EstablishmentBalance)
	at := func(key establishmentKey) *models.EstablishmentBalance {
		b, ok := totals[key]
		if !ok {
			b = &models.EstablishmentBalance{PrisonID: key.prisonID, AccountCode: key.accountCode, TotalBalance: decimal.Zero, HoldBalance: decimal.Zero}
			totals[key] = b
		}
		return b
	}

	if len(accounts) > 0 {
		ids := lo.Map(accounts, func(a models.Account, _ int) uuid.UUID { return a.ID })
		movements, err := s.store.ListMovements(ctx, repository.MovementFilter{AccountIDs: ids})
		if err != nil {
			return nil, fmt.Errorf("list movements: %w", err)
		}
		for _, m := range movements {
			b := at(establishmentKey{prisonID: m.PrisonCode, accountCode: m.AccountCode})
			b.TotalBalance = b.TotalBalance.Add(m.Signed())
		}
	}

	holds, err := s.latestHolds(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	for key, hold := range holds {
		at(key).HoldBalance = hold
	}

	out := make([]models.EstablishmentBalance, 0, len(totals))
	for _, b := range totals {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PrisonID != out[j].PrisonID {
			return out[i].PrisonID < out[j].PrisonID
		}
		return out[i].AccountCode < out[j].AccountCode
	})
	return out, nil
}

func (s *ReconciliationService) latestHolds(ctx context.Context, prisonerNumber string) (map[establishmentKey]decimal.Decimal, error) {
	payload, err := s.store.FindLatestMigratedPayload(ctx, models.MigrationPrisoner, prisonerNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest prisoner migration: %w", err)
	}

	var req models.PrisonerBalancesRequest
	if err := json.Unmarshal(payload.Body, &req); err != nil {
		return nil, fmt.Errorf("decode migration payload %d: %w", payload.ID, err)
	}
	holds := make(map[establishmentKey]decimal.Decimal, len(req.AccountBalances))
	for _, b := range req.AccountBalances {
		holds[establishmentKey{prisonID: b.PrisonID, accountCode: b.AccountCode}] = b.HoldBalance
	}
	return holds, nil
}

func (s *ReconciliationService) accountBalances(ctx context.Context, accounts []models.Account) ([]models.AccountBalance, error) {
	out := make([]models.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		balance, err := s.CalculateBalance(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.AccountBalance{
			AccountCode:    a.AccountCode,
			Name:           a.Name,
			SubAccountType: a.SubAccountType,
			Balance:        balance,
		})
	}
	return out, nil
}

// PrisonerBalances returns one line per prisoner account, including emptied ones.
func (s *ReconciliationService) PrisonerBalances(ctx context.Context, prisonerNumber string) ([]models.AccountBalance, error) {
	accounts, err := s.store.ListPrisonerAccounts(ctx, prisonerNumber)
	if err != nil {
		return nil, fmt.Errorf("list prisoner accounts: %w", err)
	}
	return s.accountBalances(ctx, accounts)
}

// ReconcilePrison returns the balance of every prison-owned account.
func (s *ReconciliationService) ReconcilePrison(ctx context.Context, prisonID string) ([]models.AccountBalance, error) {
	accounts, err := s.store.ListPrisonAccounts(ctx, prisonID)
	if err != nil {
		return nil, fmt.Errorf("list prison accounts: %w", err)
	}
	return s.accountBalances(ctx, accounts)
}

// CompareWithGeneralLedger compares every prisoner sub-account with its remote
// counterpart. Discrepancy is local minus remote, in minor units.
func (s *ReconciliationService) CompareWithGeneralLedger(ctx context.Context, prisonerNumber string) (*models.ReconciliationReport, error) {
	balances, err := s.PrisonerBalances(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}
	local := lo.SliceToMap(balances, func(b models.AccountBalance) (int, decimal.Decimal) {
		return b.AccountCode, b.Balance
	})

	roots, err := s.ledger.FindAccountByReference(ctx, prisonerNumber)
	if err != nil {
		return nil, err
	}

	report := &models.ReconciliationReport{PrisonerNumber: prisonerNumber, Balanced: true}
	for _, code := range s.catalog.PrisonerAccountCodes() {
		ref, ok := s.catalog.RemoteSubAccountFor(code)
		if !ok {
			continue
		}
		line, err := s.compareLine(ctx, len(roots) > 0, prisonerNumber, ref, local[code])
		if err != nil {
			return nil, err
		}
		report.Lines = append(report.Lines, *line)
		if line.Discrepancy != 0 {
			report.Balanced = false
		}
	}

	if !report.Balanced {
		log.Warn().Str("prisonerNumber", prisonerNumber).Msg("prisoner balances differ from general ledger")
	}
	return report, nil
}

// CompareGeneralLedgerForPrison does the same for prison-owned accounts,
// whose remote sub-accounts are keyed by account code.
func (s *ReconciliationService) CompareGeneralLedgerForPrison(ctx context.Context, prisonID string) (*models.PrisonReconciliationReport, error) {
	balances, err := s.ReconcilePrison(ctx, prisonID)
	if err != nil {
		return nil, err
	}

	roots, err := s.ledger.FindAccountByReference(ctx, prisonID)
	if err != nil {
		return nil, err
	}

	report := &models.PrisonReconciliationReport{PrisonID: prisonID, Balanced: true}
	for _, b := range balances {
		line, err := s.compareLine(ctx, len(roots) > 0, prisonID, strconv.Itoa(b.AccountCode), b.Balance)
		if err != nil {
			return nil, err
		}
		report.Lines = append(report.Lines, *line)
		if line.Discrepancy != 0 {
			report.Balanced = false
		}
	}

	if !report.Balanced {
		log.Warn().Str("prisonId", prisonID).Msg("prison balances differ from general ledger")
	}
	return report, nil
}

// compareLine treats a sub-account missing remotely as a zero balance.
func (s *ReconciliationService) compareLine(ctx context.Context, rootExists bool, parentRef, subRef string, localBalance decimal.Decimal) (*models.ReconciliationLine, error) {
	localMinor, err := models.ToMinorUnits(localBalance)
	if err != nil {
		return nil, err
	}

	var remoteMinor int64
	if rootExists {
		subAccounts, err := s.ledger.FindSubAccount(ctx, parentRef, subRef)
		if err != nil {
			return nil, err
		}
		if len(subAccounts) > 0 {
			balance, err := s.ledger.GetSubAccountBalance(ctx, subAccounts[0].ID)
			if err != nil {
				return nil, err
			}
			remoteMinor = balance.Amount
		}
	}

	return &models.ReconciliationLine{
		SubAccountReference: subRef,
		LocalBalance:        localMinor,
		RemoteBalance:       remoteMinor,
		Discrepancy:         localMinor - remoteMinor,
	}, nil
}
