package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/legacytime"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// DefaultMigrationTransactionTypes are the types treated as migration-origin
// when separating opening balances from later activity.
var DefaultMigrationTransactionTypes = []string{models.OpeningBalanceType}

// MigrationService loads point-in-time balances from the legacy system.
//
// The local step brings each (prison, account code) balance to the migrated
// figure as of its timestamp with an opening balance transaction against the
// clearing account. The remote step pushes statement balances to the general
// ledger. Re-running an identical migration posts nothing locally.
type MigrationService struct {
	store         repository.Store
	catalog       AccountCatalog
	engine        *PostingEngine
	ledger        GeneralLedger
	balances      *ReconciliationService
	excludedTypes []string
	metrics       *Metrics
	now           func() time.Time
	newID         func() uuid.UUID
}

func NewMigrationService(store repository.Store, catalog AccountCatalog, engine *PostingEngine, ledger GeneralLedger, excludedTypes []string, metrics *Metrics) *MigrationService {
	if len(excludedTypes) == 0 {
		excludedTypes = DefaultMigrationTransactionTypes
	}
	return &MigrationService{
		store:         store,
		catalog:       catalog,
		engine:        engine,
		ledger:        ledger,
		balances:      NewReconciliationService(store, catalog, ledger),
		excludedTypes: excludedTypes,
		metrics:       metrics,
		now:           time.Now,
		newID:         uuid.New,
	}
}

// localBalance is one migrated figure for the local step.
type localBalance struct {
	prisonID      string
	accountCode   int
	balance       decimal.Decimal
	asOf          time.Time
	transactionID *int64
}

// MigratePrisonerBalances migrates every sub-account balance of one prisoner.
func (s *MigrationService) MigratePrisonerBalances(ctx context.Context, prisonerNumber string, req models.PrisonerBalancesRequest) (*models.MigrationResult, error) {
	refs := make(map[int]string)
	for _, b := range req.AccountBalances {
		if _, err := models.ToMinorUnits(b.Balance); err != nil {
			return nil, err
		}
		if _, err := s.catalog.Lookup(b.AccountCode); err != nil {
			return nil, err
		}
		ref, ok := s.catalog.RemoteSubAccountFor(b.AccountCode)
		if !ok {
			return nil, fmt.Errorf("account code %d: %w", b.AccountCode, models.ErrNotPrisonerAccount)
		}
		refs[b.AccountCode] = ref
	}

	locals := lo.Map(req.AccountBalances, func(b models.PrisonerAccountBalance, _ int) localBalance {
		return localBalance{
			prisonID:      b.PrisonID,
			accountCode:   b.AccountCode,
			balance:       b.Balance,
			asOf:          legacytime.ToUTCInstant(b.AsOfTimestamp),
			transactionID: b.TransactionID,
		}
	})

	result := &models.MigrationResult{OwnerID: prisonerNumber}
	posted, err := s.migrateLocal(ctx, models.MigrationPrisoner, prisonerNumber, prisonerNumber, req, locals)
	if err != nil {
		return nil, err
	}
	result.LocalPostings = len(posted)

	root, err := findOrCreateAccount(ctx, s.ledger, prisonerNumber)
	if err != nil {
		return result, err
	}

	groups := lo.GroupBy(req.AccountBalances, func(b models.PrisonerAccountBalance) string {
		return refs[b.AccountCode]
	})
	subRefs := lo.Keys(groups)
	sort.Strings(subRefs)

	for _, ref := range subRefs {
		group := groups[ref]
		sum := lo.Reduce(group, func(total decimal.Decimal, b models.PrisonerAccountBalance, _ int) decimal.Decimal {
			return total.Add(b.Balance)
		}, decimal.Zero)
		total, err := models.ToMoney(sum)
		if err != nil {
			return result, fmt.Errorf("sum %s balances: %w", ref, err)
		}
		latest := lo.MaxBy(group, func(a, b models.PrisonerAccountBalance) bool {
			return a.AsOfTimestamp.After(b.AsOfTimestamp.Time)
		})

		subAccount, err := findOrCreateSubAccount(ctx, s.ledger, root, ref)
		if err != nil {
			return result, err
		}
		if err := s.pushStatement(ctx, subAccount.ID, total.Amount(), legacytime.ToUTCInstant(latest.AsOfTimestamp)); err != nil {
			return result, err
		}
		result.RemotePostings++
		result.SubAccountsSeen = append(result.SubAccountsSeen, ref)
	}

	log.Info().
		Str("prisonerNumber", prisonerNumber).
		Int("localPostings", result.LocalPostings).
		Int("statementBalances", result.RemotePostings).
		Msg("prisoner balances migrated")
	return result, nil
}

// MigrateGeneralLedgerBalances migrates the prison-owned account balances of one prison.
// The remote side keeps one sub-account per account code.
func (s *MigrationService) MigrateGeneralLedgerBalances(ctx context.Context, prisonID string, req models.GeneralLedgerBalancesRequest) (*models.MigrationResult, error) {
	for _, b := range req.AccountBalances {
		if _, err := models.ToMinorUnits(b.Balance); err != nil {
			return nil, err
		}
		if _, err := s.catalog.Lookup(b.AccountCode); err != nil {
			return nil, err
		}
		if _, ok := s.catalog.SubAccountTypeFor(b.AccountCode); ok {
			return nil, fmt.Errorf("account code %d: %w", b.AccountCode, models.ErrPrisonerRequired)
		}
	}

	locals := make([]localBalance, 0, len(req.AccountBalances))
	for _, b := range req.AccountBalances {
		if b.AccountCode == models.MigrationClearingAccountCode {
			continue
		}
		locals = append(locals, localBalance{
			prisonID:    prisonID,
			accountCode: b.AccountCode,
			balance:     b.Balance,
			asOf:        legacytime.ToUTCInstant(b.AsOfTimestamp),
		})
	}

	result := &models.MigrationResult{OwnerID: prisonID}
	posted, err := s.migrateLocal(ctx, models.MigrationGeneralLedger, prisonID, "", req, locals)
	if err != nil {
		return nil, err
	}
	result.LocalPostings = len(posted)

	root, err := findOrCreateAccount(ctx, s.ledger, prisonID)
	if err != nil {
		return result, err
	}
	for _, b := range req.AccountBalances {
		ref := strconv.Itoa(b.AccountCode)
		subAccount, err := findOrCreateSubAccount(ctx, s.ledger, root, ref)
		if err != nil {
			return result, err
		}
		minor, _ := models.ToMinorUnits(b.Balance)
		if err := s.pushStatement(ctx, subAccount.ID, minor, legacytime.ToUTCInstant(b.AsOfTimestamp)); err != nil {
			return result, err
		}
		result.RemotePostings++
		result.SubAccountsSeen = append(result.SubAccountsSeen, ref)
	}

	log.Info().
		Str("prisonId", prisonID).
		Int("localPostings", result.LocalPostings).
		Int("statementBalances", result.RemotePostings).
		Msg("general ledger balances migrated")
	return result, nil
}

func (s *MigrationService) pushStatement(ctx context.Context, subAccountID uuid.UUID, amount int64, asOf time.Time) error {
	if err := s.ledger.PostStatementBalance(ctx, subAccountID, amount, asOf); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.StatementBalances.Inc()
	}
	return nil
}

// migrateLocal audits the request and posts the opening balance adjustments in
// one transaction, then publishes what was posted.
func (s *MigrationService) migrateLocal(ctx context.Context, kind models.MigrationKind, ownerID, prisonerNumber string, req any, balances []localBalance) ([]*models.PostedTransaction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode migration request: %w", err)
	}

	var posted []*models.PostedTransaction
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		posted = posted[:0]
		payload := &models.MigratedBalancePayload{
			Kind:      kind,
			OwnerID:   ownerID,
			Timestamp: s.now().UTC(),
			Body:      body,
		}
		if err := tx.InsertMigratedPayload(ctx, payload); err != nil {
			return fmt.Errorf("insert migration payload: %w", err)
		}

		for _, b := range balances {
			p, err := s.postOpeningBalance(ctx, tx, prisonerNumber, b)
			if err != nil {
				return err
			}
			if p != nil {
				posted = append(posted, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range posted {
		s.engine.Publish(ctx, p)
	}
	return posted, nil
}

// CalculateOpeningAdjustment is what must be posted so that the account's
// balance at prisonCode, as of asOf, equals migrated. Movement after asOf is
// kept, except for migration-origin types.
func (s *MigrationService) CalculateOpeningAdjustment(ctx context.Context, store repository.Store, accountID uuid.UUID, prisonCode string, migrated decimal.Decimal, asOf time.Time) (decimal.Decimal, error) {
	balances := s.balances.WithStore(store)
	current, err := balances.CalculateEstablishmentBalance(ctx, accountID, prisonCode)
	if err != nil {
		return decimal.Zero, err
	}
	after, err := balances.CalculateNetBalanceAdjustment(ctx, accountID, prisonCode, asOf, s.excludedTypes)
	if err != nil {
		return decimal.Zero, err
	}
	return migrated.Sub(current.Sub(after)), nil
}

func (s *MigrationService) postOpeningBalance(ctx context.Context, tx repository.Store, prisonerNumber string, b localBalance) (*models.PostedTransaction, error) {
	account, err := s.engine.resolver.ResolveAccount(ctx, tx, b.accountCode, prisonerNumber, b.prisonID)
	if err != nil {
		return nil, err
	}
	clearing, err := s.engine.resolver.ResolveAccount(ctx, tx, models.MigrationClearingAccountCode, "", b.prisonID)
	if err != nil {
		return nil, err
	}

	adjustment, err := s.CalculateOpeningAdjustment(ctx, tx, account.ID, b.prisonID, b.balance, b.asOf)
	if err != nil {
		return nil, err
	}
	if adjustment.IsZero() {
		return nil, nil
	}

	side := account.PostingType
	if adjustment.IsNegative() {
		side = side.Opposite()
	}
	amount := adjustment.Abs()

	return s.engine.PostTransaction(ctx, tx, models.PostingDraft{
		Header: models.TransactionHeader{
			TransactionType:           models.OpeningBalanceType,
			Description:               fmt.Sprintf("Opening balance migration for account %d", b.accountCode),
			Timestamp:                 b.asOf,
			LegacyTransactionID:       b.transactionID,
			SynchronizedTransactionID: s.newID(),
			PrisonCode:                b.prisonID,
		},
		Lines: []models.EntryLine{
			{EntrySequence: 1, AccountCode: account.AccountCode, PrisonerNumber: prisonerNumber, PostingType: side, Amount: amount, Account: account},
			{EntrySequence: 2, AccountCode: clearing.AccountCode, PostingType: side.Opposite(), Amount: amount, Account: clearing},
		},
	})
}
