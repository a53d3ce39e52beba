package services

import (
	"context"
	"encoding/binary"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/reference"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

var fixedNow = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

// sequentialIDs hands out predictable ids, scoped to one test.
func sequentialIDs() func() uuid.UUID {
	var n uint64
	return func() uuid.UUID {
		var id uuid.UUID
		binary.BigEndian.PutUint64(id[8:], atomic.AddUint64(&n, 1))
		id[6] = 0x40
		return id
	}
}

type testEnv struct {
	store          *repository.Memory
	catalog        *reference.Catalog
	metrics        *Metrics
	publisher      *MockPublisher
	ledger         *MockGeneralLedger
	resolver       *AccountResolver
	engine         *PostingEngine
	sync           *SyncService
	reconciliation *ReconciliationService
	migration      *MigrationService
	merge          *MergeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ids := sequentialIDs()
	now := func() time.Time { return fixedNow }

	env := &testEnv{
		store:     repository.NewMemory(),
		catalog:   reference.Default(),
		metrics:   NewMetrics(prometheus.NewRegistry()),
		publisher: &MockPublisher{},
		ledger:    &MockGeneralLedger{},
	}
	env.publisher.On("Publish", mock.Anything, models.EventTransactionRecorded, mock.Anything).Return(nil).Maybe()

	env.resolver = NewAccountResolver(env.catalog)
	env.resolver.now, env.resolver.newID = now, ids

	env.engine = NewPostingEngine(env.resolver, env.publisher, env.metrics)
	env.engine.now, env.engine.newID = now, ids

	env.sync = NewSyncService(env.store, env.engine, env.metrics)
	env.sync.now, env.sync.newID = now, ids

	env.reconciliation = NewReconciliationService(env.store, env.catalog, env.ledger)

	env.migration = NewMigrationService(env.store, env.catalog, env.engine, env.ledger, nil, env.metrics)
	env.migration.now, env.migration.newID = now, ids

	env.merge = NewMergeService(env.store, env.metrics)
	return env
}

// post commits a draft the way the services do.
func (env *testEnv) post(t *testing.T, draft models.PostingDraft) *models.PostedTransaction {
	t.Helper()
	var posted *models.PostedTransaction
	err := env.store.WithTx(context.Background(), func(tx repository.Store) error {
		var err error
		posted, err = env.engine.PostTransaction(context.Background(), tx, draft)
		return err
	})
	require.NoError(t, err)
	env.engine.Publish(context.Background(), posted)
	return posted
}

func (env *testEnv) prisonerBalance(t *testing.T, prisonerNumber string, subAccountType models.SubAccountType) decimal.Decimal {
	t.Helper()
	account, err := env.store.FindPrisonerAccount(context.Background(), prisonerNumber, subAccountType)
	require.NoError(t, err)
	balance, err := env.reconciliation.CalculateBalance(context.Background(), account.ID)
	require.NoError(t, err)
	return balance
}

func (env *testEnv) prisonBalance(t *testing.T, prisonCode string, accountCode int) decimal.Decimal {
	t.Helper()
	account, err := env.store.FindPrisonAccount(context.Background(), prisonCode, accountCode)
	require.NoError(t, err)
	balance, err := env.reconciliation.CalculateBalance(context.Background(), account.ID)
	require.NoError(t, err)
	return balance
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// transfer builds a two-line draft moving value from one account code to another.
func transfer(prisonCode, txType string, at time.Time, debitCode, creditCode int, prisonerNumber string, value string) models.PostingDraft {
	return models.PostingDraft{
		Header: models.TransactionHeader{
			TransactionType: txType,
			Description:     txType,
			Timestamp:       at,
			PrisonCode:      prisonCode,
		},
		Lines: []models.EntryLine{
			{EntrySequence: 1, AccountCode: debitCode, PrisonerNumber: prisonerNumber, PostingType: models.PostingDebit, Amount: amount(value)},
			{EntrySequence: 2, AccountCode: creditCode, PrisonerNumber: prisonerNumber, PostingType: models.PostingCredit, Amount: amount(value)},
		},
	}
}
