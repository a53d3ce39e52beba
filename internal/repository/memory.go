package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/prisonfinance/ledgersync/internal/models"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

var (
	_ Store = (*Memory)(nil)
	_ Store = (*memoryView)(nil)
)

// Memory implements Store in process. Transactions are serialized and rolled
// back by restoring a snapshot.
type Memory struct {
	mu    sync.Mutex
	state *memoryState
}

type memoryState struct {
	accounts       map[uuid.UUID]models.Account
	transactions   map[uuid.UUID]models.Transaction
	entries        []models.TransactionEntry
	syncPayloads   []models.SyncPayload
	migrated       []models.MigratedBalancePayload
	nextSyncID     int64
	nextMigratedID int64
}

func NewMemory() *Memory {
	return &Memory{state: &memoryState{
		accounts:     make(map[uuid.UUID]models.Account),
		transactions: make(map[uuid.UUID]models.Transaction),
	}}
}

func (s *memoryState) clone() *memoryState {
	c := *s
	c.accounts = make(map[uuid.UUID]models.Account, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.transactions = make(map[uuid.UUID]models.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	c.entries = append([]models.TransactionEntry(nil), s.entries...)
	c.syncPayloads = append([]models.SyncPayload(nil), s.syncPayloads...)
	c.migrated = append([]models.MigratedBalancePayload(nil), s.migrated...)
	return &c
}

// WithTx executes fn while holding the store lock. The state is restored if fn fails.
func (m *Memory) WithTx(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&memoryView{state: m.state}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *Memory) view() (*memoryView, func()) {
	m.mu.Lock()
	return &memoryView{state: m.state}, m.mu.Unlock
}

func (m *Memory) FindPrisonAccount(ctx context.Context, prisonCode string, accountCode int) (*models.Account, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindPrisonAccount(ctx, prisonCode, accountCode)
}

func (m *Memory) FindPrisonerAccount(ctx context.Context, prisonerNumber string, subAccountType models.SubAccountType) (*models.Account, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindPrisonerAccount(ctx, prisonerNumber, subAccountType)
}

func (m *Memory) CreateAccountIfAbsent(ctx context.Context, account models.Account) (bool, error) {
	v, unlock := m.view()
	defer unlock()
	return v.CreateAccountIfAbsent(ctx, account)
}

func (m *Memory) ListPrisonerAccounts(ctx context.Context, prisonerNumber string) ([]models.Account, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ListPrisonerAccounts(ctx, prisonerNumber)
}

func (m *Memory) ListPrisonAccounts(ctx context.Context, prisonCode string) ([]models.Account, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ListPrisonAccounts(ctx, prisonCode)
}

func (m *Memory) ReassignAccountOwner(ctx context.Context, accountID uuid.UUID, prisonerNumber string) error {
	v, unlock := m.view()
	defer unlock()
	return v.ReassignAccountOwner(ctx, accountID, prisonerNumber)
}

func (m *Memory) MoveEntries(ctx context.Context, fromAccountID, toAccountID uuid.UUID) (int64, error) {
	v, unlock := m.view()
	defer unlock()
	return v.MoveEntries(ctx, fromAccountID, toAccountID)
}

func (m *Memory) InsertTransaction(ctx context.Context, tx models.Transaction, entries []models.TransactionEntry) error {
	v, unlock := m.view()
	defer unlock()
	return v.InsertTransaction(ctx, tx, entries)
}

func (m *Memory) ListEntriesBySynchronizedID(ctx context.Context, synchronizedID uuid.UUID) ([]models.PostedEntry, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ListEntriesBySynchronizedID(ctx, synchronizedID)
}

func (m *Memory) ListMovements(ctx context.Context, filter MovementFilter) ([]models.LedgerMovement, error) {
	v, unlock := m.view()
	defer unlock()
	return v.ListMovements(ctx, filter)
}

func (m *Memory) FindSyncPayloadByRequestID(ctx context.Context, requestID uuid.UUID) (*models.SyncPayload, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindSyncPayloadByRequestID(ctx, requestID)
}

func (m *Memory) FindLatestSyncPayloadByLegacyID(ctx context.Context, legacyTransactionID int64) (*models.SyncPayload, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindLatestSyncPayloadByLegacyID(ctx, legacyTransactionID)
}

func (m *Memory) InsertSyncPayload(ctx context.Context, p *models.SyncPayload) error {
	v, unlock := m.view()
	defer unlock()
	return v.InsertSyncPayload(ctx, p)
}

func (m *Memory) InsertMigratedPayload(ctx context.Context, p *models.MigratedBalancePayload) error {
	v, unlock := m.view()
	defer unlock()
	return v.InsertMigratedPayload(ctx, p)
}

func (m *Memory) FindLatestMigratedPayload(ctx context.Context, kind models.MigrationKind, ownerID string) (*models.MigratedBalancePayload, error) {
	v, unlock := m.view()
	defer unlock()
	return v.FindLatestMigratedPayload(ctx, kind, ownerID)
}

// =============================================================================
// UNLOCKED VIEW - used by Memory and inside WithTx
// =============================================================================

type memoryView struct {
	state *memoryState
}

func (v *memoryView) WithTx(ctx context.Context, fn func(Store) error) error {
	return fn(v)
}

func (v *memoryView) FindPrisonAccount(_ context.Context, prisonCode string, accountCode int) (*models.Account, error) {
	for _, a := range v.state.accounts {
		if !a.IsPrisonerAccount() && a.PrisonCode == prisonCode && a.AccountCode == accountCode {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (v *memoryView) FindPrisonerAccount(_ context.Context, prisonerNumber string, subAccountType models.SubAccountType) (*models.Account, error) {
	for _, a := range v.state.accounts {
		if a.PrisonerNumber == prisonerNumber && a.SubAccountType == subAccountType {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (v *memoryView) CreateAccountIfAbsent(ctx context.Context, a models.Account) (bool, error) {
	var err error
	if a.IsPrisonerAccount() {
		_, err = v.FindPrisonerAccount(ctx, a.PrisonerNumber, a.SubAccountType)
	} else {
		_, err = v.FindPrisonAccount(ctx, a.PrisonCode, a.AccountCode)
	}
	if err == nil {
		return false, nil
	}
	if _, exists := v.state.accounts[a.ID]; exists {
		return false, nil
	}
	v.state.accounts[a.ID] = a
	return true, nil
}

func (v *memoryView) listAccounts(keep func(models.Account) bool) []models.Account {
	accounts := lo.Filter(lo.Values(v.state.accounts), func(a models.Account, _ int) bool { return keep(a) })
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountCode < accounts[j].AccountCode })
	return accounts
}

func (v *memoryView) ListPrisonerAccounts(_ context.Context, prisonerNumber string) ([]models.Account, error) {
	return v.listAccounts(func(a models.Account) bool { return a.PrisonerNumber == prisonerNumber }), nil
}

func (v *memoryView) ListPrisonAccounts(_ context.Context, prisonCode string) ([]models.Account, error) {
	return v.listAccounts(func(a models.Account) bool {
		return !a.IsPrisonerAccount() && a.PrisonCode == prisonCode
	}), nil
}

func (v *memoryView) ReassignAccountOwner(_ context.Context, accountID uuid.UUID, prisonerNumber string) error {
	a, ok := v.state.accounts[accountID]
	if !ok || !a.IsPrisonerAccount() {
		return ErrNotFound
	}
	for _, other := range v.state.accounts {
		if other.PrisonerNumber == prisonerNumber && other.SubAccountType == a.SubAccountType {
			return ErrDuplicateKey
		}
	}
	a.PrisonerNumber = prisonerNumber
	v.state.accounts[accountID] = a
	return nil
}

func (v *memoryView) MoveEntries(_ context.Context, fromAccountID, toAccountID uuid.UUID) (int64, error) {
	var moved int64
	for i := range v.state.entries {
		if v.state.entries[i].AccountID == fromAccountID {
			v.state.entries[i].AccountID = toAccountID
			moved++
		}
	}
	return moved, nil
}

func (v *memoryView) InsertTransaction(_ context.Context, tx models.Transaction, entries []models.TransactionEntry) error {
	if _, exists := v.state.transactions[tx.ID]; exists {
		return ErrDuplicateKey
	}
	for _, e := range entries {
		if _, ok := v.state.accounts[e.AccountID]; !ok {
			return ErrNotFound
		}
	}
	v.state.transactions[tx.ID] = tx
	v.state.entries = append(v.state.entries, entries...)
	return nil
}

func (v *memoryView) ListEntriesBySynchronizedID(_ context.Context, synchronizedID uuid.UUID) ([]models.PostedEntry, error) {
	var out []models.PostedEntry
	for _, e := range v.state.entries {
		tx := v.state.transactions[e.TransactionID]
		if tx.SynchronizedTransactionID != synchronizedID {
			continue
		}
		out = append(out, models.PostedEntry{TransactionEntry: e, Account: v.state.accounts[e.AccountID]})
	}
	return out, nil
}

func (v *memoryView) ListMovements(_ context.Context, filter MovementFilter) ([]models.LedgerMovement, error) {
	var out []models.LedgerMovement
	for _, e := range v.state.entries {
		if !lo.Contains(filter.AccountIDs, e.AccountID) {
			continue
		}
		tx := v.state.transactions[e.TransactionID]
		if filter.Since != nil && !tx.Timestamp.After(*filter.Since) {
			continue
		}
		if lo.Contains(filter.ExcludeTypes, tx.TransactionType) {
			continue
		}
		if filter.PrisonCode != "" && tx.PrisonCode != filter.PrisonCode {
			continue
		}
		a := v.state.accounts[e.AccountID]
		out = append(out, models.LedgerMovement{
			AccountID:       e.AccountID,
			AccountCode:     a.AccountCode,
			NaturalSide:     a.PostingType,
			PrisonCode:      tx.PrisonCode,
			TransactionType: tx.TransactionType,
			Timestamp:       tx.Timestamp,
			PostingType:     e.PostingType,
			Amount:          e.Amount,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (v *memoryView) FindSyncPayloadByRequestID(_ context.Context, requestID uuid.UUID) (*models.SyncPayload, error) {
	for _, p := range v.state.syncPayloads {
		if p.RequestID == requestID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (v *memoryView) FindLatestSyncPayloadByLegacyID(_ context.Context, legacyTransactionID int64) (*models.SyncPayload, error) {
	var latest *models.SyncPayload
	for i := range v.state.syncPayloads {
		p := v.state.syncPayloads[i]
		if p.LegacyTransactionID == nil || *p.LegacyTransactionID != legacyTransactionID {
			continue
		}
		if latest == nil || !p.Timestamp.Before(latest.Timestamp) {
			latest = &p
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}

func (v *memoryView) InsertSyncPayload(_ context.Context, p *models.SyncPayload) error {
	for _, existing := range v.state.syncPayloads {
		if existing.RequestID == p.RequestID {
			return ErrDuplicateKey
		}
	}
	v.state.nextSyncID++
	p.ID = v.state.nextSyncID
	v.state.syncPayloads = append(v.state.syncPayloads, *p)
	return nil
}

func (v *memoryView) InsertMigratedPayload(_ context.Context, p *models.MigratedBalancePayload) error {
	v.state.nextMigratedID++
	p.ID = v.state.nextMigratedID
	v.state.migrated = append(v.state.migrated, *p)
	return nil
}

func (v *memoryView) FindLatestMigratedPayload(_ context.Context, kind models.MigrationKind, ownerID string) (*models.MigratedBalancePayload, error) {
	var (
		latest   *models.MigratedBalancePayload
		latestAt time.Time
	)
	for i := range v.state.migrated {
		p := v.state.migrated[i]
		if p.Kind != kind || p.OwnerID != ownerID {
			continue
		}
		if latest == nil || !p.Timestamp.Before(latestAt) {
			latest, latestAt = &p, p.Timestamp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest, nil
}
