package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/prisonfinance/ledgersync/internal/models"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ Store = (*Postgres)(nil)

// Postgres implements Store on a lib/pq connection.
type Postgres struct {
	db *sql.DB
	q  dbtx
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, q: db}
}

// EnsureSchema creates missing tables and indexes.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.q.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

func (p *Postgres) WithTx(ctx context.Context, fn func(Store) error) error {
	if p.db == nil {
		// already inside a transaction
		return fn(p)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&Postgres{q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Constraint)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const accountColumns = `id, prison_code, prisoner_number, account_code, posting_type, name, sub_account_type, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a                              models.Account
		prisonCode, prisoner, subType sql.NullString
	)
	if err := row.Scan(&a.ID, &prisonCode, &prisoner, &a.AccountCode, &a.PostingType, &a.Name, &subType, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.PrisonCode = prisonCode.String
	a.PrisonerNumber = prisoner.String
	a.SubAccountType = models.SubAccountType(subType.String)
	return &a, nil
}

func (p *Postgres) FindPrisonAccount(ctx context.Context, prisonCode string, accountCode int) (*models.Account, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE prison_code = $1 AND account_code = $2 AND prisoner_number IS NULL`,
		prisonCode, accountCode)
	a, err := scanAccount(row)
	return a, mapError(err)
}

func (p *Postgres) FindPrisonerAccount(ctx context.Context, prisonerNumber string, subAccountType models.SubAccountType) (*models.Account, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE prisoner_number = $1 AND sub_account_type = $2`,
		prisonerNumber, string(subAccountType))
	a, err := scanAccount(row)
	return a, mapError(err)
}

func (p *Postgres) CreateAccountIfAbsent(ctx context.Context, a models.Account) (bool, error) {
	result, err := p.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		a.ID, nullString(a.PrisonCode), nullString(a.PrisonerNumber), a.AccountCode,
		string(a.PostingType), a.Name, nullString(string(a.SubAccountType)), a.CreatedAt)
	if err != nil {
		return false, mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *Postgres) listAccounts(ctx context.Context, query string, arg any) ([]models.Account, error) {
	rows, err := p.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (p *Postgres) ListPrisonerAccounts(ctx context.Context, prisonerNumber string) ([]models.Account, error) {
	return p.listAccounts(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE prisoner_number = $1
		ORDER BY account_code`, prisonerNumber)
}

func (p *Postgres) ListPrisonAccounts(ctx context.Context, prisonCode string) ([]models.Account, error) {
	return p.listAccounts(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE prison_code = $1 AND prisoner_number IS NULL
		ORDER BY account_code`, prisonCode)
}

func (p *Postgres) ReassignAccountOwner(ctx context.Context, accountID uuid.UUID, prisonerNumber string) error {
	result, err := p.q.ExecContext(ctx, `
		UPDATE accounts SET prisoner_number = $1
		WHERE id = $2 AND prisoner_number IS NOT NULL`,
		prisonerNumber, accountID)
	if err != nil {
		return mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) MoveEntries(ctx context.Context, fromAccountID, toAccountID uuid.UUID) (int64, error) {
	result, err := p.q.ExecContext(ctx, `
		UPDATE transaction_entries SET account_id = $1
		WHERE account_id = $2`,
		toAccountID, fromAccountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (p *Postgres) InsertTransaction(ctx context.Context, tx models.Transaction, entries []models.TransactionEntry) error {
	var legacyID sql.NullInt64
	if tx.LegacyTransactionID != nil {
		legacyID = sql.NullInt64{Int64: *tx.LegacyTransactionID, Valid: true}
	}
	_, err := p.q.ExecContext(ctx, `
		INSERT INTO transactions (id, transaction_type, description, timestamp, legacy_transaction_id,
			synchronized_transaction_id, prison_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.TransactionType, tx.Description, tx.Timestamp, legacyID,
		tx.SynchronizedTransactionID, tx.PrisonCode, tx.CreatedAt)
	if err != nil {
		return mapError(err)
	}

	for _, e := range entries {
		_, err := p.q.ExecContext(ctx, `
			INSERT INTO transaction_entries (id, transaction_id, account_id, entry_sequence, amount, posting_type)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.TransactionID, e.AccountID, e.EntrySequence, e.Amount, string(e.PostingType))
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (p *Postgres) ListEntriesBySynchronizedID(ctx context.Context, synchronizedID uuid.UUID) ([]models.PostedEntry, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT e.id, e.transaction_id, e.account_id, e.entry_sequence, e.amount, e.posting_type,
			a.id, a.prison_code, a.prisoner_number, a.account_code, a.posting_type, a.name, a.sub_account_type, a.created_at
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		JOIN accounts a ON a.id = e.account_id
		WHERE t.synchronized_transaction_id = $1
		ORDER BY t.created_at, e.entry_sequence`, synchronizedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PostedEntry
	for rows.Next() {
		var (
			pe                             models.PostedEntry
			prisonCode, prisoner, subType sql.NullString
		)
		err := rows.Scan(&pe.ID, &pe.TransactionID, &pe.AccountID, &pe.EntrySequence, &pe.Amount, &pe.PostingType,
			&pe.Account.ID, &prisonCode, &prisoner, &pe.Account.AccountCode, &pe.Account.PostingType,
			&pe.Account.Name, &subType, &pe.Account.CreatedAt)
		if err != nil {
			return nil, err
		}
		pe.Account.PrisonCode = prisonCode.String
		pe.Account.PrisonerNumber = prisoner.String
		pe.Account.SubAccountType = models.SubAccountType(subType.String)
		entries = append(entries, pe)
	}
	return entries, rows.Err()
}

func (p *Postgres) ListMovements(ctx context.Context, filter MovementFilter) ([]models.LedgerMovement, error) {
	if len(filter.AccountIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(filter.AccountIDs))
	for i, id := range filter.AccountIDs {
		ids[i] = id.String()
	}
	var since sql.NullTime
	if filter.Since != nil {
		since = sql.NullTime{Time: *filter.Since, Valid: true}
	}
	excluded := filter.ExcludeTypes
	if excluded == nil {
		excluded = []string{}
	}

	rows, err := p.q.QueryContext(ctx, `
		SELECT e.account_id, a.account_code, a.posting_type, t.prison_code, t.transaction_type,
			t.timestamp, e.posting_type, e.amount
		FROM transaction_entries e
		JOIN transactions t ON t.id = e.transaction_id
		JOIN accounts a ON a.id = e.account_id
		WHERE e.account_id = ANY($1::uuid[])
			AND ($2::timestamptz IS NULL OR t.timestamp > $2)
			AND NOT (t.transaction_type = ANY($3::text[]))
			AND ($4 = '' OR t.prison_code = $4)
		ORDER BY t.timestamp, e.entry_sequence`,
		pq.Array(ids), since, pq.Array(excluded), filter.PrisonCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []models.LedgerMovement
	for rows.Next() {
		var m models.LedgerMovement
		if err := rows.Scan(&m.AccountID, &m.AccountCode, &m.NaturalSide, &m.PrisonCode, &m.TransactionType,
			&m.Timestamp, &m.PostingType, &m.Amount); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

const syncPayloadColumns = `id, timestamp, legacy_transaction_id, synchronized_transaction_id, request_id,
	caseload_id, request_type_identifier, transaction_timestamp, body`

func scanSyncPayload(row rowScanner) (*models.SyncPayload, error) {
	var (
		sp       models.SyncPayload
		legacyID sql.NullInt64
		body     []byte
	)
	if err := row.Scan(&sp.ID, &sp.Timestamp, &legacyID, &sp.SynchronizedTransactionID, &sp.RequestID,
		&sp.CaseloadID, &sp.RequestTypeIdentifier, &sp.TransactionTimestamp, &body); err != nil {
		return nil, err
	}
	if legacyID.Valid {
		id := legacyID.Int64
		sp.LegacyTransactionID = &id
	}
	sp.Body = body
	return &sp, nil
}

func (p *Postgres) FindSyncPayloadByRequestID(ctx context.Context, requestID uuid.UUID) (*models.SyncPayload, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT `+syncPayloadColumns+`
		FROM sync_payloads
		WHERE request_id = $1`, requestID)
	sp, err := scanSyncPayload(row)
	return sp, mapError(err)
}

func (p *Postgres) FindLatestSyncPayloadByLegacyID(ctx context.Context, legacyTransactionID int64) (*models.SyncPayload, error) {
	row := p.q.QueryRowContext(ctx, `
		SELECT `+syncPayloadColumns+`
		FROM sync_payloads
		WHERE legacy_transaction_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, legacyTransactionID)
	sp, err := scanSyncPayload(row)
	return sp, mapError(err)
}

func (p *Postgres) InsertSyncPayload(ctx context.Context, sp *models.SyncPayload) error {
	var legacyID sql.NullInt64
	if sp.LegacyTransactionID != nil {
		legacyID = sql.NullInt64{Int64: *sp.LegacyTransactionID, Valid: true}
	}
	err := p.q.QueryRowContext(ctx, `
		INSERT INTO sync_payloads (timestamp, legacy_transaction_id, synchronized_transaction_id, request_id,
			caseload_id, request_type_identifier, transaction_timestamp, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		sp.Timestamp, legacyID, sp.SynchronizedTransactionID, sp.RequestID,
		sp.CaseloadID, string(sp.RequestTypeIdentifier), sp.TransactionTimestamp, []byte(sp.Body),
	).Scan(&sp.ID)
	return mapError(err)
}

func (p *Postgres) InsertMigratedPayload(ctx context.Context, mp *models.MigratedBalancePayload) error {
	err := p.q.QueryRowContext(ctx, `
		INSERT INTO migrated_balance_payloads (kind, owner_id, timestamp, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		string(mp.Kind), mp.OwnerID, mp.Timestamp, []byte(mp.Body),
	).Scan(&mp.ID)
	return mapError(err)
}

func (p *Postgres) FindLatestMigratedPayload(ctx context.Context, kind models.MigrationKind, ownerID string) (*models.MigratedBalancePayload, error) {
	var (
		mp   models.MigratedBalancePayload
		body []byte
	)
	err := p.q.QueryRowContext(ctx, `
		SELECT id, kind, owner_id, timestamp, body
		FROM migrated_balance_payloads
		WHERE kind = $1 AND owner_id = $2
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`, string(kind), ownerID,
	).Scan(&mp.ID, &mp.Kind, &mp.OwnerID, &mp.Timestamp, &body)
	if err != nil {
		return nil, mapError(err)
	}
	mp.Body = body
	return &mp, nil
}
