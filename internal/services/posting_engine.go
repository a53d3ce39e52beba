package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// PostingEngine writes balanced transactions. It never commits on its own:
// callers pass the Store of their open transaction and call Publish after commit.
type PostingEngine struct {
	resolver  *AccountResolver
	publisher EventPublisher
	metrics   *Metrics
	now       func() time.Time
	newID     func() uuid.UUID
}

func NewPostingEngine(resolver *AccountResolver, publisher EventPublisher, metrics *Metrics) *PostingEngine {
	return &PostingEngine{
		resolver:  resolver,
		publisher: publisher,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.New,
	}
}

// ValidateEntries checks the lines before anything is resolved or written.
func ValidateEntries(lines []models.EntryLine) error {
	if len(lines) == 0 {
		return models.ErrEmptyPosting
	}

	debits, credits := decimal.Zero, decimal.Zero
	for _, line := range lines {
		if !line.PostingType.Valid() {
			return fmt.Errorf("entry %d: %w %q", line.EntrySequence, models.ErrInvalidPostingType, line.PostingType)
		}
		if line.Amount.IsNegative() {
			return fmt.Errorf("entry %d: %w", line.EntrySequence, models.ErrNegativeAmount)
		}
		if _, err := models.ToMinorUnits(line.Amount); err != nil {
			return fmt.Errorf("entry %d: %w", line.EntrySequence, err)
		}
		if line.PostingType == models.PostingDebit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}

	if !debits.Equal(credits) {
		return &models.UnbalancedEntriesError{Debits: debits, Credits: credits}
	}
	return nil
}

// PostTransaction validates the draft, resolves its accounts and inserts the
// header with all entries as one unit.
func (e *PostingEngine) PostTransaction(ctx context.Context, store repository.Store, draft models.PostingDraft) (*models.PostedTransaction, error) {
	if err := ValidateEntries(draft.Lines); err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:                        e.newID(),
		TransactionType:           draft.Header.TransactionType,
		Description:               draft.Header.Description,
		Timestamp:                 draft.Header.Timestamp.UTC(),
		LegacyTransactionID:       draft.Header.LegacyTransactionID,
		SynchronizedTransactionID: draft.Header.SynchronizedTransactionID,
		PrisonCode:                draft.Header.PrisonCode,
		CreatedAt:                 e.now().UTC(),
	}

	posted := &models.PostedTransaction{Transaction: tx}
	entries := make([]models.TransactionEntry, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		account := line.Account
		if account == nil {
			resolved, err := e.resolver.ResolveAccount(ctx, store, line.AccountCode, line.PrisonerNumber, draft.Header.PrisonCode)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", line.EntrySequence, err)
			}
			account = resolved
		}

		entry := models.TransactionEntry{
			ID:            e.newID(),
			TransactionID: tx.ID,
			AccountID:     account.ID,
			EntrySequence: line.EntrySequence,
			Amount:        line.Amount,
			PostingType:   line.PostingType,
		}
		entries = append(entries, entry)
		posted.Entries = append(posted.Entries, models.PostedEntry{TransactionEntry: entry, Account: *account})
	}

	if err := store.InsertTransaction(ctx, tx, entries); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return posted, nil
}

// Publish announces a committed transaction. Delivery failures are logged only:
// the ledger row is the record and reconciliation finds anything not forwarded.
func (e *PostingEngine) Publish(ctx context.Context, posted *models.PostedTransaction) {
	if e.metrics != nil {
		e.metrics.PostedTransactions.WithLabelValues(posted.Transaction.TransactionType).Inc()
	}
	if e.publisher == nil {
		return
	}
	event := models.NewTransactionRecordedEvent(*posted, e.now().UTC())
	if err := e.publisher.Publish(ctx, models.EventTransactionRecorded, event); err != nil {
		log.Error().Err(err).
			Str("transactionId", posted.Transaction.ID.String()).
			Msg("failed to publish transaction recorded event")
	}
}
