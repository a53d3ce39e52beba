package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/prisonfinance/ledgersync/internal/generalledger"
	"github.com/prisonfinance/ledgersync/internal/models"
)

// ForwardingService pushes committed transactions to the general ledger.
// Failures are counted and logged; reconciliation picks up anything missed.
type ForwardingService struct {
	ledger    GeneralLedger
	catalog   AccountCatalog
	skipTypes []string
	metrics   *Metrics
}

// NewForwardingService skips transactions whose type is in skipTypes, which
// are reported to the general ledger as statement balances instead.
func NewForwardingService(ledger GeneralLedger, catalog AccountCatalog, skipTypes []string, metrics *Metrics) *ForwardingService {
	if len(skipTypes) == 0 {
		skipTypes = DefaultMigrationTransactionTypes
	}
	return &ForwardingService{
		ledger:    ledger,
		catalog:   catalog,
		skipTypes: skipTypes,
		metrics:   metrics,
	}
}

func (s *ForwardingService) remoteReference(account models.Account) (string, string, error) {
	if account.IsPrisonerAccount() {
		ref, ok := s.catalog.RemoteSubAccountFor(account.AccountCode)
		if !ok {
			return "", "", fmt.Errorf("account code %d: %w", account.AccountCode, models.ErrNotPrisonerAccount)
		}
		return account.PrisonerNumber, ref, nil
	}
	return account.PrisonCode, strconv.Itoa(account.AccountCode), nil
}

// ForwardTransaction posts the event's entries with the transaction id as the
// idempotency key, so replays are harmless.
func (s *ForwardingService) ForwardTransaction(ctx context.Context, event models.TransactionRecordedEvent) error {
	tx := event.Transaction
	if lo.Contains(s.skipTypes, tx.TransactionType) {
		log.Debug().Str("transactionId", tx.ID.String()).Str("type", tx.TransactionType).Msg("not forwarding migration transaction")
		return nil
	}

	err := s.forward(ctx, event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ForwardFailures.Inc()
		}
		log.Error().Err(err).
			Str("transactionId", tx.ID.String()).
			Str("synchronizedTransactionId", tx.SynchronizedTransactionID.String()).
			Msg("failed to forward transaction to general ledger")
	}
	return err
}

func (s *ForwardingService) forward(ctx context.Context, event models.TransactionRecordedEvent) error {
	roots := make(map[string]*generalledger.Account)
	req := generalledger.TransactionRequest{
		Reference:   event.Transaction.SynchronizedTransactionID.String(),
		Description: event.Transaction.Description,
		Timestamp:   event.Transaction.Timestamp,
	}

	for _, e := range event.Entries {
		parentRef, subRef, err := s.remoteReference(e.Account)
		if err != nil {
			return err
		}
		root, ok := roots[parentRef]
		if !ok {
			if root, err = findOrCreateAccount(ctx, s.ledger, parentRef); err != nil {
				return err
			}
			roots[parentRef] = root
		}
		subAccount, err := findOrCreateSubAccount(ctx, s.ledger, root, subRef)
		if err != nil {
			return err
		}

		minor, err := models.ToMinorUnits(e.Amount)
		if err != nil {
			return err
		}
		req.Postings = append(req.Postings, generalledger.Posting{
			SubAccountID: subAccount.ID,
			Type:         generalledger.PostingType(e.PostingType),
			Amount:       minor,
		})
		if e.PostingType == models.PostingDebit {
			req.Amount += minor
		}
	}

	if len(req.Postings) == 0 {
		return nil
	}
	resp, err := s.ledger.PostTransaction(ctx, event.Transaction.ID, req)
	if err != nil {
		return err
	}
	log.Info().
		Str("transactionId", event.Transaction.ID.String()).
		Str("remoteTransactionId", resp.ID.String()).
		Msg("transaction forwarded to general ledger")
	return nil
}
