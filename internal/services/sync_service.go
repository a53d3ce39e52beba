package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/prisonfinance/ledgersync/internal/legacytime"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// Decision is the outcome of comparing a request with what was already received.
type Decision string

const (
	DecisionNew        Decision = "NEW"
	DecisionCorrection Decision = "CORRECTION"
	DecisionProcessed  Decision = "PROCESSED"
)

type SyncDecision struct {
	Outcome                   Decision
	SynchronizedTransactionID uuid.UUID
}

// Fields that differ between retries of the same legacy transaction.
var bodyComparison = cmp.Options{
	cmpopts.IgnoreFields(models.OffenderTransactionRequest{}, "RequestID"),
	cmpopts.IgnoreFields(models.GeneralLedgerTransactionRequest{}, "RequestID"),
	cmpopts.EquateEmpty(),
}

type SyncService struct {
	store   repository.Store
	engine  *PostingEngine
	metrics *Metrics
	now     func() time.Time
	newID   func() uuid.UUID
}

func NewSyncService(store repository.Store, engine *PostingEngine, metrics *Metrics) *SyncService {
	return &SyncService{
		store:   store,
		engine:  engine,
		metrics: metrics,
		now:     time.Now,
		newID:   uuid.New,
	}
}

// Decide classifies req without writing anything.
func (s *SyncService) Decide(ctx context.Context, req models.SyncRequest) (*SyncDecision, error) {
	return s.decide(ctx, s.store, req)
}

func (s *SyncService) decide(ctx context.Context, store repository.SyncPayloadStore, req models.SyncRequest) (*SyncDecision, error) {
	existing, err := store.FindSyncPayloadByRequestID(ctx, req.IdempotencyKey())
	if err == nil {
		return &SyncDecision{Outcome: DecisionProcessed, SynchronizedTransactionID: existing.SynchronizedTransactionID}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find payload by request id: %w", err)
	}

	latest, err := store.FindLatestSyncPayloadByLegacyID(ctx, req.LegacyID())
	if errors.Is(err, repository.ErrNotFound) {
		return &SyncDecision{Outcome: DecisionNew, SynchronizedTransactionID: s.newID()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest payload for legacy transaction %d: %w", req.LegacyID(), err)
	}

	previous, err := models.DecodeSyncRequest(latest.RequestTypeIdentifier, latest.Body)
	if err != nil {
		return nil, fmt.Errorf("stored payload %d: %w", latest.ID, err)
	}
	if sameBody(previous, req) {
		return &SyncDecision{Outcome: DecisionProcessed, SynchronizedTransactionID: latest.SynchronizedTransactionID}, nil
	}
	return &SyncDecision{Outcome: DecisionCorrection, SynchronizedTransactionID: latest.SynchronizedTransactionID}, nil
}

func sameBody(previous, current models.SyncRequest) bool {
	if previous.Kind() != current.Kind() {
		return false
	}
	return cmp.Equal(previous, current, bodyComparison)
}

// Sync records req exactly once. New and corrected requests are posted and
// audited in one transaction; repeats return the stored synchronized id.
func (s *SyncService) Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode sync request: %w", err)
	}

	var (
		decision *SyncDecision
		posted   []*models.PostedTransaction
	)
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		posted = posted[:0]

		d, err := s.decide(ctx, tx, req)
		if err != nil {
			return err
		}
		decision = d
		if d.Outcome == DecisionProcessed {
			return nil
		}

		if d.Outcome == DecisionCorrection {
			reversal, err := s.reverse(ctx, tx, d.SynchronizedTransactionID, req)
			if err != nil {
				return fmt.Errorf("reverse previous postings: %w", err)
			}
			if reversal != nil {
				posted = append(posted, reversal)
			}
		}

		for _, draft := range req.Postings(d.SynchronizedTransactionID) {
			p, err := s.engine.PostTransaction(ctx, tx, draft)
			if err != nil {
				return err
			}
			posted = append(posted, p)
		}

		legacyID := req.LegacyID()
		payload := &models.SyncPayload{
			Timestamp:                 s.now().UTC(),
			LegacyTransactionID:       &legacyID,
			SynchronizedTransactionID: d.SynchronizedTransactionID,
			RequestID:                 req.IdempotencyKey(),
			CaseloadID:                req.Caseload(),
			RequestTypeIdentifier:     req.Kind(),
			TransactionTimestamp:      legacytime.ToUTCInstant(req.BusinessTime()),
			Body:                      body,
		}
		if err := tx.InsertSyncPayload(ctx, payload); err != nil {
			if errors.Is(err, repository.ErrDuplicateKey) {
				return fmt.Errorf("request %s: %w", req.IdempotencyKey(), models.ErrDuplicateRequest)
			}
			return fmt.Errorf("insert sync payload: %w", err)
		}
		return nil
	})

	if errors.Is(err, models.ErrDuplicateRequest) {
		winner, ferr := s.store.FindSyncPayloadByRequestID(ctx, req.IdempotencyKey())
		if ferr != nil {
			return nil, fmt.Errorf("re-read winning payload: %w", ferr)
		}
		log.Info().Str("requestId", req.IdempotencyKey().String()).Msg("concurrent duplicate sync request folded into processed")
		s.count(req.Kind(), models.SyncActionProcessed)
		return &models.SyncResponse{SynchronizedTransactionID: winner.SynchronizedTransactionID, Action: models.SyncActionProcessed}, nil
	}
	if err != nil {
		if models.IsClientError(err) {
			if s.metrics != nil {
				s.metrics.RejectedPostings.WithLabelValues(rejectionReason(err)).Inc()
			}
			log.Error().Err(err).
				Str("requestId", req.IdempotencyKey().String()).
				Int64("legacyTransactionId", req.LegacyID()).
				RawJSON("payload", body).
				Msg("rejected sync request")
		}
		return nil, err
	}

	for _, p := range posted {
		s.engine.Publish(ctx, p)
	}

	action := actionFor(decision.Outcome)
	s.count(req.Kind(), action)
	log.Info().
		Str("requestId", req.IdempotencyKey().String()).
		Str("synchronizedTransactionId", decision.SynchronizedTransactionID.String()).
		Str("action", string(action)).
		Int("transactions", len(posted)).
		Msg("sync request handled")

	return &models.SyncResponse{SynchronizedTransactionID: decision.SynchronizedTransactionID, Action: action}, nil
}

func (s *SyncService) count(kind models.RequestKind, action models.SyncAction) {
	if s.metrics != nil {
		s.metrics.SyncRequests.WithLabelValues(string(kind), string(action)).Inc()
	}
}

func actionFor(d Decision) models.SyncAction {
	switch d {
	case DecisionNew:
		return models.SyncActionCreated
	case DecisionCorrection:
		return models.SyncActionUpdated
	default:
		return models.SyncActionProcessed
	}
}

type netPosition struct {
	account models.Account
	amount  decimal.Decimal
}

// reverse posts one transaction that cancels the net effect, per account, of
// everything already posted under synchronizedID. Nothing is written when the
// earlier postings already net to zero.
func (s *SyncService) reverse(ctx context.Context, tx repository.Store, synchronizedID uuid.UUID, req models.SyncRequest) (*models.PostedTransaction, error) {
	entries, err := tx.ListEntriesBySynchronizedID(ctx, synchronizedID)
	if err != nil {
		return nil, err
	}

	positions := make(map[uuid.UUID]*netPosition)
	var order []uuid.UUID
	for _, e := range entries {
		pos, ok := positions[e.AccountID]
		if !ok {
			pos = &netPosition{account: e.Account}
			positions[e.AccountID] = pos
			order = append(order, e.AccountID)
		}
		if e.PostingType == models.PostingDebit {
			pos.amount = pos.amount.Add(e.Amount)
		} else {
			pos.amount = pos.amount.Sub(e.Amount)
		}
	}

	var lines []models.EntryLine
	for _, id := range order {
		pos := positions[id]
		if pos.amount.IsZero() {
			continue
		}
		side := models.PostingCredit
		if pos.amount.IsNegative() {
			side = models.PostingDebit
		}
		account := pos.account
		lines = append(lines, models.EntryLine{
			EntrySequence:  len(lines) + 1,
			AccountCode:    account.AccountCode,
			PrisonerNumber: account.PrisonerNumber,
			PostingType:    side,
			Amount:         pos.amount.Abs(),
			Account:        &account,
		})
	}
	if len(lines) == 0 {
		return nil, nil
	}

	legacyID := req.LegacyID()
	return s.engine.PostTransaction(ctx, tx, models.PostingDraft{
		Header: models.TransactionHeader{
			TransactionType:           models.ReversalTransactionType,
			Description:               fmt.Sprintf("Reversal for corrected legacy transaction %d", legacyID),
			Timestamp:                 legacytime.ToUTCInstant(req.BusinessTime()),
			LegacyTransactionID:       &legacyID,
			SynchronizedTransactionID: synchronizedID,
			PrisonCode:                req.Caseload(),
		},
		Lines: lines,
	})
}
