package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

// MergeService folds the accounts of a retired prisoner number into the survivor.
type MergeService struct {
	store   repository.Store
	metrics *Metrics
}

func NewMergeService(store repository.Store, metrics *Metrics) *MergeService {
	return &MergeService{store: store, metrics: metrics}
}

// MergeAccounts moves everything owned by from onto to. Where to already has
// an account of the same sub-account type the entries move and the emptied
// account stays behind; otherwise the account itself changes owner. Applying
// the same merge again changes nothing.
func (s *MergeService) MergeAccounts(ctx context.Context, from, to string) (*models.MergeResult, error) {
	if from == to {
		return nil, fmt.Errorf("%s: %w", from, models.ErrInvalidMerge)
	}

	result := &models.MergeResult{}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		*result = models.MergeResult{}

		accounts, err := tx.ListPrisonerAccounts(ctx, from)
		if err != nil {
			return fmt.Errorf("list accounts of %s: %w", from, err)
		}

		for _, account := range accounts {
			target, err := tx.FindPrisonerAccount(ctx, to, account.SubAccountType)
			switch {
			case err == nil:
				moved, err := tx.MoveEntries(ctx, account.ID, target.ID)
				if err != nil {
					return fmt.Errorf("move entries of %s: %w", account.ID, err)
				}
				result.MovedEntries += int(moved)
			case errors.Is(err, repository.ErrNotFound):
				if err := tx.ReassignAccountOwner(ctx, account.ID, to); err != nil {
					return fmt.Errorf("reassign account %s: %w", account.ID, err)
				}
				result.ReassignedAccount++
			default:
				return fmt.Errorf("find %s account of %s: %w", account.SubAccountType, to, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Merges.Inc()
	}
	log.Info().
		Str("removedPrisonerNumber", from).
		Str("survivingPrisonerNumber", to).
		Int("movedEntries", result.MovedEntries).
		Int("reassignedAccounts", result.ReassignedAccount).
		Msg("prisoner accounts merged")
	return result, nil
}

// HandleMergeNotification applies a merge event. Other event types and
// incomplete notifications are logged and dropped.
func (s *MergeService) HandleMergeNotification(ctx context.Context, n models.MergeNotification) error {
	if n.EventType != models.EventPrisonerMerged {
		log.Warn().Str("eventType", n.EventType).Msg("ignoring unrecognised prisoner event")
		return nil
	}

	info := n.AdditionalInformation
	if info.NomsNumber == "" || info.RemovedNomsNumber == "" || info.NomsNumber == info.RemovedNomsNumber {
		log.Warn().
			Str("nomsNumber", info.NomsNumber).
			Str("removedNomsNumber", info.RemovedNomsNumber).
			Msg("dropping incomplete merge notification")
		return nil
	}

	_, err := s.MergeAccounts(ctx, info.RemovedNomsNumber, info.NomsNumber)
	return err
}
