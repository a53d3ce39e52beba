package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/models"
)

func mergeNotification(survivor, removed string) models.MergeNotification {
	return models.MergeNotification{
		EventType:   models.EventPrisonerMerged,
		Description: "A prisoner has been merged",
		AdditionalInformation: models.MergeInformation{
			NomsNumber:        survivor,
			RemovedNomsNumber: removed,
		},
	}
}

func TestMergeService_MergeCombinesBalancesAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A holds 3.50 Spends; B holds 1.50 Spends and 2.00 Cash.
	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "AAAAAAA", "3.50"))
	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "BBBBBBB", "1.50"))
	env.post(t, transfer("LEI", "CASH", fixedNow, 1501, 2101, "BBBBBBB", "2.00"))

	loserSpends, err := env.store.FindPrisonerAccount(ctx, "BBBBBBB", models.SubAccountSpends)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, env.merge.HandleMergeNotification(ctx, mergeNotification("AAAAAAA", "BBBBBBB")))

		assert.Equal(t, "5", env.prisonerBalance(t, "AAAAAAA", models.SubAccountSpends).String())
		assert.Equal(t, "2", env.prisonerBalance(t, "AAAAAAA", models.SubAccountCash).String())
		assert.Equal(t, "0", env.prisonerBalance(t, "BBBBBBB", models.SubAccountSpends).String())
	}

	// The emptied account is kept for audit.
	remaining, err := env.store.ListPrisonerAccounts(ctx, "BBBBBBB")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, loserSpends.ID, remaining[0].ID)

	balances, err := env.reconciliation.PrisonerBalances(ctx, "BBBBBBB")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[0].Balance.IsZero())

	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.Merges))
}

func TestMergeService_MergeAccountsResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "AAAAAAA", "1.00"))
	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "BBBBBBB", "1.00"))
	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "BBBBBBB", "1.00"))
	env.post(t, transfer("MDI", "SAV", fixedNow, 1501, 2103, "BBBBBBB", "1.00"))

	result, err := env.merge.MergeAccounts(ctx, "BBBBBBB", "AAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 2, result.MovedEntries)
	assert.Equal(t, 1, result.ReassignedAccount)

	again, err := env.merge.MergeAccounts(ctx, "BBBBBBB", "AAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, models.MergeResult{}, *again)
}

func TestMergeService_HandleMergeNotificationDropsOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.post(t, transfer("MDI", "SPND", fixedNow, 1501, 2102, "BBBBBBB", "1.50"))

	tests := []struct {
		name         string
		notification models.MergeNotification
	}{
		{"other event type", models.MergeNotification{EventType: "prison-offender-events.prisoner.released", AdditionalInformation: models.MergeInformation{NomsNumber: "AAAAAAA", RemovedNomsNumber: "BBBBBBB"}}},
		{"missing removed number", mergeNotification("AAAAAAA", "")},
		{"self merge", mergeNotification("BBBBBBB", "BBBBBBB")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, env.merge.HandleMergeNotification(ctx, tt.notification))
			assert.Equal(t, "1.5", env.prisonerBalance(t, "BBBBBBB", models.SubAccountSpends).String())
		})
	}
	assert.Equal(t, 0.0, testutil.ToFloat64(env.metrics.Merges))
}

func TestMergeService_MergeIntoSelf(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.merge.MergeAccounts(context.Background(), "AAAAAAA", "AAAAAAA")
	assert.ErrorIs(t, err, models.ErrInvalidMerge)
	assert.True(t, models.IsClientError(err))
}
