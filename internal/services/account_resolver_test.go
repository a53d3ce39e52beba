package services

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/reference"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

func TestAccountResolver_ResolveAccount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	resolver := NewAccountResolver(reference.Default())

	t.Run("creates prison account on first use", func(t *testing.T) {
		first, err := resolver.ResolveAccount(ctx, store, 1501, "", "MDI")
		require.NoError(t, err)
		assert.Equal(t, "MDI", first.PrisonCode)
		assert.Empty(t, first.PrisonerNumber)
		assert.Equal(t, models.PostingDebit, first.PostingType)

		second, err := resolver.ResolveAccount(ctx, store, 1501, "", "MDI")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		other, err := resolver.ResolveAccount(ctx, store, 1501, "", "LEI")
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, other.ID)
	})

	t.Run("prisoner code resolves by sub-account type", func(t *testing.T) {
		account, err := resolver.ResolveAccount(ctx, store, 2102, "A1234BC", "MDI")
		require.NoError(t, err)
		assert.Equal(t, models.SubAccountSpends, account.SubAccountType)
		assert.Equal(t, "A1234BC", account.PrisonerNumber)
		assert.Empty(t, account.PrisonCode)

		// A different establishment still finds the same prisoner account.
		again, err := resolver.ResolveAccount(ctx, store, 2102, "A1234BC", "LEI")
		require.NoError(t, err)
		assert.Equal(t, account.ID, again.ID)
	})

	t.Run("prisoner code without prisoner", func(t *testing.T) {
		_, err := resolver.ResolveAccount(ctx, store, 2101, "", "MDI")
		assert.ErrorIs(t, err, models.ErrPrisonerRequired)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := resolver.ResolveAccount(ctx, store, 1234, "", "MDI")
		assert.ErrorIs(t, err, models.ErrUnknownAccountCode)
	})
}

func TestAccountResolver_ConcurrentResolutionCreatesOneAccount(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	resolver := NewAccountResolver(reference.Default())

	const workers = 16
	ids := make([]uuid.UUID, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			account, err := resolver.ResolveAccount(ctx, store, 3101, "", "BXI")
			errs[i] = err
			if err == nil {
				ids[i] = account.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	accounts, err := store.ListPrisonAccounts(ctx, "BXI")
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

// staleAccounts misses the first prison lookup, as a resolver that lost the
// insert race would.
type staleAccounts struct {
	*repository.Memory
	missed bool
}

func (s *staleAccounts) FindPrisonAccount(ctx context.Context, prisonCode string, accountCode int) (*models.Account, error) {
	if !s.missed {
		s.missed = true
		return nil, repository.ErrNotFound
	}
	return s.Memory.FindPrisonAccount(ctx, prisonCode, accountCode)
}

func TestAccountResolver_LostInsertRaceRereads(t *testing.T) {
	ctx := context.Background()
	memory := repository.NewMemory()
	resolver := NewAccountResolver(reference.Default())

	winner, err := resolver.ResolveAccount(ctx, memory, 4201, "", "MDI")
	require.NoError(t, err)

	loser, err := resolver.ResolveAccount(ctx, &staleAccounts{Memory: memory}, 4201, "", "MDI")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, loser.ID)
}
