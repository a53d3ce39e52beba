package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/app"
	"github.com/prisonfinance/ledgersync/internal/config"
	"github.com/prisonfinance/ledgersync/internal/legacytime"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

func memoryApp(t *testing.T) *app.App {
	t.Helper()
	v := viper.New()
	v.Set("jwt.secret_key", "secret")
	cfg, err := config.Load(v)
	require.NoError(t, err)

	a, err := app.Build(cfg, repository.NewMemory(), nil, nil)
	require.NoError(t, err)
	return a
}

func run(t *testing.T, a *app.App, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(func(context.Context, string) (*app.App, error) {
		return a, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func credit(t *testing.T, a *app.App, prisoner, amount string) {
	t.Helper()
	value := decimal.RequireFromString(amount)
	_, err := a.Sync.Sync(context.Background(), &models.OffenderTransactionRequest{
		TransactionID:        1,
		RequestID:            uuid.New(),
		CaseloadID:           "MDI",
		TransactionTimestamp: legacytime.NewLocalDateTime(2024, 6, 18, 10, 0, 0),
		CreatedBy:            "JD12345",
		OffenderTransactions: []models.OffenderTransaction{{
			EntrySequence:     1,
			OffenderDisplayID: prisoner,
			SubAccountType:    "SPND",
			PostingType:       models.PostingCredit,
			Type:              "CANT",
			Amount:            value,
			GeneralLedgerEntries: []models.GeneralLedgerEntry{
				{EntrySequence: 1, Code: 1501, PostingType: models.PostingDebit, Amount: value},
				{EntrySequence: 2, Code: 2102, PostingType: models.PostingCredit, Amount: value},
			},
		}},
	})
	require.NoError(t, err)
}

func TestReconcilePrisoner(t *testing.T) {
	a := memoryApp(t)
	credit(t, a, "A1234BC", "7.25")

	out, err := run(t, a, "reconcile", "prisoner", "A1234BC")
	require.NoError(t, err)
	assert.Contains(t, out, "MDI")
	assert.Contains(t, out, "2102")
	assert.Contains(t, out, "7.25")

	out, err = run(t, a, "reconcile", "prisoner", "Z9999ZZ")
	require.NoError(t, err)
	assert.Contains(t, out, "No accounts found")
}

func TestMerge(t *testing.T) {
	a := memoryApp(t)
	credit(t, a, "BBBBBBB", "2.00")

	out, err := run(t, a, "merge", "BBBBBBB", "AAAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Moved 0 entries, reassigned 1 accounts from BBBBBBB to AAAAAAA\n", out)

	_, err = run(t, a, "merge", "AAAAAAA", "AAAAAAA")
	assert.ErrorIs(t, err, models.ErrInvalidMerge)
}

func TestMigrateRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"accountBalances":[{"prisonId":"MDI","accountCode":2101,"balance":1.005}]}`), 0o600))

	_, err := run(t, memoryApp(t), "migrate", "prisoner", "A1234BC", "--file", path)
	assert.Error(t, err)

	_, err = run(t, memoryApp(t), "migrate", "prisoner", "A1234BC")
	assert.ErrorContains(t, err, `required flag(s) "file" not set`)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "abcd****mnop", mask("abcdefghmnop"))
	assert.Equal(t, "****", mask("abcd"))
	assert.Equal(t, "", mask(""))
}
