package app

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/config"
	"github.com/prisonfinance/ledgersync/internal/legacytime"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/repository"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	v.Set("jwt.secret_key", "secret")
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func glRequest() *models.GeneralLedgerTransactionRequest {
	return &models.GeneralLedgerTransactionRequest{
		TransactionID:        77,
		RequestID:            uuid.New(),
		CaseloadID:           "LEI",
		TransactionType:      "GJ",
		TransactionTimestamp: legacytime.NewLocalDateTime(2024, 1, 10, 9, 0, 0),
		CreatedBy:            "JD12345",
		GeneralLedgerEntries: []models.GeneralLedgerEntry{
			{EntrySequence: 1, Code: 4201, PostingType: models.PostingDebit, Amount: decimal.RequireFromString("1.00")},
			{EntrySequence: 2, Code: 1501, PostingType: models.PostingCredit, Amount: decimal.RequireFromString("1.00")},
		},
	}
}

func TestBuild_WithoutRedis(t *testing.T) {
	a, err := Build(testConfig(t), repository.NewMemory(), nil, nil)
	require.NoError(t, err)

	assert.Nil(t, a.Consumer())
	assert.NotNil(t, a.Router())

	resp, err := a.Sync.Sync(context.Background(), glRequest())
	require.NoError(t, err)
	assert.Equal(t, models.SyncActionCreated, resp.Action)
}

func TestBuild_PublishesCommittedTransactions(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := testConfig(t)

	a, err := Build(cfg, repository.NewMemory(), nil, db)
	require.NoError(t, err)
	require.NotNil(t, a.Consumer())

	mock.Regexp().ExpectRPush(cfg.Queues.Transactions, `"eventType":"transaction.recorded"`).SetVal(1)

	_, err = a.Sync.Sync(context.Background(), glRequest())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuild_RejectsUnknownZone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.LegacyTimeZone = "Mars/Olympus_Mons"

	_, err := Build(cfg, repository.NewMemory(), nil, nil)
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	defer func(l zerolog.Logger, lvl zerolog.Level) {
		log.Logger = l
		zerolog.SetGlobalLevel(lvl)
	}(log.Logger, zerolog.GlobalLevel())

	var buf bytes.Buffer
	ConfigureLogging("warn", "json", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("prisonerNumber", "A1234BC").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "ledgersync", line["service"])
	assert.Equal(t, "A1234BC", line["prisonerNumber"])
}
