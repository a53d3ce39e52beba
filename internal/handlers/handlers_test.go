package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/generalledger"
	"github.com/prisonfinance/ledgersync/internal/models"
	"github.com/prisonfinance/ledgersync/internal/reference"
	"github.com/prisonfinance/ledgersync/internal/repository"
	"github.com/prisonfinance/ledgersync/internal/services"
)

const (
	testSecret = "handler-test-secret"
	syncRole   = "ROLE_PRISONER_FINANCE_SYNC"
)

// unavailableLedger answers every call with a remote-state error.
type unavailableLedger struct{}

func (unavailableLedger) fail(op string) error {
	return &models.RemoteStateError{Operation: op, StatusCode: http.StatusServiceUnavailable, Reason: "maintenance"}
}

func (l unavailableLedger) FindAccountByReference(context.Context, string) ([]generalledger.Account, error) {
	return nil, l.fail("findAccountByReference")
}

func (l unavailableLedger) CreateAccount(context.Context, string) (*generalledger.Account, error) {
	return nil, l.fail("createAccount")
}

func (l unavailableLedger) FindSubAccount(context.Context, string, string) ([]generalledger.SubAccount, error) {
	return nil, l.fail("findSubAccount")
}

func (l unavailableLedger) CreateSubAccount(context.Context, uuid.UUID, string) (*generalledger.SubAccount, error) {
	return nil, l.fail("createSubAccount")
}

func (l unavailableLedger) PostStatementBalance(context.Context, uuid.UUID, int64, time.Time) error {
	return l.fail("postStatementBalance")
}

func (l unavailableLedger) GetSubAccountBalance(context.Context, uuid.UUID) (*generalledger.SubAccountBalance, error) {
	return nil, l.fail("getSubAccountBalance")
}

func (l unavailableLedger) PostTransaction(context.Context, uuid.UUID, generalledger.TransactionRequest) (*generalledger.TransactionResponse, error) {
	return nil, l.fail("postTransaction")
}

type testServer struct {
	store   *repository.Memory
	handler http.Handler
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemory()
	catalog := reference.Default()
	registry := prometheus.NewRegistry()
	metrics := services.NewMetrics(registry)
	ledger := unavailableLedger{}

	engine := services.NewPostingEngine(services.NewAccountResolver(catalog), nil, metrics)

	handler := NewRouter(RouterConfig{
		Sync:           NewSyncHandler(services.NewSyncService(store, engine, metrics)),
		Migration:      NewMigrationHandler(services.NewMigrationService(store, catalog, engine, ledger, nil, metrics)),
		Reconciliation: NewReconciliationHandler(services.NewReconciliationService(store, catalog, ledger)),
		Merge:          NewMergeHandler(services.NewMergeService(store, metrics)),
		JWTSecret:      testSecret,
		RequiredRole:   syncRole,
		AllowedOrigins: []string{"*"},
		Gatherer:       registry,
	})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "prisoner-finance-sync-client",
		"authorities": []string{syncRole},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &testServer{store: store, handler: handler, token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func offenderTransactionBody(requestID uuid.UUID, prisoner, amount string) string {
	return `{
		"transactionId": 19228028,
		"requestId": "` + requestID.String() + `",
		"caseloadId": "MDI",
		"transactionTimestamp": "2024-06-18T14:30:00",
		"createdAt": "2024-06-18T14:30:05",
		"createdBy": "JD12345",
		"createdByDisplayName": "J Doe",
		"offenderTransactions": [{
			"entrySequence": 1,
			"offenderId": 1015388,
			"offenderDisplayId": "` + prisoner + `",
			"subAccountType": "REG",
			"postingType": "CR",
			"type": "CANT",
			"description": "Canteen refund",
			"amount": ` + amount + `,
			"generalLedgerEntries": [
				{"entrySequence": 1, "code": 1501, "postingType": "DR", "amount": ` + amount + `},
				{"entrySequence": 2, "code": 2101, "postingType": "CR", "amount": ` + amount + `}
			]
		}]
	}`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRouter_RequiresToken(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconcile/prisons/MDI", nil)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/v1/sync/offender-transactions", offenderTransactionBody(uuid.New(), "AA001AA", "1.00"))

	health := httptest.NewRecorder()
	srv.handler.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, health.Body.String())

	metrics := httptest.NewRecorder()
	srv.handler.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `ledgersync_sync_requests_total{action="CREATED",kind="OFFENDER_TRANSACTION"} 1`)
}

func TestRouter_ServesAPIDescription(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/sync/offender-transactions")
	assert.Contains(t, doc.Paths, "/merge")
}

func TestSyncHandler_CreatedThenProcessed(t *testing.T) {
	srv := newTestServer(t)
	body := offenderTransactionBody(uuid.New(), "AA001AA", "162.00")

	first := srv.do(t, http.MethodPost, "/api/v1/sync/offender-transactions", body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	created := decode[models.SyncResponse](t, first)
	assert.Equal(t, models.SyncActionCreated, created.Action)

	second := srv.do(t, http.MethodPost, "/api/v1/sync/offender-transactions", body)
	require.Equal(t, http.StatusOK, second.Code)
	replayed := decode[models.SyncResponse](t, second)
	assert.Equal(t, models.SyncActionProcessed, replayed.Action)
	assert.Equal(t, created.SynchronizedTransactionID, replayed.SynchronizedTransactionID)

	rec := srv.do(t, http.MethodGet, "/api/v1/reconcile/prisoners/AA001AA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	balances := decode[[]models.EstablishmentBalance](t, rec)
	require.Len(t, balances, 1)
	assert.Equal(t, "MDI", balances[0].PrisonID)
	assert.Equal(t, 2101, balances[0].AccountCode)
	assert.Equal(t, "162", balances[0].TotalBalance.String())
}

func TestSyncHandler_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed", `{"transactionId":`, "Invalid request body"},
		{"two objects", `{} {}`, "Request body must only contain a single JSON object"},
		{"missing fields", `{"transactionId": 1}`, "Validation failed"},
		{"three decimal places", offenderTransactionBody(uuid.New(), "AA001AA", "1.005"), "Validation failed"},
		{"amount beyond ledger range", offenderTransactionBody(uuid.New(), "AA001AA", "184467440737095517.16"), "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/api/v1/sync/offender-transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[services.ErrorResponse](t, rec)
			assert.Equal(t, tt.message, resp.Error)
		})
	}
}

func TestSyncHandler_UnbalancedGeneralLedgerTransaction(t *testing.T) {
	srv := newTestServer(t)
	body := `{
		"transactionId": 5501,
		"requestId": "` + uuid.NewString() + `",
		"caseloadId": "LEI",
		"transactionType": "GJ",
		"transactionTimestamp": "2024-01-10T09:00:00",
		"createdBy": "JD12345",
		"generalLedgerEntries": [
			{"entrySequence": 1, "code": 4201, "postingType": "DR", "amount": 5.00},
			{"entrySequence": 2, "code": 1501, "postingType": "CR", "amount": 4.00}
		]
	}`

	rec := srv.do(t, http.MethodPost, "/api/v1/sync/general-ledger-transactions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[services.ErrorResponse](t, rec).Error, "unbalanced entries")

	prison := srv.do(t, http.MethodGet, "/api/v1/reconcile/prisons/LEI", "")
	require.Equal(t, http.StatusOK, prison.Code)
	assert.Empty(t, decode[[]models.AccountBalance](t, prison))
}

func TestReconciliationHandler_RemoteFailureIsBadGateway(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/reconcile/prisoners/AA001AA/general-ledger", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/reconcile/prisons/MDI/general-ledger", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMigrationHandler_RejectsPrisonAccountCode(t *testing.T) {
	srv := newTestServer(t)
	body := `{"accountBalances":[{"prisonId":"MDI","accountCode":1501,"balance":10.00,"holdBalance":0,"asOfTimestamp":"2024-03-01T00:00:00"}]}`

	rec := srv.do(t, http.MethodPost, "/api/v1/migrate/prisoner-balances/A1234BC", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	unknown := srv.do(t, http.MethodPost, "/api/v1/migrate/prisoner-balances/A1234BC", `{"accountBalances":[],"extra":true}`)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
}

func TestMergeHandler(t *testing.T) {
	srv := newTestServer(t)
	srv.do(t, http.MethodPost, "/api/v1/sync/offender-transactions", offenderTransactionBody(uuid.New(), "BBBBBBB", "3.00"))

	rec := srv.do(t, http.MethodPost, "/api/v1/merge", `{"survivingPrisonerNumber":"AAAAAAA","removedPrisonerNumber":"BBBBBBB"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.MergeResult{ReassignedAccount: 1}, decode[models.MergeResult](t, rec))

	balances := decode[[]models.EstablishmentBalance](t, srv.do(t, http.MethodGet, "/api/v1/reconcile/prisoners/AAAAAAA", ""))
	require.Len(t, balances, 1)
	assert.Equal(t, "3", balances[0].TotalBalance.String())

	self := srv.do(t, http.MethodPost, "/api/v1/merge", `{"survivingPrisonerNumber":"AAAAAAA","removedPrisonerNumber":"AAAAAAA"}`)
	assert.Equal(t, http.StatusBadRequest, self.Code)
}
