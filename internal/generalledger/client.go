// Package generalledger is the HTTP client for the external general ledger.
//
// Find* calls return an empty slice when nothing matches. A null or empty body
// is never "not found": it fails with *models.RemoteStateError, as do transport
// errors, timeouts and non-2xx responses. The client does not retry.
package generalledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/prisonfinance/ledgersync/internal/models"
)

const (
	DefaultTimeout     = 10 * time.Second
	idempotencyHeader  = "Idempotency-Key"
	maxErrorBodyLength = 512
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken authenticates every call.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) FindAccountByReference(ctx context.Context, reference string) ([]Account, error) {
	var accounts []Account
	q := url.Values{"reference": {reference}}
	if err := c.do(ctx, "findAccountByReference", http.MethodGet, "/accounts", q, nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) CreateAccount(ctx context.Context, reference string) (*Account, error) {
	var account Account
	body := map[string]string{"accountReference": reference}
	if err := c.do(ctx, "createAccount", http.MethodPost, "/accounts", nil, nil, body, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) FindSubAccount(ctx context.Context, parentReference, subReference string) ([]SubAccount, error) {
	var subAccounts []SubAccount
	q := url.Values{"accountReference": {parentReference}, "reference": {subReference}}
	if err := c.do(ctx, "findSubAccount", http.MethodGet, "/sub-accounts", q, nil, nil, &subAccounts); err != nil {
		return nil, err
	}
	return subAccounts, nil
}

func (c *Client) CreateSubAccount(ctx context.Context, parentID uuid.UUID, subReference string) (*SubAccount, error) {
	var subAccount SubAccount
	body := map[string]string{"subAccountReference": subReference}
	path := fmt.Sprintf("/accounts/%s/sub-accounts", parentID)
	if err := c.do(ctx, "createSubAccount", http.MethodPost, path, nil, nil, body, &subAccount); err != nil {
		return nil, err
	}
	return &subAccount, nil
}

func (c *Client) PostStatementBalance(ctx context.Context, subAccountID uuid.UUID, amountMinorUnits int64, asOf time.Time) error {
	body := StatementBalance{Amount: amountMinorUnits, BalanceDateTime: asOf.UTC()}
	path := fmt.Sprintf("/sub-accounts/%s/balance", subAccountID)
	return c.do(ctx, "postStatementBalance", http.MethodPost, path, nil, nil, body, nil)
}

func (c *Client) GetSubAccountBalance(ctx context.Context, subAccountID uuid.UUID) (*SubAccountBalance, error) {
	var balance SubAccountBalance
	path := fmt.Sprintf("/sub-accounts/%s/balance", subAccountID)
	if err := c.do(ctx, "getSubAccountBalance", http.MethodGet, path, nil, nil, nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// PostTransaction sends a transaction. Replaying the same idempotency key is safe.
func (c *Client) PostTransaction(ctx context.Context, idempotencyKey uuid.UUID, req TransactionRequest) (*TransactionResponse, error) {
	var resp TransactionResponse
	headers := map[string]string{idempotencyHeader: idempotencyKey.String()}
	if err := c.do(ctx, "postTransaction", http.MethodPost, "/transactions", nil, headers, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, headers map[string]string, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("general ledger %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("general ledger %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug().Str("operation", op).Str("method", method).Str("url", endpoint).Msg("calling general ledger")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.RemoteStateError{Operation: op, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.RemoteStateError{Operation: op, StatusCode: resp.StatusCode, Reason: "read response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn().Str("operation", op).Int("status", resp.StatusCode).Msg("general ledger returned non-2xx status")
		return &models.RemoteStateError{Operation: op, StatusCode: resp.StatusCode, Reason: truncate(string(data))}
	}

	if out == nil {
		return nil
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return &models.RemoteStateError{Operation: op, StatusCode: resp.StatusCode, Reason: "empty response body"}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &models.RemoteStateError{Operation: op, StatusCode: resp.StatusCode, Reason: "malformed response body", Err: err}
	}
	return nil
}

func truncate(s string) string {
	if len(s) > maxErrorBodyLength {
		return s[:maxErrorBodyLength] + "..."
	}
	if s == "" {
		return "no body"
	}
	return s
}
