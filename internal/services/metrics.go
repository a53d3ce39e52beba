package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/prisonfinance/ledgersync/internal/models"
)

const metricsNamespace = "ledgersync"

// Metrics holds the service counters. A nil registerer keeps them unregistered.
type Metrics struct {
	SyncRequests       *prometheus.CounterVec
	RejectedPostings   *prometheus.CounterVec
	PostedTransactions *prometheus.CounterVec
	StatementBalances  prometheus.Counter
	Merges             prometheus.Counter
	ForwardFailures    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SyncRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sync_requests_total",
			Help:      "Sync requests accepted, by request kind and action.",
		}, []string{"kind", "action"}),
		RejectedPostings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rejected_postings_total",
			Help:      "Postings rejected before persistence, by reason.",
		}, []string{"reason"}),
		PostedTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "posted_transactions_total",
			Help:      "Committed ledger transactions, by transaction type.",
		}, []string{"type"}),
		StatementBalances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "statement_balances_total",
			Help:      "Statement balances pushed to the general ledger.",
		}),
		Merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "prisoner_merges_total",
			Help:      "Prisoner merges applied.",
		}),
		ForwardFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "forward_failures_total",
			Help:      "Transactions that could not be forwarded to the general ledger.",
		}),
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownAccountCode):
		return "unknown_account_code"
	case errors.Is(err, models.ErrUnbalancedEntries):
		return "unbalanced_entries"
	case errors.Is(err, models.ErrPrecisionLoss):
		return "precision_loss"
	case errors.Is(err, models.ErrAmountOutOfRange):
		return "amount_out_of_range"
	case errors.Is(err, models.ErrPrisonerRequired):
		return "prisoner_required"
	case errors.Is(err, models.ErrNegativeAmount):
		return "negative_amount"
	case errors.Is(err, models.ErrInvalidPostingType):
		return "invalid_posting_type"
	case errors.Is(err, models.ErrEmptyPosting):
		return "empty_posting"
	default:
		return "other"
	}
}
