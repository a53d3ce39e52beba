package generalledger

import (
	"time"

	"github.com/google/uuid"
)

// Account is a root account in the general ledger, keyed by prisoner number or prison id.
type Account struct {
	ID          uuid.UUID    `json:"id"`
	Reference   string       `json:"reference"`
	CreatedAt   time.Time    `json:"createdAt"`
	SubAccounts []SubAccount `json:"subAccounts,omitempty"`
}

// SubAccount hangs off a root account.
type SubAccount struct {
	ID              uuid.UUID `json:"id"`
	Reference       string    `json:"reference"`
	ParentAccountID uuid.UUID `json:"parentAccountId"`
	ParentReference string    `json:"parentAccountReference,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StatementBalance is a point-in-time balance pushed during migration.
type StatementBalance struct {
	Amount          int64     `json:"amount"`
	BalanceDateTime time.Time `json:"balanceDateTime"`
}

// SubAccountBalance is the balance the general ledger reports for a sub-account.
type SubAccountBalance struct {
	SubAccountID    uuid.UUID `json:"subAccountId"`
	Amount          int64     `json:"amount"`
	BalanceDateTime time.Time `json:"balanceDateTime"`
}

// PostingType mirrors the ledger's DR/CR sides.
type PostingType string

const (
	PostingDebit  PostingType = "DR"
	PostingCredit PostingType = "CR"
)

// Posting moves Amount minor units on one sub-account.
type Posting struct {
	SubAccountID uuid.UUID   `json:"subAccountId"`
	Type         PostingType `json:"type"`
	Amount       int64       `json:"amount"`
}

// TransactionRequest is a balanced set of postings.
type TransactionRequest struct {
	Reference   string    `json:"reference"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Amount      int64     `json:"amount"`
	Postings    []Posting `json:"postings"`
}

// TransactionResponse is what the ledger returns for a posted transaction.
type TransactionResponse struct {
	ID        uuid.UUID `json:"id"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"createdAt"`
}
