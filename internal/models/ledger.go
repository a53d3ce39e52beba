package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingType is the side of a double-entry posting.
type PostingType string

const (
	PostingDebit  PostingType = "DR"
	PostingCredit PostingType = "CR"
)

func (p PostingType) Valid() bool {
	return p == PostingDebit || p == PostingCredit
}

func (p PostingType) Opposite() PostingType {
	if p == PostingDebit {
		return PostingCredit
	}
	return PostingDebit
}

// AccountClassification groups account codes in the chart of accounts.
type AccountClassification string

const (
	ClassificationAsset        AccountClassification = "Asset"
	ClassificationLiability    AccountClassification = "Liability"
	ClassificationReceipt      AccountClassification = "Receipt"
	ClassificationDisbursement AccountClassification = "Disbursement"
)

// NaturalSide is the side on which a balance of this classification increases.
func (c AccountClassification) NaturalSide() PostingType {
	switch c {
	case ClassificationAsset, ClassificationDisbursement:
		return PostingDebit
	default:
		return PostingCredit
	}
}

// SubAccountType identifies a prisoner-owned account.
type SubAccountType string

const (
	SubAccountCash    SubAccountType = "REG"
	SubAccountSpends  SubAccountType = "SPND"
	SubAccountSavings SubAccountType = "SAV"
)

// AccountCodeLookup is one row of static reference data for an account code.
type AccountCodeLookup struct {
	Code           int                   `json:"code" yaml:"code"`
	Name           string                `json:"name" yaml:"name"`
	Classification AccountClassification `json:"classification" yaml:"classification"`
	PostingType    PostingType           `json:"postingType" yaml:"postingType"`
	ParentCode     *int                  `json:"parentCode,omitempty" yaml:"parentCode,omitempty"`
	SubAccountType SubAccountType        `json:"subAccountType,omitempty" yaml:"subAccountType,omitempty"`
	// RemoteSubAccount is the sub-account reference used by the external general ledger.
	RemoteSubAccount string `json:"remoteSubAccount,omitempty" yaml:"remoteSubAccount,omitempty"`
}

// Account is owned by either a prison or a prisoner, never both.
type Account struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	PrisonCode     string         `json:"prisonCode,omitempty" db:"prison_code"`
	PrisonerNumber string         `json:"prisonerNumber,omitempty" db:"prisoner_number"`
	AccountCode    int            `json:"accountCode" db:"account_code"`
	PostingType    PostingType    `json:"postingType" db:"posting_type"`
	Name           string         `json:"name" db:"name"`
	SubAccountType SubAccountType `json:"subAccountType,omitempty" db:"sub_account_type"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}

func (a Account) IsPrisonerAccount() bool {
	return a.PrisonerNumber != ""
}

// SignedAmount returns amount when side is the account's natural side and -amount otherwise.
func (a Account) SignedAmount(side PostingType, amount decimal.Decimal) decimal.Decimal {
	if side == a.PostingType {
		return amount
	}
	return amount.Neg()
}

// TransactionEntry is one posting of a transaction.
type TransactionEntry struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TransactionID uuid.UUID       `json:"transactionId" db:"transaction_id"`
	AccountID     uuid.UUID       `json:"accountId" db:"account_id"`
	EntrySequence int             `json:"entrySequence" db:"entry_sequence"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PostingType   PostingType     `json:"postingType" db:"posting_type"`
}

// PostedEntry is an entry with its resolved account.
type PostedEntry struct {
	TransactionEntry
	Account Account `json:"account"`
}

// PostedTransaction is what the posting engine wrote.
type PostedTransaction struct {
	Transaction Transaction   `json:"transaction"`
	Entries     []PostedEntry `json:"entries"`
}

// LedgerMovement is a flattened entry used for balance computation.
type LedgerMovement struct {
	AccountID       uuid.UUID
	AccountCode     int
	NaturalSide     PostingType
	PrisonCode      string
	TransactionType string
	Timestamp       time.Time
	PostingType     PostingType
	Amount          decimal.Decimal
}

// Signed returns the movement signed by the account's natural side.
func (m LedgerMovement) Signed() decimal.Decimal {
	if m.PostingType == m.NaturalSide {
		return m.Amount
	}
	return m.Amount.Neg()
}
