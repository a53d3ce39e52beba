package models

import (
	"github.com/shopspring/decimal"
)

// EstablishmentBalance is a prisoner's total for one account code at one prison.
type EstablishmentBalance struct {
	PrisonID     string          `json:"prisonId"`
	AccountCode  int             `json:"accountCode"`
	TotalBalance decimal.Decimal `json:"totalBalance"`
	HoldBalance  decimal.Decimal `json:"holdBalance"`
}

// AccountBalance is the balance of a single ledger account.
type AccountBalance struct {
	AccountCode    int             `json:"accountCode"`
	Name           string          `json:"name"`
	SubAccountType SubAccountType  `json:"subAccountType,omitempty"`
	Balance        decimal.Decimal `json:"balance"`
}

// ReconciliationLine compares one sub-account. Amounts are in minor units.
type ReconciliationLine struct {
	SubAccountReference string `json:"subAccountReference"`
	LocalBalance        int64  `json:"localBalance"`
	RemoteBalance       int64  `json:"remoteBalance"`
	Discrepancy         int64  `json:"discrepancy"`
}

// ReconciliationReport is the local versus remote comparison for a prisoner.
type ReconciliationReport struct {
	PrisonerNumber string               `json:"prisonerNumber"`
	Lines          []ReconciliationLine `json:"lines"`
	Balanced       bool                 `json:"balanced"`
}

// PrisonReconciliationReport compares prison-level account totals.
type PrisonReconciliationReport struct {
	PrisonID string               `json:"prisonId"`
	Lines    []ReconciliationLine `json:"lines"`
	Balanced bool                 `json:"balanced"`
}
