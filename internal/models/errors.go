package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownAccountCode is returned when an account code has no lookup entry.
	ErrUnknownAccountCode = errors.New("unknown account code")

	// ErrUnbalancedEntries is returned when debits and credits of a posting differ.
	ErrUnbalancedEntries = errors.New("unbalanced entries")

	// ErrPrecisionLoss is returned when an amount has more than two decimal places.
	ErrPrecisionLoss = errors.New("amount cannot be represented in minor units")

	// ErrAmountOutOfRange is returned when an amount exceeds what the ledger can store.
	ErrAmountOutOfRange = errors.New("amount out of range")

	// ErrRemoteState is returned when the external general ledger answers with an
	// unusable response.
	ErrRemoteState = errors.New("unusable response from general ledger")

	// ErrDuplicateRequest marks a lost race on a request id. It never leaves the sync service.
	ErrDuplicateRequest = errors.New("duplicate sync request")

	// ErrPrisonerRequired is returned when a prisoner sub-account code is posted without a prisoner.
	ErrPrisonerRequired = errors.New("account code requires a prisoner")

	// ErrNegativeAmount is returned for entries with a negative amount.
	ErrNegativeAmount = errors.New("entry amount must not be negative")

	// ErrInvalidPostingType is returned for a posting side other than DR or CR.
	ErrInvalidPostingType = errors.New("invalid posting type")

	// ErrEmptyPosting is returned when a posting has no entries.
	ErrEmptyPosting = errors.New("posting has no entries")

	// ErrInvalidMerge is returned when a prisoner would be merged into itself.
	ErrInvalidMerge = errors.New("cannot merge a prisoner into itself")

	// ErrNotPrisonerAccount is returned when a prisoner balance names a prison-level code.
	ErrNotPrisonerAccount = errors.New("account code is not a prisoner sub-account")
)

// UnknownAccountCodeError names the offending code.
type UnknownAccountCodeError struct {
	Code int
}

func (e *UnknownAccountCodeError) Error() string {
	return fmt.Sprintf("unknown account code %d", e.Code)
}

func (e *UnknownAccountCodeError) Unwrap() error {
	return ErrUnknownAccountCode
}

// UnbalancedEntriesError reports the debit and credit totals.
type UnbalancedEntriesError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedEntriesError) Error() string {
	return fmt.Sprintf("unbalanced entries: debits %s, credits %s", e.Debits.StringFixed(2), e.Credits.StringFixed(2))
}

func (e *UnbalancedEntriesError) Unwrap() error {
	return ErrUnbalancedEntries
}

// PrecisionLossError carries the amount that could not be converted.
type PrecisionLossError struct {
	Amount string
}

func (e *PrecisionLossError) Error() string {
	return fmt.Sprintf("amount %s has more than 2 decimal places", e.Amount)
}

func (e *PrecisionLossError) Unwrap() error {
	return ErrPrecisionLoss
}

type AmountOutOfRangeError struct {
	Amount string
}

func (e *AmountOutOfRangeError) Error() string {
	return fmt.Sprintf("amount %s exceeds the ledger limit of %s", e.Amount, MaxAmount.StringFixed(2))
}

func (e *AmountOutOfRangeError) Unwrap() error {
	return ErrAmountOutOfRange
}

// RemoteStateError describes which remote call returned an unusable response.
type RemoteStateError struct {
	Operation  string
	StatusCode int
	Reason     string
	// Err is the transport error, if any.
	Err error
}

func (e *RemoteStateError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("general ledger %s: status %d: %s", e.Operation, e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("general ledger %s: %s", e.Operation, e.Reason)
}

func (e *RemoteStateError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrRemoteState, e.Err}
	}
	return []error{ErrRemoteState}
}

// IsClientError reports whether err was caused by the request content.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownAccountCode) ||
		errors.Is(err, ErrUnbalancedEntries) ||
		errors.Is(err, ErrPrecisionLoss) ||
		errors.Is(err, ErrAmountOutOfRange) ||
		errors.Is(err, ErrPrisonerRequired) ||
		errors.Is(err, ErrNegativeAmount) ||
		errors.Is(err, ErrEmptyPosting) ||
		errors.Is(err, ErrInvalidPostingType) ||
		errors.Is(err, ErrInvalidMerge) ||
		errors.Is(err, ErrNotPrisonerAccount)
}

// IsRemoteError reports whether err came from the external general ledger.
func IsRemoteError(err error) bool {
	return errors.Is(err, ErrRemoteState)
}
