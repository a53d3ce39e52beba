package models

import (
	"time"
)

const (
	EventTransactionRecorded = "transaction.recorded"
	EventPrisonerMerged      = "prison-offender-events.prisoner.merged"
)

// TransactionRecordedEvent is published after a posting commits.
type TransactionRecordedEvent struct {
	EventType   string        `json:"eventType"`
	Transaction Transaction   `json:"transaction"`
	Entries     []PostedEntry `json:"entries"`
	OccurredAt  time.Time     `json:"occurredAt"`
}

// NewTransactionRecordedEvent wraps a posted transaction.
func NewTransactionRecordedEvent(posted PostedTransaction, at time.Time) TransactionRecordedEvent {
	return TransactionRecordedEvent{
		EventType:   EventTransactionRecorded,
		Transaction: posted.Transaction,
		Entries:     posted.Entries,
		OccurredAt:  at,
	}
}

// MergeInformation names the surviving and removed prisoner numbers.
type MergeInformation struct {
	NomsNumber        string `json:"nomsNumber"`
	RemovedNomsNumber string `json:"removedNomsNumber"`
}

// MergeNotification is the domain event announcing two prisoner records were merged.
type MergeNotification struct {
	EventType             string           `json:"eventType"`
	Description           string           `json:"description,omitempty"`
	OccurredAt            *time.Time       `json:"occurredAt,omitempty"`
	AdditionalInformation MergeInformation `json:"additionalInformation"`
}

// MergeRequest is the HTTP form of a merge.
type MergeRequest struct {
	SurvivingPrisonerNumber string `json:"survivingPrisonerNumber" validate:"required"`
	RemovedPrisonerNumber   string `json:"removedPrisonerNumber" validate:"required,nefield=SurvivingPrisonerNumber"`
}

// MergeResult reports what a merge moved.
type MergeResult struct {
	MovedEntries      int `json:"movedEntries"`
	ReassignedAccount int `json:"reassignedAccounts"`
}
