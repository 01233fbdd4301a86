package domain

import "time"

// Event types
const (
	EventTypeJournalPosted       = "journal.posted"
	EventTypeClaimRightCreated   = "claim_right.created"
	EventTypeClaimRightCancelled = "claim_right.cancelled"
	EventTypeClaimRightCompleted = "claim_right.completed"
	EventTypeAccrualEntryPosted  = "accrual.entry_posted"
)

// Aggregate types
const (
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypeClaimRight   = "claim_right"
)

// OutboxEvent represents an event to be published. It is written in the
// same transaction as the state change it describes.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedEvent payload
type JournalPostedEvent struct {
	JournalEntryID string `json:"journal_entry_id"`
	TransactionRef string `json:"transaction_ref,omitempty"`
	TotalDebits    string `json:"total_debits"`
	TotalCredits   string `json:"total_credits"`
	Source         string `json:"source"`
}

// ClaimRightCreatedEvent payload
type ClaimRightCreatedEvent struct {
	ClaimRightID string `json:"claim_right_id"`
	ClaimType    string `json:"claim_type"`
	TotalAmount  string `json:"total_amount"`
	Periods      int    `json:"periods"`
}

// ClaimRightCancelledEvent payload
type ClaimRightCancelledEvent struct {
	ClaimRightID   string `json:"claim_right_id"`
	Reason         string `json:"reason"`
	SkippedEntries int    `json:"skipped_entries"`
}

// ClaimRightCompletedEvent payload
type ClaimRightCompletedEvent struct {
	ClaimRightID    string `json:"claim_right_id"`
	AmortizedAmount string `json:"amortized_amount"`
}

// AccrualEntryPostedEvent payload
type AccrualEntryPostedEvent struct {
	EntryID        string `json:"entry_id"`
	ClaimRightID   string `json:"claim_right_id"`
	JournalEntryID string `json:"journal_entry_id"`
	PeriodNumber   int    `json:"period_number"`
	Amount         string `json:"amount"`
	ClaimType      string `json:"claim_type"`
}
