package model

import "time"

// EventType distinguishes the kinds of subscription log entries.
type EventType string

const (
	EventPayment EventType = "payment"
	EventSkip    EventType = "skip"
)

// SubscriptionEvent is an append-only log entry recorded when a renewal is
// marked paid (or skipped). Events are never mutated or deleted.
type SubscriptionEvent struct {
	ID             string    `json:"id"`
	SubscriptionID string    `json:"subscription_id"`
	OwnerEmail     string    `json:"owner_email"`
	Type           EventType `json:"type"`
	OccurredAt     time.Time `json:"occurred_at"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	// Conversion factor into the owner's primary currency, frozen at the
	// moment the event was recorded. Nil when no rate could be determined.
	RateAtEvent *float64 `json:"rate_at_event"`
	Note        *string  `json:"note"`
}
