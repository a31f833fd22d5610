package model

import (
	"time"

	"github.com/Reidond/subsctl/internal/cadence"
)

// Status is the subscription lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusArchived:
		return true
	}
	return false
}

type Subscription struct {
	ID            string       `json:"id"`
	OwnerEmail    string       `json:"owner_email"`
	Name          string       `json:"name"`
	Merchant      *string      `json:"merchant"`
	AmountCents   int64        `json:"amount_cents"`
	Currency      string       `json:"currency"`
	CadenceUnit   cadence.Unit `json:"cadence_unit"`
	CadenceCount  int          `json:"cadence_count"`
	NextRenewalAt time.Time    `json:"next_renewal_at"`
	Status        Status       `json:"status"`
	CategoryID    *string      `json:"category_id"`
	Notes         *string      `json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	// Conversion factor into the owner's primary currency, frozen when the
	// subscription was created. Nil when no rate could be determined.
	RateAtCreation *float64 `json:"rate_at_creation"`
}

// RenewalCandidate is a subscription joined to its owner's notification
// settings, as selected by the renewal-reminder sweep.
type RenewalCandidate struct {
	SubscriptionID string
	Name           string
	NextRenewalAt  time.Time
	UserID         string
	Timezone       *string
	PushEnabled    bool
}
