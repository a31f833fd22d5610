package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Reidond/subsctl/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `id, subscription_id, owner_email, type, occurred_at, amount_cents, currency, rate_at_event, note`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.SubscriptionEvent, error) {
	var e model.SubscriptionEvent
	var eventType string
	var rate sql.NullFloat64
	var note sql.NullString

	err := scanner.Scan(
		&e.ID, &e.SubscriptionID, &e.OwnerEmail, &eventType, &e.OccurredAt,
		&e.AmountCents, &e.Currency, &rate, &note,
	)
	if err != nil {
		return nil, err
	}

	e.Type = model.EventType(eventType)
	if rate.Valid {
		e.RateAtEvent = &rate.Float64
	}
	if note.Valid {
		e.Note = &note.String
	}
	return &e, nil
}

func (s *EventStore) ListBySubscription(subscriptionID, ownerEmail string) ([]model.SubscriptionEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM subscription_events WHERE subscription_id = ? AND owner_email = ? ORDER BY occurred_at DESC`,
		subscriptionID, ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.SubscriptionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListSince returns an owner's events at or after since, oldest first, for
// spend-trend windows.
func (s *EventStore) ListSince(ownerEmail string, since time.Time) ([]model.SubscriptionEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM subscription_events WHERE owner_email = ? AND occurred_at >= ? ORDER BY occurred_at ASC`,
		ownerEmail, since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list events since: %w", err)
	}
	defer rows.Close()

	var events []model.SubscriptionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
