package store

import (
	"testing"
	"time"

	"github.com/Reidond/subsctl/internal/model"
)

func TestListSinceReturnsAllEventTypes(t *testing.T) {
	db := setupTestDB(t)
	seedUser(t, db, "alice@example.com")
	now := time.Now().UTC()
	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", now.AddDate(0, 1, 0))

	subs := NewSubscriptionStore(db)
	record := func(eventType model.EventType, occurred time.Time) {
		t.Helper()
		err := subs.RecordPayment(&model.SubscriptionEvent{
			SubscriptionID: sub.ID,
			OwnerEmail:     sub.OwnerEmail,
			Type:           eventType,
			OccurredAt:     occurred,
			AmountCents:    999,
			Currency:       "USD",
		}, sub.NextRenewalAt)
		if err != nil {
			t.Fatalf("record %s: %v", eventType, err)
		}
	}
	record(model.EventPayment, now.AddDate(0, 0, -10))
	record(model.EventSkip, now.AddDate(0, 0, -5))
	record(model.EventPayment, now.AddDate(0, 0, -40)) // outside the window

	events, err := NewEventStore(db).ListSince("alice@example.com", now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want payment and skip", len(events))
	}
	// Oldest first, skips included.
	if events[0].Type != model.EventPayment || events[1].Type != model.EventSkip {
		t.Errorf("types = %s, %s; want payment then skip", events[0].Type, events[1].Type)
	}
}
