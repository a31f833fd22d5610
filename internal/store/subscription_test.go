package store

import (
	"testing"
	"time"

	"github.com/Reidond/subsctl/internal/model"
)

func TestSubscriptionCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)

	renewal := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", renewal)

	got, err := ss.GetByID(sub.ID, "alice@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected subscription, got nil")
	}
	if got.Name != "Streamflix" {
		t.Errorf("name = %q, want %q", got.Name, "Streamflix")
	}
	if !got.NextRenewalAt.Equal(renewal) {
		t.Errorf("next_renewal_at = %v, want %v", got.NextRenewalAt, renewal)
	}
}

func TestSubscriptionGetWrongOwner(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)

	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", time.Now().UTC())

	got, err := ss.GetByID(sub.ID, "mallory@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil for another owner's subscription")
	}
}

func TestSubscriptionListFilters(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	a := seedSubscription(t, db, "alice@example.com", "A", base.AddDate(0, 0, 5))
	b := seedSubscription(t, db, "alice@example.com", "B", base.AddDate(0, 0, 20))
	seedSubscription(t, db, "bob@example.com", "C", base.AddDate(0, 0, 5))

	b.Status = model.StatusPaused
	if _, err := ss.Update(b); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err := ss.List("alice@example.com", ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	// Ordered by next renewal ascending.
	if all[0].ID != a.ID {
		t.Errorf("first = %s, want %s", all[0].ID, a.ID)
	}

	active, err := ss.List("alice@example.com", ListFilter{Status: model.StatusActive})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("active filter returned %d rows", len(active))
	}

	windowed, err := ss.List("alice@example.com", ListFilter{
		From: base.AddDate(0, 0, 10),
		To:   base.AddDate(0, 0, 30),
	})
	if err != nil {
		t.Fatalf("list windowed: %v", err)
	}
	if len(windowed) != 1 || windowed[0].ID != b.ID {
		t.Errorf("window filter returned %d rows", len(windowed))
	}
}

func TestSubscriptionCountByStatus(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)

	seedSubscription(t, db, "alice@example.com", "A", time.Now().UTC())
	b := seedSubscription(t, db, "alice@example.com", "B", time.Now().UTC())
	b.Status = model.StatusPaused
	if _, err := ss.Update(b); err != nil {
		t.Fatalf("update: %v", err)
	}

	paused, err := ss.CountByStatus("alice@example.com", model.StatusPaused)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if paused != 1 {
		t.Errorf("paused = %d, want 1", paused)
	}
}

func TestRecordPaymentMovesCursorAndWritesEvent(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)
	es := NewEventStore(db)

	renewal := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", renewal)

	next := renewal.AddDate(0, 1, 0)
	err := ss.RecordPayment(&model.SubscriptionEvent{
		SubscriptionID: sub.ID,
		OwnerEmail:     sub.OwnerEmail,
		Type:           model.EventPayment,
		OccurredAt:     renewal,
		AmountCents:    sub.AmountCents,
		Currency:       sub.Currency,
	}, next)
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}

	got, _ := ss.GetByID(sub.ID, sub.OwnerEmail)
	if !got.NextRenewalAt.Equal(next) {
		t.Errorf("next_renewal_at = %v, want %v", got.NextRenewalAt, next)
	}

	events, err := es.ListBySubscription(sub.ID, sub.OwnerEmail)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != model.EventPayment {
		t.Errorf("type = %q, want payment", events[0].Type)
	}
}

func TestListRenewalCandidates(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSubscriptionStore(db)
	us := NewUserStore(db)

	u := seedUser(t, db, "alice@example.com")
	tz := "America/New_York"
	if _, err := us.UpdateSettings(u.ID, nil, &tz); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if err := us.SetPushEnabled(u.ID, true); err != nil {
		t.Fatalf("set push enabled: %v", err)
	}

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	inWindow := seedSubscription(t, db, "alice@example.com", "InWindow", now.AddDate(0, 0, 3))
	seedSubscription(t, db, "alice@example.com", "TooFar", now.AddDate(0, 0, 30))
	paused := seedSubscription(t, db, "alice@example.com", "Paused", now.AddDate(0, 0, 3))
	paused.Status = model.StatusPaused
	if _, err := ss.Update(paused); err != nil {
		t.Fatalf("update: %v", err)
	}

	candidates, err := ss.ListRenewalCandidates(now.AddDate(0, 0, 1), now.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	c := candidates[0]
	if c.SubscriptionID != inWindow.ID {
		t.Errorf("candidate = %s, want %s", c.SubscriptionID, inWindow.ID)
	}
	if c.UserID != u.ID || !c.PushEnabled || c.Timezone == nil || *c.Timezone != tz {
		t.Errorf("candidate user fields wrong: %+v", c)
	}
}
