package store

import (
	"testing"
	"time"
)

func TestEnsureDefaultIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)

	first, err := cs.EnsureDefault("alice@example.com")
	if err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if !first.IsDefault {
		t.Error("expected default flag")
	}

	second, err := cs.EnsureDefault("alice@example.com")
	if err != nil {
		t.Fatalf("ensure default again: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same category, got %s != %s", second.ID, first.ID)
	}
}

func TestEnsureDefaultPerOwner(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)

	a, _ := cs.EnsureDefault("alice@example.com")
	b, _ := cs.EnsureDefault("bob@example.com")
	if a.ID == b.ID {
		t.Error("owners must not share a default category")
	}
}

func TestCategoryListWithCounts(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)
	ss := NewSubscriptionStore(db)

	def, _ := cs.EnsureDefault("alice@example.com")
	color := "#ff0000"
	ent, err := cs.Create("alice@example.com", "Entertainment", &color)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", time.Now().UTC())
	sub.CategoryID = &ent.ID
	if _, err := ss.Update(sub); err != nil {
		t.Fatalf("update subscription: %v", err)
	}

	list, err := cs.ListWithCounts("alice@example.com")
	if err != nil {
		t.Fatalf("list with counts: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// Default sorts first.
	if list[0].ID != def.ID || list[0].SubscriptionCount != 0 {
		t.Errorf("default bucket wrong: %+v", list[0])
	}
	if list[1].ID != ent.ID || list[1].SubscriptionCount != 1 {
		t.Errorf("entertainment bucket wrong: %+v", list[1])
	}
}

func TestDeleteWithReassign(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)
	ss := NewSubscriptionStore(db)

	def, _ := cs.EnsureDefault("alice@example.com")
	ent, _ := cs.Create("alice@example.com", "Entertainment", nil)

	sub := seedSubscription(t, db, "alice@example.com", "Streamflix", time.Now().UTC())
	sub.CategoryID = &ent.ID
	if _, err := ss.Update(sub); err != nil {
		t.Fatalf("update subscription: %v", err)
	}

	if err := cs.DeleteWithReassign(ent.ID, "alice@example.com", def.ID); err != nil {
		t.Fatalf("delete with reassign: %v", err)
	}

	gone, _ := cs.GetByID(ent.ID, "alice@example.com")
	if gone != nil {
		t.Error("expected category deleted")
	}
	moved, _ := ss.GetByID(sub.ID, "alice@example.com")
	if moved.CategoryID == nil || *moved.CategoryID != def.ID {
		t.Errorf("subscription not reassigned: %v", moved.CategoryID)
	}
}

func TestDeleteWithReassignNeverDeletesDefault(t *testing.T) {
	db := setupTestDB(t)
	cs := NewCategoryStore(db)

	def, _ := cs.EnsureDefault("alice@example.com")
	if err := cs.DeleteWithReassign(def.ID, "alice@example.com", def.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	still, _ := cs.GetByID(def.ID, "alice@example.com")
	if still == nil {
		t.Error("default category must survive delete attempts")
	}
}
