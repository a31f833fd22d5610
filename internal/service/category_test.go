package service

import (
	"context"
	"testing"

	"github.com/Reidond/subsctl/internal/apperr"
)

func TestCategoryListCreatesDefault(t *testing.T) {
	f := setup(t)

	list, err := f.catsSvc.List("alice@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].IsDefault {
		t.Fatalf("expected just the default category, got %+v", list)
	}
}

func TestCategoryDefaultIsImmutable(t *testing.T) {
	f := setup(t)
	list, _ := f.catsSvc.List("alice@example.com")
	def := list[0]

	if _, err := f.catsSvc.Update("alice@example.com", def.ID, "Renamed", nil); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Errorf("rename default: code = %q, want CONFLICT", apperr.CodeOf(err))
	}
	if err := f.catsSvc.Delete("alice@example.com", def.ID); apperr.CodeOf(err) != apperr.CodeConflict {
		t.Errorf("delete default: code = %q, want CONFLICT", apperr.CodeOf(err))
	}
}

func TestCategoryCreateUpdateDelete(t *testing.T) {
	f := setup(t)
	f.seedOwner(t, "alice@example.com", "")

	color := "#00ff00"
	cat, err := f.catsSvc.Create("alice@example.com", "Entertainment", &color)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.catsSvc.Update("alice@example.com", cat.ID, "Media", nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Media" {
		t.Errorf("name = %q, want Media", updated.Name)
	}

	if err := f.catsSvc.Delete("alice@example.com", cat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.catsSvc.Update("alice@example.com", cat.ID, "Gone", nil); apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Errorf("update deleted: code = %q, want NOT_FOUND", apperr.CodeOf(err))
	}
}

func TestCategoryDeleteReassignsSubscriptions(t *testing.T) {
	f := setup(t)
	f.seedOwner(t, "alice@example.com", "")

	cat, _ := f.catsSvc.Create("alice@example.com", "Entertainment", nil)
	in := validInput()
	in.CategoryID = &cat.ID
	sub, err := f.subsSvc.Create(context.Background(), "alice@example.com", in)
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	if err := f.catsSvc.Delete("alice@example.com", cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	got, _ := f.subsSvc.Get("alice@example.com", sub.ID)
	list, _ := f.catsSvc.List("alice@example.com")
	var defaultID string
	for _, c := range list {
		if c.IsDefault {
			defaultID = c.ID
		}
	}
	if got.CategoryID == nil || *got.CategoryID != defaultID {
		t.Errorf("category = %v, want default %s", got.CategoryID, defaultID)
	}
}

func TestCategoryCreateValidation(t *testing.T) {
	f := setup(t)
	if _, err := f.catsSvc.Create("alice@example.com", "  ", nil); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Errorf("code = %q, want VALIDATION", apperr.CodeOf(err))
	}
}
