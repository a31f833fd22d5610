package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/cadence"
	"github.com/Reidond/subsctl/internal/database"
	"github.com/Reidond/subsctl/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *sql.DB, email string) *model.User {
	t.Helper()
	u, err := NewUserStore(db).Ensure(email, "Test User")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedSubscription(t *testing.T, db *sql.DB, owner, name string, renewal time.Time) *model.Subscription {
	t.Helper()
	sub, err := NewSubscriptionStore(db).Create(&model.Subscription{
		ID:            uuid.NewString(),
		OwnerEmail:    owner,
		Name:          name,
		AmountCents:   999,
		Currency:      "USD",
		CadenceUnit:   cadence.Month,
		CadenceCount:  1,
		NextRenewalAt: renewal,
		Status:        model.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}
