package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushCols = `id, user_id, endpoint, p256dh, auth, created_at`

func scanPush(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var p model.PushSubscription
	err := scanner.Scan(&p.ID, &p.UserID, &p.Endpoint, &p.P256dh, &p.Auth, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Replace registers an endpoint for a user, dropping any previous row with
// the same endpoint first. Browsers rotate keys on resubscribe, so the old
// row is useless once a new one arrives.
func (s *PushStore) Replace(userID, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin replace push: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return nil, fmt.Errorf("delete stale endpoint: %w", err)
	}

	p := &model.PushSubscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		Endpoint:  endpoint,
		P256dh:    p256dh,
		Auth:      auth,
		CreatedAt: time.Now().UTC(),
	}
	_, err = tx.Exec(
		`INSERT INTO push_subscriptions (`+pushCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Endpoint, p.P256dh, p.Auth, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert push subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace push: %w", err)
	}
	return p, nil
}

func (s *PushStore) ListByUser(userID string) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT `+pushCols+` FROM push_subscriptions WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		p, err := scanPush(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *p)
	}
	return subs, rows.Err()
}

func (s *PushStore) DeleteByID(id string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByUserEndpoint(userID, endpoint string) error {
	_, err := s.db.Exec(
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`,
		userID, endpoint,
	)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}

func (s *PushStore) DeleteByUser(userID string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete push subscriptions: %w", err)
	}
	return nil
}

func (s *PushStore) CountByUser(userID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM push_subscriptions WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count push subscriptions: %w", err)
	}
	return count, nil
}

// --- Snoozes ---

type SnoozeStore struct {
	db *sql.DB
}

func NewSnoozeStore(db *sql.DB) *SnoozeStore {
	return &SnoozeStore{db: db}
}

// Replace sets the snooze for a (subscription, user) pair, discarding any
// earlier one so at most one row exists per pair.
func (s *SnoozeStore) Replace(subscriptionID, userID string, until time.Time) (*model.NotificationSnooze, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin replace snooze: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`DELETE FROM notification_snoozes WHERE subscription_id = ? AND user_id = ?`,
		subscriptionID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("delete prior snooze: %w", err)
	}

	n := &model.NotificationSnooze{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		UserID:         userID,
		SnoozedUntil:   until.UTC(),
		CreatedAt:      time.Now().UTC(),
	}
	_, err = tx.Exec(
		`INSERT INTO notification_snoozes (id, subscription_id, user_id, snoozed_until, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.SubscriptionID, n.UserID, n.SnoozedUntil, n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snooze: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace snooze: %w", err)
	}
	return n, nil
}

// HasActive reports whether the pair has a snooze that has not yet elapsed.
func (s *SnoozeStore) HasActive(subscriptionID, userID string, now time.Time) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM notification_snoozes WHERE subscription_id = ? AND user_id = ? AND snoozed_until >= ?`,
		subscriptionID, userID, now.UTC(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check snooze: %w", err)
	}
	return count > 0, nil
}
