package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/cadence"
	"github.com/Reidond/subsctl/internal/model"
)

type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionCols = `id, owner_email, name, merchant, amount_cents, currency, cadence_unit, cadence_count, next_renewal_at, status, category_id, notes, created_at, updated_at, rate_at_creation`

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var s model.Subscription
	var merchant, categoryID, notes sql.NullString
	var rate sql.NullFloat64
	var unit string

	err := scanner.Scan(
		&s.ID, &s.OwnerEmail, &s.Name, &merchant, &s.AmountCents, &s.Currency,
		&unit, &s.CadenceCount, &s.NextRenewalAt, &s.Status, &categoryID,
		&notes, &s.CreatedAt, &s.UpdatedAt, &rate,
	)
	if err != nil {
		return nil, err
	}

	s.CadenceUnit = cadence.Unit(unit)
	if merchant.Valid {
		s.Merchant = &merchant.String
	}
	if categoryID.Valid {
		s.CategoryID = &categoryID.String
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	if rate.Valid {
		s.RateAtCreation = &rate.Float64
	}
	return &s, nil
}

func (s *SubscriptionStore) Create(sub *model.Subscription) (*model.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	_, err := s.db.Exec(
		`INSERT INTO subscriptions (`+subscriptionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.OwnerEmail, sub.Name, sub.Merchant, sub.AmountCents, sub.Currency,
		string(sub.CadenceUnit), sub.CadenceCount, sub.NextRenewalAt.UTC(), string(sub.Status),
		sub.CategoryID, sub.Notes, sub.CreatedAt, sub.UpdatedAt, sub.RateAtCreation,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}
	return s.GetByID(sub.ID, sub.OwnerEmail)
}

func (s *SubscriptionStore) GetByID(id, ownerEmail string) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ? AND owner_email = ?`,
		id, ownerEmail,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ListFilter narrows List results. Zero values mean no constraint.
type ListFilter struct {
	Status     model.Status
	CategoryID string
	From       time.Time
	To         time.Time
}

func (s *SubscriptionStore) List(ownerEmail string, f ListFilter) ([]model.Subscription, error) {
	query := `SELECT ` + subscriptionCols + ` FROM subscriptions WHERE owner_email = ?`
	args := []any{ownerEmail}

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += ` AND next_renewal_at >= ?`
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		query += ` AND next_renewal_at < ?`
		args = append(args, f.To.UTC())
	}
	query += ` ORDER BY next_renewal_at ASC, name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

func (s *SubscriptionStore) Update(sub *model.Subscription) (*model.Subscription, error) {
	sub.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE subscriptions SET name = ?, merchant = ?, amount_cents = ?, currency = ?,
		 cadence_unit = ?, cadence_count = ?, next_renewal_at = ?, status = ?, category_id = ?,
		 notes = ?, updated_at = ? WHERE id = ? AND owner_email = ?`,
		sub.Name, sub.Merchant, sub.AmountCents, sub.Currency,
		string(sub.CadenceUnit), sub.CadenceCount, sub.NextRenewalAt.UTC(), string(sub.Status),
		sub.CategoryID, sub.Notes, sub.UpdatedAt, sub.ID, sub.OwnerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("update subscription: %w", err)
	}
	return s.GetByID(sub.ID, sub.OwnerEmail)
}

func (s *SubscriptionStore) Delete(id, ownerEmail string) error {
	_, err := s.db.Exec(`DELETE FROM subscriptions WHERE id = ? AND owner_email = ?`, id, ownerEmail)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) CountByStatus(ownerEmail string, status model.Status) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM subscriptions WHERE owner_email = ? AND status = ?`,
		ownerEmail, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by status: %w", err)
	}
	return count, nil
}

// RecordPayment writes the payment event and moves the subscription's
// renewal cursor in one transaction, so a failed advance never leaves a
// dangling event behind.
func (s *SubscriptionStore) RecordPayment(event *model.SubscriptionEvent, nextRenewalAt time.Time) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin record payment: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO subscription_events (id, subscription_id, owner_email, type, occurred_at, amount_cents, currency, rate_at_event, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.SubscriptionID, event.OwnerEmail, string(event.Type),
		event.OccurredAt.UTC(), event.AmountCents, event.Currency, event.RateAtEvent, event.Note,
	)
	if err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE subscriptions SET next_renewal_at = ?, updated_at = ? WHERE id = ? AND owner_email = ?`,
		nextRenewalAt.UTC(), time.Now().UTC(), event.SubscriptionID, event.OwnerEmail,
	)
	if err != nil {
		return fmt.Errorf("advance renewal cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record payment: %w", err)
	}
	return nil
}

// ListRenewalCandidates returns active subscriptions whose next renewal falls
// in [start, end), joined with the owner's notification settings. The window
// is deliberately coarse; the notifier applies the exact local-day rule.
func (s *SubscriptionStore) ListRenewalCandidates(start, end time.Time) ([]model.RenewalCandidate, error) {
	rows, err := s.db.Query(
		`SELECT s.id, s.name, s.next_renewal_at, u.id, u.timezone, u.push_enabled
		 FROM subscriptions s
		 JOIN users u ON u.email = s.owner_email
		 WHERE s.status = 'active' AND s.next_renewal_at >= ? AND s.next_renewal_at < ?`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list renewal candidates: %w", err)
	}
	defer rows.Close()

	var candidates []model.RenewalCandidate
	for rows.Next() {
		var c model.RenewalCandidate
		var tz sql.NullString
		var pushEnabled int
		if err := rows.Scan(&c.SubscriptionID, &c.Name, &c.NextRenewalAt, &c.UserID, &tz, &pushEnabled); err != nil {
			return nil, fmt.Errorf("scan renewal candidate: %w", err)
		}
		if tz.Valid {
			c.Timezone = &tz.String
		}
		c.PushEnabled = pushEnabled != 0
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
