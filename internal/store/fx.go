package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/model"
)

type FxStore struct {
	db *sql.DB
}

func NewFxStore(db *sql.DB) *FxStore {
	return &FxStore{db: db}
}

// LatestFetchedAt returns the fetch time of the newest snapshot for base,
// or the zero time when no snapshot exists yet. The plain column select
// keeps the driver's time conversion; an aggregate would come back untyped.
func (s *FxStore) LatestFetchedAt(base string) (time.Time, error) {
	var fetchedAt time.Time
	err := s.db.QueryRow(
		`SELECT fetched_at FROM fx_rates WHERE base = ? ORDER BY fetched_at DESC LIMIT 1`, base,
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("latest fetched at: %w", err)
	}
	return fetchedAt, nil
}

// RatesAt loads every row of the snapshot identified by (base, fetchedAt).
func (s *FxStore) RatesAt(base string, fetchedAt time.Time) ([]model.FxRate, error) {
	rows, err := s.db.Query(
		`SELECT id, base, target, rate, fetched_at, is_stale FROM fx_rates WHERE base = ? AND fetched_at = ?`,
		base, fetchedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("rates at: %w", err)
	}
	defer rows.Close()

	var rates []model.FxRate
	for rows.Next() {
		var r model.FxRate
		var stale int
		if err := rows.Scan(&r.ID, &r.Base, &r.Target, &r.Rate, &r.FetchedAt, &stale); err != nil {
			return nil, fmt.Errorf("scan rate: %w", err)
		}
		r.IsStale = stale != 0
		rates = append(rates, r)
	}
	return rates, rows.Err()
}

// InsertSnapshot writes one complete snapshot in a transaction so readers
// never observe a half-written set of rows.
func (s *FxStore) InsertSnapshot(base string, rates map[string]float64, fetchedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin insert snapshot: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO fx_rates (id, base, target, rate, fetched_at, is_stale) VALUES (?, ?, ?, ?, ?, 0)`,
	)
	if err != nil {
		return fmt.Errorf("prepare insert snapshot: %w", err)
	}
	defer stmt.Close()

	at := fetchedAt.UTC()
	for target, rate := range rates {
		if _, err := stmt.Exec(uuid.NewString(), base, target, rate, at); err != nil {
			return fmt.Errorf("insert rate %s: %w", target, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert snapshot: %w", err)
	}
	return nil
}

// MarkStale flags every row of a snapshot. Rows already flagged are left
// alone, so repeated calls are idempotent.
func (s *FxStore) MarkStale(base string, fetchedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE fx_rates SET is_stale = 1 WHERE base = ? AND fetched_at = ? AND is_stale = 0`,
		base, fetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark stale: %w", err)
	}
	return nil
}
