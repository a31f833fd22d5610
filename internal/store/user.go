package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, primary_currency, timezone, push_enabled, onboarding_done, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var currency, tz sql.NullString
	var pushEnabled, onboardingDone int

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &currency, &tz,
		&pushEnabled, &onboardingDone, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if currency.Valid {
		u.PrimaryCurrency = &currency.String
	}
	if tz.Valid {
		u.Timezone = &tz.String
	}
	u.PushEnabled = pushEnabled != 0
	u.OnboardingDone = onboardingDone != 0
	return &u, nil
}

// Ensure returns the user for email, creating the row on first sight.
func (s *UserStore) Ensure(email, name string) (*model.User, error) {
	u, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	now := time.Now().UTC()
	u = &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.Exec(
		`INSERT INTO users (id, email, name, push_enabled, onboarding_done, created_at, updated_at) VALUES (?, ?, ?, 0, 0, ?, ?)`,
		u.ID, u.Email, u.Name, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateSettings(id string, primaryCurrency, timezone *string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET primary_currency = ?, timezone = ?, updated_at = ? WHERE id = ?`,
		primaryCurrency, timezone, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetPushEnabled(id string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE users SET push_enabled = ?, updated_at = ? WHERE id = ?`,
		v, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set push enabled: %w", err)
	}
	return nil
}

func (s *UserStore) SetOnboardingDone(id string) error {
	_, err := s.db.Exec(
		`UPDATE users SET onboarding_done = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("set onboarding done: %w", err)
	}
	return nil
}
