package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reidond/subsctl/internal/model"
)

type CategoryStore struct {
	db *sql.DB
}

func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryCols = `id, owner_email, name, color, is_default, created_at`

func scanCategory(scanner interface{ Scan(...any) error }) (*model.Category, error) {
	var c model.Category
	var color sql.NullString
	var isDefault int

	err := scanner.Scan(&c.ID, &c.OwnerEmail, &c.Name, &color, &isDefault, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if color.Valid {
		c.Color = &color.String
	}
	c.IsDefault = isDefault != 0
	return &c, nil
}

// EnsureDefault returns the owner's default category, creating it on first
// use so every owner always has exactly one.
func (s *CategoryStore) EnsureDefault(ownerEmail string) (*model.Category, error) {
	row := s.db.QueryRow(
		`SELECT `+categoryCols+` FROM categories WHERE owner_email = ? AND is_default = 1`,
		ownerEmail,
	)
	c, err := scanCategory(row)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get default category: %w", err)
	}

	c = &model.Category{
		ID:         uuid.NewString(),
		OwnerEmail: ownerEmail,
		Name:       "Uncategorized",
		IsDefault:  true,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO categories (id, owner_email, name, color, is_default, created_at) VALUES (?, ?, ?, NULL, 1, ?)`,
		c.ID, c.OwnerEmail, c.Name, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create default category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) GetByID(id, ownerEmail string) (*model.Category, error) {
	row := s.db.QueryRow(
		`SELECT `+categoryCols+` FROM categories WHERE id = ? AND owner_email = ?`,
		id, ownerEmail,
	)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) Create(ownerEmail, name string, color *string) (*model.Category, error) {
	c := &model.Category{
		ID:         uuid.NewString(),
		OwnerEmail: ownerEmail,
		Name:       name,
		Color:      color,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO categories (id, owner_email, name, color, is_default, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		c.ID, c.OwnerEmail, c.Name, c.Color, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (s *CategoryStore) Update(id, ownerEmail, name string, color *string) (*model.Category, error) {
	_, err := s.db.Exec(
		`UPDATE categories SET name = ?, color = ? WHERE id = ? AND owner_email = ?`,
		name, color, id, ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return s.GetByID(id, ownerEmail)
}

func (s *CategoryStore) ListWithCounts(ownerEmail string) ([]model.CategoryWithCount, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.owner_email, c.name, c.color, c.is_default, c.created_at,
		        (SELECT COUNT(*) FROM subscriptions s WHERE s.category_id = c.id AND s.owner_email = c.owner_email)
		 FROM categories c WHERE c.owner_email = ?
		 ORDER BY c.is_default DESC, c.name ASC`,
		ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.CategoryWithCount
	for rows.Next() {
		var c model.CategoryWithCount
		var color sql.NullString
		var isDefault int
		err := rows.Scan(&c.ID, &c.OwnerEmail, &c.Name, &color, &isDefault, &c.CreatedAt, &c.SubscriptionCount)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if color.Valid {
			c.Color = &color.String
		}
		c.IsDefault = isDefault != 0
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteWithReassign moves the category's subscriptions to the owner's
// default category before deleting, in one transaction.
func (s *CategoryStore) DeleteWithReassign(id, ownerEmail, defaultID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE subscriptions SET category_id = ?, updated_at = ? WHERE category_id = ? AND owner_email = ?`,
		defaultID, time.Now().UTC(), id, ownerEmail,
	)
	if err != nil {
		return fmt.Errorf("reassign subscriptions: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM categories WHERE id = ? AND owner_email = ? AND is_default = 0`, id, ownerEmail)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}
