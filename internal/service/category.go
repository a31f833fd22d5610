package service

import (
	"log/slog"
	"strings"

	"github.com/Reidond/subsctl/internal/apperr"
	"github.com/Reidond/subsctl/internal/model"
	"github.com/Reidond/subsctl/internal/store"
)

type CategoryService struct {
	cats   *store.CategoryStore
	logger *slog.Logger
}

func NewCategoryService(cats *store.CategoryStore, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		cats:   cats,
		logger: logger.With("component", "categories"),
	}
}

// List returns the owner's categories with subscription counts, creating
// the default category on first access.
func (s *CategoryService) List(ownerEmail string) ([]model.CategoryWithCount, error) {
	if _, err := s.cats.EnsureDefault(ownerEmail); err != nil {
		return nil, err
	}
	return s.cats.ListWithCounts(ownerEmail)
}

func (s *CategoryService) Create(ownerEmail, name string, color *string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	return s.cats.Create(ownerEmail, name, color)
}

func (s *CategoryService) Update(ownerEmail, id, name string, color *string) (*model.Category, error) {
	cat, err := s.cats.GetByID(id, ownerEmail)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("category not found")
	}
	if cat.IsDefault {
		return nil, apperr.Conflict("the default category cannot be renamed")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	return s.cats.Update(id, ownerEmail, name, color)
}

// Delete removes a category after moving its subscriptions to the default
// one. The default category itself is not deletable.
func (s *CategoryService) Delete(ownerEmail, id string) error {
	cat, err := s.cats.GetByID(id, ownerEmail)
	if err != nil {
		return err
	}
	if cat == nil {
		return apperr.NotFound("category not found")
	}
	if cat.IsDefault {
		return apperr.Conflict("the default category cannot be deleted")
	}
	def, err := s.cats.EnsureDefault(ownerEmail)
	if err != nil {
		return err
	}
	return s.cats.DeleteWithReassign(id, ownerEmail, def.ID)
}
