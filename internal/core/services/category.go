package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// Ensure CategoryService implements the interface.
var _ driving.CategoryService = (*CategoryService)(nil)

// CategoryService manages the category list. Unclassified cannot be
// renamed or deleted.
type CategoryService struct {
	store driven.CategoryStore
}

// NewCategoryService creates a category service.
func NewCategoryService(store driven.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// List returns all categories.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.store.List(ctx)
}

// Add creates a category.
func (s *CategoryService) Add(ctx context.Context, name, description string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", domain.ErrInvalidInput)
	}
	return s.store.Add(ctx, name, description)
}

// Update renames a category. Emails in it move to the new name.
func (s *CategoryService) Update(ctx context.Context, id int64, name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name must not be empty", domain.ErrInvalidInput)
	}
	if err := s.ensureMutable(ctx, id); err != nil {
		return err
	}
	return s.store.Update(ctx, id, name, description)
}

// Delete removes a category. Its emails move to Unclassified.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.ensureMutable(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *CategoryService) ensureMutable(ctx context.Context, id int64) error {
	cat, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if cat.IsProtected() {
		return fmt.Errorf("%w: %s", domain.ErrProtectedCategory, cat.Name)
	}
	return nil
}
