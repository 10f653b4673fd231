package driven

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// EmailStore persists email records. It is the source of truth; the vector
// index is derived from it.
type EmailStore interface {
	// Create stores a new email and returns its assigned ID.
	Create(ctx context.Context, email *domain.Email) (int64, error)

	// Get returns an email by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Email, error)

	// List returns emails newest first, filtered and paged.
	List(ctx context.Context, filter domain.EmailFilter) ([]domain.Email, error)

	// ListPending returns emails whose classification was deferred.
	ListPending(ctx context.Context) ([]domain.Email, error)

	// UpdateCategory sets the category of one email.
	UpdateCategory(ctx context.Context, id int64, category string) error

	// UpdateClassification replaces the classification fields of one email.
	UpdateClassification(ctx context.Context, id int64, result domain.ClassificationResult) error

	// Delete removes an email. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id int64) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	// List returns all categories ordered by ID.
	List(ctx context.Context) ([]domain.Category, error)

	// Get returns a category by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id int64) (*domain.Category, error)

	// Add creates a category. Returns domain.ErrAlreadyExists on a duplicate name.
	Add(ctx context.Context, name, description string) (*domain.Category, error)

	// Update renames a category and updates its description.
	// Emails carrying the old name are moved to the new one.
	Update(ctx context.Context, id int64, name, description string) error

	// Delete removes a category and moves its emails to Unclassified.
	Delete(ctx context.Context, id int64) error
}
