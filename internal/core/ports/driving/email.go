package driving

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// EmailService manages the email lifecycle: ingest, classification,
// indexing and removal.
type EmailService interface {
	// Ingest classifies, stores and indexes a new email.
	// Returns domain.ErrInvalidInput when the body is empty. Classification
	// and indexing failures never fail the ingest.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.Email, error)

	// Get returns one email.
	Get(ctx context.Context, id int64) (*domain.Email, error)

	// List returns a page of emails, newest first.
	List(ctx context.Context, filter domain.EmailFilter) ([]domain.Email, error)

	// ChangeCategory sets an email's category manually.
	ChangeCategory(ctx context.Context, id int64, category string) (*domain.Email, error)

	// Delete removes an email and its indexed chunks.
	Delete(ctx context.Context, id int64) error

	// ReclassifyPending retries classification for deferred emails and
	// returns how many were completed.
	ReclassifyPending(ctx context.Context) (int, error)
}

// CategoryService manages categories.
type CategoryService interface {
	// List returns all categories.
	List(ctx context.Context) ([]domain.Category, error)

	// Add creates a category.
	Add(ctx context.Context, name, description string) (*domain.Category, error)

	// Update renames a category. Unclassified is protected.
	Update(ctx context.Context, id int64, name, description string) error

	// Delete removes a category, moving its emails to Unclassified.
	Delete(ctx context.Context, id int64) error
}
