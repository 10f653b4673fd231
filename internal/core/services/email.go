package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driven"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/logger"
)

// Ensure EmailService implements the interface.
var _ driving.EmailService = (*EmailService)(nil)

// EmailService coordinates classification, storage and indexing.
// The email store is the source of truth; index failures are logged and
// never fail an operation.
type EmailService struct {
	emails     driven.EmailStore
	categories driven.CategoryStore
	classifier *ClassificationService
	indexer    *IndexService
}

// NewEmailService creates an email service.
func NewEmailService(
	emails driven.EmailStore,
	categories driven.CategoryStore,
	classifier *ClassificationService,
	indexer *IndexService,
) *EmailService {
	return &EmailService{
		emails:     emails,
		categories: categories,
		classifier: classifier,
		indexer:    indexer,
	}
}

// Ingest classifies, stores and indexes a new email.
func (s *EmailService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.Email, error) {
	if strings.TrimSpace(req.Body) == "" {
		return nil, fmt.Errorf("%w: email body must not be empty", domain.ErrInvalidInput)
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}

	result := s.classifier.Classify(ctx, req.Body, req.Sender, names)

	email := &domain.Email{
		Sender:        req.Sender,
		Subject:       req.Subject,
		Body:          req.Body,
		Summary:       result.Summary,
		Category:      result.Category,
		ExtractedDate: result.ExtractedDate,
		Status:        result.Status,
	}
	if result.Subject != "" {
		email.Subject = result.Subject
	}

	id, err := s.emails.Create(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("store email: %w", err)
	}

	saved, err := s.emails.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload email %d: %w", id, err)
	}

	s.reindex(ctx, saved)
	logger.Info("ingested email %d as %s (%s)", saved.ID, saved.Category, saved.Status)
	return saved, nil
}

// Get returns one email.
func (s *EmailService) Get(ctx context.Context, id int64) (*domain.Email, error) {
	return s.emails.Get(ctx, id)
}

// List returns a page of emails, newest first.
func (s *EmailService) List(ctx context.Context, filter domain.EmailFilter) ([]domain.Email, error) {
	return s.emails.List(ctx, filter.Normalise())
}

// ChangeCategory sets an email's category and refreshes its chunk metadata.
// The category name is not checked against the category list.
func (s *EmailService) ChangeCategory(ctx context.Context, id int64, category string) (*domain.Email, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category must not be empty", domain.ErrInvalidInput)
	}
	if err := s.emails.UpdateCategory(ctx, id, category); err != nil {
		return nil, err
	}
	email, err := s.emails.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, email)
	return email, nil
}

// Delete removes the email's chunks, then the email. A chunk removal
// failure is logged and the email is deleted anyway.
func (s *EmailService) Delete(ctx context.Context, id int64) error {
	if _, err := s.emails.Get(ctx, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.Remove(ctx, id); err != nil {
			logger.Error(err, "remove chunks of email %d", id)
		}
	}
	return s.emails.Delete(ctx, id)
}

// ReclassifyPending runs classification again for every pending email and
// re-indexes the ones that complete. It returns the number completed.
func (s *EmailService) ReclassifyPending(ctx context.Context) (int, error) {
	pending, err := s.emails.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending emails: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		email := &pending[i]
		result := s.classifier.Classify(ctx, email.Body, email.Sender, names)
		if result.Status == domain.StatusPending {
			logger.Debug("email %d still pending", email.ID)
			continue
		}
		if err := s.emails.UpdateClassification(ctx, email.ID, result); err != nil {
			return completed, fmt.Errorf("update email %d: %w", email.ID, err)
		}
		completed++

		updated, err := s.emails.Get(ctx, email.ID)
		if err != nil {
			return completed, fmt.Errorf("reload email %d: %w", email.ID, err)
		}
		s.reindex(ctx, updated)
	}
	return completed, nil
}

func (s *EmailService) categoryNames(ctx context.Context) ([]string, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return domain.CategoryNames(cats), nil
}

func (s *EmailService) reindex(ctx context.Context, email *domain.Email) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Index(ctx, email); err != nil {
		logger.Error(err, "index email %d", email.ID)
	}
}

// RebuildIndex indexes every stored email again and returns how many were
// indexed. An in-process index starts empty, so it is warmed from the
// store on startup.
func (s *EmailService) RebuildIndex(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}

	indexed := 0
	filter := domain.EmailFilter{Limit: domain.MaxListLimit}
	for {
		page, err := s.emails.List(ctx, filter)
		if err != nil {
			return indexed, fmt.Errorf("list emails: %w", err)
		}
		for i := range page {
			if err := ctx.Err(); err != nil {
				return indexed, err
			}
			if err := s.indexer.Index(ctx, &page[i]); err != nil {
				logger.Error(err, "index email %d", page[i].ID)
				continue
			}
			indexed++
		}
		if len(page) < filter.Limit {
			return indexed, nil
		}
		filter.Offset += len(page)
	}
}
