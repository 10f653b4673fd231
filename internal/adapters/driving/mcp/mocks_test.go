package mcp

import (
	"context"

	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

type mockChatService struct {
	resp     *driving.ChatResponse
	err      error
	question string
	history  []domain.ChatMessage
}

func (m *mockChatService) Ask(
	_ context.Context,
	question string,
	history []domain.ChatMessage,
) (*driving.ChatResponse, error) {
	m.question = question
	m.history = history
	return m.resp, m.err
}

type mockEmailService struct {
	email   *domain.Email
	err     error
	request domain.IngestRequest
}

func (m *mockEmailService) Ingest(_ context.Context, req domain.IngestRequest) (*domain.Email, error) {
	m.request = req
	return m.email, m.err
}

func (m *mockEmailService) Get(_ context.Context, _ int64) (*domain.Email, error) {
	return m.email, m.err
}

func (m *mockEmailService) List(_ context.Context, _ domain.EmailFilter) ([]domain.Email, error) {
	return nil, m.err
}

func (m *mockEmailService) ChangeCategory(_ context.Context, _ int64, _ string) (*domain.Email, error) {
	return m.email, m.err
}

func (m *mockEmailService) Delete(_ context.Context, _ int64) error {
	return m.err
}

func (m *mockEmailService) ReclassifyPending(_ context.Context) (int, error) {
	return 0, m.err
}

type mockCategoryService struct {
	categories []domain.Category
	err        error
}

func (m *mockCategoryService) List(_ context.Context) ([]domain.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryService) Add(_ context.Context, name, description string) (*domain.Category, error) {
	return &domain.Category{Name: name, Description: description}, m.err
}

func (m *mockCategoryService) Update(_ context.Context, _ int64, _, _ string) error {
	return m.err
}

func (m *mockCategoryService) Delete(_ context.Context, _ int64) error {
	return m.err
}
