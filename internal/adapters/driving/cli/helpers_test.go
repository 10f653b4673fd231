package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/mailrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
	"github.com/custodia-labs/mailrag/internal/core/services"
)

// stubEmails is a driving.EmailService over the in-memory store. Ingest
// files everything under the requested subject without a model.
type stubEmails struct {
	mu        sync.Mutex
	store     *memory.EmailStore
	ingested  []domain.IngestRequest
	ingestErr error
}

func (s *stubEmails) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.Email, error) {
	s.mu.Lock()
	s.ingested = append(s.ingested, req)
	s.mu.Unlock()
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, domain.ErrInvalidInput
	}
	id, err := s.store.Create(ctx, &domain.Email{
		Sender:   req.Sender,
		Subject:  req.Subject,
		Body:     req.Body,
		Summary:  "summary of " + req.Subject,
		Category: "Notice",
	})
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *stubEmails) Get(ctx context.Context, id int64) (*domain.Email, error) {
	return s.store.Get(ctx, id)
}

func (s *stubEmails) List(ctx context.Context, f domain.EmailFilter) ([]domain.Email, error) {
	return s.store.List(ctx, f)
}

func (s *stubEmails) ChangeCategory(ctx context.Context, id int64, category string) (*domain.Email, error) {
	if err := s.store.UpdateCategory(ctx, id, category); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *stubEmails) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *stubEmails) ReclassifyPending(ctx context.Context) (int, error) {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range pending {
		err := s.store.UpdateClassification(ctx, e.ID, domain.ClassificationResult{
			Category: "HR",
			Summary:  "reclassified",
			Status:   domain.StatusCompleted,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(pending), nil
}

// stubChat answers every question with a fixed reply.
type stubChat struct {
	resp      *driving.ChatResponse
	err       error
	questions []string
}

func (s *stubChat) Ask(_ context.Context, q string, _ []domain.ChatMessage) (*driving.ChatResponse, error) {
	s.questions = append(s.questions, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

type testServices struct {
	emails   *stubEmails
	store    *memory.Store
	chat     *stubChat
	settings *services.SettingsService
}

// setupTestServices installs stub services and returns them. The previous
// services and flag values are restored when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	store := memory.NewStore()
	ts := &testServices{
		emails: &stubEmails{store: store.Emails()},
		store:  store,
		chat: &stubChat{resp: &driving.ChatResponse{
			Answer: domain.Answer{
				Text:      "The offsite is on Friday [doc #1].",
				SourceIDs: []int64{1},
				Sources:   []domain.SourcePreview{{EmailID: 1, Preview: "Offsite Friday"}},
			},
			Sources: []domain.EnrichedSource{{EmailID: 1, Sender: "ops@example.com", Subject: "Offsite"}},
		}},
		settings: services.NewSettingsService(memory.NewConfigStore(), nil),
	}

	prevEmails, prevCats, prevChat, prevSettings := emailService, categoryService, chatService, settingsService
	prevBootstrap := bootstrap
	bootstrap = nil
	SetServices(&Services{
		Emails:     ts.emails,
		Categories: services.NewCategoryService(store.Categories()),
		Chat:       ts.chat,
		Settings:   ts.settings,
	})
	resetFlags()

	t.Cleanup(func() {
		emailService, categoryService, chatService, settingsService = prevEmails, prevCats, prevChat, prevSettings
		bootstrap = prevBootstrap
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	return ts
}

// clearServices removes every service for the duration of the test.
func clearServices(t *testing.T) {
	t.Helper()
	prevEmails, prevCats, prevChat, prevSettings := emailService, categoryService, chatService, settingsService
	prevBootstrap := bootstrap
	emailService, categoryService, chatService, settingsService = nil, nil, nil, nil
	bootstrap = nil
	t.Cleanup(func() {
		emailService, categoryService, chatService, settingsService = prevEmails, prevCats, prevChat, prevSettings
		bootstrap = prevBootstrap
		rootCmd.SetArgs(nil)
	})
}

// resetFlags zeroes the package-level flag targets. Cobra leaves them set
// between Execute calls.
func resetFlags() {
	emailFile, emailBody, emailSender, emailSubject, emailCategory = "", "", "", "", ""
	emailLimit, emailOffset = domain.DefaultListLimit, 0
	emailJSON, askJSON, watchExisting = false, false, false
	categoryDescription = ""
	_ = settingsVectorCmd.Flags().Set("url", "")
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

// executeContext is execute with a caller-controlled context. Cobra only
// hands the root context to subcommands that have none, so contexts left
// by earlier runs are cleared first.
func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	clearContexts(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	resetFlags()
	return buf.String(), err
}

func clearContexts(cmd *cobra.Command) {
	cmd.SetContext(nil) //nolint:staticcheck // nil lets ExecuteContext propagate again
	for _, sub := range cmd.Commands() {
		clearContexts(sub)
	}
}

var errBoom = errors.New("boom")
