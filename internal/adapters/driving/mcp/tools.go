package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string               `json:"question" jsonschema:"the question to answer from the mailbox"`
	History  []domain.ChatMessage `json:"history,omitempty" jsonschema:"earlier conversation turns, oldest first"`
}

// AskOutput is the output schema for the ask tool.
// SourceIDs lists every email the answer cites, including ones deleted
// since indexing that no longer appear in Sources.
type AskOutput struct {
	Answer    string         `json:"answer"`
	SourceIDs []int64        `json:"source_ids"`
	Sources   []SourceOutput `json:"sources"`
}

// SourceOutput describes one email the answer drew on.
type SourceOutput struct {
	EmailID int64  `json:"email_id"`
	Sender  string `json:"sender,omitempty"`
	Subject string `json:"subject,omitempty"`
	Summary string `json:"summary,omitempty"`
	Preview string `json:"preview"`
}

// IngestInput is the input schema for the ingest_email tool.
type IngestInput struct {
	Body    string `json:"body" jsonschema:"the plain-text email body"`
	Sender  string `json:"sender,omitempty" jsonschema:"the From address"`
	Subject string `json:"subject,omitempty" jsonschema:"the subject line, used if the model extracts none"`
}

// IngestOutput is the output schema for the ingest_email tool.
type IngestOutput struct {
	EmailID  int64  `json:"email_id"`
	Category string `json:"category"`
	Subject  string `json:"subject"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
}

var errEmailsUnavailable = errors.New("email service not configured")

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed emails as evidence",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_email",
		Description: "Classify, store and index a new email",
	}, s.handleIngest)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	resp, err := s.ports.Chat.Ask(ctx, input.Question, input.History)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Answer:    resp.Answer.Text,
		SourceIDs: append([]int64{}, resp.Answer.SourceIDs...),
		Sources:   make([]SourceOutput, len(resp.Sources)),
	}
	for i, src := range resp.Sources {
		out.Sources[i] = SourceOutput{
			EmailID: src.EmailID,
			Sender:  src.Sender,
			Subject: src.Subject,
			Summary: src.Summary,
			Preview: src.Preview,
		}
	}
	return nil, out, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Emails == nil {
		return nil, IngestOutput{}, errEmailsUnavailable
	}

	email, err := s.ports.Emails.Ingest(ctx, domain.IngestRequest{
		Body:    input.Body,
		Sender:  input.Sender,
		Subject: input.Subject,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		EmailID:  email.ID,
		Category: email.Category,
		Subject:  email.Subject,
		Summary:  email.Summary,
		Status:   string(email.Status),
	}, nil
}
