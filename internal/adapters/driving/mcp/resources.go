package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/mailrag/internal/core/domain"
)

const uriScheme = "mailrag://"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "categories",
		Name:        "categories",
		Description: "Categories emails are classified into",
		MIMEType:    "application/json",
	}, s.handleCategoriesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "emails/{emailId}",
		Name:        "email",
		Description: "A stored email with its classification",
		MIMEType:    "application/json",
	}, s.handleEmailResource)
}

func (s *Server) handleCategoriesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Categories == nil {
		return jsonResult(req.Params.URI, "[]"), nil
	}

	cats, err := s.ports.Categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	type categoryInfo struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	infos := make([]categoryInfo, len(cats))
	for i, c := range cats {
		infos[i] = categoryInfo{ID: c.ID, Name: c.Name, Description: c.Description}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling categories: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func (s *Server) handleEmailResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Emails == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id, ok := extractEmailID(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	email, err := s.ports.Emails.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting email: %w", err)
	}

	info := struct {
		ID            int64   `json:"id"`
		Sender        string  `json:"sender"`
		Subject       string  `json:"subject"`
		Category      string  `json:"category"`
		Summary       string  `json:"summary"`
		ExtractedDate *string `json:"extracted_date"`
		Status        string  `json:"status"`
		Body          string  `json:"body"`
	}{
		ID:            email.ID,
		Sender:        email.Sender,
		Subject:       email.Subject,
		Category:      email.Category,
		Summary:       email.Summary,
		ExtractedDate: email.ExtractedDate,
		Status:        string(email.Status),
		Body:          email.Body,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling email: %w", err)
	}
	return jsonResult(req.Params.URI, string(data)), nil
}

func jsonResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		}},
	}
}

// extractEmailID parses the id out of mailrag://emails/{emailId}.
func extractEmailID(uri string) (int64, bool) {
	const prefix = uriScheme + "emails/"
	if !strings.HasPrefix(uri, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(uri, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
