package mcp

import (
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls into.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Emails ingests and reads emails. Optional; ingest_email and the email
	// resource are unavailable without it.
	Emails driving.EmailService

	// Categories lists categories. Optional.
	Categories driving.CategoryService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
