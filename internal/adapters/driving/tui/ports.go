// Package tui provides an interactive terminal chat over the mailbox.
// It is a driving adapter: every action goes through the driving ports.
package tui

import (
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls into.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Emails backs the inbox browser. Optional.
	Emails driving.EmailService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
