// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer view.
	ViewChat
	// ViewEmails lists stored emails.
	ViewEmails
	// ViewEmailDetail shows one email.
	ViewEmailDetail
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewEmails:
		return "emails"
	case ViewEmailDetail:
		return "email_detail"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// QuestionAsked starts an answer run.
type QuestionAsked struct {
	Question string
}

// AnswerReceived carries an answer back to the chat view.
type AnswerReceived struct {
	Question string
	Response *driving.ChatResponse
	Err      error
}

// EmailsLoaded carries a page of emails.
type EmailsLoaded struct {
	Emails []domain.Email
	Err    error
}

// EmailSelected opens the detail view for an email.
type EmailSelected struct {
	Email domain.Email
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
