// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// EmailList displays stored emails in a navigable list.
type EmailList struct {
	emails   []domain.Email
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewEmailList creates a new email list component.
func NewEmailList(s *styles.Styles) *EmailList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &EmailList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation messages.
func (l *EmailList) Update(msg tea.Msg) (*EmailList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the visible window of the list.
func (l *EmailList) View() string {
	if len(l.emails) == 0 {
		return l.styles.Muted.Render("No emails yet")
	}

	lines := make([]string, 0, len(l.emails)*2+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Emails (%d)", len(l.emails))), "")

	// Two lines per email.
	visible := (l.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.emails) {
		end = len(l.emails)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderEmail(i, &l.emails[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *EmailList) renderEmail(index int, email *domain.Email) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	subject := email.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	maxSubject := l.width - 24
	if maxSubject < 10 {
		maxSubject = 10
	}
	subject = clip(subject, maxSubject)

	tag := "[" + email.Category + "]"
	if email.Status == domain.StatusPending {
		tag += "*"
	}

	var head string
	if index == l.selected {
		head = l.styles.Selected.Render(fmt.Sprintf("%s#%-4d %-*s %s", indicator, email.ID, maxSubject, subject, tag))
	} else {
		head = l.styles.Normal.Render(fmt.Sprintf("%s#%-4d %-*s ", indicator, email.ID, maxSubject, subject)) +
			l.styles.Muted.Render(tag)
	}

	detail := email.Summary
	if email.Sender != "" {
		detail = email.Sender + "  " + detail
	}
	return head + "\n" + l.styles.Muted.Render("    "+clip(detail, l.width-6))
}

func clip(s string, limit int) string {
	if limit < 4 {
		limit = 4
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

// SetEmails replaces the list contents and resets the selection.
func (l *EmailList) SetEmails(emails []domain.Email) {
	l.emails = emails
	l.selected = 0
}

// Emails returns the current emails.
func (l *EmailList) Emails() []domain.Email {
	return l.emails
}

// Selected returns the index of the selected email.
func (l *EmailList) Selected() int {
	return l.selected
}

// SelectedEmail returns the selected email, or nil if the list is empty.
func (l *EmailList) SelectedEmail() *domain.Email {
	if l.selected < 0 || l.selected >= len(l.emails) {
		return nil
	}
	return &l.emails[l.selected]
}

// MoveUp moves selection up.
func (l *EmailList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *EmailList) MoveDown() {
	if l.selected < len(l.emails)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *EmailList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of emails.
func (l *EmailList) Count() int {
	return len(l.emails)
}
