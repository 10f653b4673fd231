// Package emaildetail shows a single email with its classification.
package emaildetail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag/internal/core/domain"
)

// View renders one email in a scrollable viewport.
type View struct {
	styles   *styles.Styles
	viewport viewport.Model
	email    *domain.Email
}

// NewView creates an empty detail view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		viewport: viewport.New(80, 20),
	}
}

// SetEmail shows the given email from the top.
func (v *View) SetEmail(email domain.Email) {
	v.email = &email
	v.viewport.SetContent(v.render())
	v.viewport.GotoTop()
}

// Email returns the email on display.
func (v *View) Email() *domain.Email {
	return v.email
}

// Update scrolls the viewport.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		v.SetDimensions(size.Width, size.Height)
		return v, nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) render() string {
	if v.email == nil {
		return v.styles.Muted.Render("No email selected")
	}
	e := v.email

	field := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return v.styles.Muted.Render(fmt.Sprintf("%-10s", label)) + v.styles.Normal.Render(value)
	}
	date := ""
	if e.ExtractedDate != nil {
		date = *e.ExtractedDate
	}

	lines := []string{
		field("From", e.Sender),
		field("Subject", e.Subject),
		field("Category", e.Category),
		field("Status", string(e.Status)),
		field("Date", date),
		field("Received", e.CreatedAt.Format("2006-01-02 15:04")),
		"",
		v.styles.Subtitle.Render("Summary"),
		e.Summary,
		"",
		v.styles.Subtitle.Render("Body"),
		lipgloss.NewStyle().Width(v.viewport.Width).Render(e.Body),
	}
	return strings.Join(lines, "\n")
}

// View renders the detail view.
func (v *View) View() string {
	title := "Email"
	if v.email != nil {
		title = fmt.Sprintf("Email #%d", v.email.ID)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(title),
		v.viewport.View(),
		v.styles.Help.Render("[↑/↓] Scroll  [Esc] Back"),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.viewport.Width = width
	v.viewport.Height = max(3, height-2)
	v.viewport.SetContent(v.render())
}
