// Package emails provides the inbox browser view for the TUI.
package emails

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// View lists stored emails newest first.
type View struct {
	ctx    context.Context
	emails driving.EmailService
	styles *styles.Styles
	keymap *keymap.KeyMap
	list   *list.EmailList
	status *status.Bar
	width  int
	height int
}

// NewView creates an inbox view. A nil email service shows an empty list.
func NewView(ctx context.Context, s *styles.Styles, emails driving.EmailService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s)
	bar.SetBindings(km.ListHelp())

	return &View{
		ctx:    ctx,
		emails: emails,
		styles: s,
		keymap: km,
		list:   list.NewEmailList(s),
		status: bar,
		width:  80,
		height: 24,
	}
}

// Load fetches the first page of emails.
func (v *View) Load() tea.Cmd {
	if v.emails == nil {
		return nil
	}
	v.status.SetState(status.StateLoading)
	ctx, svc := v.ctx, v.emails
	return func() tea.Msg {
		emails, err := svc.List(ctx, domain.EmailFilter{})
		return messages.EmailsLoaded{Emails: emails, Err: err}
	}
}

// Update handles messages for the inbox view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.EmailsLoaded:
		if msg.Err != nil {
			v.status.SetState(status.StateError)
			v.status.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.status.Clear()
		v.status.SetMessage(fmt.Sprintf("%d emails", len(msg.Emails)))
		v.list.SetEmails(msg.Emails)
		return v, nil

	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), v.keymap.Select):
			email := v.list.SelectedEmail()
			if email == nil {
				return v, nil
			}
			selected := *email
			return v, func() tea.Msg { return messages.EmailSelected{Email: selected} }
		case keymap.Matches(msg.String(), v.keymap.Refresh):
			return v, v.Load()
		}
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// View renders the inbox.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("Inbox"),
		"",
		v.list.View(),
		"",
		v.status.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-4)
	v.status.SetWidth(width)
}

// List returns the list component.
func (v *View) List() *list.EmailList {
	return v.list
}
