package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/views/emaildetail"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/views/emails"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/views/menu"
)

// App is the TUI root model. It routes messages to the active view.
type App struct {
	ports  *Ports
	styles *styles.Styles

	menuView   *menu.View
	chatView   *chat.View
	emailsView *emails.View
	detailView *emaildetail.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a TUI application. Service calls run under ctx.
func NewApp(ctx context.Context, ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:       ports,
		styles:      s,
		menuView:    menu.NewView(s),
		chatView:    chat.NewView(ctx, s, ports.Chat),
		emailsView:  emails.NewView(ctx, s, ports.Emails),
		detailView:  emaildetail.NewView(s),
		currentView: messages.ViewMenu,
	}, nil
}

// StartIn sets the view shown on launch.
func (a *App) StartIn(view messages.ViewType) *App {
	a.currentView = view
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("mailrag")}
	switch a.currentView {
	case messages.ViewChat:
		cmds = append(cmds, a.chatView.Init())
	case messages.ViewEmails:
		cmds = append(cmds, a.emailsView.Load())
	case messages.ViewMenu, messages.ViewEmailDetail:
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if msg.Type == tea.KeyEsc {
			return a, a.back()
		}

	case messages.ViewChanged:
		return a, a.open(msg.View)

	case messages.AnswerReceived:
		a.err = msg.Err
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.EmailsLoaded:
		a.err = msg.Err
		a.emailsView, cmd = a.emailsView.Update(msg)
		return a, cmd

	case messages.EmailSelected:
		a.detailView.SetEmail(msg.Email)
		a.currentView = messages.ViewEmailDetail
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, nil
	}

	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewEmails:
		a.emailsView, cmd = a.emailsView.Update(msg)
	case messages.ViewEmailDetail:
		a.detailView, cmd = a.detailView.Update(msg)
	}
	return a, cmd
}

func (a *App) open(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewEmails:
		return a.emailsView.Load()
	case messages.ViewMenu, messages.ViewEmailDetail:
	}
	return nil
}

func (a *App) back() tea.Cmd {
	switch a.currentView {
	case messages.ViewEmailDetail:
		a.currentView = messages.ViewEmails
	case messages.ViewChat, messages.ViewEmails:
		a.currentView = messages.ViewMenu
	case messages.ViewMenu:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewEmails:
		return a.emailsView.View()
	case messages.ViewEmailDetail:
		return a.detailView.View()
	default:
		return a.menuView.View()
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first size.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions resizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.emailsView.SetDimensions(width, height)
	a.detailView.SetDimensions(width, height)
}
