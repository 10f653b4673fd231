// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
)

// Item represents a single menu option.
type Item struct {
	Label string
	Hint  string
	View  messages.ViewType
	Quit  bool
}

// View is the start screen. Items can be picked with the arrow keys or
// by their number.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a new menu view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		items: []Item{
			{Label: "Chat", Hint: "ask questions answered from your email", View: messages.ViewChat},
			{Label: "Inbox", Hint: "browse classified emails", View: messages.ViewEmails},
			{Label: "Quit", Quit: true},
		},
		width:  80,
		height: 24,
	}
}

// Init initialises the menu view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case keymap.Matches(k, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case keymap.Matches(k, v.keys.Select):
			return v, v.choose(v.items[v.selected])
		case k == "q":
			return v, tea.Quit
		case len(k) == 1 && k[0] >= '1' && int(k[0]-'0') <= len(v.items):
			v.selected = int(k[0] - '1')
			return v, v.choose(v.items[v.selected])
		}
	}
	return v, nil
}

func (v *View) choose(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("mailrag"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Ask your inbox"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i != v.selected {
			b.WriteString("  " + v.styles.Normal.Render(label) + "\n")
			continue
		}
		b.WriteString("> " + v.styles.Subtitle.Render(label))
		if item.Hint != "" {
			b.WriteString("  " + v.styles.Muted.Render(item.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [1-3/Enter] Select  [q] Quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
