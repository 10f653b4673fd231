// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps a single question.
const MaxQuestionLength = 2000

// ChatInput wraps a bubbles textinput for typing questions.
type ChatInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewChatInput creates a focused chat input.
func NewChatInput(s *styles.Styles) *ChatInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your email..."
	ti.Focus()
	ti.CharLimit = MaxQuestionLength
	ti.Width = 60

	return &ChatInput{
		textinput: ti,
		styles:    s,
		width:     60,
	}
}

// Init starts the cursor blink.
func (c *ChatInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (c *ChatInput) Update(msg tea.Msg) (*ChatInput, tea.Cmd) {
	var cmd tea.Cmd
	c.textinput, cmd = c.textinput.Update(msg)
	return c, cmd
}

// View renders the framed input.
func (c *ChatInput) View() string {
	return c.styles.InputField.Width(c.width - 2).Render(c.textinput.View())
}

// Value returns the current input value.
func (c *ChatInput) Value() string {
	return c.textinput.Value()
}

// SetValue sets the input value.
func (c *ChatInput) SetValue(value string) {
	c.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (c *ChatInput) Focus() tea.Cmd {
	return c.textinput.Focus()
}

// Blur removes focus from the input.
func (c *ChatInput) Blur() {
	c.textinput.Blur()
}

// Focused returns whether the input is focused.
func (c *ChatInput) Focused() bool {
	return c.textinput.Focused()
}

// SetWidth sets the outer width including the frame.
func (c *ChatInput) SetWidth(width int) {
	if width < 24 {
		width = 24
	}
	c.width = width
	c.textinput.Width = width - 8
}

// Width returns the current width.
func (c *ChatInput) Width() int {
	return c.width
}

// Reset clears the input.
func (c *ChatInput) Reset() {
	c.textinput.Reset()
}
