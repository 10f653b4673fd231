// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/mailrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/mailrag/internal/core/domain"
	"github.com/custodia-labs/mailrag/internal/core/ports/driving"
)

// MaxHistoryMessages bounds the history sent with each question.
const MaxHistoryMessages = 20

type turn struct {
	question string
	answer   string
	sources  []domain.EnrichedSource
	pending  bool
	failed   bool
}

// View is the chat view.
type View struct {
	ctx      context.Context
	chat     driving.ChatService
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	input    *input.ChatInput
	viewport viewport.Model
	status   *status.Bar

	turns   []turn
	history []domain.ChatMessage
	busy    bool

	width  int
	height int
}

// NewView creates a chat view backed by the chat service.
func NewView(ctx context.Context, s *styles.Styles, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s)
	bar.SetBindings(km.ChatHelp())

	v := &View{
		ctx:      ctx,
		chat:     chat,
		styles:   s,
		keymap:   km,
		input:    input.NewChatInput(s),
		viewport: viewport.New(80, 16),
		status:   bar,
	}
	v.SetDimensions(80, 24)
	return v
}

// Init starts the input cursor.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.AnswerReceived:
		v.receive(msg)
		return v, nil

	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), v.keymap.Send):
			return v, v.submit()
		case keymap.Matches(msg.String(), v.keymap.Clear):
			v.Reset()
			return v, nil
		}
		switch msg.Type {
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	if v.busy || v.chat == nil {
		return nil
	}
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}

	v.input.Reset()
	v.busy = true
	v.turns = append(v.turns, turn{question: question, pending: true})
	v.status.SetState(status.StateThinking)
	v.refresh()

	ctx := v.ctx
	chat := v.chat
	history := append([]domain.ChatMessage(nil), v.history...)
	return func() tea.Msg {
		resp, err := chat.Ask(ctx, question, history)
		return messages.AnswerReceived{Question: question, Response: resp, Err: err}
	}
}

func (v *View) receive(msg messages.AnswerReceived) {
	v.busy = false
	if len(v.turns) == 0 {
		return
	}
	last := &v.turns[len(v.turns)-1]
	last.pending = false

	if msg.Err != nil || msg.Response == nil {
		last.failed = true
		if msg.Err != nil {
			last.answer = msg.Err.Error()
			v.status.SetMessage(msg.Err.Error())
		}
		v.status.SetState(status.StateError)
		v.refresh()
		return
	}

	last.answer = msg.Response.Answer.Text
	last.sources = msg.Response.Sources
	v.history = append(v.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: msg.Question},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: last.answer},
	)
	if len(v.history) > MaxHistoryMessages {
		v.history = v.history[len(v.history)-MaxHistoryMessages:]
	}

	v.status.Clear()
	if n := len(last.sources); n > 0 {
		v.status.SetMessage(fmt.Sprintf("%d source emails", n))
	}
	v.refresh()
}

// Reset forgets the conversation.
func (v *View) Reset() {
	if v.busy {
		return
	}
	v.turns = nil
	v.history = nil
	v.status.Clear()
	v.refresh()
}

func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask anything about the emails you have added.")
	}

	wrap := lipgloss.NewStyle().Width(v.viewport.Width)
	var b strings.Builder
	for i, t := range v.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Question.Render("You: " + t.question))
		b.WriteString("\n")
		switch {
		case t.pending:
			b.WriteString(v.styles.Muted.Render("..."))
		case t.failed:
			b.WriteString(v.styles.Error.Render(wrap.Render(t.answer)))
		default:
			b.WriteString(v.styles.Answer.Render(wrap.Render(t.answer)))
		}
		b.WriteString("\n")
		for _, src := range t.sources {
			b.WriteString(v.styles.Source.Render(formatSource(src)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatSource(src domain.EnrichedSource) string {
	label := src.Subject
	if label == "" {
		label = src.Preview
	}
	if src.Sender != "" {
		return fmt.Sprintf("#%d %s (%s)", src.EmailID, label, src.Sender)
	}
	return fmt.Sprintf("#%d %s", src.EmailID, label)
}

// View renders the chat view.
func (v *View) View() string {
	header := v.styles.Title.Render("Chat")
	transcript := v.styles.Transcript.Render(v.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		transcript,
		v.input.View(),
		v.status.View(),
	)
}

// SetDimensions lays the view out for the given terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height

	fw, fh := v.styles.Transcript.GetFrameSize()
	// header, input box (3 lines) and status bar
	reserved := 1 + 3 + 1 + fh
	v.viewport.Width = max(20, width-fw)
	v.viewport.Height = max(3, height-reserved)
	v.input.SetWidth(width)
	v.status.SetWidth(width)
	v.refresh()
}

// Busy reports whether an answer is in flight.
func (v *View) Busy() bool {
	return v.busy
}

// History returns the conversation sent with the next question.
func (v *View) History() []domain.ChatMessage {
	return v.history
}

// Input returns the chat input component.
func (v *View) Input() *input.ChatInput {
	return v.input
}
