// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// reservedLines is the height taken by the header, input and status bar.
const reservedLines = 9

// Turn is one question and its answer.
type Turn struct {
	Question string
	Answer   string
	Err      error

	// Pending is true until the answer arrives.
	Pending bool
}

// View is the chat view: a scrolling transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	statusbar  *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	turns  []Turn
	width  int
	height int
	ready  bool
	err    error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		transcript:    viewport.New(80, 24-reservedLines),
		statusbar:     status.NewBar(s, km),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads index statistics.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadStats())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.StatsLoaded:
		v.handleStatsLoaded(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.failPending(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(msg.String(), v.keymap.Clear) {
		v.Reset()
		return v, nil
	}

	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEnter:
		return v.submit()
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. Only one question is in flight at a time.
func (v *View) submit() (*View, tea.Cmd) {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.Pending() {
		return v, nil
	}

	v.turns = append(v.turns, Turn{Question: question, Pending: true})
	v.input.Reset()
	v.err = nil
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return v, v.ask(question)
}

// ask returns a command that answers the question.
func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.ErrorOccurred{Err: ErrNoAnswerService}
		}

		answer, err := v.answerService.Answer(v.ctx, question)
		return messages.AnswerCompleted{Question: question, Answer: answer, Err: err}
	}
}

// loadStats returns a command that reads the index statistics.
func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.StatsLoaded{Err: ErrNoAnswerService}
		}

		stats, err := v.answerService.Stats(v.ctx)
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// handleAnswerCompleted fills in the pending turn.
func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	for i := len(v.turns) - 1; i >= 0; i-- {
		t := &v.turns[i]
		if !t.Pending || t.Question != msg.Question {
			continue
		}
		t.Pending = false
		t.Answer = msg.Answer
		t.Err = msg.Err
		break
	}

	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(describe(msg.Err))
	} else {
		v.err = nil
		v.statusbar.SetState(status.StateAnswered)
	}
	v.refresh()
}

// handleStatsLoaded records the index size in the status bar.
func (v *View) handleStatsLoaded(msg messages.StatsLoaded) {
	if msg.Err != nil {
		if errors.Is(msg.Err, domain.ErrIndexNotBuilt) {
			v.statusbar.SetMessage(describe(msg.Err))
		}
		return
	}
	v.statusbar.SetChunkCount(msg.Stats.Count)
}

// failPending marks any in-flight turn as failed.
func (v *View) failPending(err error) {
	for i := range v.turns {
		if v.turns[i].Pending {
			v.turns[i].Pending = false
			v.turns[i].Err = err
		}
	}
	v.refresh()
}

// describe turns pipeline errors into short user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrIndexNotBuilt):
		return "Index not built, run ingestion first"
	case errors.Is(err, domain.ErrMaintenanceInProgress):
		return "Reindex in progress, try again shortly"
	default:
		return err.Error()
	}
}

// refresh re-renders the transcript and scrolls to the latest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

// renderTranscript renders every turn.
func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("No questions yet. Type one below and press enter.")
	}

	wrap := v.width - 6
	if wrap < 20 {
		wrap = 20
	}

	blocks := make([]string, 0, len(v.turns)*2)
	for _, t := range v.turns {
		blocks = append(blocks,
			v.styles.Title.Render("You"),
			v.styles.Question.Width(wrap).Render(t.Question),
			v.styles.Speaker.Render("DocPilot"),
		)

		switch {
		case t.Pending:
			blocks = append(blocks, v.styles.Muted.Render("  Thinking..."))
		case t.Err != nil:
			blocks = append(blocks, v.styles.Error.Render(fmt.Sprintf("  Error: %s", describe(t.Err))))
		default:
			blocks = append(blocks, v.styles.Answer.Width(wrap).Render(t.Answer))
		}
		blocks = append(blocks, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("DocPilot") + v.styles.Muted.Render("  ask your documents"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		"",
		v.statusbar.View(),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	transcriptHeight := height - reservedLines
	if transcriptHeight < 3 {
		transcriptHeight = 3
	}
	v.transcript.Width = width
	v.transcript.Height = transcriptHeight
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Turns returns the chat history.
func (v *View) Turns() []Turn {
	return v.turns
}

// Pending returns true while a question is being answered.
func (v *View) Pending() bool {
	for _, t := range v.turns {
		if t.Pending {
			return true
		}
	}
	return false
}

// Input returns the current question text.
func (v *View) Input() string {
	return v.input.Value()
}

// SetInput sets the question text.
func (v *View) SetInput(question string) {
	v.input.SetValue(question)
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Status returns the status bar state.
func (v *View) Status() status.State {
	return v.statusbar.State()
}

// StatusMessage returns the status bar message.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Reset clears the transcript and focuses the input.
func (v *View) Reset() {
	v.turns = nil
	v.err = nil
	v.input.Reset()
	v.input.Focus()
	v.statusbar.Clear()
	v.refresh()
}
