package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docpilot/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Answer: &MockAnswerService{
			AnswerFunc: func(_ context.Context, q string) (string, error) {
				return "answer to " + q, nil
			},
		},
		Documents: &MockDocumentService{
			ListFunc: func(context.Context) ([]string, error) {
				return []string{"handbook", "policy"}, nil
			},
			GetFunc: func(_ context.Context, name string) (string, error) {
				return "text of " + name, nil
			},
		},
	}
}

func newReadyApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(newTestPorts())
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// run executes a command and feeds its message back, like the runtime would.
func run(app *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		app.Update(msg)
	}
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Documents: &MockDocumentService{}})

	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_WithStartView(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	app.WithStartView(messages.ViewChat)

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.True(t, app.Chat().Ready())
}

func TestApp_View_NotReady(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.Equal(t, "Initialising...", app.View())
}

func TestApp_View_Menu(t *testing.T) {
	app := newReadyApp(t)

	assert.Contains(t, app.View(), "DocPilot")
}

func TestApp_Update_CtrlC(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_Update_QuitMessage(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_MenuToChat_AskQuestion(t *testing.T) {
	app := newReadyApp(t)

	// Menu starts on Chat
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)
	assert.Equal(t, messages.ViewChat, app.CurrentView())

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what is covered?")})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(app, cmd)

	turns := app.Chat().Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, "answer to what is covered?", turns[0].Answer)
	assert.Contains(t, app.View(), "answer to what is covered?")
	assert.NoError(t, app.Err())
}

func TestApp_Chat_TypingQDoesNotQuit(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	assert.Equal(t, "q", app.Chat().Input())
	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_AnswerFailure_RecordsError(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})
	app.Chat().SetInput("anything")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	app.Update(messages.AnswerCompleted{Question: "anything", Err: domain.ErrIndexNotBuilt})

	assert.ErrorIs(t, app.Err(), domain.ErrIndexNotBuilt)
}

func TestApp_AnswerArrivesAfterLeavingChat(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})
	app.Chat().SetInput("slow question")
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(messages.ViewChanged{View: messages.ViewMenu})

	app.Update(messages.AnswerCompleted{Question: "slow question", Answer: "late"})

	assert.False(t, app.Chat().Pending())
	assert.Equal(t, "late", app.Chat().Turns()[0].Answer)
}

func TestApp_Chat_EscapeReturnsToMenu(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewChat})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(app, cmd)

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_BrowseDocuments(t *testing.T) {
	app := newReadyApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})
	run(app, cmd)
	assert.Contains(t, app.View(), "handbook")

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	// DocumentSelected switches view and returns the load command
	_, cmd = app.Update(cmd())
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	run(app, cmd)
	assert.Contains(t, app.View(), "text of policy")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	run(app, cmd)
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_HelpView(t *testing.T) {
	app := newReadyApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	assert.Contains(t, app.View(), "ctrl+l")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newReadyApp(t)
	boom := errors.New("boom")

	app.Update(messages.ErrorOccurred{Err: boom})

	assert.ErrorIs(t, app.Err(), boom)
}
