// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// QuestionSubmitted is sent when a question is entered in the chat view.
type QuestionSubmitted struct {
	Question string
}

// AnswerCompleted carries the answer to a question back to the model.
type AnswerCompleted struct {
	Question string
	Answer   string
	Err      error
}

// StatsLoaded carries the loaded index statistics.
type StatsLoaded struct {
	Stats domain.VectorStats
	Err   error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer view.
	ViewChat
	// ViewHelp is the help/keybindings view.
	ViewHelp
	// ViewDocuments lists processed documents.
	ViewDocuments
	// ViewDocContent shows the text of one processed document.
	ViewDocContent
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the processed document names.
type DocumentsLoaded struct {
	Names []string
	Err   error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Name string
}

// DocumentContentLoaded carries the content of a document.
type DocumentContentLoaded struct {
	Name    string
	Content string
	Err     error
}
