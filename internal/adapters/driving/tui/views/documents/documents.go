// Package documents provides the processed documents list view for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service not available")

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	names        []string
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init resets the selection and loads the document names.
func (v *View) Init() tea.Cmd {
	v.selected = 0
	v.scrollOffset = 0
	v.err = nil
	return v.load()
}

// load returns a command that lists processed documents.
func (v *View) load() tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}

		names, err := v.documentService.List(v.ctx)
		return messages.DocumentsLoaded{Names: names, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.names = msg.Names
		v.err = nil
		if v.selected >= len(v.names) {
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.names)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.names) > 0 {
			name := v.names[v.selected]
			return v, func() tea.Msg {
				return messages.DocumentSelected{Name: name}
			}
		}
	case "r":
		return v, v.load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Title, blank lines, scroll indicator and help
	available := v.height - 8
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.names))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.names) == 0:
		b.WriteString(v.styles.Muted.Render("No processed documents. Run ingestion first."))
	default:
		b.WriteString(v.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// renderList renders the visible window of names.
func (v *View) renderList() string {
	var b strings.Builder

	visible := v.visibleItemCount()
	maxLen := v.width - 6
	if maxLen < 10 {
		maxLen = 10
	}

	for i := v.scrollOffset; i < len(v.names) && i < v.scrollOffset+visible; i++ {
		name := v.names[i]
		if len(name) > maxLen {
			name = name[:maxLen-3] + "..."
		}
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + name))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + name))
		}
		b.WriteString("\n")
	}

	if len(v.names) > visible {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visible, len(v.names)),
			len(v.names))))
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] view  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Names returns the listed document names.
func (v *View) Names() []string {
	return v.names
}

// SelectedIndex returns the currently selected index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Loading returns true while names are being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
