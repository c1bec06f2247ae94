// Package pdf extracts text from PDF documents.
//
// The poppler pdftotext tool is preferred when it is installed. When it is
// missing, fails or produces no text, a pure Go reader is used instead.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// ErrReaderPanic wraps a panic raised by the built-in reader on a malformed
// stream.
var ErrReaderPanic = errors.New("pdf: reader failed on malformed stream")

const toolName = "pdftotext"

// CommandRunner executes external commands.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Normaliser handles PDF documents.
type Normaliser struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates a PDF normaliser backed by the system pdftotext.
func New() *Normaliser {
	return &Normaliser{runner: execRunner{}, lookPath: exec.LookPath}
}

// NewWithRunner creates a PDF normaliser that runs pdftotext through runner.
// The tool is assumed to be available.
func NewWithRunner(runner CommandRunner) *Normaliser {
	return &Normaliser{
		runner:   runner,
		lookPath: func(name string) (string, error) { return name, nil },
	}
}

// Format returns the format tag this normaliser handles.
func (n *Normaliser) Format() domain.Format {
	return domain.FormatPDF
}

// Normalise returns the text of every non-empty page, each preceded by a
// page delimiter line.
func (n *Normaliser) Normalise(ctx context.Context, path string) (string, error) {
	var pages []string
	if _, err := n.lookPath(toolName); err == nil {
		pages, err = n.extractWithTool(ctx, path)
		if err != nil {
			logger.Debug("pdf: %s on %s: %v, using built-in reader", toolName, path, err)
			pages = nil
		}
	} else {
		logger.Debug("pdf: %s unavailable, using built-in reader", toolName)
	}

	text := renderPages(pages)
	if text == "" {
		var err error
		pages, err = extractWithLibrary(ctx, path)
		if err != nil {
			return "", err
		}
		text = renderPages(pages)
	}

	if text == "" {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

// extractWithTool splits pdftotext output on form feeds, one per page.
func (n *Normaliser) extractWithTool(ctx context.Context, path string) ([]string, error) {
	out, err := n.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages, nil
}

func extractWithLibrary(ctx context.Context, path string) (pages []string, err error) {
	err = safe(func() error {
		f, r, err := pdf.Open(path)
		if err != nil {
			return fmt.Errorf("pdf: opening %s: %w", path, err)
		}
		defer f.Close()

		total := r.NumPage()
		pages = make([]string, 0, total)
		for i := 1; i <= total; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages = append(pages, pageText(r, i, path))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// pageText returns the plain text of page i, or "" when the page cannot be
// read. A single unreadable page does not fail the document.
func pageText(r *pdf.Reader, i int, path string) (text string) {
	err := safe(func() error {
		page := r.Page(i)
		if page.V.IsNull() {
			return nil
		}
		var err error
		text, err = page.GetPlainText(nil)
		return err
	})
	if err != nil {
		logger.Debug("pdf: page %d of %s: %v", i, path, err)
		return ""
	}
	return text
}

// PageCount returns the number of pages the built-in reader can see.
func PageCount(path string) (n int, err error) {
	err = safe(func() error {
		f, r, err := pdf.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n = r.NumPage()
		return nil
	})
	return n, err
}

// safe runs fn and converts a panic from the reader into ErrReaderPanic.
// The reader panics instead of returning errors on some corrupt filters.
func safe(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReaderPanic, r)
		}
	}()
	return fn()
}

func renderPages(pages []string) string {
	var b strings.Builder
	for i, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n%s", i+1, page)
	}
	return b.String()
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not installed.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext gives the best PDF extraction quality. Install poppler:

  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils

Without it, a built-in reader is used.`
}
