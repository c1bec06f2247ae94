package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// progressReporter renders domain progress callbacks. On a terminal it
// draws a bar; otherwise it prints one line per stage change so logs stay
// readable when output is piped.
type progressReporter struct {
	mu    sync.Mutex
	out   io.Writer
	label string
	tty   bool
	bar   *progressbar.ProgressBar
	total int
	done  int
}

func newProgress(out io.Writer, label string) *progressReporter {
	return &progressReporter{
		out:   out,
		label: label,
		tty:   isTerminal(out),
		total: -1,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Func returns the callback handed to the services.
func (p *progressReporter) Func() domain.ProgressFunc {
	return p.update
}

func (p *progressReporter) update(done, total int, item string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	if !p.tty {
		p.total = total
		return
	}

	if p.bar == nil {
		p.bar = p.newBar(total)
		p.total = total
	} else if total != p.total && total >= 0 {
		p.bar.ChangeMax(total)
		p.total = total
	}

	if item != "" {
		p.bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s", p.label, truncate(item, 32)))
	}
	_ = p.bar.Set(done)
}

func (p *progressReporter) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", p.label)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.out)
		}),
	)
}

// Finish completes the bar, or prints the final count when not on a terminal.
func (p *progressReporter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Finish()
		return
	}
	if !p.tty && p.done > 0 {
		fmt.Fprintf(p.out, "%s: %d items\n", p.label, p.done)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
