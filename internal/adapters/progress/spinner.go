package progress

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// SpinnerProgressReporter shows a spinner while a stage is running and prints
// messages above it.
type SpinnerProgressReporter struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	return NewSpinnerProgressReporterWithWriter(os.Stderr)
}

// NewSpinnerProgressReporterWithWriter renders to out
func NewSpinnerProgressReporterWithWriter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		out:     out,
		spinner: s,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}

	suffix := " " + event.Message
	if event.Total > 0 {
		suffix += color.New(color.Faint).Sprintf(" [%d/%d]", event.Current, event.Total)
	}
	r.spinner.Suffix = suffix
	if !r.spinner.Active() {
		r.spinner.Start()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

// Stop halts the spinner if it is running
func (r *SpinnerProgressReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.spinner.Active() {
		r.spinner.Stop()
	}
}

func (r *SpinnerProgressReporter) println(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Stop spinner temporarily
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}

	_, _ = c.Fprintln(r.out, message)

	if wasActive {
		r.spinner.Start()
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
