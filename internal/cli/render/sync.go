package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// SyncRenderer handles rendering of sync results
type SyncRenderer struct {
	out io.Writer
}

// NewSyncRenderer creates a new sync renderer
func NewSyncRenderer(out io.Writer) *SyncRenderer {
	return &SyncRenderer{
		out: out,
	}
}

// RenderSyncResult renders the result of sync operation
func (r *SyncRenderer) RenderSyncResult(result *usecase.SyncResult) error {
	fmt.Fprintln(r.out, "Syncing pending transactions...")

	if result.Checked > 0 {
		fmt.Fprintf(r.out, "\nPending Transactions:\n")
		fmt.Fprintf(r.out, "  • Checked: %d\n", result.Checked)

		if result.Indexed > 0 {
			color.New(color.FgGreen).Fprintf(r.out, "  • Executed: %d\n", result.Indexed)
		}
	} else {
		fmt.Fprintln(r.out, "No pending transactions to check")
	}

	// Show cleanup results if any
	if result.Removed > 0 {
		fmt.Fprintf(r.out, "\nCleanup:\n")
		fmt.Fprintf(r.out, "  • Unknown entries removed: %d\n", result.Removed)
	}

	// Show errors if any
	if len(result.Errors) > 0 {
		color.New(color.FgYellow).Fprintf(r.out, "\nWarnings:\n")
		for _, err := range result.Errors {
			fmt.Fprintf(r.out, "  • %s\n", err)
		}
	}

	fmt.Fprintln(r.out)
	if len(result.Errors) == 0 {
		color.New(color.FgGreen).Fprintln(r.out, "✓ Pending transactions synced successfully")
	} else {
		color.New(color.FgGreen).Fprintln(r.out, "✓ Sync completed with warnings")
	}

	return nil
}
