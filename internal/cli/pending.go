package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
)

// NewPendingCmd creates the pending command
func NewPendingCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Show transactions tracked between submission and confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			f := render.PendingFormat(format)
			if a.Config.JSON && !cmd.Flags().Changed("format") {
				f = render.PendingFormatJSON
			}
			switch f {
			case render.PendingFormatTable, render.PendingFormatJSON, render.PendingFormatYAML:
			default:
				return fmt.Errorf("unknown format %q (expected table, json or yaml)", format)
			}

			return render.NewPendingRenderer(cmd.OutOrStdout()).Render(a.Tracker.Entries(), f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", string(render.PendingFormatTable), "Output format: table, json or yaml")
	return cmd
}
