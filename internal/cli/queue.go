package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
)

// NewQueueCmd creates the queue command
func NewQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "queue",
		Aliases: []string{"ls"},
		Short:   "Show the review queue of the Safe",
		Long: `List the queued transactions of the Safe grouped by nonce. Competing
proposals for one nonce are shown together and the run that "batch" would
execute is marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := a.ListQueue.Run(cmd.Context())
			if err != nil {
				return err
			}

			return render.NewQueueRenderer(cmd.OutOrStdout(), a.Config.JSON).RenderQueue(result)
		},
	}
}
