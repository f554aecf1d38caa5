package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewSyncCmd creates the sync command
func NewSyncCmd() *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile tracked transactions with the transaction service",
		Long: `Check every tracked transaction against the transaction service.

This command will:
- Mark transactions as indexed once the service reports them executed
- Report entries the service failed to answer for
- Remove entries the service does not know if --clean is specified`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := a.SyncPending.Sync(cmd.Context(), usecase.SyncOptions{Clean: clean})
			if err != nil {
				return err
			}

			return render.NewSyncRenderer(cmd.OutOrStdout()).RenderSyncResult(result)
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "Remove entries the service does not know")

	return cmd
}
