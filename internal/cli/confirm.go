package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// NewConfirmCmd creates the confirm command
func NewConfirmCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "confirm [txId]",
		Short: "Add your signature to a queued transaction",
		Long: `Sign a transaction that is already in the review queue and submit the
signature. Without an id you pick the transaction from the queue.

Examples:
  treb-safe confirm
  treb-safe confirm multisig_0xabc..._0x123... --execute`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			rec, err := loadQueued(cmd, a, args, "Select a transaction to confirm")
			if err != nil {
				return err
			}
			return runRecord(cmd, a, rec, flags)
		},
	}

	flags.register(cmd)
	return cmd
}

// loadQueued resolves the record named by args or picked from the queue
func loadQueued(cmd *cobra.Command, a *app.App, args []string, prompt string) (*models.TxRecord, error) {
	ctx := cmd.Context()

	txID := ""
	if len(args) > 0 {
		txID = args[0]
	} else {
		queue, err := a.ListQueue.Run(ctx)
		if err != nil {
			return nil, err
		}

		var items []models.QueueItem
		for _, entry := range queue.Entries {
			items = append(items, entry.Items()...)
		}

		item, err := a.Selector.SelectQueueItem(ctx, items, prompt)
		if err != nil {
			return nil, err
		}
		txID = item.TxID
	}

	return a.Executor.LoadExisting(ctx, txID)
}
