package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Execute every ready transaction at the head of the queue in one call",
		Long: `Collect the longest run of consecutive, fully confirmed transactions starting
at the current nonce and execute them together through MultiSendCallOnly.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			queue, err := a.ListQueue.Run(ctx)
			if err != nil {
				return err
			}
			if len(queue.Batchable) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning(fmt.Sprintf("Nothing to batch at nonce %d", queue.CurrentNonce)))
				return nil
			}

			recs := make([]*models.TxRecord, 0, len(queue.Batchable))
			for _, item := range queue.Batchable {
				rec, err := a.Executor.LoadExisting(ctx, item.TxID)
				if err != nil {
					return err
				}
				recs = append(recs, rec)
			}

			first, last := recs[0].Tx.Data.Nonce, recs[len(recs)-1].Tx.Data.Nonce
			ok, err := a.Confirmer.Confirm(ctx, fmt.Sprintf("Execute %d transactions (#%d to #%d) in one batch", len(recs), first, last))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			collector := collectOutcomes(a.Bus)
			defer collector.Close()

			hash, batchID, err := a.Executor.DispatchBatchExecution(ctx, recs)
			if err != nil {
				return err
			}

			renderer := newExecutionRenderer(cmd, a)
			if err := renderer.RenderBatch(hash, batchID, recs); err != nil {
				return err
			}
			if noWait {
				return nil
			}

			a.Monitor.Wait()
			return renderer.RenderOutcomes(collector.Outcomes())
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after submission without waiting for the receipt")
	return cmd
}
