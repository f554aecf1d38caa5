package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewExecuteCmd creates the execute command
func NewExecuteCmd() *cobra.Command {
	var (
		noWait bool
		sign   bool
	)

	cmd := &cobra.Command{
		Use:   "execute [txId]",
		Short: "Execute a queued transaction on-chain",
		Long: `Submit a queued transaction to the chain once it has enough confirmations.
With --sign your own signature is added first when it is still missing.`,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rec, err := loadQueued(cmd, a, args, "Select a transaction to execute")
			if err != nil {
				return err
			}

			if sign {
				return runRecord(cmd, a, rec, pipelineFlags{execute: true, noWait: noWait})
			}

			ok, err := a.Confirmer.Confirm(ctx, fmt.Sprintf("Execute transaction #%d on-chain", rec.Tx.Data.Nonce))
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}

			collector := collectOutcomes(a.Bus)
			defer collector.Close()

			hash, err := a.Executor.Execute(ctx, rec)
			if err != nil {
				return err
			}

			renderer := newExecutionRenderer(cmd, a)
			_, safeTxHash, _ := models.ParseTxID(rec.ID)
			if err := renderer.RenderRun(&usecase.RunResult{Record: rec, Executed: true, TxHash: &hash}, safeTxHash); err != nil {
				return err
			}
			if noWait {
				return nil
			}

			a.Monitor.Wait()
			return renderer.RenderOutcomes(collector.Outcomes())
		},
	}

	cmd.Flags().BoolVar(&sign, "sign", false, "Add your signature before executing")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after submission without waiting for the receipt")
	return cmd
}
