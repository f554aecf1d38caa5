package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
)

// NewMonitorCmd creates the monitor command
func NewMonitorCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Resume waiting for receipts of submitted transactions",
		Long: `Re-attach to every transaction that was submitted but not yet confirmed,
for example after an interrupted run, and wait for the outcome.

With --metrics-addr the pipeline counters are served on /metrics while waiting.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			addr := metricsAddr
			if addr == "" {
				addr = a.Config.MetricsAddr
			}
			if addr != "" && a.Metrics != nil {
				go func() {
					if err := a.Metrics.Serve(ctx, addr); err != nil {
						a.Log.Error("metrics server stopped", "addr", addr, "error", err)
					}
				}()
			}

			collector := collectOutcomes(a.Bus)
			defer collector.Close()

			resumed, err := a.Tracker.Resume(ctx)
			if err != nil {
				return err
			}
			if resumed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.FormatWarning("No submitted transactions to monitor"))
				return nil
			}

			a.Log.Info("monitoring", "transactions", resumed)
			a.Monitor.Wait()
			return newExecutionRenderer(cmd, a).RenderOutcomes(collector.Outcomes())
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while waiting")
	return cmd
}
