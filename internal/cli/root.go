package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"

	// annotationWaits marks commands that block until on-chain outcomes arrive
	annotationWaits = "waits"

	// annotationStandalone marks commands that run without the app
	annotationStandalone = "standalone"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treb-safe",
		Short: "Propose, sign and execute Safe multisig transactions",
		Long: `treb-safe drives Safe multisig transactions through signing, proposal to the
transaction service, on-chain execution and confirmation monitoring.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			if cmd.Annotations[annotationStandalone] != "" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			// Waiting commands are bounded by the monitor timeout instead
			if appInstance.Config.Timeout > 0 && cmd.Annotations[annotationWaits] == "" {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cobra.OnFinalize(cancel)
			}

			if err := appInstance.Start(ctx); err != nil {
				return err
			}
			cobra.OnFinalize(appInstance.Close)

			cmd.SetContext(context.WithValue(ctx, appKey, appInstance))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia)")
	rootCmd.PersistentFlags().StringP("safe", "s", "", "Safe to act on, by name or address")
	rootCmd.PersistentFlags().String("rpc-url", "", "Override the network RPC URL")
	rootCmd.PersistentFlags().String("service-url", "", "Override the transaction service URL")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "transactions",
		Title: "Transaction Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "tracking",
		Title: "Tracking Commands",
	})

	for _, cmd := range []*cobra.Command{
		NewProposeCmd(),
		NewRejectCmd(),
		NewConfirmCmd(),
		NewExecuteCmd(),
		NewBatchCmd(),
	} {
		cmd.GroupID = "transactions"
		rootCmd.AddCommand(cmd)
	}

	for _, cmd := range []*cobra.Command{
		NewQueueCmd(),
		NewPendingCmd(),
		NewMonitorCmd(),
		NewSyncCmd(),
	} {
		cmd.GroupID = "tracking"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	if cmd.Context() == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}
