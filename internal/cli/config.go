package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/adapters/fs"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewConfigCmd creates the config command
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage treb-safe local config",
		Long: `Manage treb-safe local config stored in .treb-safe/config.json

The config selects the network and Safe used when --network and --safe are
not given. It takes precedence over the defaults in safe.toml.

Available subcommands:
  config           Show current config
  config set       Set a config value
  config remove    Remove a config value

When run without subcommands, displays the current config.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localConfigStore()
			if err != nil {
				return err
			}

			result, err := usecase.NewShowConfig(store).Run(cmd.Context())
			if err != nil {
				return err
			}
			return render.NewConfigRenderer(cmd.OutOrStdout()).RenderConfig(result)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigRemoveCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: `Set a config value in .treb-safe/config.json.
Available keys: network, safe

Examples:
  treb-safe config set network sepolia
  treb-safe config set safe treasury`,
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localConfigStore()
			if err != nil {
				return err
			}

			result, err := usecase.NewSetConfig(store).Run(cmd.Context(), usecase.SetConfigParams{
				Key:   args[0],
				Value: args[1],
			})
			if err != nil {
				return err
			}
			return render.NewConfigRenderer(cmd.OutOrStdout()).RenderSet(result)
		},
	}
}

func newConfigRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove a config value",
		Long: `Remove a config value from .treb-safe/config.json.
The safe.toml default applies again afterwards.

Examples:
  treb-safe config remove network
  treb-safe config remove safe`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationStandalone: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := localConfigStore()
			if err != nil {
				return err
			}

			result, err := usecase.NewRemoveConfig(store).Run(cmd.Context(), usecase.RemoveConfigParams{Key: args[0]})
			if err != nil {
				return err
			}
			return render.NewConfigRenderer(cmd.OutOrStdout()).RenderRemove(result)
		},
	}
}

// localConfigStore opens the local config without building the app, so a
// broken selection can still be repaired
func localConfigStore() (*fs.LocalConfigStoreAdapter, error) {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, err
	}
	return fs.NewLocalConfigStoreAdapter(filepath.Join(projectRoot, config.DataDirName)), nil
}
