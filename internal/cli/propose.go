package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

type proposeBuild func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error)

// NewProposeCmd creates the propose command and its typed variants
func NewProposeCmd() *cobra.Command {
	var (
		to           string
		value        string
		data         string
		delegatecall bool
		callsFile    string
		nonce        uint64
		flags        pipelineFlags
	)

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Sign and propose a new transaction",
		Long: `Build a transaction, sign it with the configured owner key and propose it to
the transaction service. Without --nonce the service recommends the next free
nonce. With --calls the listed calls are bundled into one multiSend transaction.

Examples:
  treb-safe propose --to 0xabc... --value 1000000000000000
  treb-safe propose --to 0xabc... --data 0xa9059cbb... --execute
  treb-safe propose --calls calls.json`,
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				if callsFile != "" {
					calls, err := readCalls(callsFile)
					if err != nil {
						return nil, err
					}
					return a.Builder.CreateBatch(cmd.Context(), calls, nonceFlag(cmd, nonce))
				}

				params := usecase.RawTxParams{To: to, Value: value, Data: data}
				if delegatecall {
					params.Operation = int(models.OperationDelegateCall)
				}
				return a.Builder.CreateFromParams(cmd.Context(), params, nonceFlag(cmd, nonce))
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target address")
	cmd.Flags().StringVar(&value, "value", "0", "Value in wei")
	cmd.Flags().StringVar(&data, "data", "0x", "Hex encoded call data")
	cmd.Flags().BoolVar(&delegatecall, "delegatecall", false, "Use delegatecall instead of call")
	cmd.Flags().StringVar(&callsFile, "calls", "", "JSON file with a list of {to, value, data} calls to bundle")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "Explicit nonce (defaults to the service recommendation)")
	flags.register(cmd)

	cmd.AddCommand(
		newTransferCmd(),
		newNFTTransferCmd(),
		newAddOwnerCmd(),
		newRemoveOwnerCmd(),
		newSwapOwnerCmd(),
		newChangeThresholdCmd(),
	)

	return cmd
}

func runPropose(cmd *cobra.Command, flags pipelineFlags, build proposeBuild) error {
	a, err := getApp(cmd)
	if err != nil {
		return err
	}

	tx, err := build(cmd, a)
	if err != nil {
		return err
	}

	return runRecord(cmd, a, models.NewTxRecord(tx), flags)
}

type callJSON struct {
	To        string `json:"to"`
	Value     string `json:"value"`
	Data      string `json:"data"`
	Operation int    `json:"operation"`
}

func readCalls(path string) ([]models.MetaTransaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read calls: %w", err)
	}

	var entries []callJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse calls: %w", err)
	}

	calls := make([]models.MetaTransaction, 0, len(entries))
	for i, entry := range entries {
		value := entry.Value
		if value == "" {
			value = "0"
		}
		call, err := usecase.RawTxParams{
			To:        entry.To,
			Value:     value,
			Data:      entry.Data,
			Operation: entry.Operation,
		}.MetaTransaction()
		if err != nil {
			return nil, fmt.Errorf("invalid call %d: %w", i, err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}
