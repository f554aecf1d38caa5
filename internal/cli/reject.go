package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// NewRejectCmd creates the reject command
func NewRejectCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "reject <nonce>",
		Short: "Propose an empty transaction that cancels a queued nonce",
		Long: `Propose a zero-value call from the Safe to itself at the given nonce. Once
executed it consumes the nonce and every other proposal for it becomes void.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			nonce, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid nonce %q", args[0])
			}

			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			tx, err := a.Builder.CreateRejection(cmd.Context(), nonce)
			if err != nil {
				return err
			}
			return runRecord(cmd, a, models.NewTxRecord(tx), flags)
		},
	}

	flags.register(cmd)
	return cmd
}
