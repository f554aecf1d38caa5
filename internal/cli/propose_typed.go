package cli

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

func newTransferCmd() *cobra.Command {
	var (
		to     string
		amount string
		token  string
		nonce  uint64
		flags  pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "transfer",
		Short:       "Propose a native coin or ERC-20 transfer",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				recipient, err := parseAddress("recipient", to)
				if err != nil {
					return nil, err
				}
				value, err := parseAmount("amount", amount)
				if err != nil {
					return nil, err
				}
				var tokenAddress common.Address
				if token != "" {
					if tokenAddress, err = parseAddress("token", token); err != nil {
						return nil, err
					}
				}
				return a.Builder.CreateTokenTransfer(cmd.Context(), recipient, value, tokenAddress, nonceFlag(cmd, nonce))
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in the token's base unit")
	cmd.Flags().StringVar(&token, "token", "", "ERC-20 token address (omit for the native coin)")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "Explicit nonce")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	flags.register(cmd)
	return cmd
}

func newNFTTransferCmd() *cobra.Command {
	var (
		to      string
		tokenID string
		token   string
		nonce   uint64
		flags   pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "nft-transfer",
		Short:       "Propose an ERC-721 transfer",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				recipient, err := parseAddress("recipient", to)
				if err != nil {
					return nil, err
				}
				collection, err := parseAddress("token", token)
				if err != nil {
					return nil, err
				}
				id, err := parseAmount("token id", tokenID)
				if err != nil {
					return nil, err
				}
				return a.Builder.CreateNFTTransfer(cmd.Context(), recipient, id, collection, nonceFlag(cmd, nonce))
			})
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&token, "token", "", "ERC-721 collection address")
	cmd.Flags().StringVar(&tokenID, "id", "", "Token id")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "Explicit nonce")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("id")
	flags.register(cmd)
	return cmd
}

func newAddOwnerCmd() *cobra.Command {
	var (
		owner     string
		threshold uint64
		flags     pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "add-owner",
		Short:       "Propose adding an owner",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				address, err := parseAddress("owner", owner)
				if err != nil {
					return nil, err
				}
				return a.Builder.CreateAddOwner(cmd.Context(), address, threshold)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner to add")
	cmd.Flags().Uint64Var(&threshold, "threshold", 0, "Threshold after the change")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("threshold")
	flags.register(cmd)
	return cmd
}

func newRemoveOwnerCmd() *cobra.Command {
	var (
		owner     string
		threshold uint64
		flags     pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "remove-owner",
		Short:       "Propose removing an owner",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				address, err := parseAddress("owner", owner)
				if err != nil {
					return nil, err
				}
				return a.Builder.CreateRemoveOwner(cmd.Context(), address, threshold)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner to remove")
	cmd.Flags().Uint64Var(&threshold, "threshold", 0, "Threshold after the change")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("threshold")
	flags.register(cmd)
	return cmd
}

func newSwapOwnerCmd() *cobra.Command {
	var (
		oldOwner string
		newOwner string
		flags    pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "swap-owner",
		Short:       "Propose replacing an owner",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				previous, err := parseAddress("old owner", oldOwner)
				if err != nil {
					return nil, err
				}
				next, err := parseAddress("new owner", newOwner)
				if err != nil {
					return nil, err
				}
				return a.Builder.CreateSwapOwner(cmd.Context(), previous, next)
			})
		},
	}

	cmd.Flags().StringVar(&oldOwner, "old", "", "Owner to replace")
	cmd.Flags().StringVar(&newOwner, "new", "", "Replacement owner")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	flags.register(cmd)
	return cmd
}

func newChangeThresholdCmd() *cobra.Command {
	var (
		threshold uint64
		flags     pipelineFlags
	)

	cmd := &cobra.Command{
		Use:         "change-threshold",
		Short:       "Propose a new confirmation threshold",
		Annotations: map[string]string{annotationWaits: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPropose(cmd, flags, func(cmd *cobra.Command, a *app.App) (*models.SafeTransaction, error) {
				return a.Builder.CreateChangeThreshold(cmd.Context(), threshold)
			})
		},
	}

	cmd.Flags().Uint64Var(&threshold, "threshold", 0, "New threshold")
	_ = cmd.MarkFlagRequired("threshold")
	flags.register(cmd)
	return cmd
}
