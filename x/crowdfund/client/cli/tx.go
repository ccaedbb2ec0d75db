package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

const (
	flagDescription        = "description"
	flagExternalURL        = "external-url"
	flagImageHash          = "image-hash"
	flagRequiredSignatures = "required-signatures"
	flagSigners            = "signers"
	flagPrivate            = "private"
)

// GetTxCmd returns the transaction commands for the crowdfund module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Crowdfund module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdCreatePool(),
		CmdContribute(),
		CmdSetPlatformFee(),
		CmdSetAssetDiscount(),
		CmdApproveClose(),
		CmdClosePool(),
	)

	return cmd
}

// CmdCreatePool returns the command to create a funding pool
func CmdCreatePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool [name] [target-amount] [deadline-unix]",
		Short: "Create a new funding pool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			deadline, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid deadline: %v", err)
			}

			description, _ := cmd.Flags().GetString(flagDescription)
			externalURL, _ := cmd.Flags().GetString(flagExternalURL)
			imageHash, _ := cmd.Flags().GetString(flagImageHash)
			requiredSigs, _ := cmd.Flags().GetUint32(flagRequiredSignatures)
			signersCSV, _ := cmd.Flags().GetString(flagSigners)

			var signers []string
			if signersCSV != "" {
				signers = strings.Split(signersCSV, ",")
			}

			msg := &types.MsgCreatePool{
				Creator:            clientCtx.GetFromAddress().String(),
				Name:               args[0],
				Description:        description,
				ExternalURL:        externalURL,
				ImageHash:          imageHash,
				TargetAmount:       args[1],
				Deadline:           deadline,
				RequiredSignatures: requiredSigs,
				Signers:            signers,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().String(flagDescription, "", "Pool description")
	cmd.Flags().String(flagExternalURL, "", "Campaign external URL")
	cmd.Flags().String(flagImageHash, "", "Content-addressed image reference")
	cmd.Flags().Uint32(flagRequiredSignatures, 0, "Signer threshold for closing the pool")
	cmd.Flags().String(flagSigners, "", "Comma-separated signer addresses")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdContribute returns the command to contribute to a pool
func CmdContribute() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contribute [pool-id] [asset] [amount]",
		Short: "Contribute to a funding pool",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}
			isPrivate, _ := cmd.Flags().GetBool(flagPrivate)

			msg := &types.MsgContribute{
				Contributor: clientCtx.GetFromAddress().String(),
				PoolID:      poolID,
				Asset:       args[1],
				Amount:      args[2],
				IsPrivate:   isPrivate,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	cmd.Flags().Bool(flagPrivate, false, "Mark the contribution as private in the event feed")
	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPlatformFee returns the command to set the platform fee
func CmdSetPlatformFee() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-platform-fee [fee-bps]",
		Short: "Set the platform fee in basis points (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			feeBps, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid fee: %v", err)
			}

			msg := &types.MsgSetPlatformFee{
				Authority: clientCtx.GetFromAddress().String(),
				FeeBps:    feeBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetAssetDiscount returns the command to set a per-asset fee discount
func CmdSetAssetDiscount() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-asset-discount [asset] [discount-bps]",
		Short: "Set a per-asset fee discount in basis points (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			discountBps, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid discount: %v", err)
			}

			msg := &types.MsgSetAssetDiscount{
				Authority:   clientCtx.GetFromAddress().String(),
				Asset:       args[0],
				DiscountBps: discountBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdApproveClose returns the command to approve closing a pool
func CmdApproveClose() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve-close [pool-id]",
		Short: "Approve the release of a pool's funds (pool signers only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}

			msg := &types.MsgApproveClose{
				Signer: clientCtx.GetFromAddress().String(),
				PoolID: poolID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdClosePool returns the command to close a pool and release its funds
func CmdClosePool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close-pool [pool-id]",
		Short: "Close a funded or expired pool and release funds to its creator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			poolID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid pool id: %v", err)
			}

			msg := &types.MsgClosePool{
				Signer: clientCtx.GetFromAddress().String(),
				PoolID: poolID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
