package cli

import (
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/spf13/cobra"
)

var (
	depositToken string
	swapCreator  string
	swapMinOut   string
	fundToken    string
)

var depositCmd = &cobra.Command{
	Use:   "deposit <amount> <beneficiary>",
	Short: "Lock native value for a beneficiary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := signingKeys()
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		beneficiary, err := parseAccount(args[1], "beneficiary")
		if err != nil {
			return err
		}
		token, err := types.ParseToken(depositToken)
		if err != nil {
			return err
		}

		nonce, err := newClient().CreateDeposit(cmd.Context(), keys, amount, token, beneficiary)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deposit created: creator=%s nonce=%d\n", keys.AccountID(), nonce)
		return nil
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap <nonce>",
	Short: "Swap a deposit's locked value into its destination token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := signingKeys()
		if err != nil {
			return err
		}
		nonce, err := parseNonce(args[0])
		if err != nil {
			return err
		}
		var creator types.AccountID
		if swapCreator != "" {
			if creator, err = parseAccount(swapCreator, "creator"); err != nil {
				return err
			}
		}
		minOut, err := parseAmount(swapMinOut)
		if err != nil {
			return err
		}

		out, err := newClient().InitiateSwap(cmd.Context(), keys, creator, nonce, minOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "swapped: destination_token_value=%s\n", out)
		return nil
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw <creator> <nonce>",
	Short: "Withdraw a swapped deposit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := signingKeys()
		if err != nil {
			return err
		}
		creator, err := parseAccount(args[0], "creator")
		if err != nil {
			return err
		}
		nonce, err := parseNonce(args[1])
		if err != nil {
			return err
		}

		amount, err := newClient().Withdraw(cmd.Context(), keys, creator, nonce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "withdrawn: %s to %s\n", amount, keys.AccountID())
		return nil
	},
}

var fundCmd = &cobra.Command{
	Use:   "fund <account> <amount>",
	Short: "Credit an account (admin only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := parseAccount(args[0], "account")
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		token, err := types.ParseToken(fundToken)
		if err != nil {
			return err
		}

		bal, err := newClient().Fund(cmd.Context(), account, token, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "funded: balance=%s %s\n", bal, token)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{depositCmd, swapCmd, withdrawCmd} {
		c.Flags().StringVar(&secretKey, "secret", "", "hex private key used to sign (default: $"+SecretEnv+")")
	}
	depositCmd.Flags().StringVar(&depositToken, "token", "", "destination token (CUR/issuer)")
	_ = depositCmd.MarkFlagRequired("token")
	swapCmd.Flags().StringVar(&swapCreator, "creator", "", "request creator (default: the signer)")
	swapCmd.Flags().StringVar(&swapMinOut, "min-out", "0", "minimum destination token output")
	fundCmd.Flags().StringVar(&fundToken, "token", types.NativeCurrency, "asset: XRP or CUR/issuer")

	rootCmd.AddCommand(depositCmd, swapCmd, withdrawCmd, fundCmd)
}
