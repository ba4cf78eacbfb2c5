package cli

import (
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/rpc"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:   "request <creator> <nonce>",
	Short: "Show one escrow request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		creator, err := parseAccount(args[0], "creator")
		if err != nil {
			return err
		}
		nonce, err := parseNonce(args[1])
		if err != nil {
			return err
		}
		req, err := newClient().Request(cmd.Context(), creator, nonce)
		if err != nil {
			return err
		}
		return printJSON(cmd, req)
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests <creator>",
	Short: "List the requests opened by an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		creator, err := parseAccount(args[0], "creator")
		if err != nil {
			return err
		}
		reqs, err := newClient().Requests(cmd.Context(), creator)
		if err != nil {
			return err
		}
		return printJSON(cmd, reqs)
	},
}

var balanceToken string

var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Show an account balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account, err := parseAccount(args[0], "account")
		if err != nil {
			return err
		}
		token, err := types.ParseToken(balanceToken)
		if err != nil {
			return err
		}
		bal, err := newClient().Balance(cmd.Context(), account, token)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bal, token)
		return nil
	},
}

var (
	eventsParams rpc.EventsParams
	eventsFollow bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List escrow events",
	Long: `List escrow events matching the given filters. With --follow the
command keeps streaming new events over the websocket until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		if !eventsFollow {
			events, err := client.Events(cmd.Context(), eventsParams)
			if err != nil {
				return err
			}
			return printJSON(cmd, events)
		}

		stream, err := client.Subscribe(cmd.Context(), eventsParams)
		if err != nil {
			return err
		}
		for ev := range stream {
			if err := printJSON(cmd, ev); err != nil {
				return err
			}
		}
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check that the vault holds exactly what open requests owe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, balanced, err := newClient().Audit(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		if !balanced {
			return fmt.Errorf("vault holdings do not match open requests")
		}
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceToken, "token", types.NativeCurrency, "asset: XRP or CUR/issuer")

	eventsCmd.Flags().StringSliceVar(&eventsParams.Kinds, "kind", nil, "event kinds to include (repeatable)")
	eventsCmd.Flags().StringVar(&eventsParams.Sender, "sender", "", "only events sent by this account")
	eventsCmd.Flags().StringVar(&eventsParams.Receiver, "receiver", "", "only events received by this account")
	eventsCmd.Flags().StringVar(&eventsParams.Creator, "creator", "", "only events of requests opened by this account")
	eventsCmd.Flags().StringVar(&eventsParams.Token, "token", "", "only events for this token (CUR/issuer)")
	eventsCmd.Flags().Uint64Var(&eventsParams.AfterSeq, "after", 0, "only events after this sequence")
	eventsCmd.Flags().IntVar(&eventsParams.Limit, "limit", 0, "maximum events to return")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "stream new events")

	rootCmd.AddCommand(requestCmd, requestsCmd, balanceCmd, eventsCmd, auditCmd)
}
