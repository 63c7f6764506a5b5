package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
)

func newWalletCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet [name]",
		Short: "Show or select the wallet used for wallet calls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp *apiv1.WalletResponse
			var err error
			if len(args) == 1 {
				resp, err = a.api.SetWallet(cmd.Context(), args[0])
			} else {
				resp, err = a.api.Wallet(cmd.Context())
			}
			if err != nil {
				return err
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resp.Wallet)
			return nil
		},
	}
	return cmd
}
