package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the node and make sure a wallet is loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.api.Start(cmd.Context())
			if err != nil {
				return err
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}

			out := cmd.OutOrStdout()
			if resp.AlreadyRunning {
				fmt.Fprintf(out, "Node already running (pid %d)\n", resp.Status.Pid)
			} else {
				fmt.Fprintf(out, "Node %s (pid %d)\n", okColor.Sprint("running"), resp.Status.Pid)
			}
			switch {
			case resp.WalletError != "":
				fmt.Fprintln(out, warnColor.Sprint("Wallet setup failed: "+resp.WalletError))
			case resp.Outcome != "":
				fmt.Fprintf(out, "Wallet: %s\n", walletDescription(resp.Outcome, resp.Wallet, ""))
			case resp.Wallet != "":
				fmt.Fprintf(out, "Wallet: %s\n", resp.Wallet)
			}
			return nil
		},
	}
	return cmd
}
