package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/superness/superaxecoinwallet/pkg/lib/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "superaxecoin-shell [flags] [-- node args...]",
		Short: "Host the SuperAxeCoin node and expose it to local clients",
		Long: "Runs the SuperAxeCoin node as a supervised child process, makes sure a wallet is loaded\n" +
			"and serves status, control and RPC forwarding over HTTP plus gRPC health checks.\n" +
			"Arguments after -- are passed to the node unchanged.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, logger)
		},
	}
	addFlags(cmd.Flags())
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
