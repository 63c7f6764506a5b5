package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

const healthTimeout = 3 * time.Second

func newStatusCmd(a *app) *cobra.Command {
	var skipHealth bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the node state, its wallet and RPC endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.api.Status(cmd.Context())
			if err != nil {
				return err
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}

			health := ""
			if !skipHealth {
				ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
				defer cancel()
				st, err := checkHealth(ctx, a.address)
				if err != nil {
					health = warnColor.Sprint("unavailable")
				} else {
					health = st.String()
				}
			}

			printStatusTable(cmd.OutOrStdout(), resp, health)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipHealth, "no-health", false, "Skip the gRPC health check")
	return cmd
}
