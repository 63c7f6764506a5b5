package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the node, killing it if it does not exit in time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.api.Stop(cmd.Context())
			if err != nil {
				return err
			}
			if !resp.Success {
				return errors.New(resp.Error)
			}

			msg := resp.Message
			if resp.Forced {
				msg = warnColor.Sprint(msg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	return cmd
}
