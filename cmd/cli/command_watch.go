package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

func newWatchCmd(a *app) *cobra.Command {
	var noLogs bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow status, wallet and log events as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			return a.api.Events(cmd.Context(), func(ev lib.Event) {
				if noLogs && ev.Kind == lib.EventLog {
					return
				}
				fmt.Fprintln(out, formatEvent(ev))
			})
		},
	}
	cmd.Flags().BoolVar(&noLogs, "no-logs", false, "Hide node output lines")
	return cmd
}
