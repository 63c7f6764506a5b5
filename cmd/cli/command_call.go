package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <method> [params...]",
		Short: "Send an RPC call to the node",
		Long: "Sends an RPC call to the node. Wallet methods go to the selected wallet.\n" +
			"Each parameter is parsed as JSON and taken as a plain string when that fails,\n" +
			"so `saxc call getblockhash 0` and `saxc call getnewaddress label` both work.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.api.Call(cmd.Context(), args[0], parseParams(args[1:]))
			if err != nil {
				return err
			}
			if !resp.Success {
				if resp.Code != 0 {
					return fmt.Errorf("rpc error %d: %s", resp.Code, resp.Error)
				}
				return fmt.Errorf("%s", resp.Error)
			}
			return printResult(cmd.OutOrStdout(), resp.Value)
		},
	}
	return cmd
}

func parseParams(args []string) []json.RawMessage {
	params := make([]json.RawMessage, 0, len(args))
	for _, arg := range args {
		if json.Valid([]byte(arg)) {
			params = append(params, json.RawMessage(arg))
			continue
		}
		quoted, _ := json.Marshal(arg)
		params = append(params, quoted)
	}
	return params
}

// printResult prints strings bare and everything else as indented JSON.
func printResult(w io.Writer, raw json.RawMessage) error {
	var s string
	if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		_, err := fmt.Fprintln(w, s)
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintln(w, string(raw))
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
