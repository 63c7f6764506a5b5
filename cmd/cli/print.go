package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	apiv1 "github.com/superness/superaxecoinwallet/api/v1"
	"github.com/superness/superaxecoinwallet/pkg/lib"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

func stateColor(state lib.NodeState) *color.Color {
	switch state {
	case lib.NodeStateRunning:
		return okColor
	case lib.NodeStateStarting, lib.NodeStateStopping:
		return warnColor
	case lib.NodeStateError:
		return errColor
	default:
		return color.New(color.Reset)
	}
}

func printStatusTable(w io.Writer, resp *apiv1.StatusResponse, health string) {
	st := resp.Status

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	table.Append([]string{"State", stateColor(st.State).Sprint(st.State.String())})
	if health != "" {
		table.Append([]string{"Health", health})
	}
	if st.RunID != "" {
		table.Append([]string{"Run", st.RunID})
	}
	if st.Pid != 0 {
		table.Append([]string{"PID", strconv.Itoa(st.Pid)})
	}
	if st.StartTime != nil {
		table.Append([]string{"Started", humanize.Time(*st.StartTime)})
	}
	if st.EndTime != nil {
		table.Append([]string{"Exited", humanize.Time(*st.EndTime)})
	}
	if st.ExitCode != nil || st.Signal != "" {
		table.Append([]string{"Exit", exitDescription(st)})
	}
	if resp.Wallet != "" {
		table.Append([]string{"Wallet", resp.Wallet})
	}
	if resp.RPC != nil {
		table.Append([]string{"RPC", fmt.Sprintf("%s@%s:%d", resp.RPC.User, resp.RPC.Host, resp.RPC.Port)})
	}
	if ev := resp.LastWallet; ev != nil {
		table.Append([]string{"Wallet setup", walletDescription(ev.Outcome, ev.Wallet, ev.Error)})
	}
	table.Append([]string{"Data dir", st.DataDir})
	table.Append([]string{"Executable", st.ExecutablePath})

	table.Render()
}

func exitDescription(st lib.NodeStatus) string {
	var parts []string
	if st.ExitCode != nil {
		parts = append(parts, "code "+strconv.Itoa(*st.ExitCode))
	}
	if st.Signal != "" {
		parts = append(parts, "signal "+st.Signal)
	}
	return strings.Join(parts, ", ")
}

func walletDescription(outcome lib.WalletOutcome, wallet, errMsg string) string {
	switch outcome {
	case lib.WalletAlreadyLoaded:
		return fmt.Sprintf("%q already loaded", wallet)
	case lib.WalletLoadedExisting:
		return fmt.Sprintf("loaded %q", wallet)
	case lib.WalletCreatedNew:
		return fmt.Sprintf("created %q", wallet)
	case lib.WalletFailed:
		return errColor.Sprint("failed: " + errMsg)
	default:
		return string(outcome)
	}
}

// formatEvent renders one host event as a single line.
func formatEvent(ev lib.Event) string {
	ts := ev.Time.Format("15:04:05.000")
	switch ev.Kind {
	case lib.EventStatus:
		line := fmt.Sprintf("%s status %s", ts, stateColor(ev.State).Sprint(ev.State.String()))
		if ev.Error != "" {
			line += " " + errColor.Sprint(ev.Error)
		}
		return line
	case lib.EventLog:
		return fmt.Sprintf("%s %-10s %s", ts, ev.Stream, ev.Line)
	case lib.EventWallet:
		return fmt.Sprintf("%s wallet %s", ts, walletDescription(ev.Outcome, ev.Wallet, ev.Error))
	default:
		return fmt.Sprintf("%s %s", ts, ev.Kind)
	}
}
