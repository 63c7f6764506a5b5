package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix          = "SAXC"
	defaultAddress     = "localhost:50051"
	defaultHTTPAddress = "localhost:50052"
)

// app carries the settings shared by every command.
type app struct {
	v       *viper.Viper
	address string
	api     *apiClient
}

func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "saxc",
		Short:         "Control a local SuperAxeCoin node host",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.String("address", defaultAddress, "gRPC address of the host (health checks)")
	flags.String("http-address", defaultHTTPAddress, "HTTP address of the host")
	flags.Duration("timeout", 2*time.Minute, "Request timeout; streaming commands are not limited")

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(newStartCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newStopCmd(a))
	root.AddCommand(newLogsCmd(a))
	root.AddCommand(newCallCmd(a))
	root.AddCommand(newWalletCmd(a))
	root.AddCommand(newWatchCmd(a))

	return root
}

func (a *app) load() error {
	a.address = a.v.GetString("address")
	tlsConfig, err := clientTLSConfig()
	if err != nil {
		return err
	}
	api, err := newAPIClient(a.v.GetString("http-address"), a.v.GetDuration("timeout"), tlsConfig)
	if err != nil {
		return err
	}
	a.api = api
	return nil
}
