package lib

import "time"

// Service identity of the supervised node.
const (
	ServiceName       = "superaxecoin"
	NodeExecutable    = "superaxecoind"
	ConfigFileName    = ServiceName + ".conf"
	DefaultRPCHost    = "127.0.0.1"
	DefaultRPCUser    = ServiceName + "rpc"
	DefaultAllowIP    = "127.0.0.1"
	DefaultWalletName = "default_wallet"
)

const (
	DefaultSettleDelay = 2 * time.Second
	DefaultStopTimeout = 30 * time.Second
	DefaultWalletDelay = 3 * time.Second
	DefaultCallTimeout = 30 * time.Second
)

// Network selects the chain the node runs on.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
	Regtest Network = "regtest"
)

// DefaultRPCPort is the port the node listens on when the config does not say otherwise.
func (n Network) DefaultRPCPort() int {
	switch n {
	case Testnet:
		return 19998
	case Regtest:
		return 19443
	default:
		return 9998
	}
}

// NodeArgs returns the node flags that select this network.
func (n Network) NodeArgs() []string {
	switch n {
	case Testnet:
		return []string{"-testnet"}
	case Regtest:
		return []string{"-regtest"}
	default:
		return nil
	}
}
