package lib

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNodeState_TextRoundTrip(t *testing.T) {
	for _, st := range []NodeState{NodeStateStopped, NodeStateStarting, NodeStateRunning, NodeStateStopping, NodeStateError} {
		b, err := st.MarshalText()
		require.NoError(t, err)

		var back NodeState
		require.NoError(t, back.UnmarshalText(b))
		require.Equal(t, st, back)
	}

	var st NodeState
	require.Error(t, st.UnmarshalText([]byte("paused")))
	require.Equal(t, "NodeState(42)", NodeState(42).String())
}

func TestStatusEvent_JSON(t *testing.T) {
	ev := StatusEvent(NodeStateRunning, "")
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	require.Contains(t, string(b), `"kind":"status"`)
	require.Contains(t, string(b), `"state":"running"`)
	require.NotContains(t, string(b), `"error"`)
}

func TestNetworkDefaults(t *testing.T) {
	require.Equal(t, 9998, Mainnet.DefaultRPCPort())
	require.Equal(t, 19998, Testnet.DefaultRPCPort())
	require.Equal(t, 19443, Regtest.DefaultRPCPort())

	require.Empty(t, Mainnet.NodeArgs())
	require.Equal(t, []string{"-testnet"}, Testnet.NodeArgs())
	require.Equal(t, []string{"-regtest"}, Regtest.NodeArgs())
}

func TestRpcConfig_WithDefaultsAndOverrides(t *testing.T) {
	cfg := RpcConfig{}.WithDefaults(Testnet)
	require.Equal(t, RpcConfig{Host: "127.0.0.1", Port: 19998, User: "superaxecoinrpc"}, cfg)
	require.NoError(t, Validate(cfg))

	cfg = RpcOverrides{Port: 1234, Password: "pw"}.Apply(cfg)
	require.Equal(t, 1234, cfg.Port)
	require.Equal(t, "superaxecoinrpc", cfg.User)
	require.Equal(t, "pw", cfg.Password)

	require.Equal(t, "127.0.0.1:1234", cfg.Address())
	require.NotContains(t, cfg.String(), "pw")
}

func TestRpcConfig_Validation(t *testing.T) {
	require.Error(t, Validate(RpcConfig{Host: "127.0.0.1", Port: 0}))
	require.Error(t, Validate(RpcConfig{Host: "127.0.0.1", Port: 70000}))
	require.Error(t, Validate(RpcConfig{Port: 9998}))
	require.NoError(t, Validate(RpcConfig{Host: "localhost", Port: 9998}))
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{SettleDelay: time.Millisecond}.WithDefaults()
	require.Equal(t, Mainnet, o.Network)
	require.Equal(t, DefaultWalletName, o.DefaultWallet)
	require.Equal(t, time.Millisecond, o.SettleDelay)
	require.Equal(t, DefaultStopTimeout, o.StopTimeout)
	require.Equal(t, DefaultWalletDelay, o.WalletDelay)
	require.NoError(t, Validate(o))

	o.RPC.Port = 70000
	require.Error(t, Validate(o))
}

func TestNodeStatus_Running(t *testing.T) {
	require.False(t, NodeStatus{State: NodeStateStopped}.Running())
	require.True(t, NodeStatus{State: NodeStateStarting, Pid: 10}.Running())
	require.False(t, NodeStatus{State: NodeStateStopped, Pid: 10}.Running())
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	require.Len(t, a, 36)
	require.NotEqual(t, a, b)
}
