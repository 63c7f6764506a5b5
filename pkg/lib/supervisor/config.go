package supervisor

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// Keys the supervisor manages in the node config file.
const (
	KeyServer      = "server"
	KeyRPCUser     = "rpcuser"
	KeyRPCPassword = "rpcpassword"
	KeyRPCPort     = "rpcport"
	KeyRPCAllowIP  = "rpcallowip"
)

const passwordBytes = 32

// ConfigFile is the node's line-oriented key=value config file.
//
// Lines are trimmed and split at the first '='. Lines without '=' and entries
// with an empty key or value are skipped; there is no comment syntax.
// Skipped lines are not written back.
type ConfigFile struct {
	keys   []string
	values map[string]string
}

func ParseConfig(data []byte) *ConfigFile {
	c := &ConfigFile{values: map[string]string{}}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		c.set(key, value)
	}
	return c
}

// ReadConfigFile parses the file at path. A missing file yields an empty config.
func ReadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ParseConfig(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return ParseConfig(data), nil
}

func (c *ConfigFile) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns the keys in file order.
func (c *ConfigFile) Keys() []string {
	return append([]string(nil), c.keys...)
}

// SetDefault sets key only when it has no value yet and reports whether it did.
func (c *ConfigFile) SetDefault(key string, value func() (string, error)) (bool, error) {
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	v, err := value()
	if err != nil {
		return false, err
	}
	c.set(key, v)
	return true, nil
}

func (c *ConfigFile) set(key, value string) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

func (c *ConfigFile) Bytes() []byte {
	buf := new(bytes.Buffer)
	for _, k := range c.keys {
		fmt.Fprintf(buf, "%s=%s\n", k, c.values[k])
	}
	return buf.Bytes()
}

type nodeConf struct {
	Server      string `mapstructure:"server"`
	RPCUser     string `mapstructure:"rpcuser"`
	RPCPassword string `mapstructure:"rpcpassword"`
	RPCPort     int    `mapstructure:"rpcport"`
	RPCAllowIP  string `mapstructure:"rpcallowip"`
}

// RpcConfig builds the RPC connection parameters from the file.
// Missing values fall back to the defaults of network.
func (c *ConfigFile) RpcConfig(network lib.Network) (lib.RpcConfig, error) {
	var nc nodeConf
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &nc,
	})
	if err != nil {
		return lib.RpcConfig{}, err
	}
	if err := dec.Decode(c.values); err != nil {
		return lib.RpcConfig{}, fmt.Errorf("invalid %s: %w", KeyRPCPort, err)
	}

	cfg := lib.RpcConfig{
		Host:     lib.DefaultRPCHost,
		Port:     nc.RPCPort,
		User:     nc.RPCUser,
		Password: nc.RPCPassword,
	}.WithDefaults(network)
	if err := lib.Validate(cfg); err != nil {
		return lib.RpcConfig{}, err
	}
	return cfg, nil
}

// ConfigPath is the location of the node config file.
func (s *Supervisor) ConfigPath() string {
	return filepath.Join(s.dataDir, lib.ConfigFileName)
}

// BootstrapConfig makes sure the node config enables RPC with usable credentials
// and returns the resulting connection parameters. Only missing keys are added;
// the file is written only when something was added.
func (s *Supervisor) BootstrapConfig() (lib.RpcConfig, error) {
	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return lib.RpcConfig{}, s.configError("failed to create data directory", err)
	}

	path := s.ConfigPath()
	conf, err := ReadConfigFile(path)
	if err != nil {
		return lib.RpcConfig{}, s.configError("failed to read config", err)
	}

	defaults := []struct {
		key   string
		value func() (string, error)
	}{
		{KeyServer, constant("1")},
		{KeyRPCUser, constant(lib.DefaultRPCUser)},
		{KeyRPCPassword, generatePassword},
		{KeyRPCPort, constant(fmt.Sprint(s.opts.Network.DefaultRPCPort()))},
		{KeyRPCAllowIP, constant(lib.DefaultAllowIP)},
	}

	var added []string
	for _, d := range defaults {
		ok, err := conf.SetDefault(d.key, d.value)
		if err != nil {
			return lib.RpcConfig{}, s.configError("failed to generate "+d.key, err)
		}
		if ok {
			added = append(added, d.key)
		}
	}

	if len(added) > 0 {
		if err := os.WriteFile(path, conf.Bytes(), 0o600); err != nil {
			return lib.RpcConfig{}, s.configError("failed to write config", err)
		}
		s.logger.Info("Wrote node config", "path", path, "added", strings.Join(added, ","))
	}

	cfg, err := conf.RpcConfig(s.opts.Network)
	if err != nil {
		return lib.RpcConfig{}, s.configError("invalid config "+path, err)
	}
	s.logger.Debug("Loaded node config", "path", path, "rpc", cfg.String())
	return cfg, nil
}

func (s *Supervisor) configError(msg string, err error) error {
	s.logger.Error(msg, "error", err)
	return &Error{Kind: ConfigError, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

func constant(v string) func() (string, error) {
	return func() (string, error) { return v, nil }
}

func generatePassword() (string, error) {
	b := make([]byte, passwordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
