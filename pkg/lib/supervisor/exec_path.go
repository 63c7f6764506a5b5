package supervisor

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// Environment is everything ResolveExecutablePath depends on.
type Environment struct {
	GOOS   string
	GOARCH string
	// Dev selects the developer layout, next to a checkout of the node sources.
	Dev bool
	// ExecutableDir is the directory of the running program.
	ExecutableDir string
	WorkDir       string
	// Override is an explicit path to the node binary.
	Override string
}

// CurrentEnvironment captures the environment of the running program.
// Binaries built by `go run` count as developer builds.
func CurrentEnvironment(opts lib.Options) Environment {
	env := Environment{
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		Dev:      opts.Dev,
		Override: opts.ExecutablePath,
	}
	if exe, err := os.Executable(); err == nil {
		env.ExecutableDir = filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		env.WorkDir = wd
	}
	if strings.Contains(env.ExecutableDir, "go-build") {
		env.Dev = true
	}
	return env
}

// ResolveExecutablePath returns where the node binary is expected to be.
// It does not touch the filesystem.
func ResolveExecutablePath(env Environment) string {
	if env.Override != "" {
		return env.Override
	}

	name := lib.NodeExecutable
	if env.GOOS == "windows" {
		name += ".exe"
	}

	if env.Dev {
		platform := env.GOOS + "-" + archName(env.GOARCH)
		return filepath.Join(env.WorkDir, "..", lib.ServiceName, "release", platform, name)
	}

	// release bundles ship the node next to the program
	return filepath.Join(env.ExecutableDir, "daemon", name)
}

func archName(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	default:
		return goarch
	}
}
