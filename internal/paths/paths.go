// Package paths locates the maintlog configuration and data directories.
// An explicit flag beats configuration, which beats the MAINTLOG_* variables,
// which beat the per-user platform directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "maintlog"

// Directory override variables.
const (
	EnvConfigDir = "MAINTLOG_CONFIG_DIR"
	EnvDataDir   = "MAINTLOG_DATA_DIR"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir is where config.yaml lives when nothing overrides it:
// $XDG_CONFIG_HOME/maintlog or ~/.config/maintlog on Linux, the user config
// directory elsewhere.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir holds the local table, its quarantined copies and the remote
// version state: $XDG_DATA_HOME/maintlog or ~/.local/share/maintlog on Linux.
// Other platforms share the config directory.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// userDir returns AppName under $xdgVar, or under home/fallback when the
// variable is unset. Off Linux the XDG layout does not apply.
func userDir(xdgVar string, fallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}

	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), AppName)...), nil
}

// ResolveConfigDir picks the --config-dir flag, then $MAINTLOG_CONFIG_DIR,
// then DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir picks the --data-dir flag, then data_dir from config.yaml,
// then $MAINTLOG_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(DefaultDataDir, flag, configValue, os.Getenv(EnvDataDir))
}

func resolve(fallback func() (string, error), overrides ...string) (string, error) {
	for _, dir := range overrides {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	return fallback()
}
