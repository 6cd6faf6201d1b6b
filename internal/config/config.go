// Package config loads maintlog configuration with Viper.
//
// Values come from, in increasing precedence: built-in defaults,
// config.yaml in the configuration directory, and MAINTLOG_* environment
// variables (MAINTLOG_REMOTE_TOKEN overrides remote.token).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MAINTLOG"
)

const fileHeader = `# maintlog configuration
#
# Every key can be overridden with a MAINTLOG_ environment variable,
# e.g. MAINTLOG_REMOTE_TOKEN or MAINTLOG_CACHE_TTL. Remote sync is enabled
# only when remote.token is set.

`

// Path returns the config.yaml path inside configDir.
func Path(configDir string) string {
	return filepath.Join(configDir, FileName)
}

// Load reads config.yaml from configDir, applies environment overrides and
// validates the result. A default config.yaml is written on first run; a
// missing file after that is not an error.
func Load(configDir string) (types.Config, error) {
	if _, err := EnsureDefault(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// EnsureDefault creates configDir and writes a default config.yaml if none
// exists. It reports whether a file was written.
func EnsureDefault(configDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, err
	}

	path := Path(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := Marshal(types.DefaultConfig())
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Marshal renders cfg as the YAML document written to config.yaml.
func Marshal(cfg types.Config) ([]byte, error) {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte(fileHeader), data...), nil
}

// Redacted returns a copy of cfg safe to print.
func Redacted(cfg types.Config) types.Config {
	if cfg.Remote.Token != "" {
		cfg.Remote.Token = "********"
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, types.DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so that AutomaticEnv can override keys
// absent from config.yaml.
func setDefaults(v *viper.Viper, d types.Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("local_file", d.LocalFile)

	v.SetDefault("remote.owner", d.Remote.Owner)
	v.SetDefault("remote.repo", d.Remote.Repo)
	v.SetDefault("remote.branch", d.Remote.Branch)
	v.SetDefault("remote.path", d.Remote.Path)
	v.SetDefault("remote.token", d.Remote.Token)
	v.SetDefault("remote.api_url", d.Remote.APIURL)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.warn_when_disabled", d.Remote.WarnWhenDisabled)

	v.SetDefault("image.max_dimension", d.Image.MaxDimension)
	v.SetDefault("image.quality", d.Image.Quality)
	v.SetDefault("image.max_input_bytes", d.Image.MaxInputBytes)
	v.SetDefault("image.max_input_pixels", d.Image.MaxInputPixels)

	v.SetDefault("validation.require_fields", d.Validation.RequireFields)
	v.SetDefault("validation.invalid_image_policy", d.Validation.InvalidImagePolicy)

	v.SetDefault("options.technicians", d.Options.Technicians)
	v.SetDefault("options.stages", d.Options.Stages)
	v.SetDefault("options.statuses", d.Options.Statuses)

	v.SetDefault("cache.ttl", d.Cache.TTL)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

func decode(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Validation.InvalidImagePolicy = strings.ToLower(strings.TrimSpace(cfg.Validation.InvalidImagePolicy))
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
