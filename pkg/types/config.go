package types

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// Invalid image policies.
const (
	// InvalidImageDrop stores the record without a photo and reports a warning.
	InvalidImageDrop = "drop"
	// InvalidImageReject fails the submission before anything is stored.
	InvalidImageReject = "reject"
)

// Defaults applied when the configuration file leaves a key unset.
const (
	DefaultLocalFile     = "maintenance_records.csv"
	DefaultRemotePath    = "maintenance_records.csv"
	DefaultRemoteBranch  = "main"
	DefaultRemoteTimeout = 20 * time.Second
	DefaultMaxDimension  = 400
	DefaultQuality       = 40
	DefaultMaxInputBytes = 20 << 20
	DefaultMaxPixels     = 40_000_000
	DefaultCacheTTL      = 3 * time.Second
	MaxCacheTTL          = 10 * time.Second
)

// Config holds everything the repository needs at construction time.
type Config struct {
	DataDir    string           `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	LocalFile  string           `mapstructure:"local_file" yaml:"local_file"`
	Remote     RemoteConfig     `mapstructure:"remote" yaml:"remote"`
	Image      ImageConfig      `mapstructure:"image" yaml:"image"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Options    OptionsConfig    `mapstructure:"options" yaml:"options"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

// RemoteConfig locates the mirrored table in a GitHub repository.
type RemoteConfig struct {
	Owner            string        `mapstructure:"owner" yaml:"owner"`
	Repo             string        `mapstructure:"repo" yaml:"repo"`
	Branch           string        `mapstructure:"branch" yaml:"branch"`
	Path             string        `mapstructure:"path" yaml:"path"`
	Token            string        `mapstructure:"token" yaml:"token,omitempty"`
	APIURL           string        `mapstructure:"api_url" yaml:"api_url,omitempty"`
	Timeout          time.Duration `mapstructure:"timeout" yaml:"timeout"`
	WarnWhenDisabled bool          `mapstructure:"warn_when_disabled" yaml:"warn_when_disabled"`
}

// HasCredentials reports whether a sync token is configured.
func (r RemoteConfig) HasCredentials() bool {
	return r.Token != ""
}

// ImageConfig tunes the photo codec.
type ImageConfig struct {
	MaxDimension   int `mapstructure:"max_dimension" yaml:"max_dimension"`
	Quality        int `mapstructure:"quality" yaml:"quality"`
	MaxInputBytes  int `mapstructure:"max_input_bytes" yaml:"max_input_bytes"`
	MaxInputPixels int `mapstructure:"max_input_pixels" yaml:"max_input_pixels"`
}

// ValidationConfig selects the submission policies.
type ValidationConfig struct {
	RequireFields      bool   `mapstructure:"require_fields" yaml:"require_fields"`
	InvalidImagePolicy string `mapstructure:"invalid_image_policy" yaml:"invalid_image_policy"`
}

// OptionsConfig lists the accepted values of the enumerated fields.
type OptionsConfig struct {
	Technicians []string `mapstructure:"technicians" yaml:"technicians"`
	Stages      []string `mapstructure:"stages" yaml:"stages"`
	Statuses    []string `mapstructure:"statuses" yaml:"statuses"`
}

// CacheConfig bounds the read cache. A zero TTL disables caching.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Config validation errors.
var (
	ErrLocalFileEmpty        = errors.New("local_file must not be empty")
	ErrRemoteIncomplete      = errors.New("remote owner, repo and path are required when a token is set")
	ErrImageDimensionInvalid = errors.New("image max_dimension must be positive")
	ErrImageQualityInvalid   = errors.New("image quality must be between 1 and 100")
	ErrImagePolicyUnknown    = errors.New("unknown invalid_image_policy")
	ErrOptionsEmpty          = errors.New("technician, stage and status option lists must not be empty")
	ErrCacheTTLInvalid       = errors.New("cache ttl must be between 0 and 10s")
)

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		LocalFile: DefaultLocalFile,
		Remote: RemoteConfig{
			Branch:  DefaultRemoteBranch,
			Path:    DefaultRemotePath,
			Timeout: DefaultRemoteTimeout,
		},
		Image: ImageConfig{
			MaxDimension:   DefaultMaxDimension,
			Quality:        DefaultQuality,
			MaxInputBytes:  DefaultMaxInputBytes,
			MaxInputPixels: DefaultMaxPixels,
		},
		Validation: ValidationConfig{
			RequireFields:      true,
			InvalidImagePolicy: InvalidImageDrop,
		},
		Options: OptionsConfig{
			Technicians: []string{"Prasanth", "Arun", "Karthik", "Manoj", "Sathish"},
			Stages: []string{
				StageBreakdown,
				StagePreventiveMaintenance,
				StageSpareReplacement,
				StageLubrication,
				StageCalibration,
			},
			Statuses: []string{StatusOperational, StatusDown, StatusUnderMonitoring},
		},
		Cache: CacheConfig{TTL: DefaultCacheTTL},
		Log:   LogConfig{Level: "info"},
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LocalFile) == "" {
		return ErrLocalFileEmpty
	}
	if c.Remote.HasCredentials() && (c.Remote.Owner == "" || c.Remote.Repo == "" || c.Remote.Path == "") {
		return ErrRemoteIncomplete
	}
	if c.Image.MaxDimension <= 0 {
		return ErrImageDimensionInvalid
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return ErrImageQualityInvalid
	}
	switch c.Validation.InvalidImagePolicy {
	case InvalidImageDrop, InvalidImageReject:
	default:
		return ErrImagePolicyUnknown
	}
	if len(c.Options.Technicians) == 0 || len(c.Options.Stages) == 0 || len(c.Options.Statuses) == 0 {
		return ErrOptionsEmpty
	}
	if c.Cache.TTL < 0 || c.Cache.TTL > MaxCacheTTL {
		return ErrCacheTTLInvalid
	}
	return nil
}

// LocalPath returns the local store file path. A relative LocalFile is
// resolved against DataDir.
func (c Config) LocalPath() string {
	if filepath.IsAbs(c.LocalFile) || c.DataDir == "" {
		return c.LocalFile
	}
	return filepath.Join(c.DataDir, c.LocalFile)
}

// Canonical returns the configured spelling of value if it matches one of
// options case-insensitively.
func Canonical(options []string, value string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o, value) {
			return o, true
		}
	}
	return "", false
}
