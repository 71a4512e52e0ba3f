// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize is the default maximum request body size.
	// Attribute maps are small; 256KB leaves generous headroom.
	DefaultMaxRequestSize = 256 << 10

	// DefaultSampleRate is the default speaker mix rate in Hz.
	DefaultSampleRate = 44100

	// DefaultPrecacheWorkers bounds startup cache warm-up concurrency.
	DefaultPrecacheWorkers = 4

	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28
)

// Config is the root configuration structure. Sections carry no
// struct-level validation tag so that the validator dives into them and
// reports dotted leaf paths like sound.driver even when a whole section
// is missing.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Auth      AuthConfig      `koanf:"auth"`
	Sound     SoundConfig     `koanf:"sound"`

	// Flags holds feature flag values keyed by dotted flag name, e.g.
	// playback.enabled. Populated outside Unmarshal because the dots
	// would otherwise be read as koanf path separators.
	Flags map[string]string `koanf:"-"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"required,min=1s"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,url"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// AuthConfig contains API authentication settings. When the key is empty
// the sound API is open, the usual mode for a session-local daemon.
type AuthConfig struct {
	APIKey       string `koanf:"api_key"`
	APIKeyHeader string `koanf:"api_key_header"`
}

// SoundConfig contains sound backend settings.
type SoundConfig struct {
	// Driver selects the audio backend: beep mixes in-process, exec
	// shells out to a command-line player, null records without playing.
	Driver string `koanf:"driver" validate:"required,oneof=beep exec null"`

	// Player forces the exec driver's player binary. Empty autodetects.
	Player string `koanf:"player"`

	// ThemeDir is searched when resolving event identifiers to files.
	ThemeDir string `koanf:"theme_dir"`

	// SampleRate is the beep driver's speaker mix rate in Hz.
	SampleRate int `koanf:"sample_rate" validate:"required,min=8000,max=192000"`

	// DefaultAttrs are applied to the playback context at startup and
	// inherited by every sound, e.g. canberra.xdg-theme.name. Populated
	// outside Unmarshal; attribute names contain dots.
	DefaultAttrs map[string]string `koanf:"-"`

	// Precache lists attribute sets to warm the backend cache with at
	// startup.
	Precache []map[string]string `koanf:"precache"`

	// PrecacheWorkers bounds warm-up concurrency.
	PrecacheWorkers int `koanf:"precache_workers" validate:"required,min=1,max=64"`
}

// defaults returns the default configuration values.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "chimed",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "127.0.0.1",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,
		"server.request_timeout":  "30s",

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/chimed.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "chimed",
		"telemetry.sampling_rate": 1.0,

		"auth.api_key":        "",
		"auth.api_key_header": "X-API-Key",

		"sound.driver":           "beep",
		"sound.player":           "",
		"sound.theme_dir":        "/usr/share/sounds/freedesktop/stereo",
		"sound.sample_rate":      DefaultSampleRate,
		"sound.precache_workers": DefaultPrecacheWorkers,

		"flags.playback.enabled": "true",
	}
}

// Load loads configuration with the following precedence (highest to lowest):
//  1. Environment variables (CHIME_ prefix)
//  2. Profile config file (configs/{profile}.yaml)
//  3. Base config file (configs/base.yaml)
//  4. Default values
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	err = loadFileIfExists(k, "configs/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	if profile != "" {
		profilePath := fmt.Sprintf("configs/%s.yaml", profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	err = k.Load(env.Provider("CHIME_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "CHIME_")),
			"_",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Flag names and attribute names contain dots, which Unmarshal would
	// read as path separators, so these two tables are re-flattened from
	// their subtrees instead.
	cfg.Flags = stringTable(k, "flags")
	cfg.Sound.DefaultAttrs = stringTable(k, "sound.default_attrs")

	return &cfg, nil
}

// stringTable re-flattens a subtree into a flat map with dotted keys.
func stringTable(k *koanf.Koanf, path string) map[string]string {
	flat := k.Cut(path).All()

	table := make(map[string]string, len(flat))
	for name, value := range flat {
		table[name] = fmt.Sprintf("%v", value)
	}

	return table
}

// loadFileIfExists loads a YAML config file if it exists. A missing file
// is not an error.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
