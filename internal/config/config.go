// Package config handles configuration loading and parsing for pro-apt-hook.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/canonical/ubuntu-pro-client/internal/constants"
	"github.com/canonical/ubuntu-pro-client/internal/logger"
)

//go:embed config.toml
var defaultConfig []byte

// Pin policies
const (
	PinPolicyHonor  = "honor"
	PinPolicyIgnore = "ignore"
)

// List scan policies
const (
	ListScanAllNewer = "all-newer"
	ListScanHighest  = "highest"
)

// Config is the decoded configuration file.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Classifier Classifier `toml:"classifier"`
	Audit      Audit      `toml:"audit"`
}

// Paths locates every file the hook reads or writes.
type Paths struct {
	MessagesDir    string   `toml:"messages_dir"`
	NoticesDir     string   `toml:"notices_dir"`
	PromoFlag      string   `toml:"promo_flag"`
	DpkgStatus     string   `toml:"dpkg_status"`
	AptLists       []string `toml:"apt_lists"`
	AptPreferences []string `toml:"apt_preferences"`
	OSRelease      string   `toml:"os_release"`
	CloudID        string   `toml:"cloud_id"`
	Proc           string   `toml:"proc"`
}

// Classifier selects between the classification behaviours kept side by side.
type Classifier struct {
	PinPolicy string `toml:"pin_policy"`
	ListScan  string `toml:"list_scan"`
}

// Audit controls the JSON-lines run record.
type Audit struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
	// initErr is the error hit while loading, if any; defaults were used instead
	initErr error
	// pathOverride is set by --config
	pathOverride string
)

// SetPath overrides the configuration file location.
func SetPath(path string) {
	pathOverride = path
}

// GetConfigPath returns the configuration file path in effect.
// Precedence: SetPath, then PRO_APT_HOOK_CONFIG, then the system default.
func GetConfigPath() string {
	if pathOverride != "" {
		return pathOverride
	}
	if p := os.Getenv(constants.EnvConfigFile); p != "" {
		return p
	}
	return constants.DefaultConfigPath
}

// LoadConfig decodes TOML data on top of the embedded defaults.
func LoadConfig(data []byte) (*Config, error) {
	cfg, err := decodeDefaults()
	if err != nil {
		return nil, err
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	for _, key := range md.Undecoded() {
		logger.Debug("ignoring unknown config key", "key", key.String())
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeDefaults() (*Config, error) {
	cfg := &Config{}
	if _, err := toml.Decode(string(defaultConfig), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Classifier.PinPolicy {
	case PinPolicyHonor, PinPolicyIgnore:
	default:
		return fmt.Errorf("invalid classifier.pin_policy %q (want %q or %q)",
			c.Classifier.PinPolicy, PinPolicyHonor, PinPolicyIgnore)
	}
	switch c.Classifier.ListScan {
	case ListScanAllNewer, ListScanHighest:
	default:
		return fmt.Errorf("invalid classifier.list_scan %q (want %q or %q)",
			c.Classifier.ListScan, ListScanAllNewer, ListScanHighest)
	}
	if c.Paths.DpkgStatus == "" {
		return errors.New("paths.dpkg_status must not be empty")
	}
	if c.Paths.MessagesDir == "" {
		return errors.New("paths.messages_dir must not be empty")
	}
	return nil
}

// loadEmbeddedDefaults loads the embedded default config file.
func loadEmbeddedDefaults() *Config {
	cfg, _ := decodeDefaults()
	return cfg
}

// Init loads the configuration file. A missing file is not an error: the
// embedded defaults apply. Any other failure also falls back to the
// defaults, and the failure is kept for InitError.
func Init() error {
	if configInitialized {
		return initErr
	}
	configInitialized = true

	configPath := GetConfigPath()
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using embedded defaults", "path", configPath)
		globalConfig = loadEmbeddedDefaults()
		return nil
	}
	if err != nil {
		logger.Debug("failed to read config file, using embedded defaults", "path", configPath, "error", err)
		globalConfig = loadEmbeddedDefaults()
		initErr = fmt.Errorf("failed to read %s: %w", configPath, err)
		return initErr
	}

	cfg, err := LoadConfig(data)
	if err != nil {
		logger.Debug("failed to parse config, using embedded defaults", "path", configPath, "error", err)
		globalConfig = loadEmbeddedDefaults()
		initErr = fmt.Errorf("failed to load %s: %w", configPath, err)
		return initErr
	}

	logger.Debug("config loaded successfully",
		"path", configPath,
		"pin_policy", cfg.Classifier.PinPolicy,
		"list_scan", cfg.Classifier.ListScan)
	globalConfig = cfg
	return nil
}

// Get returns the current configuration.
// If Init has not been called, it initializes first.
func Get() *Config {
	if !configInitialized {
		Init()
	}
	return globalConfig
}

// InitError returns the error encountered by Init, if any.
func InitError() error {
	return initErr
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
	initErr = nil
	pathOverride = ""
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
