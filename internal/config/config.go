// Package config handles application settings using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application settings. Aliases and favorites live in
// the store document, not here.
type Config struct {
	DDC     DDCConfig     `mapstructure:"ddc"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Menu    MenuConfig    `mapstructure:"menu"`
}

// DDCConfig selects and tunes the transport backend
type DDCConfig struct {
	Backend       string   `mapstructure:"backend"`         // auto, ddcutil or none
	DdcutilPath   string   `mapstructure:"ddcutil_path"`    // Empty means look up on PATH
	ExtraArgs     []string `mapstructure:"extra_args"`      // Global ddcutil arguments
	SettleDelayMs int      `mapstructure:"settle_delay_ms"` // Wait before verifying a switch
}

// StoreConfig locates the alias/favorite document
type StoreConfig struct {
	Path string `mapstructure:"path"` // Empty means ~/.config/monitor-switch/config.json
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

// RemoteConfig contains SSH remote-switch server settings
type RemoteConfig struct {
	Port                   int      `mapstructure:"port"`
	BindAddress            string   `mapstructure:"bind_address"`
	HostKeyPath            string   `mapstructure:"host_key_path"`
	AuthorizedFingerprints []string `mapstructure:"authorized_fingerprints"` // SHA256 key fingerprints
	WhitelistOnly          bool     `mapstructure:"whitelist_only"`          // Reject keys not listed
}

// MenuConfig contains quick-switch menu settings
type MenuConfig struct {
	WatchConfig bool `mapstructure:"watch_config"` // Reload when another process saves the store
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		DDC: DDCConfig{
			Backend:       "auto",
			DdcutilPath:   "",
			ExtraArgs:     []string{},
			SettleDelayMs: 1000,
		},
		Store: StoreConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
		Remote: RemoteConfig{
			Port:                   52526,
			BindAddress:            "0.0.0.0",
			HostKeyPath:            defaultHostKeyPath(),
			AuthorizedFingerprints: []string{},
			WhitelistOnly:          true,
		},
		Menu: MenuConfig{
			WatchConfig: true,
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if dir := configDir(); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("ddc.backend", DefaultConfig.DDC.Backend)
	viper.SetDefault("ddc.ddcutil_path", DefaultConfig.DDC.DdcutilPath)
	viper.SetDefault("ddc.extra_args", DefaultConfig.DDC.ExtraArgs)
	viper.SetDefault("ddc.settle_delay_ms", DefaultConfig.DDC.SettleDelayMs)

	viper.SetDefault("store.path", DefaultConfig.Store.Path)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	viper.SetDefault("remote.port", DefaultConfig.Remote.Port)
	viper.SetDefault("remote.bind_address", DefaultConfig.Remote.BindAddress)
	viper.SetDefault("remote.host_key_path", DefaultConfig.Remote.HostKeyPath)
	viper.SetDefault("remote.authorized_fingerprints", DefaultConfig.Remote.AuthorizedFingerprints)
	viper.SetDefault("remote.whitelist_only", DefaultConfig.Remote.WhitelistOnly)

	viper.SetDefault("menu.watch_config", DefaultConfig.Menu.WatchConfig)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !(configPathOverride != "" && os.IsNotExist(err)) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the settings file
func GetConfigPath() string {
	// If override is set, use that
	if configPathOverride != "" {
		return configPathOverride
	}

	// Check if config file is already loaded
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "settings.toml")
	}
	return "settings.toml"
}

// SettleDelay is how long to wait after a switch before reading it back
func (c *Config) SettleDelay() time.Duration {
	if c.DDC.SettleDelayMs <= 0 {
		return 0
	}
	return time.Duration(c.DDC.SettleDelayMs) * time.Millisecond
}

// AddAuthorizedFingerprint adds an SSH key fingerprint to the remote whitelist
func AddAuthorizedFingerprint(fingerprint string) error {
	cfg := Get()

	if slices.Contains(cfg.Remote.AuthorizedFingerprints, fingerprint) {
		return fmt.Errorf("key already authorized")
	}

	cfg.Remote.AuthorizedFingerprints = append(cfg.Remote.AuthorizedFingerprints, fingerprint)
	viper.Set("remote.authorized_fingerprints", cfg.Remote.AuthorizedFingerprints)
	return Save()
}

// RemoveAuthorizedFingerprint removes an SSH key fingerprint from the remote whitelist
func RemoveAuthorizedFingerprint(fingerprint string) error {
	cfg := Get()

	for i, fp := range cfg.Remote.AuthorizedFingerprints {
		if fp == fingerprint {
			cfg.Remote.AuthorizedFingerprints = append(cfg.Remote.AuthorizedFingerprints[:i], cfg.Remote.AuthorizedFingerprints[i+1:]...)
			viper.Set("remote.authorized_fingerprints", cfg.Remote.AuthorizedFingerprints)
			return Save()
		}
	}

	return fmt.Errorf("key not found in whitelist")
}

// configDir is ~/.config/monitor-switch, honoring XDG_CONFIG_HOME
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "monitor-switch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "monitor-switch")
}

func defaultHostKeyPath() string {
	if dir := configDir(); dir != "" {
		return filepath.Join(dir, "host_key")
	}
	return "host_key"
}
