// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Spacer window configuration
	Spacer SpacerConfig `mapstructure:"spacer"`

	// Native window backend configuration
	Native NativeConfig `mapstructure:"native"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// SpacerConfig contains spacer placement settings
type SpacerConfig struct {
	WindowCount      int `mapstructure:"window_count"`       // Number of spacer windows to create
	StartWorkspace   int `mapstructure:"start_workspace"`    // First workspace index, 0 = auto-suggest
	SpawnDelayMS     int `mapstructure:"spawn_delay_ms"`     // Pause between consecutive window creations
	OperationDelayMS int `mapstructure:"operation_delay_ms"` // Settle pause after compositor actions
}

// NativeConfig contains settings for the in-process Wayland windows
type NativeConfig struct {
	BackgroundColor      string `mapstructure:"background_color"`       // Hex RGB, e.g. "#808080"
	CorrelationTimeoutMS int    `mapstructure:"correlation_timeout_ms"` // How long to wait for niri to report a new window
	AppIDPrefix          string `mapstructure:"app_id_prefix"`
	DebugNative          bool   `mapstructure:"debug_native"` // Extra logging from the Wayland event loop
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

// Window count bounds accepted by the CLI and config file.
const (
	MinWindowCount = 1
	MaxWindowCount = 50
)

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Spacer: SpacerConfig{
			WindowCount:      9,
			StartWorkspace:   0,
			SpawnDelayMS:     50,
			OperationDelayMS: 25,
		},
		Native: NativeConfig{
			BackgroundColor:      "#808080",
			CorrelationTimeoutMS: 5000,
			AppIDPrefix:          "niri-spacer-native",
			DebugNative:          false,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
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
	viper.SetConfigName("niri-spacer")
	viper.SetConfigType("toml")

	// If a specific path is set, use only that
	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "niri-spacer"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("spacer.window_count", DefaultConfig.Spacer.WindowCount)
	viper.SetDefault("spacer.start_workspace", DefaultConfig.Spacer.StartWorkspace)
	viper.SetDefault("spacer.spawn_delay_ms", DefaultConfig.Spacer.SpawnDelayMS)
	viper.SetDefault("spacer.operation_delay_ms", DefaultConfig.Spacer.OperationDelayMS)

	viper.SetDefault("native.background_color", DefaultConfig.Native.BackgroundColor)
	viper.SetDefault("native.correlation_timeout_ms", DefaultConfig.Native.CorrelationTimeoutMS)
	viper.SetDefault("native.app_id_prefix", DefaultConfig.Native.AppIDPrefix)
	viper.SetDefault("native.debug_native", DefaultConfig.Native.DebugNative)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "niri-spacer.toml")
	}

	return filepath.Join(home, ".config", "niri-spacer", "niri-spacer.toml")
}

// ValidateWindowCount rejects counts outside the supported range.
func ValidateWindowCount(count int) error {
	if count < MinWindowCount || count > MaxWindowCount {
		return fmt.Errorf("invalid window count %d: must be between %d and %d", count, MinWindowCount, MaxWindowCount)
	}
	return nil
}

// Color is an opaque RGB background color.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// ParseColor parses a hex color like "#808080" or "808080".
func ParseColor(s string) (Color, error) {
	hex := s
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
