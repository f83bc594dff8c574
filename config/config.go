package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Output formats for the check command.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all configuration for matchkit
type Config struct {
	Log struct {
		// Level is one of debug, info, warn, error
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`

	Output struct {
		Color bool `mapstructure:"color"`
		// Format is "text" or "json"
		Format  string `mapstructure:"format"`
		Spinner bool   `mapstructure:"spinner"`
	} `mapstructure:"output"`

	Formatting struct {
		// MaxLength bounds inspected values in failure messages (0 disables elision)
		MaxLength int `mapstructure:"max_length"`
	} `mapstructure:"formatting"`

	Descriptions struct {
		IncludeChainClauses bool `mapstructure:"include_chain_clauses"`
	} `mapstructure:"descriptions"`

	Patterns struct {
		Timeout   time.Duration `mapstructure:"timeout"`
		CacheSize int           `mapstructure:"cache_size"`
	} `mapstructure:"patterns"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("output.color", true)
	viper.SetDefault("output.format", FormatText)
	viper.SetDefault("output.spinner", true)
	viper.SetDefault("formatting.max_length", 200)
	viper.SetDefault("descriptions.include_chain_clauses", false)
	viper.SetDefault("patterns.timeout", 100*time.Millisecond)
	viper.SetDefault("patterns.cache_size", 256)
	viper.SetDefault("metrics.enabled", false)
}

func loadFromEnv() {
	viper.SetEnvPrefix("MATCHKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// LoadConfig reads configuration from defaults, an optional config file and
// MATCHKIT_* environment variables, in increasing order of precedence.
// With an empty path, matchkit.yaml is looked up in the working directory and
// ./config; a missing file is not an error. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	setDefaults()
	loadFromEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		viper.SetConfigName("matchkit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	switch strings.ToLower(config.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn or error)", config.Log.Level)
	}

	if config.Output.Format != FormatText && config.Output.Format != FormatJSON {
		return fmt.Errorf("invalid output format: %q (must be %s or %s)", config.Output.Format, FormatText, FormatJSON)
	}

	if config.Formatting.MaxLength < 0 {
		return fmt.Errorf("formatting.max_length cannot be negative: %d", config.Formatting.MaxLength)
	}
	if config.Formatting.MaxLength > 0 && config.Formatting.MaxLength < 10 {
		return fmt.Errorf("formatting.max_length must be 0 or at least 10: %d", config.Formatting.MaxLength)
	}

	if config.Patterns.Timeout <= 0 {
		return fmt.Errorf("patterns.timeout must be positive: %v", config.Patterns.Timeout)
	}
	if config.Patterns.CacheSize < 1 {
		return fmt.Errorf("patterns.cache_size must be at least 1: %d", config.Patterns.CacheSize)
	}

	return nil
}
