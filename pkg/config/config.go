package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Required fields
	SigningKey   string `mapstructure:"signing_key"` // base64-encoded HMAC key
	BuildCommand string `mapstructure:"build_command"`

	// Optional API settings
	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`
	BaseURL string `mapstructure:"base_url"` // used in View Details links

	// Optional CORS settings
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Optional execution settings
	CommandTimeout time.Duration `mapstructure:"command_timeout"` // 0 disables the bound

	// Optional logging settings
	LogLevel string `mapstructure:"log_level"`

	// Static paths
	ConfigPath string
	DBPath     string `mapstructure:"db_path"`
}

const (
	DefaultConfigPath     = "/etc/hookcmd/config.yml"
	DefaultDBPath         = "/var/lib/hookcmd/db.sqlite3"
	DefaultAPIHost        = "0.0.0.0"
	DefaultAPIPort        = 8321
	DefaultBaseURL        = "http://localhost:8321"
	DefaultLogLevel       = "info"
	DefaultCommandTimeout = 10 * time.Minute
)

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("api_host", DefaultAPIHost)
	viper.SetDefault("api_port", DefaultAPIPort)
	viper.SetDefault("base_url", DefaultBaseURL)
	viper.SetDefault("log_level", DefaultLogLevel)
	viper.SetDefault("command_timeout", DefaultCommandTimeout)
	viper.SetDefault("db_path", DefaultDBPath)

	// Allow environment variable overrides
	viper.AutomaticEnv()
	viper.SetEnvPrefix("HOOKCMD")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.ConfigPath = configPath

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("signing_key is required")
	}

	if _, err := base64.StdEncoding.DecodeString(c.SigningKey); err != nil {
		return fmt.Errorf("signing_key must be valid base64: %w", err)
	}

	if c.BuildCommand == "" {
		return fmt.Errorf("build_command is required")
	}

	if c.CommandTimeout < 0 {
		return fmt.Errorf("command_timeout must not be negative")
	}

	return nil
}

func (c *Config) IsDevMode() bool {
	return os.Getenv("HOOKCMD_DEV_MODE") == "1"
}
