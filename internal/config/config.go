// Package config manages configuration for the lambdahttp CLI, local gateway and example functions.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/heavens/lambdahttp/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents the configuration shared by the CLI and the local gateway.
// It supports loading from a YAML file and environment variables.
type Config struct {
	Environment constants.Environment `mapstructure:"environment" yaml:"environment" validate:"oneof=development production cli"`
	LogLevel    string                `mapstructure:"log_level" yaml:"log_level"`

	// Local gateway
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required,hostname_port"`
	Origin          string        `mapstructure:"origin" yaml:"origin" validate:"oneof=alb apigw-v1 apigw-v2"`
	MultiValue      bool          `mapstructure:"multi_value" yaml:"multi_value"`
	Stage           string        `mapstructure:"stage" yaml:"stage" validate:"required"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`

	// AWS
	AWSRegion         string `mapstructure:"aws_region" yaml:"aws_region"`
	WebSocketEndpoint string `mapstructure:"websocket_endpoint" yaml:"websocket_endpoint" validate:"omitempty,url"`
}

var validate = validator.New()

// keys lists every configuration key; each is bound to LAMBDAHTTP_<KEY>.
var keys = []string{
	"environment",
	"log_level",
	"listen_addr",
	"origin",
	"multi_value",
	"stage",
	"request_timeout",
	"shutdown_timeout",
	"aws_region",
	"websocket_endpoint",
}

// Load loads the configuration from ~/.lambdahttp/config.yaml, when present, and from
// environment variables with the LAMBDAHTTP_ prefix.
// Environment variables take precedence over config file values.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return load(path, false)
}

// LoadFile is like Load but reads the given config file, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

// MustLoad loads the configuration and exits on error.
// Suitable for application startup where configuration errors should be fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := loadConfigFile(v, path); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if required || !missing {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Origin = strings.ToLower(strings.TrimSpace(cfg.Origin))

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	return filepath.Join(constants.ConfigDirPath(currentUser.HomeDir), constants.ConfigFileName), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("log_level", "INFO")
	v.SetDefault("listen_addr", constants.DefaultListenAddr)
	v.SetDefault("origin", "apigw-v2")
	v.SetDefault("multi_value", false)
	v.SetDefault("stage", constants.DefaultStage)
	v.SetDefault("request_timeout", constants.DefaultRequestTimeout)
	v.SetDefault("shutdown_timeout", constants.ServerShutdownTimeout)
}

func loadConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	return v.ReadInConfig()
}

func bindEnvVars(v *viper.Viper) {
	for _, key := range keys {
		_ = v.BindEnv(key, constants.EnvPrefix+"_"+strings.ToUpper(key))
	}
	// The SDK's own variable is honored when no prefixed one is set.
	_ = v.BindEnv("aws_region", constants.EnvPrefix+"_AWS_REGION", "AWS_REGION")
}
