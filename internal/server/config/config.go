// Package config loads the server configuration from defaults, an optional
// config file and CHECKKEEPER_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iudanet/checkkeeper/internal/crypto"
	"github.com/iudanet/checkkeeper/internal/validation"
)

// EnvPrefix is the prefix of environment overrides: server.address -> CHECKKEEPER_SERVER_ADDRESS
const EnvPrefix = "CHECKKEEPER"

// EnvConfigFile names the config file when the -config flag is not given
const EnvConfigFile = EnvPrefix + "_CONFIG"

// Storage drivers
const (
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all server configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Checks    ChecksConfig    `mapstructure:"checks"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	LogLevel        string        `mapstructure:"log_level"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// StorageConfig selects the record store backend
type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=bolt sqlite postgres"`
	Path   string `mapstructure:"path" validate:"required_unless=Driver postgres"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
}

// AuthConfig contains password hashing and token settings
type AuthConfig struct {
	HashingSecret string        `mapstructure:"hashing_secret" validate:"required,min=16"`
	HashAlgorithm string        `mapstructure:"hash_algorithm" validate:"oneof=hmac-sha256 blake2b"`
	TokenTTL      time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// ChecksConfig contains check ownership limits
type ChecksConfig struct {
	MaxPerUser int `mapstructure:"max_per_user" validate:"gte=1"`
}

// RateLimitConfig limits requests per client IP. Login (POST /tokens)
// is counted separately with its own, usually stricter, limit.
type RateLimitConfig struct {
	Requests      int           `mapstructure:"requests" validate:"gte=1"`
	Window        time.Duration `mapstructure:"window" validate:"gt=0"`
	LoginRequests int           `mapstructure:"login_requests" validate:"gte=1"`
	LoginWindow   time.Duration `mapstructure:"login_window" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("storage.driver", DriverBolt)
	v.SetDefault("storage.path", "checkkeeper.db")
	v.SetDefault("storage.dsn", "")

	// Без значения по умолчанию viper не увидит ключ в окружении при Unmarshal
	v.SetDefault("auth.hashing_secret", "")
	v.SetDefault("auth.hash_algorithm", crypto.AlgorithmHMACSHA256)
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("checks.max_per_user", 5)

	v.SetDefault("ratelimit.requests", 100)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.login_requests", 5)
	v.SetDefault("ratelimit.login_window", time.Minute)
}

// Load reads the configuration. configFile may be empty, in which case
// CHECKKEEPER_CONFIG is consulted; with neither set only defaults and
// environment variables apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
