package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/thruflo/taskboard/internal/logging"
	"gopkg.in/yaml.v3"
)

// Default values for Config.
const (
	DefaultDriver      = DriverFile
	DefaultRedisPrefix = "taskboard:"
	DefaultServerHost  = "127.0.0.1"
	DefaultServerPort  = 8374
	DefaultRateLimit   = 120
	DefaultDeleteDelay = 200 * time.Millisecond
	DefaultLogLevel    = "warn"
)

// Environment variables that override the config file.
const (
	EnvStorage     = "TASKBOARD_STORAGE"
	EnvRedisURL    = "TASKBOARD_REDIS_URL"
	EnvAddr        = "TASKBOARD_ADDR"
	EnvLogLevel    = "TASKBOARD_LOG_LEVEL"
	EnvDeleteDelay = "TASKBOARD_DELETE_DELAY"
)

// DirName is the per-board directory holding config and saved state.
const DirName = ".taskboard"

// DefaultServerConfig returns a ServerConfig with sensible default values.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:      DefaultServerHost,
		Port:      DefaultServerPort,
		RateLimit: DefaultRateLimit,
	}
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver:      DefaultDriver,
			RedisPrefix: DefaultRedisPrefix,
		},
		Server: DefaultServerConfig(),
		UI:     UIConfig{DeleteDelay: DefaultDeleteDelay},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses .taskboard/config.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, DirName, "config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Resolve loads the config file, then applies overrides from the base path's
// .env file and finally from the process environment.
func Resolve(basePath string) (*Config, error) {
	cfg, err := LoadConfig(basePath)
	if err != nil {
		return nil, err
	}

	env, err := LoadEnvFile(basePath)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{EnvStorage, EnvRedisURL, EnvAddr, EnvLogLevel, EnvDeleteDelay} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}

	if err := ApplyEnv(cfg, env); err != nil {
		return nil, err
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from TASKBOARD_* values. Empty values are
// ignored.
func ApplyEnv(cfg *Config, env map[string]string) error {
	if v := strings.TrimSpace(env[EnvStorage]); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(env[EnvRedisURL]); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := strings.TrimSpace(env[EnvAddr]); v != "" {
		host, port, err := splitAddr(v)
		if err != nil {
			return ValidationError{Field: EnvAddr, Message: err.Error()}
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if v := strings.TrimSpace(env[EnvLogLevel]); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.TrimSpace(env[EnvDeleteDelay]); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ValidationError{Field: EnvDeleteDelay, Message: "must be a duration such as 200ms"}
		}
		cfg.UI.DeleteDelay = d
	}
	return nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case DriverFile, DriverMemory:
	case DriverRedis:
		if cfg.Storage.RedisURL == "" {
			return ValidationError{Field: "storage.redis_url", Message: "required when driver is redis"}
		}
	default:
		return ValidationError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("unknown driver %q (want file, redis or memory)", cfg.Storage.Driver),
		}
	}

	if err := ValidateServerConfig(&cfg.Server); err != nil {
		return err
	}

	if cfg.UI.DeleteDelay < 0 {
		return ValidationError{Field: "ui.delete_delay", Message: "must not be negative"}
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return ValidationError{Field: "log.level", Message: err.Error()}
	}

	return nil
}

// ValidateServerConfig checks that server config values are valid.
func ValidateServerConfig(cfg *ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if cfg.RateLimit <= 0 {
		return ValidationError{Field: "server.rate_limit", Message: "must be positive"}
	}
	return nil
}

// LoadEnvFile parses the .env file in basePath into a map of key-value
// pairs. A missing file yields an empty map.
func LoadEnvFile(basePath string) (map[string]string, error) {
	envPath := filepath.Join(basePath, ".env")

	env, err := godotenv.Read(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return env, nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	if host == "" {
		host = DefaultServerHost
	}
	return host, port, nil
}
