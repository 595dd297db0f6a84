// internal/common/config/config.go
package config

import "time"

// Config is the main portal client configuration struct.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	API     APIConfig     `mapstructure:"api"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Uploads UploadConfig  `mapstructure:"uploads"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// APIConfig points at the portal REST backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds, 0 = runtime default
}

// Token store kinds.
const (
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

// AuthConfig selects where the bearer token lives between runs.
type AuthConfig struct {
	TokenStore string      `mapstructure:"token_store"`
	TokenFile  string      `mapstructure:"token_file"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
	TTL      int    `mapstructure:"ttl"` // seconds, 0 = no expiry
}

// UploadConfig holds the per-flow document size ceilings.
type UploadConfig struct {
	ApplicationMaxBytes int64 `mapstructure:"application_max_bytes"`
	EditMaxBytes        int64 `mapstructure:"edit_max_bytes"`
	MaxConcurrentEncode int   `mapstructure:"max_concurrent_encode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
