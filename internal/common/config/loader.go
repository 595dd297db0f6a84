// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultApplicationMaxBytes = 2 * 1024 * 1024
	defaultEditMaxBytes        = 5 * 1024 * 1024
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml over it
// and lets PORTAL_* environment variables override either.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about
	for _, key := range []string{
		"api.base_url", "api.timeout",
		"auth.token_store", "auth.token_file",
		"auth.redis.address", "auth.redis.password", "auth.redis.db", "auth.redis.key", "auth.redis.ttl",
		"uploads.application_max_bytes", "uploads.edit_max_bytes", "uploads.max_concurrent_encode",
		"logging.level", "logging.format", "logging.output",
		"metrics.enabled", "metrics.address",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up towards the module root.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "applicant-portal"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	cfg.API.BaseURL = strings.TrimSuffix(cfg.API.BaseURL, "/")

	if cfg.Auth.TokenStore == "" {
		cfg.Auth.TokenStore = TokenStoreFile
	}
	if cfg.Auth.TokenStore == TokenStoreFile && cfg.Auth.TokenFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Auth.TokenFile = filepath.Join(home, ".applicant-portal", "token")
		} else {
			cfg.Auth.TokenFile = ".portal-token"
		}
	}
	if cfg.Auth.Redis.Key == "" {
		cfg.Auth.Redis.Key = "portal:token"
	}

	if cfg.Uploads.ApplicationMaxBytes == 0 {
		cfg.Uploads.ApplicationMaxBytes = defaultApplicationMaxBytes
	}
	if cfg.Uploads.EditMaxBytes == 0 {
		cfg.Uploads.EditMaxBytes = defaultEditMaxBytes
	}
	if cfg.Uploads.MaxConcurrentEncode == 0 {
		cfg.Uploads.MaxConcurrentEncode = 4
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}
	if cfg.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	switch cfg.Auth.TokenStore {
	case TokenStoreFile, TokenStoreMemory:
	case TokenStoreRedis:
		if cfg.Auth.Redis.Address == "" {
			return fmt.Errorf("auth.redis.address is required for the redis token store")
		}
	default:
		return fmt.Errorf("auth.token_store must be one of file, redis, memory")
	}

	if cfg.Uploads.ApplicationMaxBytes < 0 || cfg.Uploads.EditMaxBytes < 0 {
		return fmt.Errorf("uploads size limits must be positive")
	}
	return nil
}
