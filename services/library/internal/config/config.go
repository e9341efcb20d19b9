// Package config loads the library backend configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bookshelf/internal/util"
)

// ConfigPath is read when no path is given. A missing default file is fine.
const ConfigPath = "library.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string   `yaml:"port"`
	LogLevel                string   `yaml:"logLevel"`
	DatabaseURL             string   `yaml:"databaseURL"`
	JWTSecret               string   `yaml:"jwtSecret"`
	JWTIssuer               string   `yaml:"jwtIssuer"`
	AccessTokenTTL          string   `yaml:"accessTokenTTL"`
	RefreshTokenTTL         string   `yaml:"refreshTokenTTL"`
	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	LoginRateLimitPerMinute int      `yaml:"loginRateLimitPerMinute"`
	TrustedProxies          []string `yaml:"trustedProxies"`
}

// Default returns the settings used for local development.
func Default() FileConfig {
	return FileConfig{
		Port:                    "8080",
		LogLevel:                "info",
		AccessTokenTTL:          "1h",
		RefreshTokenTTL:         "168h",
		LoginRateLimitPerMinute: 10,
	}
}

// Load reads config from path (defaults to library.yaml), then .env and
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	_ = godotenv.Load()
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LIBRARY_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("LIBRARY_ACCESS_TOKEN_TTL"); v != "" {
		cfg.AccessTokenTTL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("LIBRARY_LOGIN_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("LIBRARY_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required (set in library.yaml or PORT)")
	}
	if len(strings.TrimSpace(cfg.JWTSecret)) < 16 {
		return errors.New("config: jwtSecret of at least 16 characters is required (set in library.yaml or LIBRARY_JWT_SECRET)")
	}
	if _, err := ParseDuration(cfg.AccessTokenTTL); err != nil {
		return fmt.Errorf("config: accessTokenTTL: %w", err)
	}
	if _, err := ParseDuration(cfg.RefreshTokenTTL); err != nil {
		return fmt.Errorf("config: refreshTokenTTL: %w", err)
	}
	if cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: loginRateLimitPerMinute must not be negative")
	}
	if _, err := util.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("config: trustedProxies: %w", err)
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseDuration parses a Go duration; empty means zero.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("duration must not be negative")
	}
	return d, nil
}
