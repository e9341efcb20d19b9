package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"bookshelf/internal/cover"
	"bookshelf/pkg/storage"
)

// ConfigPath is the config file read when no path is given. It may be absent.
const ConfigPath = "bookshelf.yaml"

// FileConfig represents the client configuration loaded from YAML.
type FileConfig struct {
	APIBaseURL       string              `yaml:"apiBaseURL"`
	LogLevel         string              `yaml:"logLevel"`
	Timeout          string              `yaml:"timeout"`
	Session          SessionConfig       `yaml:"session"`
	Images           ImageConfig         `yaml:"images"`
	Refiner          RefinerConfig       `yaml:"refiner"`
	Archive          storage.MinioConfig `yaml:"archive"`
	RejectDuplicates bool                `yaml:"rejectDuplicates"`
}

// SessionConfig selects the durable session storage.
type SessionConfig struct {
	Store         string `yaml:"store"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

// ImageConfig configures the image generation API.
type ImageConfig struct {
	BaseURL       string `yaml:"baseURL"`
	APIKey        string `yaml:"apiKey"`
	cover.Options `yaml:",inline"`
}

// RefinerConfig configures the optional prompt refiner.
type RefinerConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"baseURL"`
	APIKey   string `yaml:"apiKey"`
	Model    string `yaml:"model"`
}

// Enabled reports whether a refiner provider is set.
func (r RefinerConfig) Enabled() bool {
	return strings.TrimSpace(r.Provider) != ""
}

// Default returns the configuration used when no file exists.
func Default() FileConfig {
	return FileConfig{
		APIBaseURL: "http://localhost:8080",
		LogLevel:   "warn",
		Timeout:    "10s",
		Session:    SessionConfig{Store: "file", Path: defaultSessionPath()},
		Images:     ImageConfig{Options: cover.DefaultOptions()},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bookshelf", "session.yaml")
}

// Load reads config from path (defaults to ConfigPath), applies .env and
// environment overrides and validates the result. A missing default file is
// not an error.
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
	loadDotEnv()
	applyEnv(&cfg)
	cfg.Images.Options = cfg.Images.Options.WithDefaults()
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadDotEnv loads .env when present. Variables already set win.
func loadDotEnv() {
	_ = godotenv.Load()
}

func applyEnv(cfg *FileConfig) {
	setString(&cfg.APIBaseURL, "BOOKSHELF_API_URL")
	setString(&cfg.LogLevel, "BOOKSHELF_LOG_LEVEL")
	setString(&cfg.Timeout, "BOOKSHELF_TIMEOUT")
	setString(&cfg.Session.Store, "BOOKSHELF_SESSION_STORE")
	setString(&cfg.Session.Path, "BOOKSHELF_SESSION_PATH")
	setString(&cfg.Session.RedisAddr, "REDIS_ADDR")
	setString(&cfg.Session.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.Session.RedisPrefix, "BOOKSHELF_SESSION_REDIS_PREFIX")
	setString(&cfg.Images.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.Images.APIKey, "OPENAI_API_KEY")
	setString(&cfg.Images.Model, "BOOKSHELF_IMAGE_MODEL")
	setString(&cfg.Refiner.Provider, "BOOKSHELF_REFINER_PROVIDER")
	setString(&cfg.Refiner.BaseURL, "BOOKSHELF_REFINER_BASE_URL")
	setString(&cfg.Refiner.APIKey, "BOOKSHELF_REFINER_API_KEY")
	setString(&cfg.Refiner.Model, "BOOKSHELF_REFINER_MODEL")
	setString(&cfg.Archive.Endpoint, "MINIO_ENDPOINT")
	setString(&cfg.Archive.AccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.Archive.SecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.Archive.Bucket, "MINIO_BUCKET")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Archive.UseSSL = b
		}
	}
	if v := os.Getenv("BOOKSHELF_REJECT_DUPLICATES"); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.RejectDuplicates = b
		}
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func validateConfig(cfg FileConfig) error {
	u, err := url.Parse(strings.TrimSpace(cfg.APIBaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("config: apiBaseURL must be an http(s) URL (set in bookshelf.yaml or BOOKSHELF_API_URL)")
	}
	if _, err := ParseTimeout(cfg.Timeout); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Session.Store)) {
	case "file":
		if strings.TrimSpace(cfg.Session.Path) == "" {
			return errors.New("config: session.path is required for the file store")
		}
	case "redis":
		if strings.TrimSpace(cfg.Session.RedisAddr) == "" {
			return errors.New("config: session.redisAddr is required for the redis store (or REDIS_ADDR)")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown session store %q (file, redis, memory)", cfg.Session.Store)
	}
	if cfg.Refiner.Enabled() && strings.TrimSpace(cfg.Refiner.Model) == "" {
		return errors.New("config: refiner.model is required when refiner.provider is set")
	}
	if cfg.Archive.Enabled() && strings.TrimSpace(cfg.Archive.Bucket) == "" {
		return errors.New("config: archive.bucket is required when archive.endpoint is set")
	}
	return nil
}

// ParseTimeout parses the request timeout. Empty means no timeout.
func ParseTimeout(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("config: invalid timeout %q", s)
	}
	return d, nil
}
