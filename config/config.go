// Package config loads process configuration.
//
// Sources, later ones winning:
//  1. an optional .env file (secrets and APP_ENV)
//  2. an optional YAML file named by CONFIG_FILE
//  3. environment variables
//
// Unset values fall back to defaults; an unset APP_ENV means production, so
// existing documents are never reseeded unless development is requested.
// Malformed numbers and durations are
// errors rather than silently defaulted.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coreybb/couponbook/docstore"
)

const (
	defaultEnv          = "production" // development reseeds on start, so it must be asked for
	defaultPort         = "8080"
	defaultDataDir      = "./data"
	defaultSeedDir      = "./seed"
	defaultSendGridFrom = "coupons@couponbook.local"
	defaultSendGridName = "Coupon Book"
	defaultWorkers      = 4
	defaultQueueSize    = 256
	defaultTimeout      = 10 * time.Second
)

// Provider names a notice delivery backend.
type Provider string

const (
	ProviderSendGrid Provider = "sendgrid"
	ProviderRelay    Provider = "relay"
	ProviderLog      Provider = "log"
)

// YAMLConfig is the layout of the optional CONFIG_FILE. Secrets are not read
// from it.
type YAMLConfig struct {
	Env     string        `yaml:"env"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Email   EmailConfig   `yaml:"email"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	SeedDir string `yaml:"seed_dir"`
}

type EmailConfig struct {
	APIURL    string `yaml:"api_url"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

type NotifyConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the resolved configuration.
type Config struct {
	Mode    docstore.Mode
	Port    string
	DataDir string
	SeedDir string

	EmailAPIURL       string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	NotifyWorkers   int
	NotifyQueueSize int
	NotifyTimeout   time.Duration

	LogLevel  slog.Level
	LogFormat string
}

// Load reads .env from the working directory when present, then resolves
// configuration from CONFIG_FILE and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return resolve(os.Getenv)
}

func resolve(getenv func(string) string) (*Config, error) {
	var file YAMLConfig
	if path := getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	pick := func(key, fromFile, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		if fromFile != "" {
			return fromFile
		}
		return def
	}

	cfg := &Config{
		Mode:              docstore.ParseMode(pick("APP_ENV", file.Env, defaultEnv)),
		Port:              pick("PORT", file.Server.Port, defaultPort),
		DataDir:           pick("DATA_DIR", file.Storage.DataDir, defaultDataDir),
		SeedDir:           pick("SEED_DIR", file.Storage.SeedDir, defaultSeedDir),
		EmailAPIURL:       pick("EMAIL_API_URL", file.Email.APIURL, ""),
		SendGridAPIKey:    strings.TrimSpace(getenv("SENDGRID_API_KEY")),
		SendGridFromEmail: pick("SENDGRID_FROM_EMAIL", file.Email.FromEmail, defaultSendGridFrom),
		SendGridFromName:  pick("SENDGRID_FROM_NAME", file.Email.FromName, defaultSendGridName),
		LogFormat:         strings.ToLower(pick("LOG_FORMAT", file.Log.Format, "text")),
	}

	var err error
	if cfg.NotifyWorkers, err = intValue(getenv, "NOTIFY_WORKERS", file.Notify.Workers, defaultWorkers); err != nil {
		return nil, err
	}
	if cfg.NotifyQueueSize, err = intValue(getenv, "NOTIFY_QUEUE_SIZE", file.Notify.QueueSize, defaultQueueSize); err != nil {
		return nil, err
	}
	if cfg.NotifyTimeout, err = durationValue(getenv, "NOTIFY_TIMEOUT", file.Notify.Timeout, defaultTimeout); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(pick("LOG_LEVEL", file.Log.Level, "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", cfg.LogFormat)
	}

	return cfg, nil
}

// Provider picks SendGrid when an API key is configured, otherwise the relay
// when EMAIL_API_URL is set, otherwise the log-only provider.
func (c *Config) Provider() Provider {
	switch {
	case c.SendGridAPIKey != "":
		return ProviderSendGrid
	case c.EmailAPIURL != "":
		return ProviderRelay
	default:
		return ProviderLog
	}
}

// NewLogger builds the process logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func intValue(getenv func(string) string, key string, fromFile, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		if fromFile != 0 {
			return positive(key, fromFile)
		}
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return positive(key, n)
}

func positive(key string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %d: must be positive", key, n)
	}
	return n, nil
}

func durationValue(getenv func(string) string, key string, fromFile, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		if fromFile != 0 {
			return fromFile, nil
		}
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}
