package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreybb/couponbook/docstore"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := resolve(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, docstore.ModeProduction, cfg.Mode)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "./seed", cfg.SeedDir)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, ProviderLog, cfg.Provider())
}

func TestResolveDevelopmentOnlyWhenAsked(t *testing.T) {
	for _, env := range []string{"development", "dev", "test"} {
		cfg, err := resolve(envFrom(map[string]string{"APP_ENV": env}))
		require.NoError(t, err)
		assert.Equal(t, docstore.ModeDevelopment, cfg.Mode, env)
	}
}

func TestResolveEnvironment(t *testing.T) {
	cfg, err := resolve(envFrom(map[string]string{
		"APP_ENV":           "production",
		"PORT":              "9090",
		"DATA_DIR":          "/var/lib/coupons",
		"EMAIL_API_URL":     "http://relay.local/send",
		"NOTIFY_WORKERS":    "8",
		"NOTIFY_QUEUE_SIZE": "32",
		"NOTIFY_TIMEOUT":    "3s",
		"LOG_LEVEL":         "debug",
		"LOG_FORMAT":        "JSON",
	}))
	require.NoError(t, err)

	assert.Equal(t, docstore.ModeProduction, cfg.Mode)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "/var/lib/coupons", cfg.DataDir)
	assert.Equal(t, 8, cfg.NotifyWorkers)
	assert.Equal(t, 32, cfg.NotifyQueueSize)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ProviderRelay, cfg.Provider())
}

func TestResolveYAMLWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "couponbook.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: production
server:
  port: "7000"
storage:
  data_dir: /srv/data
  seed_dir: /srv/seed
notify:
  workers: 2
  timeout: 5s
log:
  level: warn
`), 0o644))

	cfg, err := resolve(envFrom(map[string]string{
		"CONFIG_FILE": path,
		"PORT":        "7001",
	}))
	require.NoError(t, err)

	assert.Equal(t, docstore.ModeProduction, cfg.Mode)
	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, "/srv/seed", cfg.SeedDir)
	assert.Equal(t, 2, cfg.NotifyWorkers)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
}

func TestResolveRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"workers not a number", map[string]string{"NOTIFY_WORKERS": "many"}},
		{"workers zero", map[string]string{"NOTIFY_WORKERS": "0"}},
		{"queue negative", map[string]string{"NOTIFY_QUEUE_SIZE": "-1"}},
		{"timeout malformed", map[string]string{"NOTIFY_TIMEOUT": "10"}},
		{"log level", map[string]string{"LOG_LEVEL": "loud"}},
		{"log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"missing config file", map[string]string{"CONFIG_FILE": "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestProviderSelection(t *testing.T) {
	assert.Equal(t, ProviderSendGrid, (&Config{SendGridAPIKey: "k", EmailAPIURL: "http://x"}).Provider())
	assert.Equal(t, ProviderRelay, (&Config{EmailAPIURL: "http://x"}).Provider())
	assert.Equal(t, ProviderLog, (&Config{}).Provider())
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelInfo, LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Debug("hidden")
	logger.Info("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}
