package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Zero(t, cfg.Server.WriteTimeout)
	assert.Equal(t, "yt-dlp", cfg.Engine.Binary)
	assert.Equal(t, 60*time.Second, cfg.Engine.MetadataTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Engine.DownloadTimeout)
	assert.Equal(t, 4, cfg.Downloads.MaxConcurrent)
	assert.Equal(t, "tubefetch-", cfg.Workspace.Prefix)
	assert.True(t, filepath.IsAbs(cfg.Workspace.Root))
	assert.False(t, cfg.URLs.Strict)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  cors_origins: ["https://example.org"]
engine:
  binary: /usr/local/bin/yt-dlp
  extra_args: ["--no-check-certificates"]
  download_timeout: 5m
workspace:
  root: /var/tmp/tf
  max_age: 1h
urls:
  strict: true
rate_limit:
  rps: 2
logging:
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.Engine.Binary)
	assert.Equal(t, []string{"--no-check-certificates"}, cfg.Engine.ExtraArgs)
	assert.Equal(t, 5*time.Minute, cfg.Engine.DownloadTimeout)
	assert.Equal(t, "/var/tmp/tf", cfg.Workspace.Root)
	assert.Equal(t, time.Hour, cfg.Workspace.MaxAge)
	assert.True(t, cfg.URLs.Strict)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("TF_SERVER_PORT", "7070")
	t.Setenv("TF_API_KEY", "secret")
	t.Setenv("TF_MAX_CONCURRENT", "2")
	t.Setenv("TF_STRICT_URLS", "true")
	t.Setenv("TF_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TF_NATS_URL", "nats://localhost:4222")
	t.Setenv("TF_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 2, cfg.Downloads.MaxConcurrent)
	assert.True(t, cfg.URLs.Strict)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "server: [port"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"negative concurrency", "downloads:\n  max_concurrent: -1\n"},
		{"prefix with separator", "workspace:\n  prefix: a/b\n"},
		{"unknown log format", "logging:\n  format: xml\n"},
		{"sweep could remove running download", "engine:\n  download_timeout: 3h\nworkspace:\n  max_age: 2h\n"},
		{"max age equal to download timeout", "engine:\n  download_timeout: 1h\nworkspace:\n  max_age: 1h\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
