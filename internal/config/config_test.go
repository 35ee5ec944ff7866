package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

popup:
  timeout_in_ms: 4000
  content_scroll_threshold_in_percentage: 50
  target_path_prefixes:
    - "/blog"
    - "/articles"
  session_ttl_minutes: 10
  allowed_referrer_domains:
    - "example.com"

storage:
  type: "redis"
  redis_addr: "redis.internal:6379"
  key_prefix: "pp"

newsletter:
  feed_url: "https://example.com/rss.xml"
  preview_items: 3

cors:
  allowed_origins:
    - "https://example.com"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	// Test server config
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Test popup config
	assert.Equal(t, 4000, cfg.Popup.TimeoutInMs)
	assert.Equal(t, 50, cfg.Popup.ContentScrollThresholdInPercentage)
	assert.Equal(t, []string{"/blog", "/articles"}, cfg.Popup.TargetPathPrefixes)
	assert.Equal(t, 10, cfg.Popup.SessionTTLMinutes)
	assert.Equal(t, []string{"example.com"}, cfg.Popup.AllowedReferrerDomains)

	// Test storage config
	assert.Equal(t, "redis", cfg.Storage.Type)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "pp", cfg.Storage.KeyPrefix)

	// Test newsletter config
	assert.Equal(t, "https://example.com/rss.xml", cfg.Newsletter.FeedURL)
	assert.Equal(t, 3, cfg.Newsletter.PreviewItems)

	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.AllowedOrigins)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 0\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 6000, cfg.Popup.TimeoutInMs)
	assert.Equal(t, 35, cfg.Popup.ContentScrollThresholdInPercentage)
	assert.Equal(t, 30, cfg.Popup.SessionTTLMinutes)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "polite-popup", cfg.Storage.KeyPrefix)
	assert.Equal(t, "./data", cfg.Storage.LocalPath)
	assert.Equal(t, 5, cfg.Newsletter.PreviewItems)
	assert.NotEmpty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 9090\n"), 0644))

	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_ADDR", "override:6379")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "override:6379", cfg.Storage.RedisAddr)
	// The redis address override also flips the default storage type.
	assert.Equal(t, "redis", cfg.Storage.Type)
}

func TestPopupConfigDurations(t *testing.T) {
	cfg := PopupConfig{TimeoutInMs: 6000, SessionTTLMinutes: 30}
	assert.Equal(t, "6s", cfg.Timeout().String())
	assert.Equal(t, "30m0s", cfg.SessionTTL().String())
}
