package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[log]
level = "debug"
pretty = true

[backend]
base_url = "https://fx.example.org"
timeout = "10s"

[upload]
max_bytes = 1048576

[effects]
enabled = ["sepia", "blur"]

[gallery]
retries = 5
backoff = "250ms"
display_limit = 5

[telegram]
bot_token = "123:abc"
allowed_chat_ids = [1, -100200]
admin_username = "admin"

[session]
idle_timeout = "30m"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, Log{Level: "debug", Pretty: true}, cfg.Log)
	assert.Equal(t, Backend{BaseURL: "https://fx.example.org", Timeout: 10 * time.Second}, cfg.Backend)
	assert.Equal(t, int64(1<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"image/jpeg", "image/jpg", "image/png"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, []string{"sepia", "blur"}, cfg.Effects.Enabled)
	assert.Equal(t, Gallery{Retries: 5, Backoff: 250 * time.Millisecond, MaxDelay: 5 * time.Second, DisplayLimit: 5}, cfg.Gallery)
	assert.Equal(t, Telegram{BotToken: "123:abc", AllowedChatIDs: []int64{1, -100200}, AdminUsername: "admin"}, cfg.Telegram)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Handler.Timeout)

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateTelegram())
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	testChdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, int64(16<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, 3, cfg.Gallery.Retries)
	assert.Equal(t, 10, cfg.Gallery.DisplayLimit)
	assert.Equal(t, time.Hour, cfg.Session.IdleTimeout)
	assert.Empty(t, cfg.Effects.Enabled)

	require.NoError(t, cfg.Validate())
	require.Error(t, cfg.ValidateTelegram())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMGFX_BACKEND_BASE_URL", "http://backend:8080")
	t.Setenv("IMGFX_BACKEND_TIMEOUT", "5s")
	t.Setenv("IMGFX_TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "from-env", cfg.Telegram.BotToken)
	assert.Equal(t, "admin", cfg.Telegram.AdminUsername)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "explicit file missing",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.toml") },
		},
		{
			name: "malformed toml",
			path: func(t *testing.T) string { return writeConfig(t, "[backend\nbase_url = ") },
		},
		{
			name: "wrong type",
			path: func(t *testing.T) string { return writeConfig(t, "[backend]\ntimeout = \"soon\"") },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.path(t))
			require.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend: Backend{BaseURL: "http://localhost:5000", Timeout: time.Second},
			Upload:  Upload{MaxBytes: 1, AllowedTypes: []string{"image/png"}},
			Gallery: Gallery{Retries: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "/api" },
			wantErr: "backend.base_url must be an absolute http(s) URL, got \"/api\"",
		},
		{
			name:    "unsupported scheme",
			mutate:  func(c *Config) { c.Backend.BaseURL = "ftp://host" },
			wantErr: "backend.base_url must be an absolute http(s) URL, got \"ftp://host\"",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Backend.Timeout = 0 },
			wantErr: "backend.timeout must be positive",
		},
		{
			name:    "zero max bytes",
			mutate:  func(c *Config) { c.Upload.MaxBytes = 0 },
			wantErr: "upload.max_bytes must be positive",
		},
		{
			name:    "no allowed types",
			mutate:  func(c *Config) { c.Upload.AllowedTypes = nil },
			wantErr: "upload.allowed_types must not be empty",
		},
		{
			name:    "no retries",
			mutate:  func(c *Config) { c.Gallery.Retries = 0 },
			wantErr: "gallery.retries must be at least 1",
		},
		{
			name:    "negative backoff",
			mutate:  func(c *Config) { c.Gallery.Backoff = -time.Second },
			wantErr: "gallery backoff durations must not be negative",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)

			err := c.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.EqualError(t, err, tc.wantErr)
			}
		})
	}
}
