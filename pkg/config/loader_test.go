package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// setupHome points HOME at a temp dir so default paths and the allowed-dir
// check resolve under the test's control.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeConfigFile(t *testing.T, home, content string, perm os.FileMode) string {
	t.Helper()
	dir := filepath.Join(home, ".config", "gopix")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	setupHome(t)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, float64(10), cfg.RateLimit)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "gopix", cfg.Logging.Fields["service"])
}

func TestLoadWithFile_FromYAML(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, `
api_url: https://studio.example.com/developer_api
app_key: file-app-key
username: reviewer
timeout: 45s
logging:
  level: debug
  format: console
`, 0o600)

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://studio.example.com/developer_api", cfg.APIURL)
	assert.Equal(t, "file-app-key", cfg.AppKey)
	assert.Equal(t, "reviewer", cfg.Username)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, zapcore.DebugLevel, cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, `
api_url: https://file.example.com
app_key: file-app-key
`, 0o600)

	t.Setenv("PIX_API_URL", "https://env.example.com")
	t.Setenv("PIX_PASSWORD", "env-secret")
	t.Setenv("PIX_RATE_LIMIT", "2.5")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, "file-app-key", cfg.AppKey, "file values survive when env does not override")
	assert.Equal(t, "env-secret", cfg.Password)
	assert.Equal(t, 2.5, cfg.RateLimit)
}

func TestLoadWithFile_EnvLoggingSection(t *testing.T) {
	setupHome(t)
	t.Setenv("PIX_LOGGING_LEVEL", "warn")
	t.Setenv("PIX_LOGGING_FORMAT", "console")

	cfg, err := LoadWithFile("")
	require.NoError(t, err)

	assert.Equal(t, zapcore.WarnLevel, cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFile_RejectsWeakPermissions(t *testing.T) {
	home := setupHome(t)
	writeConfigFile(t, home, "api_url: https://studio.example.com\n", 0o644)

	_, err := LoadWithFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insecure config file permissions")
}

func TestLoadWithFile_RejectsPathOutsideAllowedDirs(t *testing.T) {
	home := setupHome(t)
	outside := filepath.Join(home, "elsewhere.yaml")
	require.NoError(t, os.WriteFile(outside, []byte("api_url: https://x.example.com\n"), 0o600))

	_, err := LoadWithFile(outside)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file must be in")
}

func TestLoadWithFile_InvalidURL(t *testing.T) {
	setupHome(t)
	t.Setenv("PIX_API_URL", "ftp://studio.example.com")

	_, err := LoadWithFile("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheme must be http or https")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{APIURL: "https://studio.example.com"}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"empty url ok at load time", func(c *Config) { c.APIURL = "" }, ""},
		{"url without host", func(c *Config) { c.APIURL = "https://" }, "no host"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be > 0"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate_limit must be > 0"},
		{"zero burst", func(c *Config) { c.RateBurst = 0 }, "rate_burst must be >= 1"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries must be >= 0"},
		{"bad logging", func(c *Config) { c.Logging.Format = "xml" }, "logging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransformEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PIX_API_URL", "api_url"},
		{"PIX_APP_KEY", "app_key"},
		{"PIX_USERNAME", "username"},
		{"PIX_PASSWORD", "password"},
		{"PIX_MAX_RETRIES", "max_retries"},
		{"PIX_LOGGING_LEVEL", "logging.level"},
		{"PIX_LOGGING_FORMAT", "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, transformEnvKey(tt.in))
		})
	}
}
