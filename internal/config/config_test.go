package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/some/path"},
		Server:  ServerConfig{Port: "8000"},
		Auth: AuthConfig{
			TokenPolicy:        "reuse",
			TokenDuration:      720 * time.Hour,
			LoginRatePerMinute: 20,
			LoginRateBurst:     10,
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }, "invalid environment"},
		{"environment is case sensitive", func(c *Config) { c.App.Environment = "DEVELOPMENT" }, "invalid environment"},
		{"unknown log level", func(c *Config) { c.Logger.Level = "verbose" }, "invalid log level"},
		{"empty data path", func(c *Config) { c.Storage.DataPath = "" }, "data path"},
		{"non-numeric port", func(c *Config) { c.Server.Port = "http" }, "invalid server port"},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }, "invalid server port"},
		{"unknown token policy", func(c *Config) { c.Auth.TokenPolicy = "forever" }, "invalid token policy"},
		{"zero token duration", func(c *Config) { c.Auth.TokenDuration = 0 }, "token duration"},
		{"zero login rate", func(c *Config) { c.Auth.LoginRatePerMinute = 0 }, "login rate"},
		{"negative burst", func(c *Config) { c.Auth.LoginRateBurst = -1 }, "login rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_LogLevelsAreCaseInsensitive(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "Warn", "error"} {
		cfg := validConfig()
		cfg.Logger.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "DATA_PATH", "SERVER_PORT", "AUTH_TOKEN_POLICY",
		"AUTH_TOKEN_DURATION", "LOGIN_RATE_PER_MINUTE", "LOGIN_RATE_BURST", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load(Overrides{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, filepath.Join(home, "Recipebox", "data"), cfg.Storage.DataPath)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, ":8000", cfg.Server.Addr())
	assert.Equal(t, "reuse", cfg.Auth.TokenPolicy)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, 20, cfg.Auth.LoginRatePerMinute)
	assert.Equal(t, 10, cfg.Auth.LoginRateBurst)
	assert.Empty(t, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_Precedence(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := "SERVER_PORT=9100\nAUTH_TOKEN_POLICY=rotate\nLOG_LEVEL=warn\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("SERVER_PORT", "")
	t.Setenv("AUTH_TOKEN_POLICY", "")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com,")

	cfg, err := Load(Overrides{
		EnvFile:  envFile,
		Port:     "9200",
		DataPath: filepath.Join(tmpDir, "data"),
	})
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port, "flag beats .env")
	assert.Equal(t, "rotate", cfg.Auth.TokenPolicy, ".env beats default")
	assert.Equal(t, "debug", cfg.Logger.Level, "environment beats .env")
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, filepath.Join(tmpDir, "data", "recipebox.db"), cfg.Storage.DatabasePath())
	assert.Equal(t, filepath.Join(tmpDir, "data", "media"), cfg.Storage.MediaRoot())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		val    string
		errMsg string
	}{
		{"bad duration", "AUTH_TOKEN_DURATION", "forever", "AUTH_TOKEN_DURATION"},
		{"bad rate", "LOGIN_RATE_PER_MINUTE", "lots", "LOGIN_RATE_PER_MINUTE"},
		{"bad policy", "AUTH_TOKEN_POLICY", "sometimes", "invalid token policy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(Overrides{
				EnvFile:  filepath.Join(t.TempDir(), "missing.env"),
				DataPath: t.TempDir(),
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/recipes", "/default")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "recipes"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("relative/path", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Contains(t, got, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "env-value")

	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))
	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")

	content := `# Test env file
RB_TEST_PLAIN=staging

RB_TEST_QUOTED="some value"
  RB_TEST_SPACED  =  padded
RB_TEST_KEEP=from-file
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("RB_TEST_PLAIN", "")
	t.Setenv("RB_TEST_QUOTED", "")
	t.Setenv("RB_TEST_SPACED", "")
	t.Setenv("RB_TEST_KEEP", "original")

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("RB_TEST_PLAIN"))
	assert.Equal(t, "some value", os.Getenv("RB_TEST_QUOTED"))
	assert.Equal(t, "padded", os.Getenv("RB_TEST_SPACED"))
	assert.Equal(t, "original", os.Getenv("RB_TEST_KEEP"), "existing env vars win")
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("VALID=1\nINVALID LINE\n"), 0o644))

	err := loadEnvFile(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format at line 2")
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.ErrorIs(t, loadEnvFile("/nonexistent/file/.env"), os.ErrNotExist)
}
