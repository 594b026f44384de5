package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "PORT", "DATA_PATH", "DB_PATH", "UPLOAD_PATH", "JWT_SECRET",
	"ADMIN_USERNAME", "ADMIN_PASSWORD", "TRANSLATION_ENGINE", "CORS_ORIGINS",
	"MAX_MOVIE_SIZE", "TRANSLATION_DELAY_MS", "SESSION_IDLE_MINUTES",
	"ACTIVITY_RETENTION_DAYS", "LOGIN_RATE_LIMIT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backoffice.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATA_PATH", "/srv/cinehub")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/srv/cinehub/backoffice.db", cfg.DBPath)
	assert.Equal(t, "/srv/cinehub/uploads", cfg.UploadPath)
	assert.Equal(t, "/srv/cinehub/uploads/translator", cfg.TranslatorUploadPath())
	assert.Equal(t, "/srv/cinehub/uploads/movies", cfg.MovieUploadPath())
	assert.Equal(t, "/srv/cinehub/backoffice.lock", cfg.LockPath())
	assert.Equal(t, 2*time.Second, cfg.TranslationDelay())
	assert.Equal(t, 2*time.Hour, cfg.SessionIdle())
	assert.Equal(t, 90*24*time.Hour, cfg.ActivityRetention())
	assert.Equal(t, "mock", cfg.TranslationEngine)
	assert.Len(t, cfg.JWTSecret, 64, "random secret generated")
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port = 9000
data_path = "/var/lib/cinehub"
jwt_secret = "from-file"
cors_origins = ["https://admin.example.com"]
translation_delay_ms = 10
`)
	t.Setenv("PORT", "9100")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/var/lib/cinehub", cfg.DataPath)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Millisecond, cfg.TranslationDelay())
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, `admin_username = "root"`))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "root", cfg.AdminUsername)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load("")
	assert.Error(t, err)

	clearEnv(t)
	_, err = Load(writeFile(t, "port = \"eighty\""))
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PORT", "eighty")
	_, err = Load("")
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("MAX_MOVIE_SIZE", "huge")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":       func(c *Config) { c.Port = 70000 },
		"data path":  func(c *Config) { c.DataPath = "" },
		"movie size": func(c *Config) { c.MaxMovieSize = 0 },
		"delay":      func(c *Config) { c.TranslationDelayMS = -1 },
		"rate limit": func(c *Config) { c.LoginRateLimit = 0 },
		"admin":      func(c *Config) { c.AdminUsername = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.CORSOrigins = nil
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}
