package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/cinehub/backoffice/internal/upload"
)

// Config is read from defaults, then an optional TOML file, then the
// environment (a .env file in the working directory is loaded first).
type Config struct {
	Port                  int      `toml:"port"`
	DataPath              string   `toml:"data_path"`
	DBPath                string   `toml:"db_path"`
	UploadPath            string   `toml:"upload_path"`
	JWTSecret             string   `toml:"jwt_secret"`
	AdminUsername         string   `toml:"admin_username"`
	AdminPassword         string   `toml:"admin_password"`
	CORSOrigins           []string `toml:"cors_origins"`
	MaxMovieSize          int64    `toml:"max_movie_size"`
	TranslationDelayMS    int      `toml:"translation_delay_ms"`
	TranslationEngine     string   `toml:"translation_engine"`
	SessionIdleMinutes    int      `toml:"session_idle_minutes"`
	ActivityRetentionDays int      `toml:"activity_retention_days"`
	LoginRateLimit        int      `toml:"login_rate_limit"`
}

// Default returns the built-in configuration. Paths derived from DataPath
// are filled in by Load.
func Default() Config {
	return Config{
		Port:                  8080,
		DataPath:              "/data",
		AdminUsername:         "admin",
		AdminPassword:         "admin",
		CORSOrigins:           []string{"*"},
		MaxMovieSize:          upload.MaxMovieSize,
		TranslationDelayMS:    2000,
		TranslationEngine:     "mock",
		SessionIdleMinutes:    120,
		ActivityRetentionDays: 90,
		LoginRateLimit:        10,
	}
}

// Load builds the configuration. path may be empty, in which case
// CONFIG_FILE is consulted; a missing file named by CONFIG_FILE is an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[config] ignoring .env: %v", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataPath, "backoffice.db")
	}
	if cfg.UploadPath == "" {
		cfg.UploadPath = filepath.Join(cfg.DataPath, "uploads")
	}

	// JWT secret: require explicit setting or generate random
	if cfg.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var err error
	if c.Port, err = getEnvInt("PORT", c.Port); err != nil {
		return err
	}
	c.DataPath = getEnv("DATA_PATH", c.DataPath)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.UploadPath = getEnv("UPLOAD_PATH", c.UploadPath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.AdminUsername = getEnv("ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.TranslationEngine = getEnv("TRANSLATION_ENGINE", c.TranslationEngine)

	// CORS origins: comma-separated list or "*"
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	if v := os.Getenv("MAX_MOVIE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_MOVIE_SIZE: %w", err)
		}
		c.MaxMovieSize = n
	}
	if c.TranslationDelayMS, err = getEnvInt("TRANSLATION_DELAY_MS", c.TranslationDelayMS); err != nil {
		return err
	}
	if c.SessionIdleMinutes, err = getEnvInt("SESSION_IDLE_MINUTES", c.SessionIdleMinutes); err != nil {
		return err
	}
	if c.ActivityRetentionDays, err = getEnvInt("ACTIVITY_RETENTION_DAYS", c.ActivityRetentionDays); err != nil {
		return err
	}
	if c.LoginRateLimit, err = getEnvInt("LOGIN_RATE_LIMIT", c.LoginRateLimit); err != nil {
		return err
	}
	return nil
}

// Validate checks ranges that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DataPath == "" {
		return errors.New("data_path is required")
	}
	if c.MaxMovieSize <= 0 {
		return errors.New("max_movie_size must be positive")
	}
	if c.TranslationDelayMS < 0 {
		return errors.New("translation_delay_ms must not be negative")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("login_rate_limit must be positive")
	}
	if c.AdminUsername == "" {
		return errors.New("admin_username is required")
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	return nil
}

func (c *Config) TranslationDelay() time.Duration {
	return time.Duration(c.TranslationDelayMS) * time.Millisecond
}

// SessionIdle is how long an unused workbench is kept. Zero disables reaping.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// ActivityRetention is how long activity entries are kept. Zero keeps them forever.
func (c *Config) ActivityRetention() time.Duration {
	return time.Duration(c.ActivityRetentionDays) * 24 * time.Hour
}

// TranslatorUploadPath holds movies uploaded through the translator panel.
func (c *Config) TranslatorUploadPath() string {
	return filepath.Join(c.UploadPath, "translator")
}

// MovieUploadPath holds files attached to catalogue movies.
func (c *Config) MovieUploadPath() string {
	return filepath.Join(c.UploadPath, "movies")
}

// LockPath is the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataPath, "backoffice.lock")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
