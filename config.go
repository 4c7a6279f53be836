package clipfetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the externally supplied process configuration.
type Config struct {
	BotToken      string
	CacheDir      string
	StatsDBPath   string
	YTDLPPath     string
	EngineTimeout time.Duration
	EngineRetries int
	SessionTTL    time.Duration
}

// LoadConfig reads configuration from the environment (and a .env file if
// present), validates it, and creates the cache directory if absent.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:      os.Getenv("BOT_TOKEN"),
		CacheDir:      getEnv("DOWNLOAD_DIR", defaultCacheDir()),
		StatsDBPath:   getEnv("STATS_DB_PATH", defaultStatsPath()),
		YTDLPPath:     getEnv("YTDLP_PATH", "yt-dlp"),
		EngineTimeout: getEnvDuration("ENGINE_TIMEOUT", 5*time.Minute),
		EngineRetries: getEnvInt("ENGINE_RETRIES", 3),
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*time.Minute),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.EngineRetries < 1 {
		return fmt.Errorf("ENGINE_RETRIES must be at least 1")
	}
	return nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clipfetch/cache"
	}
	return filepath.Join(home, ".clipfetch", "cache")
}

func defaultStatsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clipfetch/stats.sqlite3"
	}
	return filepath.Join(home, ".clipfetch", "stats.sqlite3")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
