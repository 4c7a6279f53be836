package clipfetch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DOWNLOAD_DIR", filepath.Join(t.TempDir(), "cache"))
	t.Setenv("STATS_DB_PATH", "")
	t.Setenv("YTDLP_PATH", "")
	t.Setenv("ENGINE_TIMEOUT", "")
	t.Setenv("ENGINE_RETRIES", "")
	t.Setenv("SESSION_TTL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal("token", cfg.BotToken)
	assert.Equal("yt-dlp", cfg.YTDLPPath)
	assert.Equal(5*time.Minute, cfg.EngineTimeout)
	assert.Equal(3, cfg.EngineRetries)
	assert.Equal(30*time.Minute, cfg.SessionTTL)
	assert.DirExists(cfg.CacheDir)
}

func TestLoadConfigOverrides(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DOWNLOAD_DIR", filepath.Join(t.TempDir(), "cache"))
	t.Setenv("STATS_DB_PATH", "/tmp/stats.sqlite3")
	t.Setenv("YTDLP_PATH", "/opt/bin/yt-dlp")
	t.Setenv("ENGINE_TIMEOUT", "90s")
	t.Setenv("ENGINE_RETRIES", "5")
	t.Setenv("SESSION_TTL", "10m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal("/tmp/stats.sqlite3", cfg.StatsDBPath)
	assert.Equal("/opt/bin/yt-dlp", cfg.YTDLPPath)
	assert.Equal(90*time.Second, cfg.EngineTimeout)
	assert.Equal(5, cfg.EngineRetries)
	assert.Equal(10*time.Minute, cfg.SessionTTL)
}

func TestLoadConfigRequiresToken(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("BOT_TOKEN", "")
	_, err := LoadConfig()
	assert.Error(err)
}

func TestLoadConfigIgnoresUnparseableValues(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DOWNLOAD_DIR", filepath.Join(t.TempDir(), "cache"))
	t.Setenv("ENGINE_TIMEOUT", "soon")
	t.Setenv("ENGINE_RETRIES", "many")
	t.Setenv("SESSION_TTL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(5*time.Minute, cfg.EngineTimeout)
	assert.Equal(3, cfg.EngineRetries)
}

func TestValidateRejectsBadRetries(t *testing.T) {
	assert := assert.New(t)

	cfg := &Config{BotToken: "token", EngineRetries: 0}
	assert.Error(cfg.Validate())

	cfg.EngineRetries = 1
	assert.NoError(cfg.Validate())
}
