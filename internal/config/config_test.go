package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/carbclarity/internal/logger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "TELEGRAM_BOT_TOKEN", "DB_DRIVER", "SQLITE_PATH", "LOCALE",
		"TIMEZONE", "WEEK_START", "LOOKUP_RATE_PER_MINUTE", "LOG_LEVEL", "LOG_FORMAT",
		"LOG_OUTPUT", "REDIS_HOST", "SYNC_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, 30, cfg.LookupRatePerMinute)
	assert.Equal(t, logger.LevelInfo, cfg.Logger.Level)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadFileOverlay(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "carbclarity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  sqlite_path: /tmp/carbs.db
locale: de
week_start: sunday
lookup_rate_per_minute: 5
log:
  level: debug
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOCALE", "fr")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/carbs.db", cfg.DB.SQLitePath)
	assert.Equal(t, "fr", cfg.Locale, "environment wins over the file")
	assert.Equal(t, 5, cfg.LookupRatePerMinute)
	assert.Equal(t, logger.LevelDebug, cfg.Logger.Level)

	wd, err := cfg.FirstWeekday()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)
}

func TestLoadRejectsBadRate(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOKUP_RATE_PER_MINUTE", "many")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := &Config{
		DB:                  DBConfig{Driver: "mysql"},
		Locale:              "not a locale!",
		Timezone:            "Mars/Olympus",
		WeekStart:           "someday",
		LookupRatePerMinute: 0,
		Logger:              LoggerConfig{Format: "xml"},
	}

	err := cfg.Validate(true)
	require.Error(t, err)
	for _, want := range []string{"TELEGRAM_BOT_TOKEN", "DB_DRIVER", "TIMEZONE", "LOCALE", "WEEK_START", "LOOKUP_RATE_PER_MINUTE", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateMemoryDriver(t *testing.T) {
	cfg := &Config{
		DB:                  DBConfig{Driver: DriverMemory},
		Locale:              "de-DE",
		Timezone:            "UTC",
		WeekStart:           "Monday",
		LookupRatePerMinute: 10,
		Logger:              LoggerConfig{Format: "text"},
	}

	require.NoError(t, cfg.Validate(false))

	tag, err := cfg.LanguageTag()
	require.NoError(t, err)
	base, _ := tag.Base()
	assert.Equal(t, "de", base.String())
}
