package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "token")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REPORT_TIME", "")
	t.Setenv("DWELL_THRESHOLD", "")
	t.Setenv("CLOCK_REFRESH", "")
	t.Setenv("SEED_DEFAULT_CATEGORIES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "timetracker.db", cfg.DatabaseURL)
	assert.Equal(t, "21:00", cfg.ReportTime)
	assert.Equal(t, 500*time.Millisecond, cfg.DwellThreshold)
	assert.Equal(t, time.Minute, cfg.ClockRefresh)
	assert.True(t, cfg.SeedDefaultCategories)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", " token ")
	t.Setenv("DATABASE_URL", "data/grid.db")
	t.Setenv("REPORT_TIME", "07:30")
	t.Setenv("DWELL_THRESHOLD", "750ms")
	t.Setenv("CLOCK_REFRESH", "garbage")
	t.Setenv("SEED_DEFAULT_CATEGORIES", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, "data/grid.db", cfg.DatabaseURL)
	assert.Equal(t, "07:30", cfg.ReportTime)
	assert.Equal(t, 750*time.Millisecond, cfg.DwellThreshold)
	assert.Equal(t, time.Minute, cfg.ClockRefresh)
	assert.False(t, cfg.SeedDefaultCategories)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}
