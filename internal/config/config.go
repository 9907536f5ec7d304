package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the grid bot.
//
// DwellThreshold drives the timed long press of GridSession.Press. The
// Telegram front end has no press-and-hold and starts ranges with Hold, so
// it only matters to front ends that report raw presses.
type Config struct {
	TelegramToken         string
	DatabaseURL           string
	ReportTime            string
	DwellThreshold        time.Duration
	ClockRefresh          time.Duration
	SeedDefaultCategories bool
}

// Load reads configuration from environment variables (and an optional .env file) with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:         strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ReportTime:            strings.TrimSpace(os.Getenv("REPORT_TIME")),
		DwellThreshold:        parseDuration(strings.TrimSpace(os.Getenv("DWELL_THRESHOLD"))),
		ClockRefresh:          parseDuration(strings.TrimSpace(os.Getenv("CLOCK_REFRESH"))),
		SeedDefaultCategories: parseBool(strings.TrimSpace(os.Getenv("SEED_DEFAULT_CATEGORIES")), true),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "timetracker.db"
	}

	if cfg.ReportTime == "" {
		cfg.ReportTime = "21:00"
	}

	if cfg.DwellThreshold == 0 {
		cfg.DwellThreshold = 500 * time.Millisecond
	}

	if cfg.ClockRefresh == 0 {
		cfg.ClockRefresh = time.Minute
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
