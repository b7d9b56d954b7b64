package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/plant-moisture-dashboard/internal/dashboard"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants/sources"
)

type AppConfig struct {
	// BackendURL is the base the readings path is resolved against.
	BackendURL   string
	ReadingsPath string

	// PollInterval controls how often the dashboard refreshes.
	PollInterval time.Duration
	HTTPTimeout  time.Duration

	// FetchMaxRetries is the number of retries after a failed fetch (0 = none).
	FetchMaxRetries int

	DisplayLocale   string
	DisplayTimezone *time.Location

	LogLevel string
	Port     string
}

// Load reads configuration from the environment with sensible defaults.
// Any .env file must already have been loaded by the caller.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.BackendURL = getenvDefault("BACKEND_URL", "http://localhost:8080/")
	u, err := url.Parse(cfg.BackendURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("invalid BACKEND_URL %q: must be an absolute URL", cfg.BackendURL)
	}
	cfg.ReadingsPath = getenvDefault("READINGS_PATH", sources.DefaultReadingsPath)

	interval, err := time.ParseDuration(getenvDefault("POLL_INTERVAL", dashboard.DefaultInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: must be positive, got %s", interval)
	}
	cfg.PollInterval = interval

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if timeout < 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must not be negative, got %s", timeout)
	}
	cfg.HTTPTimeout = timeout

	retries, err := getenvInt("FETCH_MAX_RETRIES", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES: %w", err)
	}
	if retries < 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES: must not be negative, got %d", retries)
	}
	cfg.FetchMaxRetries = retries

	tz, err := time.LoadLocation(getenvDefault("DISPLAY_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	cfg.DisplayTimezone = tz

	cfg.DisplayLocale = getenvDefault("DISPLAY_LOCALE", plants.DefaultLocale)
	if _, err := plants.NewFormatter(cfg.DisplayLocale, tz); err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_LOCALE: %w", err)
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "3000")

	return cfg, nil
}

// Log writes the effective configuration at info level.
func (c *AppConfig) Log(logger zerolog.Logger) {
	logger.Info().
		Str("backend_url", c.BackendURL).
		Str("readings_path", c.ReadingsPath).
		Dur("poll_interval", c.PollInterval).
		Dur("http_timeout", c.HTTPTimeout).
		Int("fetch_max_retries", c.FetchMaxRetries).
		Str("display_locale", c.DisplayLocale).
		Str("display_timezone", c.DisplayTimezone.String()).
		Str("log_level", c.LogLevel).
		Str("port", c.Port).
		Msg("configuration loaded")
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	if v := os.Getenv(key); v != "" {
		return strconv.Atoi(v)
	}
	return def, nil
}
