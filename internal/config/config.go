package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// Upstream base URLs, overridable for tests.
	CarbonBaseURL string
	CovidBaseURL  string

	// HTTPTimeout bounds every outbound upstream call.
	HTTPTimeout time.Duration

	// ProbeInterval controls how often upstream availability is checked.
	ProbeInterval time.Duration

	// MaxConcurrentDays caps in-flight day fetches per correlation request.
	MaxConcurrentDays int

	// MaxRangeDays caps the length of a requested date range.
	MaxRangeDays int

	// StatusMaxHistory caps retained probe results per upstream.
	StatusMaxHistory int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", "0.0.0.0:4000")
	cfg.CarbonBaseURL = getenvDefault("CARBON_API_URL", "https://api.carbonintensity.org.uk")
	cfg.CovidBaseURL = getenvDefault("COVID_API_URL", "https://api.coronavirus.data.gov.uk")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Probe interval: default 15 minutes.
	intervalStr := getenvDefault("PROBE_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PROBE_INTERVAL: %w", err)
	}
	cfg.ProbeInterval = interval

	cfg.MaxConcurrentDays = getenvInt("MAX_CONCURRENT_DAYS", 4)
	cfg.MaxRangeDays = getenvInt("MAX_RANGE_DAYS", 366)
	cfg.StatusMaxHistory = getenvInt("STATUS_MAX_HISTORY", 96) // roughly 24h at 15-minute probes

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
