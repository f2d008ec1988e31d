package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds configuration read once at process start: upstream API
// keys per adapter, persistence location/interval, cache TTL, upstream
// timeout, and the listen port.
type AppConfig struct {
	OpenWeatherAPIKey string
	WeatherAPIKey     string
	// GeocoderAPIKey configures github.com/kelvins/geocoder for the
	// optional city/country convenience path; geocoding falls back to the
	// library's default (keyless) behavior when empty.
	GeocoderAPIKey string

	// PersistenceLocation is the directory holding observations.json.
	// Load fails when it is empty while LocalPersistenceEnabled is true.
	PersistenceLocation string
	// LocalPersistenceEnabled gates whether the observation store is
	// restored at startup and persisted by the scheduler at all.
	LocalPersistenceEnabled bool

	// PersistInterval controls how often the observation store is
	// snapshotted to disk. Defaults to 30 minutes.
	PersistInterval time.Duration

	// CacheTTL is the composed-view cache lifetime. Defaults to 5 minutes.
	CacheTTL time.Duration

	// UpstreamTimeout bounds every forecast adapter HTTP call. Defaults to
	// 10 seconds.
	UpstreamTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	cfg.PersistenceLocation = os.Getenv("PERSISTENCE_LOCATION")
	cfg.LocalPersistenceEnabled = getenvBool("LOCAL_PERSISTENCE", false)
	if cfg.LocalPersistenceEnabled && cfg.PersistenceLocation == "" {
		return nil, fmt.Errorf("LOCAL_PERSISTENCE is enabled but PERSISTENCE_LOCATION is empty")
	}

	interval, err := getenvDuration("PERSIST_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PERSIST_INTERVAL: %w", err)
	}
	cfg.PersistInterval = interval

	ttl, err := getenvDuration("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	timeout, err := getenvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	cfg.UpstreamTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}
