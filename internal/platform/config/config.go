package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

// ProgressConfig tunes the continue-watching reconciler.
type ProgressConfig struct {
	MaxEntries          int
	ThrottleInterval    time.Duration
	CompletionThreshold float64
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	LogFormat   string
	HTTP        HTTPConfig

	// DatabaseURL is the remote progress/watchlist store DSN. Empty means
	// the in-memory development backend.
	DatabaseURL string
	// CacheDir is the local BadgerDB mirror directory. Empty means the
	// in-memory development backend.
	CacheDir string

	AuthSecret  string
	EmbedSecret string
	EmbedTTL    time.Duration

	Progress ProgressConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: envStr("SERVICE_NAME", "streamfront"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogFormat:   envStr("LOG_FORMAT", "json"),
		HTTP: HTTPConfig{
			Addr: envStr("HTTP_ADDR", ":8080"),
		},
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CacheDir:    strings.TrimSpace(os.Getenv("CACHE_DIR")),
		AuthSecret:  strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		EmbedSecret: strings.TrimSpace(os.Getenv("EMBED_SECRET")),
		EmbedTTL:    envDuration("EMBED_TTL", 15*time.Minute),
		Progress: ProgressConfig{
			MaxEntries:          envInt("PROGRESS_MAX_ENTRIES", 15),
			ThrottleInterval:    envDuration("PROGRESS_THROTTLE_INTERVAL", 10*time.Second),
			CompletionThreshold: envFloat("PROGRESS_COMPLETION_THRESHOLD", 0.95),
		},
	}
	if cfg.AuthSecret == "" {
		return AppConfig{}, errors.New("AUTH_SECRET is required")
	}
	if cfg.EmbedSecret == "" {
		cfg.EmbedSecret = cfg.AuthSecret
	}
	return cfg, nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || f > 1 {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
