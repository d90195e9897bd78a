// Package config loads the process configuration once at start-up.
// The resulting Config is read-only and is handed to each service constructor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the service.
type Config struct {
	// Metadata provider
	TMDBBearerToken string `validate:"omitempty"`
	TMDBBaseURL     string `validate:"required,url"`
	ImageBaseURL    string `validate:"required,url"`
	Language        string `validate:"required"`
	ListingLanguage string `validate:"required"`
	WatchRegion     string `validate:"required,len=2,uppercase"`

	// Response cache
	CacheDir string        `validate:"required"`
	CacheTTL time.Duration `validate:"gt=0"`

	// HTTP server and outbound clients
	ListenAddr  string        `validate:"required"`
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Export pipeline
	RenderURL           string        `validate:"omitempty,url"`
	RenderTimeout       time.Duration `validate:"gt=0"`
	AppOrigin           string        `validate:"omitempty,url"`
	PosterBrowser       bool
	ExportDir           string        `validate:"required"`
	ExportRatePerMinute int           `validate:"gte=1"`
	DefaultReviewer     string        `validate:"required"`
	CardIdleTTL         time.Duration `validate:"gt=0"`

	// Logging
	LogFile       string
	LogMaxSizeMB  int `validate:"gte=1"`
	LogMaxBackups int `validate:"gte=0"`
	LogMaxAgeDays int `validate:"gte=0"`
}

// Default returns the configuration used when no environment overrides are present.
func Default() Config {
	return Config{
		TMDBBaseURL:         "https://api.themoviedb.org/3",
		ImageBaseURL:        "https://image.tmdb.org/t/p",
		Language:            "es-ES",
		ListingLanguage:     "en-US",
		WatchRegion:         "US",
		CacheDir:            "cache",
		CacheTTL:            time.Hour,
		ListenAddr:          ":8080",
		HTTPTimeout:         20 * time.Second,
		RenderTimeout:       15 * time.Second,
		ExportDir:           "exports",
		ExportRatePerMinute: 10,
		DefaultReviewer:     "Mi Review",
		CardIdleTTL:         30 * time.Minute,
		LogMaxSizeMB:        50,
		LogMaxBackups:       3,
		LogMaxAgeDays:       14,
	}
}

// Load reads an optional .env file, applies environment overrides on top of
// Default and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup, which keeps Load
// testable without touching the process environment.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	var errs []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = d
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*dst = b
	}

	str("TMDB_BEARER_TOKEN", &cfg.TMDBBearerToken)
	str("TMDB_BASE_URL", &cfg.TMDBBaseURL)
	str("TMDB_IMAGE_BASE_URL", &cfg.ImageBaseURL)
	str("TMDB_LANGUAGE", &cfg.Language)
	str("TMDB_LISTING_LANGUAGE", &cfg.ListingLanguage)
	str("TMDB_WATCH_REGION", &cfg.WatchRegion)
	str("CACHE_DIR", &cfg.CacheDir)
	dur("CACHE_TTL", &cfg.CacheTTL)
	str("LISTEN_ADDR", &cfg.ListenAddr)
	dur("HTTP_TIMEOUT", &cfg.HTTPTimeout)
	str("RENDER_URL", &cfg.RenderURL)
	dur("RENDER_TIMEOUT", &cfg.RenderTimeout)
	str("APP_ORIGIN", &cfg.AppOrigin)
	flag("POSTER_BROWSER", &cfg.PosterBrowser)
	str("EXPORT_DIR", &cfg.ExportDir)
	num("EXPORT_RATE_PER_MIN", &cfg.ExportRatePerMinute)
	str("DEFAULT_REVIEWER", &cfg.DefaultReviewer)
	dur("CARD_IDLE_TTL", &cfg.CardIdleTTL)
	str("LOG_FILE", &cfg.LogFile)
	num("LOG_MAX_SIZE_MB", &cfg.LogMaxSizeMB)
	num("LOG_MAX_BACKUPS", &cfg.LogMaxBackups)
	num("LOG_MAX_AGE_DAYS", &cfg.LogMaxAgeDays)

	if len(errs) > 0 {
		return nil, fmt.Errorf("config error: %s", strings.Join(errs, "; "))
	}

	cfg.WatchRegion = strings.ToUpper(cfg.WatchRegion)
	cfg.TMDBBaseURL = strings.TrimRight(cfg.TMDBBaseURL, "/")
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MetadataConfigured reports whether a provider token is available. Without
// one the metadata service answers with empty results.
func (c *Config) MetadataConfigured() bool {
	return strings.TrimSpace(c.TMDBBearerToken) != ""
}
