package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the wiki mirror.
type Config struct {
	ServerPort      int
	LogLevel        string
	Environment     string
	SentryDSN       string
	DBPath          string
	UpstreamBaseURL string
	RawBaseURL      string
	UpstreamTimeout time.Duration
	RateLimitGrace  time.Duration
	SitemapBaseURL  string
	SidebarEnabled  bool
	ShutdownGrace   time.Duration
	RateLimit       RateLimitConfig
}

// RateLimitConfig bounds how fast a single client may hit the mirror.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	defaultServerPort      = 8080
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultDBPath          = "./data/wikisee.db"
	defaultUpstreamBaseURL = "https://github.com"
	defaultRawBaseURL      = "https://raw.githubusercontent.com"
	defaultUpstreamTimeout = 20 * time.Second
	defaultRateLimitGrace  = 10 * time.Second
	defaultSitemapBaseURL  = "https://nelsonjchen.github.io/github-wiki-see-rs-sitemaps"
	defaultShutdownGrace   = 10 * time.Second
	defaultRateLimitRPS    = 5.0
	defaultRateLimitBurst  = 10
	defaultClientTTL       = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnv("LOG_LEVEL", defaultLogLevel),
		Environment:     getEnv("ENV", defaultEnvironment),
		SentryDSN:       os.Getenv("SENTRY_DSN"),
		DBPath:          getEnv("DB_PATH", defaultDBPath),
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", defaultUpstreamBaseURL),
		RawBaseURL:      getEnv("RAW_BASE_URL", defaultRawBaseURL),
		SitemapBaseURL:  getEnv("SITEMAP_BASE_URL", defaultSitemapBaseURL),
		ShutdownGrace:   defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", defaultUpstreamTimeout); err != nil {
		return nil, err
	}
	if cfg.RateLimitGrace, err = getDuration("RATE_LIMIT_GRACE", defaultRateLimitGrace); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = getDuration("RATE_LIMIT_CLIENT_TTL", defaultClientTTL); err != nil {
		return nil, err
	}

	sidebarValue := getEnv("SIDEBAR_ENABLED", "true")
	if cfg.SidebarEnabled, err = strconv.ParseBool(sidebarValue); err != nil {
		return nil, eris.Wrapf(err, "invalid SIDEBAR_ENABLED value: %s", sidebarValue)
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateLimitRPS, 'f', -1, 64))
	if cfg.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(rpsValue, 64); err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	if cfg.RateLimit.Burst, err = strconv.Atoi(burstValue); err != nil {
		return nil, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", burstValue)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	if value <= 0 {
		return 0, eris.Errorf("invalid %s value: %s must be positive", key, raw)
	}
	return value, nil
}
