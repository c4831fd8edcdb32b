package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// Backend settings
	BackendURL      string
	RequestTimeout  time.Duration
	SummaryInterval time.Duration

	// Local state
	DBPath       string
	FeedsCSVPath string

	// Server settings
	ServerHost      string
	ServerPort      int
	CacheSize       int
	CacheTTL        time.Duration
	DefaultPageSize int
	SessionCapacity int
	SecureCookies   bool

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns a configuration built from the LAUNE_* environment,
// falling back to hardcoded defaults.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		BackendURL:      GetEnvString(Env("BACKEND_URL"), DefaultBackendURL),
		RequestTimeout:  GetEnvDuration(Env("REQUEST_TIMEOUT"), DefaultRequestTimeout*time.Second),
		SummaryInterval: GetEnvDuration(Env("SUMMARY_INTERVAL"), DefaultSummaryInterval*time.Second),
		DBPath:          GetEnvString(Env("DB_PATH"), DefaultDBPath),
		FeedsCSVPath:    GetEnvString(Env("CSV_PATH"), DefaultFeedsCSVPath),
		ServerHost:      GetEnvString(Env("HOST"), DefaultServerHost),
		ServerPort:      GetEnvInt(Env("PORT"), DefaultServerPort),
		CacheSize:       GetEnvInt(Env("CACHE_SIZE"), DefaultCacheSize),
		CacheTTL:        GetEnvDuration(Env("CACHE_TTL"), DefaultCacheTTL*time.Second),
		DefaultPageSize: GetEnvInt(Env("PAGE_SIZE"), DefaultPageSize),
		SessionCapacity: GetEnvInt(Env("SESSION_CAPACITY"), DefaultSessionCapacity),
		SecureCookies:   GetEnvBool(Env("SECURE_COOKIES"), false),
		LogLevel:        GetEnvLogLevel(Env("LOG_LEVEL"), logLevel),
	}
}

// Env returns the full environment variable name for key.
func Env(key string) string {
	return EnvPrefix + key
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Validate checks settings that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend URL must not be empty")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d", c.ServerPort)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	if c.SessionCapacity <= 0 {
		return fmt.Errorf("session capacity must be positive, got %d", c.SessionCapacity)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
