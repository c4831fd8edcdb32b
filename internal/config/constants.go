package config

// Constants defining default values for application configuration
const (
	DefaultBackendURL   = "http://localhost:3000/api"
	DefaultDBPath       = "./laune-state.db"
	DefaultFeedsCSVPath = "./feeds.csv"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultRequestTimeout  = 30 // Seconds per backend call
	DefaultSummaryInterval = 5  // Seconds between summary generation requests
	DefaultCacheSize       = 512
	DefaultCacheTTL        = 60 // Seconds a cached backend read stays fresh
	DefaultPageSize        = 50
	DefaultSessionCapacity = 1024
	DefaultDigestHours     = 24

	DefaultLogLevel = "info"

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "LAUNE_"
)
