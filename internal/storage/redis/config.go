package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MatchTTL bounds how long an untouched match survives if the process
	// that owns it goes away without cleaning up
	MatchTTL time.Duration

	// MaxResults caps the recent results list
	MaxResults int64
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		MatchTTL:     6 * time.Hour,
		MaxResults:   500,
	}
}
