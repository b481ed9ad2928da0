package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// GuestAccountTTL expires guest identities that never registered
	GuestAccountTTL time.Duration

	// RoomTTL is a safety net on room documents; every save refreshes it,
	// so only rooms the sweeper never touched again can expire this way
	RoomTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		PoolSize:        10,
		MinIdleConns:    2,
		GuestAccountTTL: 24 * time.Hour,
		RoomTTL:         7 * 24 * time.Hour,
	}
}
