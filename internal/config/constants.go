package config

import "time"

// Live queue contract
const (
	// MaxQueueSize is the fixed capacity of every live session's queue.
	MaxQueueSize = 10

	// TurnTimeout is how long a notified applicant has to join before the
	// sweeper skips them. This is the number the UI advertises.
	TurnTimeout = 2 * time.Minute

	// Session duration bounds accepted by go-live.
	MinSessionDurationMinutes = 5
	MaxSessionDurationMinutes = 240
)

// Meetings
const (
	MeetingExpiry          = 24 * time.Hour
	MeetingDurationMinutes = 10
)

// Roast request limits
const (
	DailyRequestLimit = 3
	RejectionCooldown = 48 * time.Hour
)

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Default rate limiting for public API routes
const (
	DefaultRateLimitPerMin = 60
	RateLimitWindow        = time.Minute
)
