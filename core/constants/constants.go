package constants

import "time"

// Context keys
const (
	ContextTokenData = "token_data"
	ContextRequestID = "request_id"
)

// Timeouts
const (
	DefaultTimeout      = 30 * time.Second
	ProviderCallTimeout = 10 * time.Second
	ShutdownTimeout     = 10 * time.Second
)

// Database
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 10
	DatabaseConnMaxLifetime = 30 // minutes
)

// Cache keys
const (
	CachePrefixHostPlan    = "host:plan:"
	CachePrefixBookingLock = "lock:booking:host:"
	CachePrefixRefreshLock = "lock:token:refresh:"
	HostPlanCacheTTL       = 5 * time.Minute
	RefreshLockTTL         = 20 * time.Second
	LockPollInterval       = 100 * time.Millisecond
	// BookingLockTTL covers a busy fetch, a token refresh, an event insert
	// and the reconcile checks run under the booking lock.
	BookingLockTTL = 60 * time.Second
)

// Booking
const (
	DefaultSlotDurationMinutes = 30
	MaxAvailableDatesWindow    = 62 * 24 * time.Hour
	TokenRefreshMargin         = 60 * time.Second
)
