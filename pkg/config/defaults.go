package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultTimeZone  = "UTC"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultCheckInTime   = "15:00"
	DefaultCheckOutTime  = "11:00"
	DefaultCleaningFee   = "0.00"
	DefaultGuestsPerRoom = 2
	DefaultMaxStayDays   = 365

	DefaultPropertyServiceURL     = "http://localhost:8081"
	DefaultPropertyServiceTimeout = 5 * time.Second
	DefaultPropertyCacheTTL       = 5 * time.Minute
	DefaultPropertyCacheSize      = 1000

	DefaultRedisDB = 0

	DefaultBookingLockTTL  = 45 * time.Second
	DefaultBookingLockWait = 3 * time.Second

	DefaultBookingEventsTopic = "staybook.booking-events"
)
