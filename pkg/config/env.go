package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvTimeZone  = "TIME_ZONE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultCheckInTime  = "DEFAULT_CHECK_IN_TIME"
	EnvDefaultCheckOutTime = "DEFAULT_CHECK_OUT_TIME"
	EnvDefaultCleaningFee  = "DEFAULT_CLEANING_FEE"
	EnvGuestsPerRoom       = "GUESTS_PER_ROOM"
	EnvMaxStayDays         = "MAX_STAY_DAYS"

	EnvPropertyServiceURL     = "PROPERTY_SERVICE_URL"
	EnvPropertyServiceTimeout = "PROPERTY_SERVICE_TIMEOUT"
	EnvPropertyCacheTTL       = "PROPERTY_CACHE_TTL"
	EnvPropertyCacheSize      = "PROPERTY_CACHE_SIZE"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvBookingLockTTL  = "BOOKING_LOCK_TTL"
	EnvBookingLockWait = "BOOKING_LOCK_WAIT"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
)
