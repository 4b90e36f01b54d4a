package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"staybook/pkg/client"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/joho/godotenv"
)

var (
	timeOfDayRegex  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	mongoURIRegex   = regexp.MustCompile(`^mongodb(\+srv)?://`)
	credentialRegex = regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port      string
	LogLevel  string
	LogFormat string

	TimeZone string
	Location *time.Location

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	DefaultCheckInTime  string
	DefaultCheckOutTime string
	DefaultCleaningFee  string
	GuestsPerRoom       int
	MaxStayDays         int

	PropertyServiceURL     string
	PropertyServiceTimeout time.Duration
	PropertyCacheTTL       time.Duration
	PropertyCacheSize      int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BookingLockTTL  time.Duration
	BookingLockWait time.Duration

	KafkaEnabled       bool
	BookingEventsTopic string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),
		TimeZone:  getEnvStr(EnvTimeZone, DefaultTimeZone),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		DefaultCheckInTime:  getEnvStr(EnvDefaultCheckInTime, DefaultCheckInTime),
		DefaultCheckOutTime: getEnvStr(EnvDefaultCheckOutTime, DefaultCheckOutTime),
		DefaultCleaningFee:  getEnvStr(EnvDefaultCleaningFee, DefaultCleaningFee),
		GuestsPerRoom:       getEnvNum(EnvGuestsPerRoom, DefaultGuestsPerRoom),
		MaxStayDays:         getEnvNum(EnvMaxStayDays, DefaultMaxStayDays),

		PropertyServiceURL:     getEnvStr(EnvPropertyServiceURL, DefaultPropertyServiceURL),
		PropertyServiceTimeout: getEnvDuration(EnvPropertyServiceTimeout, DefaultPropertyServiceTimeout),
		PropertyCacheTTL:       getEnvDuration(EnvPropertyCacheTTL, DefaultPropertyCacheTTL),
		PropertyCacheSize:      getEnvNum(EnvPropertyCacheSize, DefaultPropertyCacheSize),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		BookingLockTTL:  getEnvDuration(EnvBookingLockTTL, DefaultBookingLockTTL),
		BookingLockWait: getEnvDuration(EnvBookingLockWait, DefaultBookingLockWait),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, false),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),

		Client: client.NewClient(),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the shared cache when REDIS_ADDR is configured.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis address not configured, property cache stays in-process")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.LogFormat {
	case logger.JSON, logger.TEXT, logger.PRETTY:
	default:
		errors = append(errors, fmt.Sprintf("LogFormat must be one of [json, text, pretty], got: %s", cfg.LogFormat))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if !timeOfDayRegex.MatchString(cfg.DefaultCheckInTime) {
		errors = append(errors, fmt.Sprintf("DefaultCheckInTime must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultCheckInTime))
	}
	if !timeOfDayRegex.MatchString(cfg.DefaultCheckOutTime) {
		errors = append(errors, fmt.Sprintf("DefaultCheckOutTime must be in HH:MM format (00:00-23:59), got: %s", cfg.DefaultCheckOutTime))
	}
	if fee, err := model.ParseMoney(cfg.DefaultCleaningFee); err != nil || fee < 0 {
		errors = append(errors, fmt.Sprintf("DefaultCleaningFee must be a non-negative amount, got: %s", cfg.DefaultCleaningFee))
	}
	if cfg.GuestsPerRoom <= 0 {
		errors = append(errors, fmt.Sprintf("GuestsPerRoom must be positive, got: %d", cfg.GuestsPerRoom))
	}
	if cfg.MaxStayDays <= 0 {
		errors = append(errors, fmt.Sprintf("MaxStayDays must be positive, got: %d", cfg.MaxStayDays))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !mongoURIRegex.MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.PropertyServiceURL == "" {
		errors = append(errors, "PropertyServiceURL cannot be empty")
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"PropertyServiceTimeout", cfg.PropertyServiceTimeout},
		{"PropertyCacheTTL", cfg.PropertyCacheTTL},
		{"BookingLockTTL", cfg.BookingLockTTL},
		{"BookingLockWait", cfg.BookingLockWait},
	}
	for _, d := range durations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	// A lock must outlive the request holding it, or a second writer can take
	// it over mid-transaction.
	if cfg.BookingLockTTL <= cfg.WriteTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL (%s) must exceed WriteTimeout (%s)", cfg.BookingLockTTL, cfg.WriteTimeout))
	}
	if cfg.BookingLockTTL <= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("BookingLockTTL (%s) must exceed RequestTimeout (%s)", cfg.BookingLockTTL, cfg.RequestTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.PropertyCacheSize <= 0 {
		errors = append(errors, fmt.Sprintf("PropertyCacheSize must be positive, got: %d", cfg.PropertyCacheSize))
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}
	if cfg.KafkaEnabled && cfg.BookingEventsTopic == "" {
		errors = append(errors, "BookingEventsTopic cannot be empty when Kafka is enabled")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"time_zone", cfg.TimeZone,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"default_check_in_time", cfg.DefaultCheckInTime,
		"default_check_out_time", cfg.DefaultCheckOutTime,
		"default_cleaning_fee", cfg.DefaultCleaningFee,
		"guests_per_room", cfg.GuestsPerRoom,
		"max_stay_days", cfg.MaxStayDays,
		"property_service_url", cfg.PropertyServiceURL,
		"property_service_timeout", cfg.PropertyServiceTimeout,
		"property_cache_ttl", cfg.PropertyCacheTTL,
		"property_cache_size", cfg.PropertyCacheSize,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"booking_lock_ttl", cfg.BookingLockTTL,
		"booking_lock_wait", cfg.BookingLockWait,
		"kafka_enabled", cfg.KafkaEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
	)
}

// ListingDefaults returns the values applied to listings that do not set
// them. Validate has already checked the cleaning fee parses.
func (cfg *Config) ListingDefaults() model.ListingDefaults {
	fee, _ := model.ParseMoney(cfg.DefaultCleaningFee)
	return model.ListingDefaults{
		CheckInTime:   cfg.DefaultCheckInTime,
		CheckOutTime:  cfg.DefaultCheckOutTime,
		CleaningFee:   fee,
		GuestsPerRoom: cfg.GuestsPerRoom,
	}
}

// Today is the current calendar day in the configured time zone.
func (cfg *Config) Today() model.Date {
	return model.Today(cfg.Location)
}

func redactMongoURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
