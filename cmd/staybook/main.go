package main

import (
	bookingsevents "staybook/internal/bookings/events"
	bookingshandler "staybook/internal/bookings/handler"
	bookingsrepo "staybook/internal/bookings/repository"
	bookingsservice "staybook/internal/bookings/service"
	bookingsvalidator "staybook/internal/bookings/validator"
	rentalshandler "staybook/internal/rentals/handler"
	rentalsrepo "staybook/internal/rentals/repository"
	rentalsservice "staybook/internal/rentals/service"
	rentalsvalidator "staybook/internal/rentals/validator"
	"staybook/pkg/app"
	"staybook/pkg/cache"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/model"
)

const ServiceName = "staybook"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting staybook service")

	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)

	rentalHandler, bookingHandler := initHandlers(cfg, publisher)
	serverApp.SetApp(rentalHandler, bookingHandler)
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher bookingsevents.Publisher) (*rentalshandler.RentalHandler, *bookingshandler.BookingHandler) {
	propertyCache := cache.New[*model.Property](cache.Config{
		Prefix:  "staybook:property:",
		TTL:     cfg.PropertyCacheTTL,
		MaxSize: int64(cfg.PropertyCacheSize),
	}, cfg.Client.Redis, cfg.Log)
	propertyClient := client.NewPropertyClient(cfg.PropertyServiceURL, cfg.PropertyServiceTimeout, propertyCache, cfg.Log)

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewBookingLockRepository(cfg)
	rentalRepo := rentalsrepo.NewMongoRentalRepository(cfg)

	rentalService := rentalsservice.NewRentalService(
		rentalRepo,
		bookingRepo,
		propertyClient,
		rentalsvalidator.NewRentalValidator(cfg.Log),
		cfg.ListingDefaults(),
		cfg,
	)

	locker := bookingsservice.NewListingLocker(lockRepo, cfg.BookingLockTTL, cfg.BookingLockWait, cfg.Log)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		rentalService,
		locker,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)
	availabilityService := bookingsservice.NewAvailabilityService(bookingRepo, rentalService, cfg)
	calendarService := bookingsservice.NewCalendarService(bookingRepo, rentalService, cfg)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return rentalshandler.NewRentalHandler(rentalService, calendarService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, availabilityService, cfg.Log)
}

// initPublisher returns a Kafka-backed publisher when Kafka is enabled. The
// producer is closed after the HTTP server drains.
func initPublisher(cfg *config.Config, serverApp *app.Application) bookingsevents.Publisher {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, booking events are not published")
		return bookingsevents.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown("kafka-producer", producer.Close)

	cfg.Log.Info("Kafka producer initialized",
		"brokers", kafkaCfg.Brokers,
		"topic", cfg.BookingEventsTopic,
	)
	return bookingsevents.NewKafkaPublisher(producer, cfg.Log)
}
