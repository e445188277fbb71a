package main

import (
	"roombook/internal/auth"
	"roombook/internal/bookings/events"
	bookingshandler "roombook/internal/bookings/handler"
	bookingsrepository "roombook/internal/bookings/repository"
	bookingsservice "roombook/internal/bookings/service"
	bookingsvalidator "roombook/internal/bookings/validator"
	"roombook/internal/health"
	"roombook/internal/rooms/cache"
	roomshandler "roombook/internal/rooms/handler"
	roomsrepository "roombook/internal/rooms/repository"
	roomsservice "roombook/internal/rooms/service"
	roomsvalidator "roombook/internal/rooms/validator"
	usershandler "roombook/internal/users/handler"
	usersrepository "roombook/internal/users/repository"
	usersservice "roombook/internal/users/service"
	usersvalidator "roombook/internal/users/validator"
	"roombook/pkg/app"
	"roombook/pkg/config"
	"roombook/pkg/contracts"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/kafka"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "roombook"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Roombook service")
	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg, serverApp)
	handlers := initHandlers(cfg, publisher)

	healthHandler := health.NewHandler(cfg.Log,
		health.MongoCheck(cfg.Client.Mongo),
		health.RedisCheck(cfg.Client.Redis),
	)
	serverApp.SetApp(healthHandler, handlers...)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	if !cfg.EventsEnabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events are disabled")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Log, cfg.KafkaBookingsTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if cfg.Kafka.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Booking events enabled", "topic", cfg.KafkaBookingsTopic)
	return events.NewKafkaPublisher(producer)
}

func initHandlers(cfg *config.Config, publisher events.Publisher) []contracts.Handler {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	guard := auth.NewGuard(tokens, cfg.Log)

	var txManager mongotx.TransactionManager
	if cfg.MongoUseTransactions {
		txManager = mongotx.NewTransactionManager(cfg.Client.Mongo)
	} else {
		cfg.Log.Warn("Mongo transactions disabled, booking writes are not atomic")
		txManager = mongotx.NewDirectTransactionManager()
	}

	userService := usersservice.NewUserService(
		usersrepository.NewMongoUserRepository(cfg),
		usersvalidator.NewUserValidator(cfg.Log),
		auth.NewPasswordHasher(cfg.BcryptCost),
		tokens,
		cfg,
	)

	roomRepo := roomsrepository.NewMongoRoomRepository(cfg)
	availability := cache.NewRedisAvailabilityCache(cfg.Client.Redis, cfg.AvailabilityCacheTTL)
	roomService := roomsservice.NewRoomService(roomRepo, availability, roomsvalidator.NewRoomValidator(), cfg)

	bookingService := bookingsservice.NewBookingService(
		bookingsrepository.NewMongoBookingRepository(cfg),
		roomRepo,
		availability,
		publisher,
		txManager,
		bookingsvalidator.NewBookingValidator(),
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		usershandler.NewUserHandler(userService, cfg.Log),
		roomshandler.NewRoomHandler(roomService, guard, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, guard, cfg.Log),
	}
}
