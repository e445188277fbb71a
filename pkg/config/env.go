package config

const (
	EnvMongoURI             = "MONGO_URI"
	EnvMongoDatabaseName    = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout     = "MONGO_CONN_TIMEOUT"
	EnvMongoUseTransactions = "MONGO_USE_TRANSACTIONS"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRedisPoolSize = "REDIS_POOL_SIZE"

	EnvAvailabilityCacheTTL   = "AVAILABILITY_CACHE_TTL"
	EnvCacheStrict            = "CACHE_STRICT"
	EnvCacheInvalidateOnWrite = "CACHE_INVALIDATE_ON_WRITE"

	EnvJWTSecret  = "JWT_SECRET"
	EnvTokenTTL   = "TOKEN_TTL"
	EnvBcryptCost = "BCRYPT_COST"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
	EnvEnvFile   = "ENV_FILE"

	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaBookingsTopic = "KAFKA_BOOKINGS_TOPIC"
	EnvKafkaDLQTopic      = "KAFKA_DLQ_TOPIC"
)
