package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultMongoURI             = "mongodb://localhost:27017"
	DefaultMongoDatabaseName    = "roombook"
	DefaultMongoConnTimeout     = 10 * time.Second
	DefaultMongoUseTransactions = true

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisDB       = 0
	DefaultRedisPoolSize = 10

	DefaultAvailabilityCacheTTL   = 3600 * time.Second
	DefaultCacheStrict            = false
	DefaultCacheInvalidateOnWrite = true

	DefaultTokenTTL   = time.Hour
	DefaultBcryptCost = bcrypt.DefaultCost
	MinJWTSecretLen   = 16

	DefaultPort     = "5000"
	DefaultLogLevel = "info"
	DefaultEnvFile  = ".env"

	DefaultRateLimitRPS   = 20.0
	DefaultRateLimitBurst = 40

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaBookingsTopic = "roombook.bookings"
)
