package config

import "time"

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"

	DefaultStorageBackend    = StorageMongo
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "pgstay"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPublicRateLimitRequests = 5
	DefaultPublicRateLimitWindow   = 10 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultJWTIssuer  = "pgstay"
	DefaultTokenTTL   = 12 * time.Hour
	DefaultBcryptCost = 10
	MinJWTSecretLen   = 32

	DefaultPhoneRegion             = "IN"
	DefaultDefaultNoticePeriodDays = 30

	DefaultEventsEnabled       = false
	DefaultKafkaEventsTopic    = "pgstay.events"
	DefaultKafkaEventsDLQTopic = "pgstay.events.dlq"

	DefaultPaginationLimit = 100
)
