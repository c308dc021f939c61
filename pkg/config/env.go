package config

const (
	EnvFile = "ENV_FILE"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvStoreDriver = "STORE_DRIVER"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPostgresURL = "POSTGRES_URL"

	EnvEventsDriver       = "EVENTS_DRIVER"
	EnvHoldEventsTopic    = "HOLD_EVENTS_TOPIC"
	EnvHoldEventsDLQTopic = "HOLD_EVENTS_DLQ_TOPIC"
	EnvRabbitMQURL        = "RABBITMQ_URL"
	EnvRabbitMQExchange   = "RABBITMQ_EXCHANGE"

	EnvHoldDefaultDurationHours     = "HOLD_DEFAULT_DURATION_HOURS"
	EnvHoldDefaultMaxExtends        = "HOLD_DEFAULT_MAX_EXTENDS"
	EnvHoldDefaultExtendBeforeHours = "HOLD_DEFAULT_EXTEND_BEFORE_HOURS"
	EnvHoldMaxCustomDurationHours   = "HOLD_MAX_CUSTOM_DURATION_HOURS"

	EnvHoldSweepEnabled   = "HOLD_SWEEP_ENABLED"
	EnvHoldSweepInterval  = "HOLD_SWEEP_INTERVAL"
	EnvHoldSweepBatchSize = "HOLD_SWEEP_BATCH_SIZE"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
