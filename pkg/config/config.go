package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"time"

	"brokerage/pkg/client"
	kafka_config "brokerage/pkg/kafka/config"
	"brokerage/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	StoreDriver string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	PostgresURL string

	EventsDriver       string
	HoldEventsTopic    string
	HoldEventsDLQTopic string
	RabbitMQURL        string
	RabbitMQExchange   string
	Kafka              *kafka_config.Config

	HoldDurationHours          int
	HoldMaxExtends             int
	HoldExtendBeforeHours      int
	HoldMaxCustomDurationHours int

	HoldSweepEnabled   bool
	HoldSweepInterval  time.Duration
	HoldSweepBatchSize int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration for serviceName and exits the process when it is invalid.
func Load(serviceName string) *Config {
	cfg, err := Parse(serviceName)
	if err != nil {
		if cfg != nil && cfg.Log != nil {
			cfg.Log.Fatal(err.Error())
		}
		logger.New(logger.Config{Service: serviceName}).Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Parse loads an optional env file, reads the environment and validates the result.
func Parse(serviceName string) (*Config, error) {
	envFile := getEnvStr(EnvFile, DefaultEnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		StoreDriver: getEnvStr(EnvStoreDriver, DefaultStoreDriver),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		PostgresURL: getEnvStr(EnvPostgresURL, DefaultPostgresURL),

		EventsDriver:       getEnvStr(EnvEventsDriver, DefaultEventsDriver),
		HoldEventsTopic:    getEnvStr(EnvHoldEventsTopic, DefaultHoldEventsTopic),
		HoldEventsDLQTopic: getEnvStr(EnvHoldEventsDLQTopic, DefaultHoldEventsDLQTopic),
		RabbitMQURL:        getEnvStr(EnvRabbitMQURL, DefaultRabbitMQURL),
		RabbitMQExchange:   getEnvStr(EnvRabbitMQExchange, DefaultRabbitMQExchange),

		HoldDurationHours:          getEnvNum(EnvHoldDefaultDurationHours, DefaultHoldDurationHours),
		HoldMaxExtends:             getEnvNum(EnvHoldDefaultMaxExtends, DefaultHoldMaxExtends),
		HoldExtendBeforeHours:      getEnvNum(EnvHoldDefaultExtendBeforeHours, DefaultHoldExtendBeforeHours),
		HoldMaxCustomDurationHours: getEnvNum(EnvHoldMaxCustomDurationHours, DefaultHoldMaxCustomDurationHr),

		HoldSweepEnabled:   getEnvBool(EnvHoldSweepEnabled, DefaultHoldSweepEnabled),
		HoldSweepInterval:  getEnvDuration(EnvHoldSweepInterval, DefaultHoldSweepInterval),
		HoldSweepBatchSize: getEnvNum(EnvHoldSweepBatchSize, DefaultHoldSweepBatchSize),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Client: client.NewClient(),
	}

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: cfg.LogFormat == logger.JSON,
		Service:   serviceName,
	})

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	if cfg.EventsDriver == EventsDriverKafka {
		kafkaCfg, err := kafka_config.Load()
		if err != nil {
			return cfg, err
		}
		cfg.Kafka = kafkaCfg
	}

	return cfg, nil
}

// SetStore connects the client for the configured store driver.
func (cfg *Config) SetStore() {
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		cfg.Client.SetPostgres(cfg.Log, cfg.PostgresURL, cfg.MongoConnTimeout)
	default:
		cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.LogFormat {
	case logger.JSON, logger.TEXT, logger.TINT:
	default:
		errors = append(errors, fmt.Sprintf("LogFormat must be one of [json, text, tint], got: %s", cfg.LogFormat))
	}

	switch cfg.StoreDriver {
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	case StoreDriverPostgres:
		if !regexp.MustCompile(`^postgres(ql)?://`).MatchString(cfg.PostgresURL) {
			errors = append(errors, "PostgresURL must start with 'postgres://' or 'postgresql://'")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreDriver must be one of [mongo, postgres], got: %s", cfg.StoreDriver))
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	switch cfg.EventsDriver {
	case EventsDriverNone:
	case EventsDriverKafka:
		if cfg.HoldEventsTopic == "" {
			errors = append(errors, "HoldEventsTopic cannot be empty when EventsDriver is kafka")
		}
	case EventsDriverRabbitMQ:
		if !regexp.MustCompile(`^amqps?://`).MatchString(cfg.RabbitMQURL) {
			errors = append(errors, "RabbitMQURL must start with 'amqp://' or 'amqps://'")
		}
		if cfg.RabbitMQExchange == "" {
			errors = append(errors, "RabbitMQExchange cannot be empty when EventsDriver is rabbitmq")
		}
	default:
		errors = append(errors, fmt.Sprintf("EventsDriver must be one of [none, kafka, rabbitmq], got: %s", cfg.EventsDriver))
	}

	if cfg.HoldDurationHours <= 0 {
		errors = append(errors, fmt.Sprintf("HoldDurationHours must be positive, got: %d", cfg.HoldDurationHours))
	}
	if cfg.HoldMaxExtends < 0 {
		errors = append(errors, fmt.Sprintf("HoldMaxExtends cannot be negative, got: %d", cfg.HoldMaxExtends))
	}
	if cfg.HoldExtendBeforeHours < 0 {
		errors = append(errors, fmt.Sprintf("HoldExtendBeforeHours cannot be negative, got: %d", cfg.HoldExtendBeforeHours))
	}
	if cfg.HoldMaxCustomDurationHours < cfg.HoldDurationHours {
		errors = append(errors, fmt.Sprintf("HoldMaxCustomDurationHours (%d) must be >= HoldDurationHours (%d)", cfg.HoldMaxCustomDurationHours, cfg.HoldDurationHours))
	}

	if cfg.HoldSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval must be positive, got: %s", cfg.HoldSweepInterval))
	}
	if cfg.HoldSweepBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepBatchSize must be positive, got: %d", cfg.HoldSweepBatchSize))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
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
		"store_driver", cfg.StoreDriver,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"postgres_url", redactPostgresURL(cfg.PostgresURL),
		"events_driver", cfg.EventsDriver,
		"hold_events_topic", cfg.HoldEventsTopic,
		"rabbitmq_exchange", cfg.RabbitMQExchange,
		"port", cfg.Port,
		"log_format", cfg.LogFormat,
		"hold_duration_hours", cfg.HoldDurationHours,
		"hold_max_extends", cfg.HoldMaxExtends,
		"hold_extend_before_hours", cfg.HoldExtendBeforeHours,
		"hold_max_custom_duration_hours", cfg.HoldMaxCustomDurationHours,
		"hold_sweep_enabled", cfg.HoldSweepEnabled,
		"hold_sweep_interval", cfg.HoldSweepInterval,
		"hold_sweep_batch_size", cfg.HoldSweepBatchSize,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
	if cfg.Kafka != nil {
		cfg.Kafka.LogConfiguration(cfg.Log.Info)
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func redactPostgresURL(url string) string {
	credentialRegex := regexp.MustCompile(`(postgres(ql)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(url, "${1}***:***@")
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
	cfg.Client.GracefulShutdown()
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
