package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP      HTTPConfig
	Store     StoreConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Gateway   GatewayConfig
	Staleness StalenessConfig
}

type HTTPConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Backend       string // postgres | mongo | memory
	PostgresHost  string
	PostgresPort  int
	PostgresUser  string
	PostgresPass  string
	PostgresDB    string
	MigrationsDir string
	MongoURI      string
	MongoDB       string
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers string // comma separated; empty disables event publishing
}

type GatewayConfig struct {
	BaseURL         string // empty selects the stub gateway
	KeyID           string
	KeySecret       string
	Timeout         time.Duration
	VerificationTTL time.Duration
}

type StalenessConfig struct {
	PreparingAfter time.Duration
	PollInterval   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	pgPort, err := strconv.Atoi(getEnv("POSTGRES_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: StoreConfig{
			Backend:       getEnv("STORE_BACKEND", "memory"),
			PostgresHost:  getEnv("POSTGRES_HOST", "localhost"),
			PostgresPort:  pgPort,
			PostgresUser:  getEnv("POSTGRES_USER", "postgres"),
			PostgresPass:  getEnv("POSTGRES_PASSWORD", "postgres"),
			PostgresDB:    getEnv("POSTGRES_DB", "naticoco"),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:       getEnv("MONGO_DB", "Naticoco"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", ""),
		},
		Gateway: GatewayConfig{
			BaseURL:         getEnv("GATEWAY_BASE_URL", ""),
			KeyID:           getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:       getEnv("RAZORPAY_KEY_SECRET", ""),
			Timeout:         getDuration("GATEWAY_TIMEOUT", 5*time.Second),
			VerificationTTL: getDuration("VERIFICATION_TTL", 30*time.Minute),
		},
		Staleness: StalenessConfig{
			PreparingAfter: getDuration("STALE_PREPARING_AFTER", 45*time.Minute),
			PollInterval:   getDuration("STALE_POLL_INTERVAL", time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	switch c.Store.Backend {
	case "postgres", "mongo", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be postgres, mongo or memory, got %q", c.Store.Backend)
	}
	if c.Gateway.BaseURL != "" && (c.Gateway.KeyID == "" || c.Gateway.KeySecret == "") {
		return fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required with GATEWAY_BASE_URL")
	}
	if c.Gateway.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required to verify payment signatures")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
