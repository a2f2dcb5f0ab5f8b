package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fjod/go_cart/caja-service/internal/backend"
	"github.com/fjod/go_cart/caja-service/internal/publisher"
	"github.com/fjod/go_cart/caja-service/internal/session"
	"github.com/fjod/go_cart/caja-service/pkg/circuitbreaker"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Polling PollingConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Kafka   KafkaConfig
	Catalog CatalogConfig
	GRPC    GRPCConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string
	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
	Paths   backend.Paths
	Breaker circuitbreaker.Config
}

type PollingConfig struct {
	Interval time.Duration
}

// RedisConfig selects the session store. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

// MongoConfig selects the settlement journal. An empty URI keeps a bounded in-memory journal.
type MongoConfig struct {
	URI             string
	Database        string
	MemoryCapacity  int
	ConnectTimeout  time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// KafkaConfig enables purchase events when Brokers is set.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	RelayInterval time.Duration
}

// CatalogConfig loads products from SQLite when DBPath is set, otherwise the built-in list is used.
type CatalogConfig struct {
	DBPath         string
	MigrationsPath string
}

// GRPCConfig enables the health probe server when Port is set.
type GRPCConfig struct {
	Port          string
	CheckInterval time.Duration
}

type LogConfig struct {
	Format string
	Level  string
}

// Load reads the configuration from the environment. A .env file in the working directory is optional.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := backend.DefaultPaths()
	breaker := circuitbreaker.DefaultConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("HTTP_PORT", "8080"),
			RequestTimeout:  getEnvDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 45*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		},
		Backend: BackendConfig{
			URL:     getEnv("BACKEND_URL", "http://localhost:5001"),
			Timeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),
			Paths: backend.Paths{
				Recognition: getEnv("BACKEND_RECOGNITION_PATH", defaults.Recognition),
				Clients:     getEnv("BACKEND_CLIENTS_PATH", defaults.Clients),
				Ticket:      getEnv("BACKEND_TICKET_PATH", defaults.Ticket),
				Invoice:     getEnv("BACKEND_INVOICE_PATH", defaults.Invoice),
				BlankClient: getEnv("BACKEND_BLANK_CLIENT_PATH", defaults.BlankClient),
			},
			Breaker: circuitbreaker.Config{
				ConsecutiveFailures: uint32(getEnvInt("BACKEND_BREAKER_FAILURES", int(breaker.ConsecutiveFailures))),
				OpenTimeout:         getEnvDuration("BACKEND_BREAKER_OPEN_TIMEOUT", breaker.OpenTimeout),
				HalfOpenRequests:    uint32(getEnvInt("BACKEND_BREAKER_HALF_OPEN_REQUESTS", int(breaker.HalfOpenRequests))),
			},
		},
		Polling: PollingConfig{
			Interval: getEnvDuration("RECOGNITION_POLL_INTERVAL", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			SessionTTL: getEnvDuration("SESSION_TTL", session.DefaultTTL),
		},
		Mongo: MongoConfig{
			URI:             getEnv("MONGO_URI", ""),
			Database:        getEnv("MONGO_DB", "caja"),
			MemoryCapacity:  getEnvInt("JOURNAL_MEMORY_CAPACITY", 500),
			ConnectTimeout:  getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			MaxPoolSize:     uint64(getEnvInt("MONGO_MAX_POOL_SIZE", 50)),
			MinPoolSize:     uint64(getEnvInt("MONGO_MIN_POOL_SIZE", 5)),
			MaxConnIdleTime: getEnvDuration("MONGO_MAX_CONN_IDLE_TIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS"),
			Topic:         getEnv("KAFKA_TOPIC", publisher.DefaultTopic),
			RelayInterval: getEnvDuration("OUTBOX_RELAY_INTERVAL", publisher.DefaultRelayTick),
		},
		Catalog: CatalogConfig{
			DBPath:         getEnv("CATALOG_DB_PATH", ""),
			MigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "migrations/catalog"),
		},
		GRPC: GRPCConfig{
			Port:          getEnv("GRPC_HEALTH_PORT", ""),
			CheckInterval: getEnvDuration("GRPC_HEALTH_INTERVAL", 10*time.Second),
		},
		Log: LogConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.URL))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("BACKEND_TIMEOUT must be positive"))
	}
	if c.Polling.Interval <= 0 {
		errs = append(errs, errors.New("RECOGNITION_POLL_INTERVAL must be positive"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_REQUEST_TIMEOUT must be positive"))
	}
	if c.Server.WriteTimeout <= c.Backend.Timeout {
		errs = append(errs, errors.New("HTTP_WRITE_TIMEOUT must exceed BACKEND_TIMEOUT so checkout answers can be written"))
	}
	if c.Mongo.MemoryCapacity <= 0 {
		errs = append(errs, errors.New("JOURNAL_MEMORY_CAPACITY must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		fmt.Printf("Warning: invalid duration for %s, using default\n", key)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
