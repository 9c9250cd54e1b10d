// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Record store backends
const (
	RecordStoreMongo  = "mongo"
	RecordStoreSQLite = "sqlite"
	RecordStoreMemory = "memory"
)

// Event bus backends
const (
	EventBusMemory = "memory"
	EventBusNATS   = "nats"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	APIKeys      []string

	// Oracle
	StalenessWindow time.Duration

	// Record store
	RecordStore string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// SQLite
	SQLitePath string

	// Postgres (subscriptions)
	PostgresDSN string

	// Event bus
	EventBus          string
	NATSURL           string
	NATSSubjectPrefix string

	// ClickHouse (event archive)
	ClickHouseAddr     string
	ClickHouseDB       string
	ClickHouseUser     string
	ClickHousePassword string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,
		APIKeys:      getEnvAsList("API_KEYS"),

		StalenessWindow: time.Duration(getEnvAsInt("STALENESS_DAYS", 30)) * 24 * time.Hour,

		RecordStore: strings.ToLower(getEnv("RECORD_STORE", RecordStoreMemory)),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "flightstatus"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		SQLitePath: getEnv("SQLITE_PATH", "flightstatus.db"),

		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		EventBus:          strings.ToLower(getEnv("EVENT_BUS", EventBusMemory)),
		NATSURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "flightstatus"),

		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:       getEnv("CLICKHOUSE_DB", "default"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.RecordStore {
	case RecordStoreMongo, RecordStoreSQLite, RecordStoreMemory:
	default:
		return fmt.Errorf("unknown RECORD_STORE %q", c.RecordStore)
	}
	switch c.EventBus {
	case EventBusMemory, EventBusNATS:
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.EventBus)
	}
	if c.StalenessWindow <= 0 {
		return fmt.Errorf("STALENESS_DAYS must be positive")
	}
	return nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
