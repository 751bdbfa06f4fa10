package config

import (
	"os"
	"strconv"
	"time"

	"tessera/internal/cache"
	"tessera/internal/database"
	"tessera/internal/messaging"
	"tessera/internal/search"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// HoldTTL is the exclusive-lock lifetime granted to a new hold. An
	// unpaid order past this window is reclaimed by the sweeper.
	HoldTTL time.Duration

	// SweepInterval is how often the sweeper looks for expired holds.
	SweepInterval time.Duration

	// RefundRestock controls whether a refunded order returns its tickets
	// to the remaining pool. Business policy, deliberately configurable.
	RefundRestock bool

	Database      database.Config
	NATS          messaging.Config
	Redis         cache.Config
	Elasticsearch search.Config
}

// Load reads the configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		HoldTTL:       getEnvDuration("HOLD_TTL", 15*time.Minute),
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 60*time.Second),
		RefundRestock: getEnv("REFUND_RESTOCK", "false") == "true",

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "tessera"),
			Password:           getEnv("DB_PASSWORD", "tessera123"),
			DBName:             getEnv("DB_NAME", "tessera"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "tessera"),
			ClientID:  getEnv("NATS_CLIENT_ID", "tessera-api"),
		},

		Redis: cache.Config{
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			UsersHashKey: getEnv("REDIS_USERS_HASH_KEY", "users:auth"),
		},

		Elasticsearch: search.Config{
			URL:      getEnv("ELASTICSEARCH_URL", "http://localhost:9200"),
			Username: getEnv("ELASTICSEARCH_USERNAME", ""),
			Password: getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:    getEnv("ELASTICSEARCH_CONCERT_INDEX", "concerts"),
		},
	}
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration returns the duration value of an environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
