// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for all major components including
// server settings, database connections, messaging, and scheduler parameters.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during
// application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Scheduler   SchedulerConfig
	WorkerPool  WorkerPoolConfig
	Ledger      LedgerConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka producer configuration. The engine only ever
// produces (posted-transaction events); it consumes nothing.
type KafkaConfig struct {
	Enabled                bool   // Publishing is optional; the ledger works without a broker
	Brokers                string
	PostedTransactionTopic string
	NumPartitions          int // Number of partitions for topic creation
	ReplicationFactor      int // Replication factor for topic creation
	MaxWait                time.Duration
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration for the entry archive
type MongoDBConfig struct {
	Enabled         bool // The archive is a read-side convenience, not a dependency
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// SchedulerConfig contains the in-process tick loop configuration for the
// depreciation and recurrence schedulers
type SchedulerConfig struct {
	Enabled      bool
	TickInterval time.Duration
}

// WorkerPoolConfig contains worker pool configuration for scheduler ticks
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// LedgerConfig contains computation engine tuning
type LedgerConfig struct {
	CacheEnabled bool // Balance memoization; correctness never depends on it
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config (only when publishing is enabled)
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
		}
		if c.Kafka.PostedTransactionTopic == "" {
			validationErrors = append(validationErrors, "KAFKA_POSTED_TRANSACTION_TOPIC is required")
		}
		if c.Kafka.MaxWait <= 0 {
			validationErrors = append(validationErrors, "KAFKA_PRODUCER_MAX_WAIT must be greater than 0")
		}
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config (only when the archive is enabled)
	if c.MongoDB.Enabled {
		if c.MongoDB.URI == "" {
			validationErrors = append(validationErrors, "MONGO_URI is required")
		}
		if c.MongoDB.Database == "" {
			validationErrors = append(validationErrors, "MONGO_DATABASE is required")
		}
		if c.MongoDB.Timeout <= 0 {
			validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
		}
		if c.MongoDB.MaxPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MinPoolSize <= 0 {
			validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
		}
		if c.MongoDB.MaxConnIdleTime <= 0 {
			validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
		}
	}

	// Validate Scheduler config
	if c.Scheduler.Enabled && c.Scheduler.TickInterval <= 0 {
		validationErrors = append(validationErrors, "SCHEDULER_TICK_INTERVAL must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
