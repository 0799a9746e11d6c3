package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends selectable with STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	AdminPrincipals string
	JWTSigningKey   string
	JWTIssuer       string
	StorageBackend  string
	Postgres        PostgresConfig
	Redis           RedisConfig
	Kafka           KafkaConfig
	Trips           TripPolicy
	ShutdownTimeout time.Duration
}

// PostgresConfig configures the database/sql pool.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the go-redis client.
type RedisConfig struct {
	URL          string
	KeyPrefix    string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit relay. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	FlushInterval time.Duration
	BufferSize    int
}

// TripPolicy toggles the optional coordinator guards.
type TripPolicy struct {
	ValidateAssignments bool
	ForwardOnlyStatus   bool
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            getEnv("MEDTRANSIT_ADDR", ":8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AdminPrincipals: os.Getenv("ADMIN_PRINCIPALS"),
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       getEnv("JWT_ISSUER", "medtransit"),
		StorageBackend:  strings.ToLower(getEnv("STORAGE_BACKEND", BackendMemory)),
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "medtransit:"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic:    getEnv("KAFKA_AUDIT_TOPIC", "medtransit.audit"),
			FlushInterval: getDuration("KAFKA_FLUSH_INTERVAL", time.Second),
			BufferSize:    getInt("KAFKA_BUFFER_SIZE", 10000),
		},
		Trips: TripPolicy{
			ValidateAssignments: os.Getenv("TRIP_VALIDATE_ASSIGNMENTS") == "true",
			ForwardOnlyStatus:   os.Getenv("TRIP_FORWARD_ONLY_STATUS") == "true",
		},
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
