package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	platformstrings "bloodbridge/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr     string
	Env      string
	ClientID string

	// RemoteBaseURL is the remote document API; HealthURL is probed for connectivity.
	RemoteBaseURL string
	RemoteTimeout time.Duration
	HealthURL     string
	ProbeInterval time.Duration

	// DatabaseURL selects the PostgreSQL local store; empty keeps it in memory.
	DatabaseURL string

	CacheTTL      time.Duration
	SchemaVersion int
	RulesPath     string

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig enables the shared cache backend and the cross-process drain lease.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the sync event sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (s Server) IsProduction() bool {
	return s.Env == "production"
}

// LoadDotEnv reads .env files into the environment. Missing files are ignored
// and variables already set win.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          getenv("BLOODBRIDGE_ADDR", ":8080"),
		Env:           getenv("APP_ENV", "development"),
		ClientID:      getenv("BLOODBRIDGE_CLIENT_ID", hostname()),
		RemoteBaseURL: getenv("REMOTE_BASE_URL", "http://localhost:9000"),
		RemoteTimeout: durationEnv("REMOTE_TIMEOUT", 10*time.Second),
		HealthURL:     getenv("REMOTE_HEALTH_URL", ""),
		ProbeInterval: durationEnv("CONNECTIVITY_PROBE_INTERVAL", 15*time.Second),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CacheTTL:      durationEnv("CACHE_TTL", 24*time.Hour),
		SchemaVersion: intEnv("CACHE_SCHEMA_VERSION", 1),
		RulesPath:     os.Getenv("INTERCEPTOR_RULES_PATH"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: listEnv("KAFKA_BROKERS"),
			Topic:   getenv("KAFKA_SYNC_TOPIC", "bloodbridge.sync-events"),
		},
	}
}

// HealthEndpoint falls back to the remote base URL when no probe URL is set.
func (s Server) HealthEndpoint() string {
	if s.HealthURL != "" {
		return s.HealthURL
	}
	return strings.TrimRight(s.RemoteBaseURL, "/") + "/healthz"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func intEnv(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func durationEnv(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func listEnv(k string) []string {
	raw := os.Getenv(k)
	if raw == "" {
		return nil
	}
	return platformstrings.DedupeAndTrim(strings.Split(raw, ","))
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "bloodbridge"
	}
	return h
}
