package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSigningKey is the development fallback used when
// JWT_SIGNING_KEY is unset. It must never be used outside local setups.
const DefaultJWTSigningKey = "dev-secret-key-change-in-production"

// Server captures process-level configuration for the wallet service.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	Redis RedisConfig
	Kafka KafkaConfig

	// DenySuspicious turns the fraud assessment from advisory into a hard
	// deny on the exchange route. Off by default; the guard itself never
	// blocks on suspicion.
	DenySuspicious bool

	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis exchange-velocity index.
// An empty URL disables Redis; counting then falls back to the ledger.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit fan-out to Kafka.
// No brokers means audit entries are persisted to the store only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            envOr("NADA_WALLET_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("NADA_WALLET_DATABASE_URL"),
		JWTSigningKey:   envOr("JWT_SIGNING_KEY", DefaultJWTSigningKey),
		JWTIssuer:       envOr("JWT_ISSUER", "hempin"),
		JWTAudience:     envOr("JWT_AUDIENCE", "nada-wallet"),
		DenySuspicious:  os.Getenv("NADA_WALLET_DENY_SUSPICIOUS") == "true",
		ShutdownTimeout: 10 * time.Second,
	}

	cfg.Redis = RedisConfig{
		URL:          os.Getenv("NADA_WALLET_REDIS_URL"),
		PoolSize:     envIntOr("NADA_WALLET_REDIS_POOL_SIZE", 10),
		MinIdleConns: envIntOr("NADA_WALLET_REDIS_MIN_IDLE", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	if brokers := os.Getenv("NADA_WALLET_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka = KafkaConfig{
			Brokers: strings.Split(brokers, ","),
			Topic:   envOr("NADA_WALLET_KAFKA_AUDIT_TOPIC", "wallet.audit"),
		}
	}

	return cfg
}

// UsingDefaultJWTKey reports whether the service is running on the
// development signing key. Callers should log loudly when it is.
func (s Server) UsingDefaultJWTKey() bool {
	return s.JWTSigningKey == DefaultJWTSigningKey
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
