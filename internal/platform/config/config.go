package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	TrustProxy    bool
	JWTSigningKey string
	SessionTTL    time.Duration

	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
	OAuth    OAuth
}

// Redis holds connection settings for the session store and response cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres holds the course data store connection string. Empty means the
// in-memory store is used instead.
type Postgres struct {
	URL string
}

// Kafka holds the audit event pipeline settings. Empty brokers disable the
// Kafka publisher and audit events stay in the in-process store.
type Kafka struct {
	Brokers []string
	Topic   string
}

// OAuth holds the upstream identity provider settings for the
// authorization-code login flow.
type OAuth struct {
	ClientID         string
	ClientSecret     string
	AuthorizationURL string
	TokenURL         string
	UserInfoURL      string
	CallbackURL      string
	Scope            []string
}

// ResponseCacheTTL bounds how long assembled analytics responses may be served
// from Redis before recomputation.
var ResponseCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VISMOOC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	sessionTTL := 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sessionTTL = d
		}
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "vismooc.audit"
	}

	scope := []string{"profile", "email"}
	if raw := os.Getenv("OAUTH_SCOPE"); raw != "" {
		scope = strings.Fields(raw)
	}

	return Server{
		Addr:          addr,
		TrustProxy:    os.Getenv("TRUST_PROXY") == "true",
		JWTSigningKey: jwtSigningKey,
		SessionTTL:    sessionTTL,
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: Postgres{URL: os.Getenv("POSTGRES_URL")},
		Kafka:    Kafka{Brokers: brokers, Topic: topic},
		OAuth: OAuth{
			ClientID:         os.Getenv("OAUTH_CLIENT_ID"),
			ClientSecret:     os.Getenv("OAUTH_CLIENT_SECRET"),
			AuthorizationURL: os.Getenv("OAUTH_AUTHORIZATION_URL"),
			TokenURL:         os.Getenv("OAUTH_TOKEN_URL"),
			UserInfoURL:      os.Getenv("OAUTH_USERINFO_URL"),
			CallbackURL:      os.Getenv("OAUTH_CALLBACK_URL"),
			Scope:            scope,
		},
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
