// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// ServiceConfig holds service identity and listener settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	ObsPort   string
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	JWTSecret string
	APIKeys   []string
}

// DBConfig holds SQLite settings.
type DBConfig struct {
	Path string
}

// KafkaConfig holds event publishing settings.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicSession string
	TopicAudit   string
}

// IVRConfig holds engine tunables.
type IVRConfig struct {
	RootMenu        string
	MaxMenuDepth    int
	FallbackMailbox string
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Auth          AuthConfig
	DB            DBConfig
	Kafka         KafkaConfig
	IVR           IVRConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment with defaults suitable for
// local development.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-ivr-attendant"),
			HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
			ObsPort:   envOrDefault("OBS_PORT", "9090"),
		},
		Auth: AuthConfig{
			JWTSecret: envOrDefault("AUTH_JWT_SECRET", ""),
			APIKeys:   envList("AUTH_API_KEYS", nil),
		},
		DB: DBConfig{
			Path: envOrDefault("DB_PATH", "ivr-attendant.db"),
		},
		Kafka: KafkaConfig{
			Enabled:      envBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS", nil),
			TopicSession: envOrDefault("KAFKA_TOPIC_SESSION", "ivr.session.events"),
			TopicAudit:   envOrDefault("KAFKA_TOPIC_AUDIT", "ivr.audit.events"),
		},
		IVR: IVRConfig{
			RootMenu:        envOrDefault("IVR_ROOT_MENU", "main"),
			MaxMenuDepth:    envInt("IVR_MAX_MENU_DEPTH", 8),
			FallbackMailbox: envOrDefault("IVR_FALLBACK_MAILBOX", "operator"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
