package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "OBS_PORT",
		"AUTH_JWT_SECRET", "AUTH_API_KEYS",
		"DB_PATH",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_SESSION", "KAFKA_TOPIC_AUDIT",
		"IVR_ROOT_MENU", "IVR_MAX_MENU_DEPTH", "IVR_FALLBACK_MAILBOX",
		"LOG_LEVEL", "LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Service.Principal != "svc-ivr-attendant" {
		t.Errorf("expected default principal 'svc-ivr-attendant', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default HTTP port '8080', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Service.ObsPort != "9090" {
		t.Errorf("expected default obs port '9090', got %s", cfg.Service.ObsPort)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.TopicSession != "ivr.session.events" {
		t.Errorf("expected default session topic, got %s", cfg.Kafka.TopicSession)
	}
	if cfg.Kafka.TopicAudit != "ivr.audit.events" {
		t.Errorf("expected default audit topic, got %s", cfg.Kafka.TopicAudit)
	}

	if cfg.IVR.RootMenu != "main" {
		t.Errorf("expected default root menu 'main', got %s", cfg.IVR.RootMenu)
	}
	if cfg.IVR.MaxMenuDepth != 8 {
		t.Errorf("expected default max menu depth 8, got %d", cfg.IVR.MaxMenuDepth)
	}
	if cfg.IVR.FallbackMailbox != "operator" {
		t.Errorf("expected default fallback mailbox 'operator', got %s", cfg.IVR.FallbackMailbox)
	}

	if cfg.DB.Path != "ivr-attendant.db" {
		t.Errorf("expected default db path, got %s", cfg.DB.Path)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.LogFormat != "json" {
		t.Errorf("expected default log format 'json', got %s", cfg.Observability.LogFormat)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_API_KEYS", "key-a, key-b")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("IVR_MAX_MENU_DEPTH", "3")
	t.Setenv("IVR_FALLBACK_MAILBOX", "front-desk")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("expected jwt secret, got %s", cfg.Auth.JWTSecret)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "key-a" || cfg.Auth.APIKeys[1] != "key-b" {
		t.Errorf("expected trimmed api keys, got %v", cfg.Auth.APIKeys)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("expected 2 brokers, got %v", cfg.Kafka.Brokers)
	}
	if cfg.IVR.MaxMenuDepth != 3 {
		t.Errorf("expected max menu depth 3, got %d", cfg.IVR.MaxMenuDepth)
	}
	if cfg.IVR.FallbackMailbox != "front-desk" {
		t.Errorf("expected 'front-desk', got %s", cfg.IVR.FallbackMailbox)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("IVR_MAX_MENU_DEPTH", "not-a-number")
	t.Setenv("KAFKA_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.IVR.MaxMenuDepth != 8 {
		t.Errorf("expected default 8 for invalid int, got %d", cfg.IVR.MaxMenuDepth)
	}
	if cfg.Kafka.Enabled {
		t.Error("expected default false for invalid bool")
	}
}
