package events

import (
	"context"
	"testing"

	"ivr-attendant-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
		{"nil config", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerSession != nil {
				t.Error("expected nil session writer when disabled")
			}
			if p.writerAudit != nil {
				t.Error("expected nil audit writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicSession: "test.session",
		TopicAudit:   "test.audit",
		Principal:    "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicSession != "test.session" {
		t.Errorf("expected session topic 'test.session', got %s", p.topicSession)
	}
	if p.topicAudit != "test.audit" {
		t.Errorf("expected audit topic 'test.audit', got %s", p.topicAudit)
	}
}

func TestPublisher_PublishSession_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	ev := models.SessionEvent{EventType: models.EventSessionStarted, SessionID: "s-1", CallID: "c-1"}
	if err := p.PublishSession(context.Background(), "c-1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishAudit_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	ev := models.AuditEvent{EventType: models.AuditConfigError, Code: "missing_target"}
	if err := p.PublishAudit(context.Background(), "c-1", ev); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Channels are not marshalable
	event := make(chan int)
	if err := p.PublishSession(context.Background(), "key", event); err == nil {
		t.Error("expected error for unmarshalable session event")
	}
	if err := p.PublishAudit(context.Background(), "key", event); err == nil {
		t.Error("expected error for unmarshalable audit event")
	}
}

func TestPublisher_Close_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})
	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}
