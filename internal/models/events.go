// Package models defines the event payloads the service publishes and records.
package models

// Session event types.
const (
	EventSessionStarted = "ivr.session.started"
	EventMenuEntered    = "ivr.menu.entered"
	EventDigitAccepted  = "ivr.digit.accepted"
	EventDigitInvalid   = "ivr.digit.invalid"
	EventInputTimeout   = "ivr.input.timeout"
	EventSessionEnded   = "ivr.session.ended"
)

// Audit event types.
const (
	AuditConfigError         = "ivr.config.error"
	AuditRetryExhausted      = "ivr.retry.exhausted"
	AuditCollaboratorFailure = "ivr.collaborator.failure"
	AuditVoicemailFailure    = "ivr.voicemail.failure"
	AuditMenuSaved           = "menu.saved"
	AuditMenuDeleted         = "menu.deleted"
)

// SessionEvent is published for every notable step of a call's IVR handling.
type SessionEvent struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	CallID     string `json:"callId"`
	TenantID   string `json:"tenantId"`
	MenuID     string `json:"menuId,omitempty"`
	Digit      string `json:"digit,omitempty"`
	Action     string `json:"action,omitempty"`
	Target     string `json:"target,omitempty"`
	Outcome    string `json:"outcome,omitempty"`
	RetryCount int    `json:"retryCount,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// AuditEvent records an operator-visible error or administrative change. It is
// persisted for the dashboard audit-log screen and published to the audit topic.
type AuditEvent struct {
	ID        string `json:"id"`
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId,omitempty"`
	CallID    string `json:"callId,omitempty"`
	TenantID  string `json:"tenantId,omitempty"`
	MenuID    string `json:"menuId,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	Code      string `json:"code,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
