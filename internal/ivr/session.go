package ivr

import (
	"sync"
	"time"

	"ivr-attendant-service/internal/menu"
)

// CallContext identifies the inbound call a session serves.
type CallContext struct {
	CallID       string `json:"callId"`
	TenantID     string `json:"tenantId"`
	CallerNumber string `json:"callerNumber,omitempty"`
}

// Session is the runtime state of one call inside the IVR. One call, one
// active menu, one pending timer. All fields are guarded by mu; the engine
// holds mu across an entire event (digit, timeout, hangup) so events on one
// session are strictly serialized.
type Session struct {
	mu sync.Mutex

	id   string
	call CallContext

	// Active menu snapshot. Copied at entry; concurrent edits never reach an
	// in-flight call.
	menu *menu.Definition

	state      State
	retryCount int
	depth      int // menus entered, root = 1
	lastDigit  string

	// collectGen invalidates stale timers: each collection window bumps it,
	// and a firing timer is ignored unless it carries the current value.
	collectGen uint64
	timer      *time.Timer

	startedAt time.Time
	endedAt   time.Time
	outcome   string
}

// Outcome values for ended sessions.
const (
	OutcomeTransfer  = "transfer"
	OutcomeVoicemail = "voicemail"
	OutcomeHangup    = "hangup"
	OutcomeAbandoned = "abandoned"
)

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Call returns the call context.
func (s *Session) Call() CallContext { return s.call }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// stopTimerLocked stops any pending collection timer. Caller holds mu.
// Together with the generation bump this guarantees a timer that already
// fired but lost the race is a no-op.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Snapshot is a read-only view of a session for the admin API.
type Snapshot struct {
	ID           string      `json:"id"`
	Call         CallContext `json:"call"`
	State        string      `json:"state"`
	ActiveMenuID string      `json:"activeMenuId"`
	RetryCount   int         `json:"retryCount"`
	Depth        int         `json:"depth"`
	LastDigit    string      `json:"lastDigit,omitempty"`
	StartedAt    time.Time   `json:"startedAt"`
	Outcome      string      `json:"outcome,omitempty"`
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.id,
		Call:       s.call,
		State:      s.state.String(),
		RetryCount: s.retryCount,
		Depth:      s.depth,
		LastDigit:  s.lastDigit,
		StartedAt:  s.startedAt,
		Outcome:    s.outcome,
	}
	if s.menu != nil {
		snap.ActiveMenuID = s.menu.ID
	}
	return snap
}
