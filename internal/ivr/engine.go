package ivr

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ivr-attendant-service/internal/events"
	"ivr-attendant-service/internal/menu"
	"ivr-attendant-service/internal/models"
	"ivr-attendant-service/internal/observability/logging"
	"ivr-attendant-service/internal/observability/metrics"
	"ivr-attendant-service/internal/telephony"
)

// MenuLoader resolves a menu id to a validated definition. Implementations
// must return a copy the caller owns; the engine keeps it for the life of the
// session and never sees later edits.
type MenuLoader interface {
	LoadMenu(ctx context.Context, id string) (*menu.Definition, error)
}

// AuditLog persists operator-visible audit events. May be nil.
type AuditLog interface {
	AppendAudit(ctx context.Context, ev models.AuditEvent) error
}

// Config holds engine tunables.
type Config struct {
	// MaxMenuDepth caps submenu nesting per call. Submenus only push, never
	// pop, so a reference cycle would otherwise recurse forever.
	MaxMenuDepth int
	// FallbackMailbox receives callers when a forced voicemail fallback has
	// no mailbox of its own (retry cap, configuration errors).
	FallbackMailbox string
}

// DefaultConfig returns sensible engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxMenuDepth:    8,
		FallbackMailbox: "operator",
	}
}

// Engine runs IVR menu execution for all active calls. Sessions are
// independent: every inbound event (digit, timeout, hangup) is handled under
// its session's lock from start to finish, so per-session processing is
// strictly serialized while separate calls proceed in parallel.
type Engine struct {
	loader    MenuLoader
	driver    telephony.Driver
	publisher *events.Publisher
	audit     AuditLog
	cfg       Config
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	newID     func() string

	sessions sessionMap
}

// NewEngine creates an engine. publisher must be non-nil (use a disabled
// publisher outside production); audit may be nil.
func NewEngine(loader MenuLoader, driver telephony.Driver, publisher *events.Publisher, audit AuditLog, cfg Config) *Engine {
	if cfg.MaxMenuDepth <= 0 {
		cfg.MaxMenuDepth = DefaultConfig().MaxMenuDepth
	}
	if cfg.FallbackMailbox == "" {
		cfg.FallbackMailbox = DefaultConfig().FallbackMailbox
	}
	return &Engine{
		loader:    loader,
		driver:    driver,
		publisher: publisher,
		audit:     audit,
		cfg:       cfg,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("ivr-engine"),
		newID:     uuid.NewString,
	}
}

// EnterMenu starts IVR handling for an inbound call: loads the menu, plays
// its greeting, and begins digit collection. An unloadable root menu is a
// configuration error, not a crash: the caller is sent to the fallback
// mailbox and the error is recorded for operator visibility.
func (e *Engine) EnterMenu(ctx context.Context, menuID string, call CallContext) (*Session, error) {
	s := &Session{
		id:        e.newID(),
		call:      call,
		state:     StateAwaitingGreeting,
		depth:     1,
		startedAt: time.Now(),
	}

	e.sessions.put(s)
	e.metrics.RecordSessionStart()
	e.publishSession(ctx, s, models.SessionEvent{
		EventType: models.EventSessionStarted,
		MenuID:    menuID,
	})

	s.mu.Lock()
	terminated := func() bool {
		def, err := e.loader.LoadMenu(ctx, menuID)
		if err != nil {
			e.metrics.RecordMenuLoadError()
			e.recordConfigError(ctx, s, "unknown_menu", "menu "+menuID+" could not be loaded: "+err.Error())
			e.applyVoicemailLocked(ctx, s, "")
			return true
		}
		s.menu = def
		e.metrics.RecordMenuEntered()
		e.publishSession(ctx, s, models.SessionEvent{EventType: models.EventMenuEntered})
		e.playAndCollectLocked(ctx, s)
		return s.state.IsTerminal()
	}()
	s.mu.Unlock()

	if terminated {
		e.sessions.remove(s.id)
	}
	return s, nil
}

// OnDigit feeds one DTMF digit from the telephony layer into a session.
// Exactly one of OnDigit/the timeout fires per collection window: the digit
// path stops the timer and bumps the window generation under the session
// lock, so a timer that has already fired but not yet run is discarded.
func (e *Engine) OnDigit(ctx context.Context, sessionID, digit string) error {
	if !menu.ValidDigit(digit) {
		return ErrInvalidDigit
	}
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	if s.state != StateCollecting && s.state != StateAwaitingGreeting {
		s.mu.Unlock()
		return ErrNotCollecting
	}
	s.stopTimerLocked()
	s.collectGen++
	s.lastDigit = digit

	opt, matched := s.menu.OptionFor(digit)
	e.metrics.RecordDigit(matched)

	if matched {
		s.retryCount = 0
		e.publishSession(ctx, s, models.SessionEvent{
			EventType: models.EventDigitAccepted,
			Digit:     digit,
			Action:    string(opt.Action),
			Target:    opt.Target,
		})
		e.resolveLocked(ctx, s, opt.Action, opt.Target)
	} else {
		e.publishSession(ctx, s, models.SessionEvent{
			EventType:  models.EventDigitInvalid,
			Digit:      digit,
			RetryCount: s.retryCount + 1,
		})
		e.strikeLocked(ctx, s, s.menu.InvalidAction)
	}

	terminated := s.state.IsTerminal()
	s.mu.Unlock()

	if terminated {
		e.sessions.remove(sessionID)
	}
	return nil
}

// OnTimeout feeds an externally detected no-input timeout into a session.
// The internal timer uses the same path; both are first-wins against digits.
func (e *Engine) OnTimeout(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	if s.state != StateCollecting {
		s.mu.Unlock()
		return ErrNotCollecting
	}
	e.timeoutLocked(ctx, s)

	terminated := s.state.IsTerminal()
	s.mu.Unlock()

	if terminated {
		e.sessions.remove(sessionID)
	}
	return nil
}

// Hangup tears down a session because the caller left. The pending timer is
// cancelled immediately; no dangling work survives the call.
func (e *Engine) Hangup(ctx context.Context, sessionID string) error {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	if s.state.IsTerminal() {
		s.mu.Unlock()
		return ErrSessionTerminated
	}
	e.terminateLocked(ctx, s, OutcomeAbandoned)
	s.mu.Unlock()

	e.sessions.remove(sessionID)
	return nil
}

// Snapshot returns the observable state of one active session.
func (e *Engine) Snapshot(sessionID string) (Snapshot, error) {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return s.Snapshot(), nil
}

// Snapshots returns the observable state of every active session.
func (e *Engine) Snapshots() []Snapshot {
	return e.sessions.snapshots()
}

// ActiveSessions returns the number of sessions currently in flight.
func (e *Engine) ActiveSessions() int {
	return e.sessions.len()
}

// Shutdown cancels every pending timer and abandons remaining sessions. Used
// on process exit so no timer fires after collaborators are gone.
func (e *Engine) Shutdown(ctx context.Context) {
	for _, s := range e.sessions.all() {
		s.mu.Lock()
		if !s.state.IsTerminal() {
			e.terminateLocked(ctx, s, OutcomeAbandoned)
		}
		s.mu.Unlock()
		e.sessions.remove(s.id)
	}
}

// --- internal event handling (caller holds s.mu unless noted) ---

// timerFire is the internal timeout timer callback. gen identifies the
// collection window the timer was armed for; if a digit won the race the
// generation has moved on and the expiry is a no-op.
func (e *Engine) timerFire(sessionID string, gen uint64) {
	s, ok := e.sessions.get(sessionID)
	if !ok {
		return
	}
	ctx := context.Background()

	s.mu.Lock()
	if s.state != StateCollecting || s.collectGen != gen {
		// Lost the race to a digit (or the session moved on). Never
		// double-dispatch.
		s.mu.Unlock()
		return
	}
	e.timeoutLocked(ctx, s)

	terminated := s.state.IsTerminal()
	s.mu.Unlock()

	if terminated {
		e.sessions.remove(sessionID)
	}
}

func (e *Engine) timeoutLocked(ctx context.Context, s *Session) {
	s.stopTimerLocked()
	s.collectGen++
	e.metrics.RecordTimeout()
	e.publishSession(ctx, s, models.SessionEvent{
		EventType:  models.EventInputTimeout,
		RetryCount: s.retryCount + 1,
	})
	e.strikeLocked(ctx, s, s.menu.TimeoutAction)
}

// strikeLocked handles one timeout or invalid-digit strike: count it, ask the
// policy for the effective action, and apply it.
func (e *Engine) strikeLocked(ctx context.Context, s *Session, configured menu.ActionRef) {
	s.retryCount++
	eff, forced := Effective(s.retryCount, s.menu.MaxRetries, configured, e.cfg.FallbackMailbox)
	if forced {
		e.metrics.RecordRetryCapHit()
		e.recordAudit(ctx, s, models.AuditEvent{
			EventType: models.AuditRetryExhausted,
			Code:      "retry_cap",
			Detail:    "maxRetries exceeded, forcing voicemail",
		})
	}
	e.resolveLocked(ctx, s, eff.Action, eff.Target)
}

// resolveLocked dispatches an action and applies its effect.
func (e *Engine) resolveLocked(ctx context.Context, s *Session, action menu.Action, target string) {
	s.state = StateDispatching

	res, err := Dispatch(action, target)
	if err != nil {
		// Configuration error at runtime: degrade to voicemail, never hang up
		// silently, never crash the call path.
		e.recordConfigError(ctx, s, "dispatch", err.Error())
		res = Result{Kind: ResultVoicemail}
	}
	e.metrics.RecordDispatch(res.Kind.String())

	switch res.Kind {
	case ResultReplay:
		e.playAndCollectLocked(ctx, s)
	case ResultPlay:
		e.playPromptLocked(ctx, s, menu.Greeting{AudioRef: res.Target})
		e.beginCollectLocked(s)
	case ResultSubMenu:
		e.enterSubMenuLocked(ctx, s, res.NextMenuID)
	case ResultTransfer:
		if err := e.driver.RequestTransfer(ctx, s.call.CallID, res.Class, res.Target); err != nil {
			e.metrics.RecordCollaboratorFailure("transfer")
			e.recordAudit(ctx, s, models.AuditEvent{
				EventType: models.AuditCollaboratorFailure,
				Code:      "transfer_failed",
				Detail:    string(res.Class) + " " + res.Target + ": " + err.Error(),
			})
			// One fallback attempt, then the caller is never left stranded.
			e.applyVoicemailLocked(ctx, s, "")
			return
		}
		e.terminateLocked(ctx, s, OutcomeTransfer)
	case ResultVoicemail:
		e.applyVoicemailLocked(ctx, s, res.Target)
	case ResultHangup:
		if err := e.driver.RequestHangup(ctx, s.call.CallID); err != nil {
			e.metrics.RecordCollaboratorFailure("hangup")
			e.logger.Error().Str("sessionId", s.id).Err(err).Msg("Hangup request failed")
		}
		e.terminateLocked(ctx, s, OutcomeHangup)
	}
}

// enterSubMenuLocked replaces the active menu with the referenced submenu.
// Push only: nothing returns to the parent unless the submenu maps a digit
// back to it.
func (e *Engine) enterSubMenuLocked(ctx context.Context, s *Session, menuID string) {
	if s.depth+1 > e.cfg.MaxMenuDepth {
		e.recordConfigError(ctx, s, "menu_depth_exceeded", "submenu depth exceeded entering "+menuID)
		e.applyVoicemailLocked(ctx, s, "")
		return
	}
	def, err := e.loader.LoadMenu(ctx, menuID)
	if err != nil {
		e.metrics.RecordMenuLoadError()
		e.recordConfigError(ctx, s, "unknown_submenu", "submenu "+menuID+" could not be loaded: "+err.Error())
		e.applyVoicemailLocked(ctx, s, "")
		return
	}
	s.menu = def
	s.depth++
	s.retryCount = 0
	e.metrics.RecordMenuEntered()
	e.publishSession(ctx, s, models.SessionEvent{EventType: models.EventMenuEntered})
	e.playAndCollectLocked(ctx, s)
}

// playAndCollectLocked plays the active menu's greeting and opens a digit
// collection window.
func (e *Engine) playAndCollectLocked(ctx context.Context, s *Session) {
	s.state = StateAwaitingGreeting
	e.playPromptLocked(ctx, s, s.menu.Greeting())
	e.beginCollectLocked(s)
}

func (e *Engine) playPromptLocked(ctx context.Context, s *Session, g menu.Greeting) {
	e.metrics.RecordGreetingPlay()
	if err := e.driver.PlayGreeting(ctx, s.call.CallID, g); err != nil {
		// Playback failure is not fatal: the caller can still dial blind.
		e.metrics.RecordCollaboratorFailure("play")
		e.logger.Warn().Str("sessionId", s.id).Err(err).Msg("Greeting playback failed")
	}
}

// beginCollectLocked opens a new collection window and arms its timeout
// timer. The captured generation makes digit arrival and timer expiry
// mutually exclusive, first wins.
func (e *Engine) beginCollectLocked(s *Session) {
	s.state = StateCollecting
	s.collectGen++
	gen := s.collectGen
	timeout := time.Duration(s.menu.TimeoutSeconds) * time.Second
	s.timer = time.AfterFunc(timeout, func() {
		e.timerFire(s.id, gen)
	})
}

// applyVoicemailLocked sends the caller to a mailbox (the fallback mailbox if
// none given). If voicemail itself fails, hangup is the last resort and is
// logged as a critical failure.
func (e *Engine) applyVoicemailLocked(ctx context.Context, s *Session, mailbox string) {
	if mailbox == "" {
		mailbox = e.cfg.FallbackMailbox
	}
	if err := e.driver.RequestVoicemail(ctx, s.call.CallID, mailbox); err != nil {
		e.metrics.RecordCollaboratorFailure("voicemail")
		e.recordAudit(ctx, s, models.AuditEvent{
			EventType: models.AuditVoicemailFailure,
			Code:      "voicemail_failed",
			Detail:    "mailbox " + mailbox + ": " + err.Error(),
		})
		e.logger.Error().
			Bool("critical", true).
			Str("sessionId", s.id).
			Str("mailbox", mailbox).
			Err(err).
			Msg("Voicemail collaborator failed, hanging up as last resort")
		if herr := e.driver.RequestHangup(ctx, s.call.CallID); herr != nil {
			e.metrics.RecordCollaboratorFailure("hangup")
			e.logger.Error().Str("sessionId", s.id).Err(herr).Msg("Hangup request failed")
		}
		e.terminateLocked(ctx, s, OutcomeHangup)
		return
	}
	e.terminateLocked(ctx, s, OutcomeVoicemail)
}

// terminateLocked ends the session. The pending timer is torn down before the
// state flips so no expiry can apply afterwards.
func (e *Engine) terminateLocked(ctx context.Context, s *Session, outcome string) {
	s.stopTimerLocked()
	s.collectGen++
	s.state = StateTerminated
	s.endedAt = time.Now()
	s.outcome = outcome

	duration := s.endedAt.Sub(s.startedAt)
	e.metrics.RecordSessionEnd(outcome, duration.Seconds())
	e.publishSession(ctx, s, models.SessionEvent{
		EventType: models.EventSessionEnded,
		Outcome:   outcome,
	})
	e.logger.Info().
		Str("sessionId", s.id).
		Str("callId", s.call.CallID).
		Str("outcome", outcome).
		Dur("duration", duration).
		Msg("Session ended")
}

// --- event plumbing ---

func (e *Engine) publishSession(ctx context.Context, s *Session, ev models.SessionEvent) {
	ev.SessionID = s.id
	ev.CallID = s.call.CallID
	ev.TenantID = s.call.TenantID
	if ev.MenuID == "" && s.menu != nil {
		ev.MenuID = s.menu.ID
	}
	ev.Timestamp = time.Now().UnixMilli()
	if err := e.publisher.PublishSession(ctx, s.call.CallID, ev); err != nil {
		e.logger.Error().Str("sessionId", s.id).Str("eventType", ev.EventType).Err(err).Msg("Failed to publish session event")
	}
}

func (e *Engine) recordConfigError(ctx context.Context, s *Session, code, detail string) {
	e.metrics.RecordConfigError(code)
	e.recordAudit(ctx, s, models.AuditEvent{
		EventType: models.AuditConfigError,
		Code:      code,
		Detail:    detail,
	})
	e.logger.Error().Str("sessionId", s.id).Str("code", code).Msg(detail)
}

func (e *Engine) recordAudit(ctx context.Context, s *Session, ev models.AuditEvent) {
	ev.ID = e.newID()
	ev.SessionID = s.id
	ev.CallID = s.call.CallID
	ev.TenantID = s.call.TenantID
	if s.menu != nil {
		ev.MenuID = s.menu.ID
	}
	ev.Timestamp = time.Now().UnixMilli()

	if e.audit != nil {
		if err := e.audit.AppendAudit(ctx, ev); err != nil {
			e.logger.Error().Str("eventType", ev.EventType).Err(err).Msg("Failed to append audit event")
		}
	}
	if err := e.publisher.PublishAudit(ctx, s.call.CallID, ev); err != nil {
		e.logger.Error().Str("eventType", ev.EventType).Err(err).Msg("Failed to publish audit event")
	}
}

// --- session registry ---

type sessionMap struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func (m *sessionMap) put(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string]*Session)
	}
	m.sessions[s.id] = s
}

func (m *sessionMap) get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *sessionMap) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *sessionMap) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *sessionMap) all() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

func (m *sessionMap) snapshots() []Snapshot {
	out := make([]Snapshot, 0)
	for _, s := range m.all() {
		out = append(out, s.Snapshot())
	}
	return out
}
