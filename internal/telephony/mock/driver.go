// Package mock provides an in-memory telephony driver for tests and local
// runs without a PBX. It records every call-control request and can be scripted
// to fail specific operations, which is how collaborator-failure fallbacks are
// exercised.
package mock

import (
	"context"
	"sync"

	"ivr-attendant-service/internal/menu"
	"ivr-attendant-service/internal/telephony"
)

// Request is one recorded call-control request.
type Request struct {
	Op       string // "play", "transfer", "voicemail", "hangup"
	CallID   string
	Class    telephony.TransferClass
	Target   string
	Greeting menu.Greeting
}

// Driver implements telephony.Driver with request recording.
type Driver struct {
	mu       sync.Mutex
	requests []Request

	// Errors injected per operation. Nil means the operation succeeds.
	PlayErr      error
	TransferErr  error
	VoicemailErr error
	HangupErr    error
}

// New creates a mock driver that accepts everything.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) record(r Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, r)
}

// Requests returns a copy of everything recorded so far.
func (d *Driver) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Request, len(d.requests))
	copy(out, d.requests)
	return out
}

// Last returns the most recent request, if any.
func (d *Driver) Last() (Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.requests) == 0 {
		return Request{}, false
	}
	return d.requests[len(d.requests)-1], true
}

// CountOp returns how many requests of the given op were recorded.
func (d *Driver) CountOp(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, r := range d.requests {
		if r.Op == op {
			n++
		}
	}
	return n
}

func (d *Driver) PlayGreeting(_ context.Context, callID string, g menu.Greeting) error {
	d.record(Request{Op: "play", CallID: callID, Greeting: g})
	return d.PlayErr
}

func (d *Driver) RequestTransfer(_ context.Context, callID string, class telephony.TransferClass, target string) error {
	d.record(Request{Op: "transfer", CallID: callID, Class: class, Target: target})
	return d.TransferErr
}

func (d *Driver) RequestVoicemail(_ context.Context, callID, mailbox string) error {
	d.record(Request{Op: "voicemail", CallID: callID, Target: mailbox})
	return d.VoicemailErr
}

func (d *Driver) RequestHangup(_ context.Context, callID string) error {
	d.record(Request{Op: "hangup", CallID: callID})
	return d.HangupErr
}
