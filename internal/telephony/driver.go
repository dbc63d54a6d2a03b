// Package telephony defines the interface to the PBX/call-control collaborator.
// The IVR engine never talks to signaling directly; every terminal effect and
// greeting playback goes through a Driver.
package telephony

import (
	"context"

	"ivr-attendant-service/internal/menu"
)

// TransferClass tells the collaborator how to interpret a transfer target.
type TransferClass string

const (
	TransferExtension TransferClass = "extension" // internal extension id
	TransferQueue     TransferClass = "queue"     // call queue id
	TransferExternal  TransferClass = "external"  // E.164 number
	TransferAI        TransferClass = "ai"        // opaque AI receptionist hand-off
)

// Driver is the boundary to the telephony/PBX layer (Twilio, a SIP stack, or a
// simulator). Calls block until the collaborator has accepted the request;
// PlayGreeting blocks until playback completes. Errors mean the collaborator
// could not complete the request and the engine should apply its fallback.
type Driver interface {
	// PlayGreeting plays a menu greeting (TTS text or recorded prompt) to the call.
	PlayGreeting(ctx context.Context, callID string, g menu.Greeting) error

	// RequestTransfer hands the call to the target identified by class+target.
	RequestTransfer(ctx context.Context, callID string, class TransferClass, target string) error

	// RequestVoicemail sends the call to the given mailbox.
	RequestVoicemail(ctx context.Context, callID, mailbox string) error

	// RequestHangup terminates the call.
	RequestHangup(ctx context.Context, callID string) error
}
