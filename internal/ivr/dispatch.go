package ivr

import (
	"ivr-attendant-service/internal/menu"
	"ivr-attendant-service/internal/telephony"
)

// ResultKind classifies what a dispatched action does to the session.
type ResultKind int

const (
	// ResultTransfer - Terminal. Caller handed to an extension, queue,
	// external number, or the AI receptionist.
	ResultTransfer ResultKind = iota
	// ResultVoicemail - Terminal. Caller sent to a mailbox.
	ResultVoicemail
	// ResultHangup - Terminal. Call ends.
	ResultHangup
	// ResultSubMenu - Session loads the referenced menu and restarts at its
	// greeting. No implicit return to the parent.
	ResultSubMenu
	// ResultReplay - Same menu, greeting replayed.
	ResultReplay
	// ResultPlay - A one-off prompt is played, then collection resumes on the
	// current menu without replaying its greeting.
	ResultPlay
)

// String returns the label used in logs and metrics.
func (k ResultKind) String() string {
	switch k {
	case ResultTransfer:
		return "transfer"
	case ResultVoicemail:
		return "voicemail"
	case ResultHangup:
		return "hangup"
	case ResultSubMenu:
		return "submenu"
	case ResultReplay:
		return "replay"
	case ResultPlay:
		return "play"
	default:
		return "unknown"
	}
}

// Terminal returns true when the result ends IVR handling for the call.
func (k ResultKind) Terminal() bool {
	return k == ResultTransfer || k == ResultVoicemail || k == ResultHangup
}

// Result is the outcome of dispatching one menu action.
type Result struct {
	Kind       ResultKind
	Class      telephony.TransferClass // set for ResultTransfer
	Target     string                  // mailbox, transfer target, or prompt ref
	NextMenuID string                  // set for ResultSubMenu
}

// Dispatch maps an action and its target to a call-control effect. It is a
// pure function; applying the effect (driver calls, menu loads) is the
// engine's job. A missing required target is a configuration error: the
// caller degrades to voicemail rather than crashing the call path.
func Dispatch(action menu.Action, target string) (Result, error) {
	if action.RequiresTarget() && target == "" {
		return Result{}, &menu.ConfigurationError{
			Code:    "missing_target",
			Message: "action " + string(action) + " dispatched without a target",
		}
	}

	switch action {
	case menu.ActionDialExtension:
		return Result{Kind: ResultTransfer, Class: telephony.TransferExtension, Target: target}, nil
	case menu.ActionTransferQueue:
		return Result{Kind: ResultTransfer, Class: telephony.TransferQueue, Target: target}, nil
	case menu.ActionTransferExternal:
		return Result{Kind: ResultTransfer, Class: telephony.TransferExternal, Target: target}, nil
	case menu.ActionAIReceptionist:
		// Opaque hand-off; the collaborator behind the target owns everything
		// that happens next.
		return Result{Kind: ResultTransfer, Class: telephony.TransferAI, Target: target}, nil
	case menu.ActionGoToVoicemail:
		return Result{Kind: ResultVoicemail, Target: target}, nil
	case menu.ActionHangup:
		return Result{Kind: ResultHangup}, nil
	case menu.ActionSubMenu:
		return Result{Kind: ResultSubMenu, NextMenuID: target}, nil
	case menu.ActionRepeatMenu:
		return Result{Kind: ResultReplay}, nil
	case menu.ActionPlayGreeting:
		return Result{Kind: ResultPlay, Target: target}, nil
	default:
		return Result{}, &menu.ConfigurationError{
			Code:    "unknown_action",
			Message: "unknown action " + string(action),
		}
	}
}
