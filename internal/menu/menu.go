// Package menu defines the auto-attendant menu model: a greeting, a set of
// digit-mapped options, and the timeout/invalid-input behavior an administrator
// configures in the builder. Definitions are read-only at call time; the engine
// snapshots them at menu entry.
package menu

import "strings"

// Action is one of the closed set of call-control effects a menu can trigger.
type Action string

const (
	ActionPlayGreeting     Action = "playGreeting"
	ActionDialExtension    Action = "dialExtension"
	ActionTransferQueue    Action = "transferQueue"
	ActionGoToVoicemail    Action = "goToVoicemail"
	ActionTransferExternal Action = "transferExternal"
	ActionRepeatMenu       Action = "repeatMenu"
	ActionAIReceptionist   Action = "aiReceptionist"
	ActionSubMenu          Action = "subMenu"
	ActionHangup           Action = "hangup"
)

// Known returns true for actions in the closed set.
func (a Action) Known() bool {
	switch a {
	case ActionPlayGreeting, ActionDialExtension, ActionTransferQueue,
		ActionGoToVoicemail, ActionTransferExternal, ActionRepeatMenu,
		ActionAIReceptionist, ActionSubMenu, ActionHangup:
		return true
	}
	return false
}

// RequiresTarget returns true when the action needs an opaque target reference
// (extension id, queue id, E.164 number, mailbox id, or submenu id).
func (a Action) RequiresTarget() bool {
	switch a {
	case ActionRepeatMenu, ActionHangup:
		return false
	}
	return a.Known()
}

// Terminal returns true when dispatching the action ends IVR handling for the
// call (the caller is handed to a collaborator or hung up).
func (a Action) Terminal() bool {
	switch a {
	case ActionDialExtension, ActionTransferQueue, ActionGoToVoicemail,
		ActionTransferExternal, ActionAIReceptionist, ActionHangup:
		return true
	}
	return false
}

// Digits is the DTMF symbol set an option may bind.
const Digits = "0123456789*#"

// ValidDigit returns true for a single DTMF symbol from {0-9, *, #}.
func ValidDigit(d string) bool {
	return len(d) == 1 && strings.ContainsAny(d, Digits)
}

// Option maps one DTMF digit to an action within a menu.
type Option struct {
	Digit  string `json:"digit" doc:"Single DTMF symbol from 0-9, * or #"`
	Label  string `json:"label,omitempty" doc:"Display-only description"`
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
}

// ActionRef is an action plus its target, used for the timeout and
// invalid-input slots of a menu.
type ActionRef struct {
	Action Action `json:"action"`
	Target string `json:"target,omitempty"`
}

// Greeting is what the telephony layer plays when a menu is entered. Exactly
// one of Text (TTS) or AudioRef (recorded prompt) is set.
type Greeting struct {
	Text     string `json:"text,omitempty"`
	AudioRef string `json:"audioRef,omitempty"`
}

// Definition is one auto-attendant menu as authored in the builder.
type Definition struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	GreetingText     string    `json:"greetingText,omitempty"`
	GreetingAudioRef string    `json:"greetingAudioRef,omitempty"`
	Options          []Option  `json:"options"`
	TimeoutSeconds   int       `json:"timeoutSeconds"`
	TimeoutAction    ActionRef `json:"timeoutAction"`
	InvalidAction    ActionRef `json:"invalidAction"`
	MaxRetries       int       `json:"maxRetries"`
	CreatedAt        string    `json:"createdAt,omitempty" format:"date-time"`
	UpdatedAt        string    `json:"updatedAt,omitempty" format:"date-time"`
}

// Greeting returns the configured greeting.
func (d *Definition) Greeting() Greeting {
	return Greeting{Text: d.GreetingText, AudioRef: d.GreetingAudioRef}
}

// OptionFor returns the option bound to the digit, if any.
func (d *Definition) OptionFor(digit string) (Option, bool) {
	for _, opt := range d.Options {
		if opt.Digit == digit {
			return opt, true
		}
	}
	return Option{}, false
}

// SubMenuIDs returns every menu id this definition references through a
// subMenu action, options and timeout/invalid slots included.
func (d *Definition) SubMenuIDs() []string {
	var ids []string
	for _, opt := range d.Options {
		if opt.Action == ActionSubMenu && opt.Target != "" {
			ids = append(ids, opt.Target)
		}
	}
	for _, ref := range []ActionRef{d.TimeoutAction, d.InvalidAction} {
		if ref.Action == ActionSubMenu && ref.Target != "" {
			ids = append(ids, ref.Target)
		}
	}
	return ids
}

// Clone returns a deep copy. Sessions clone the definition at menu entry so a
// concurrent edit never changes an in-flight call.
func (d *Definition) Clone() *Definition {
	cp := *d
	cp.Options = make([]Option, len(d.Options))
	copy(cp.Options, d.Options)
	return &cp
}
