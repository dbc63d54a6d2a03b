package menu

import (
	"errors"
	"fmt"
)

// Timeout bounds for digit collection, in seconds.
const (
	MinTimeoutSeconds = 1
	MaxTimeoutSeconds = 60
)

// ConfigurationError reports an invalid menu definition. The builder surfaces
// it at save time; the runtime treats it as a signal to fall back to voicemail.
type ConfigurationError struct {
	Code    string // machine-readable, e.g. "duplicate_digit"
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func configErr(code, field, format string, args ...any) error {
	return &ConfigurationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks every save-time invariant of a menu definition. Cross-menu
// checks (submenu targets resolving to existing menus) live in the repository,
// which can see the full catalog.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return configErr("missing_id", "id", "menu id is required")
	}
	hasText := d.GreetingText != ""
	hasAudio := d.GreetingAudioRef != ""
	if hasText == hasAudio {
		if hasText {
			return configErr("ambiguous_greeting", "greetingText", "greetingText and greetingAudioRef are mutually exclusive")
		}
		return configErr("missing_greeting", "greetingText", "exactly one of greetingText or greetingAudioRef must be set")
	}
	if d.TimeoutSeconds < MinTimeoutSeconds || d.TimeoutSeconds > MaxTimeoutSeconds {
		return configErr("timeout_out_of_range", "timeoutSeconds", "timeoutSeconds must be in [%d, %d], got %d",
			MinTimeoutSeconds, MaxTimeoutSeconds, d.TimeoutSeconds)
	}
	if d.MaxRetries < 0 {
		return configErr("negative_max_retries", "maxRetries", "maxRetries must be >= 0, got %d", d.MaxRetries)
	}

	seen := make(map[string]bool, len(d.Options))
	for i, opt := range d.Options {
		field := fmt.Sprintf("options[%d]", i)
		if !ValidDigit(opt.Digit) {
			return configErr("invalid_digit", field, "digit %q is not a single DTMF symbol from {0-9, *, #}", opt.Digit)
		}
		if seen[opt.Digit] {
			return configErr("duplicate_digit", field, "digit %q is bound more than once", opt.Digit)
		}
		seen[opt.Digit] = true
		if err := validateActionRef(field, opt.Action, opt.Target); err != nil {
			return err
		}
	}

	if err := validateActionRef("timeoutAction", d.TimeoutAction.Action, d.TimeoutAction.Target); err != nil {
		return err
	}
	return validateActionRef("invalidAction", d.InvalidAction.Action, d.InvalidAction.Target)
}

func validateActionRef(field string, a Action, target string) error {
	if !a.Known() {
		return configErr("unknown_action", field, "unknown action %q", a)
	}
	if a.RequiresTarget() && target == "" {
		return configErr("missing_target", field, "action %q requires a target", a)
	}
	if !a.RequiresTarget() && target != "" {
		return configErr("unexpected_target", field, "action %q does not take a target", a)
	}
	return nil
}
