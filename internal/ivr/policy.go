package ivr

import "ivr-attendant-service/internal/menu"

// Effective returns the action to apply after a timeout or invalid-digit
// event. The retry cap lives here and nowhere else: both event paths call
// this with their configured action, so no menu configuration can loop
// forever no matter how timeout/invalid actions chain repeatMenu or subMenu.
//
// Once retryCount exceeds maxRetries the configured action is ignored and the
// caller is sent to voicemail (the fallback mailbox if the menu does not name
// one). Forced reports whether the cap fired.
func Effective(retryCount, maxRetries int, configured menu.ActionRef, fallbackMailbox string) (ref menu.ActionRef, forced bool) {
	if retryCount > maxRetries {
		target := fallbackMailbox
		if configured.Action == menu.ActionGoToVoicemail && configured.Target != "" {
			target = configured.Target
		}
		return menu.ActionRef{Action: menu.ActionGoToVoicemail, Target: target}, true
	}
	return configured, false
}
