package session

// recoveryRemainingThreshold is the remaining-time cutoff for offering
// refresh recovery: below 115 of the nominal 120 minutes the session
// has seen meaningful elapsed progress.
const recoveryRemainingThreshold = 115 * 60

// ShouldOfferResume decides whether an orphaned non-paused session is
// worth offering back to the user after a page refresh: it is when at
// least one question was answered or enough time has elapsed to matter.
// Declined sessions are released by the caller.
func ShouldOfferResume(state *State) bool {
	if state == nil {
		return false
	}
	return state.AnsweredCount() > 0 || state.TimeRemaining < recoveryRemainingThreshold
}
