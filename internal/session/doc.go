// Package session holds the state of one snapmix session and the transitions between its phases.
//
// A session moves through:
//
//	Anonymous → CodeReceived → Authorized → ProfileLoaded → Analyzed → Recommended
//
// Every transition is guarded. A rejected transition returns [ErrInvalidTransition]
// and leaves the session untouched. Analyzed and Recommended may loop back to
// Analyzed when a new photo is uploaded; [Session.Reset] returns to Anonymous from anywhere.
package session
