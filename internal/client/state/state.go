// Package state holds the process-wide authentication state of a client.
// State only changes through Store.Dispatch, which applies the pure Reduce
// function to typed events.
package state

import "github.com/storefront/identity/internal/core/domain"

// Status is the coarse authentication status.
type Status string

const (
	StatusRestoring     Status = "restoring"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
	StatusError         Status = "error"
)

// State is the observable authentication state.
type State struct {
	Status Status       `json:"status"`
	User   *domain.User `json:"user"`
	Error  string       `json:"error,omitempty"`
}

// Initial is the state at process start.
func Initial() State {
	return State{Status: StatusRestoring}
}

// Terminal reports whether s ends a restoration attempt.
func (s State) Terminal() bool {
	return s.Status != StatusRestoring
}

// Event is a state transition request. The set is closed.
type Event interface {
	event()
}

// RestoreStarted begins a restoration attempt.
type RestoreStarted struct{}

// Restored ends a restoration with a resumed identity.
type Restored struct{ User *domain.User }

// RestoredAnonymous ends a restoration with no identity. Message is empty for
// the expected logged-out case.
type RestoredAnonymous struct{ Message string }

// RestoreFailed ends a restoration with an unexpected error.
type RestoreFailed struct{ Message string }

// LoggedIn follows an interactive password or Google sign-in.
type LoggedIn struct{ User *domain.User }

// LoggedOut follows an explicit logout.
type LoggedOut struct{}

// Refreshed carries a user payload confirmed by the server.
type Refreshed struct{ User *domain.User }

// SessionRejected follows a definitive server rejection of the active token.
type SessionRejected struct{ Message string }

func (RestoreStarted) event()    {}
func (Restored) event()          {}
func (RestoredAnonymous) event() {}
func (RestoreFailed) event()     {}
func (LoggedIn) event()          {}
func (LoggedOut) event()         {}
func (Refreshed) event()         {}
func (SessionRejected) event()   {}

// Reduce computes the state that follows ev. It never mutates s.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case RestoreStarted:
		return State{Status: StatusRestoring, User: s.User}
	case Restored:
		return State{Status: StatusAuthenticated, User: e.User}
	case RestoredAnonymous:
		return State{Status: StatusAnonymous, Error: e.Message}
	case RestoreFailed:
		return State{Status: StatusError, Error: e.Message}
	case LoggedIn:
		return State{Status: StatusAuthenticated, User: e.User}
	case LoggedOut:
		return State{Status: StatusAnonymous}
	case Refreshed:
		return State{Status: StatusAuthenticated, User: e.User}
	case SessionRejected:
		return State{Status: StatusAnonymous, Error: e.Message}
	}
	return s
}
