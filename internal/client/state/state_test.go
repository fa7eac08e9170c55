package state

import (
	"testing"

	"github.com/storefront/identity/internal/core/domain"
)

func TestReduce(t *testing.T) {
	alice := &domain.User{ID: "u1", Email: "alice@example.com"}

	cases := []struct {
		name string
		from State
		ev   Event
		want State
	}{
		{"restored", Initial(), Restored{User: alice}, State{Status: StatusAuthenticated, User: alice}},
		{"restored anonymous", Initial(), RestoredAnonymous{}, State{Status: StatusAnonymous}},
		{"restore failed", Initial(), RestoreFailed{Message: "boom"}, State{Status: StatusError, Error: "boom"}},
		{"login after anonymous", State{Status: StatusAnonymous}, LoggedIn{User: alice}, State{Status: StatusAuthenticated, User: alice}},
		{"logout drops user", State{Status: StatusAuthenticated, User: alice}, LoggedOut{}, State{Status: StatusAnonymous}},
		{"rejected keeps message", State{Status: StatusAuthenticated, User: alice}, SessionRejected{Message: "expired"}, State{Status: StatusAnonymous, Error: "expired"}},
		{"login clears error", State{Status: StatusError, Error: "x"}, LoggedIn{User: alice}, State{Status: StatusAuthenticated, User: alice}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(tc.from, tc.ev)
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	from := State{Status: StatusAuthenticated, User: &domain.User{ID: "u1"}}
	_ = Reduce(from, LoggedOut{})
	if from.Status != StatusAuthenticated || from.User == nil {
		t.Fatalf("input mutated: %+v", from)
	}
}

func TestStore_ReadyClosesOnFirstTerminal(t *testing.T) {
	s := NewStore()

	select {
	case <-s.Ready():
		t.Fatalf("ready before restoration finished")
	default:
	}

	s.Dispatch(RestoreStarted{})
	select {
	case <-s.Ready():
		t.Fatalf("ready while still restoring")
	default:
	}

	s.Dispatch(RestoredAnonymous{})
	select {
	case <-s.Ready():
	default:
		t.Fatalf("ready not closed after terminal status")
	}

	// A second terminal transition must not panic on a closed channel.
	s.Dispatch(LoggedIn{User: &domain.User{ID: "u1"}})
}

func TestStore_DispatchAtDropsStaleEpoch(t *testing.T) {
	s := NewStore()
	epoch := s.Epoch()

	s.Advance()
	s.Dispatch(LoggedOut{})

	got, applied := s.DispatchAt(epoch, Restored{User: &domain.User{ID: "u1"}})
	if applied {
		t.Fatalf("stale event applied")
	}
	if got.Status != StatusAnonymous || s.Current().Status != StatusAnonymous {
		t.Fatalf("expected anonymous to survive, got %+v", got)
	}
	if s.Valid(epoch) {
		t.Fatalf("old epoch still valid")
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()

	var seen []Status
	unsubscribe := s.Subscribe(func(st State) { seen = append(seen, st.Status) })

	s.Dispatch(Restored{User: &domain.User{ID: "u1"}})
	s.Dispatch(LoggedOut{})
	unsubscribe()
	s.Dispatch(LoggedIn{User: &domain.User{ID: "u1"}})

	if len(seen) != 2 || seen[0] != StatusAuthenticated || seen[1] != StatusAnonymous {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}
