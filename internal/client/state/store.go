package state

import "sync"

// Store is the single writer of State. Subscribers are called synchronously,
// in registration order, after each applied event.
type Store struct {
	mu        sync.Mutex
	state     State
	epoch     uint64
	nextID    int
	listeners map[int]func(State)
	order     []int

	ready     chan struct{}
	readyOnce sync.Once
}

func NewStore() *Store {
	return &Store{
		state:     Initial(),
		listeners: make(map[int]func(State)),
		ready:     make(chan struct{}),
	}
}

// Current returns a copy of the current state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Epoch returns the current generation. Long-running flows capture it at
// start and pass it to DispatchAt.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Advance starts a new generation, invalidating every captured epoch.
func (s *Store) Advance() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Valid reports whether epoch is still the current generation.
func (s *Store) Valid(epoch uint64) bool {
	return s.Epoch() == epoch
}

// Dispatch applies ev unconditionally.
func (s *Store) Dispatch(ev Event) State {
	s.mu.Lock()
	next := s.apply(ev)
	s.mu.Unlock()
	s.notify(next)
	return next
}

// DispatchAt applies ev only if epoch is still current. The returned bool is
// false when the event was dropped.
func (s *Store) DispatchAt(epoch uint64, ev Event) (State, bool) {
	s.mu.Lock()
	if s.epoch != epoch {
		cur := s.state
		s.mu.Unlock()
		return cur, false
	}
	next := s.apply(ev)
	s.mu.Unlock()
	s.notify(next)
	return next, true
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Ready is closed once the state first leaves StatusRestoring.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// apply must be called with mu held.
func (s *Store) apply(ev Event) State {
	s.state = Reduce(s.state, ev)
	if s.state.Terminal() {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	return s.state
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
