package store

import "sync"

// Snapshot is a state value that can hand out independent copies.
type Snapshot[S any] interface {
	Clone() S
}

// Store owns one state value and applies events to it through a reducer.
// Dispatch is safe for concurrent use; subscribers run after the lock is
// released, in the dispatching goroutine.
type Store[S Snapshot[S]] struct {
	mu     sync.RWMutex
	state  S
	reduce func(S, Event) S
	subs   map[int]func(S)
	nextID int
}

// New creates a Store holding initial.
func New[S Snapshot[S]](initial S, reduce func(S, Event) S) *Store[S] {
	return &Store[S]{
		state:  initial,
		reduce: reduce,
		subs:   make(map[int]func(S)),
	}
}

// NewTaskStore creates an empty task collection store.
func NewTaskStore() *Store[TaskState] {
	return New(NewTaskState(), ReduceTasks)
}

// NewAuthStore creates a logged-out session store.
func NewAuthStore() *Store[AuthState] {
	return New(AuthState{}, ReduceAuth)
}

// Dispatch applies event and returns a copy of the resulting state.
func (s *Store[S]) Dispatch(event Event) S {
	s.mu.Lock()
	s.state = s.reduce(s.state, event)
	next := s.state
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next.Clone())
	}
	return next.Clone()
}

// State returns a copy of the current state.
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive the state after every dispatch. The
// returned func removes it.
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
