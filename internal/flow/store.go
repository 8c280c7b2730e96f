package flow

import (
	"context"
	"sync"
)

// Token identifies one submission. Results carrying an old token are stale.
type Token uint64

// Store owns the current State. All mutation goes through the reducer.
type Store struct {
	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc
	active Token
}

// NewStore creates a store holding initial
func NewStore(initial State) *Store {
	return &Store{state: initial}
}

// State returns a snapshot of the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies a user action unconditionally
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Begin starts a new submission. The previous submission's context is
// cancelled and its token becomes stale.
func (s *Store) Begin(parent context.Context) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.state.Generation++
	s.active = Token(s.state.Generation)
	s.cancel = cancel
	return ctx, s.active
}

// Finish releases the submission's context if it is still the active one
func (s *Store) Finish(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t == s.active && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Current reports whether t belongs to the latest submission
func (s *Store) Current(t Token) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Token(s.state.Generation) == t
}

// Commit applies an action produced by submission t, or returns
// ErrStaleResponse without touching the state when t was superseded.
func (s *Store) Commit(t Token, a Action) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if Token(s.state.Generation) != t {
		return s.state, ErrStaleResponse
	}
	s.state = Reduce(s.state, a)
	return s.state, nil
}

// Reset abandons any in-flight submission and returns to a blank setup state
func (s *Store) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Generation++
	s.active = Token(s.state.Generation)
	s.state = Reduce(s.state, Reset{})
	return s.state
}

// Close cancels any in-flight submission
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
