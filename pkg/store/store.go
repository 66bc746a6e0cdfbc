// Package store holds client state in three slices (auth, posts, profile).
//
// State changes only through Dispatch. Each slice reduces the actions it
// knows and ignores the rest, so one action may update several slices
// (a post patch reaches the feed, the saved list, the detail view and the
// profile grid in one step).
package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aditya-makadiya/sociofeed/pkg/logger"
)

// Action is any value describing a state change
type Action interface{}

// State is the whole client state
type State struct {
	Auth    AuthState    `json:"auth"`
	Posts   PostState    `json:"posts"`
	Profile ProfileState `json:"profile"`
}

// Reset clears every slice (forced logout)
type Reset struct{}

// Store is an injected state container
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]func(Action)
	nextID    int
}

// New creates a store with empty slices
func New() *Store {
	return &Store{
		state:     initialState(),
		listeners: make(map[int]func(Action)),
	}
}

func initialState() State {
	return State{
		Auth:    AuthState{},
		Posts:   newPostState(),
		Profile: newProfileState(),
	}
}

// Dispatch applies an action to every slice, then notifies listeners
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	if _, ok := a.(Reset); ok {
		s.state = initialState()
	} else {
		reduceAuth(&s.state.Auth, a)
		reducePosts(&s.state.Posts, a)
		reduceProfile(&s.state.Profile, a)
	}
	listeners := make([]func(Action), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	logger.Debug("Dispatched", "action", actionName(a))
	for _, fn := range listeners {
		fn(a)
	}
}

// Subscribe registers fn to run after every dispatch and returns a
// function that removes it. fn must not block.
func (s *Store) Subscribe(fn func(Action)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Snapshot returns a deep copy of the state
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Auth:    s.state.Auth.clone(),
		Posts:   s.state.Posts.clone(),
		Profile: s.state.Profile.clone(),
	}
}

// Auth returns a copy of the auth slice
func (s *Store) Auth() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Auth.clone()
}

// Posts returns a copy of the post slice
func (s *Store) Posts() PostState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Posts.clone()
}

// Profile returns a copy of the profile slice
func (s *Store) Profile() ProfileState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Profile.clone()
}

func actionName(a Action) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", a), "store.")
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// incr and decr maintain per-key in-flight counters; zero entries are removed
func incr(m map[string]int, key string) {
	m[key]++
}

func decr(m map[string]int, key string) {
	if m[key] <= 1 {
		delete(m, key)
		return
	}
	m[key]--
}
