// Package session keeps the per-user conversation state between a
// ticket query and the digit reply that selects a train from it.
package session

import (
	"sync"
	"time"

	"github.com/railbot/train-linebot-go/internal/ticket"
)

// State describes where a user is in the two-step conversation.
type State int

const (
	// StateNone means the user has no pending result list.
	StateNone State = iota
	// StateListPresented means a numbered list was shown and a digit
	// reply is expected.
	StateListPresented
)

// Session is one user's cached query result.
type Session struct {
	State     State
	Trains    []ticket.Train
	UpdatedAt time.Time
}

// Store is an in-memory session store keyed by user ID.
// Last write per user wins; entries are removed by Sweep when idle
// longer than the configured TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
	clock    func() time.Time
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		clock:    time.Now,
	}
}

// Put replaces the session for userID with a fresh result list.
func (s *Store) Put(userID string, trains []ticket.Train) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = Session{
		State:     StateListPresented,
		Trains:    trains,
		UpdatedAt: s.clock(),
	}
}

// Get returns the session for userID. The second return value is
// false when the user has no pending list.
func (s *Store) Get(userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok || sess.State != StateListPresented {
		return Session{State: StateNone}, false
	}
	return sess, true
}

// Delete removes the session for userID.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than ttl and returns how many
// were removed. A non-positive ttl disables expiry.
func (s *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock().Add(-ttl)
	removed := 0
	for userID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, userID)
			removed++
		}
	}
	return removed
}
