// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package browse

import (
	"sync"
	"time"

	"github.com/Roast-2007/morfonica/internal/metrics"
)

// Store holds at most one Session per user key. A coarse RWMutex is
// enough at per-user command rates; same-user races resolve
// last-write-wins.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Session)}
}

// Get returns the user's session and whether one exists.
func (s *Store) Get(userKey string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userKey]
	return sess, ok
}

// Put stores the session, replacing any existing one for the user.
func (s *Store) Put(userKey string, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userKey] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// Delete removes the user's session if present.
func (s *Store) Delete(userKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userKey)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpireIdle removes sessions whose LastActive is older than ttl
// relative to now and returns how many were removed.
func (s *Store) ExpireIdle(ttl time.Duration, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for key, sess := range s.sessions {
		if now.Sub(sess.LastActive) > ttl {
			delete(s.sessions, key)
			expired++
		}
	}
	if expired > 0 {
		metrics.ActiveSessions.Set(float64(len(s.sessions)))
	}
	return expired
}
