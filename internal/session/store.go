package session

import (
	"sync"
	"time"
)

// Store maps call IDs to their live sessions. Mutations for one call are
// serialized through a per-session lock so a duplicate or out-of-order
// webhook retry cannot interleave with an in-flight turn for the same call.
type Store struct {
	mu              sync.Mutex
	sessions        map[string]*entry
	defaultLanguage Language
}

type entry struct {
	mu   sync.Mutex
	sess *CallSession
}

// NewStore creates an empty store. New sessions start in defaultLanguage.
func NewStore(defaultLanguage Language) *Store {
	if defaultLanguage == "" {
		defaultLanguage = LanguageEnglish
	}
	return &Store{
		sessions:        make(map[string]*entry),
		defaultLanguage: defaultLanguage,
	}
}

func (s *Store) getOrCreateEntry(callID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[callID]
	if !ok {
		now := time.Now().UTC()
		e = &entry{sess: &CallSession{
			CallID:         callID,
			Language:       s.defaultLanguage,
			Status:         StatusNew,
			StartedAt:      now,
			LastActivityAt: now,
		}}
		s.sessions[callID] = e
	}
	return e
}

// GetOrCreate returns the session for callID, creating it with defaults when
// absent. The returned session must not be mutated outside Update; handles
// must not be cached across webhook turns.
func (s *Store) GetOrCreate(callID string) *CallSession {
	return s.getOrCreateEntry(callID).sess
}

// Lookup returns the session for callID without creating one.
func (s *Store) Lookup(callID string) (*CallSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[callID]
	if !ok {
		return nil, false
	}
	return e.sess, true
}

// Update runs fn with the session for callID (created if absent) while
// holding that call's lock. Turns for different calls proceed in parallel.
func (s *Store) Update(callID string, fn func(sess *CallSession)) {
	e := s.getOrCreateEntry(callID)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
}

// UpdateExisting is Update without creation. It reports whether the session
// was found; fn does not run for an absent call.
func (s *Store) UpdateExisting(callID string, fn func(sess *CallSession)) bool {
	s.mu.Lock()
	e, ok := s.sessions[callID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
	return true
}

// Remove evicts the session for callID. Removing an absent call is a no-op.
func (s *Store) Remove(callID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
}

// Len reports the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
