package wizard

import (
	"sync"
	"time"
)

// Store is the in-memory session registry. Sessions are short-lived
// and single-owner, so a mutex-guarded map is enough; abandoned
// sessions are swept out after the TTL.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	done     chan struct{}
}

// NewStore creates a session store with the given idle TTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Put registers a session.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

// Get returns the session for an id, or nil when unknown or expired.
func (s *Store) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if time.Since(sess.LastActive()) > s.ttl {
		return nil
	}
	return sess
}

// Delete removes a session and releases its searcher.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		sess.Searcher.Close()
		delete(s.sessions, id)
	}
}

// Close stops the background sweeper.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for id, sess := range s.sessions {
				if time.Since(sess.LastActive()) > s.ttl {
					sess.Searcher.Close()
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
