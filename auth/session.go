package auth

import (
	"sync"
)

// SessionSubscriber observes current-user changes. A nil user means
// the session was cleared.
type SessionSubscriber func(user *User)

// Session holds the current authenticated user. It is the in-memory
// complement to the persisted token: the token survives restarts, the
// user object is re-fetched via Verify.
type Session struct {
	mu          sync.RWMutex
	current     *User
	subscribers []SessionSubscriber
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// Subscribe registers a callback invoked on every session change.
func (s *Session) Subscribe(sub SessionSubscriber) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
}

// CurrentUser returns the signed-in user, or nil when nobody is.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// SetCurrentUser records the signed-in user.
func (s *Session) SetCurrentUser(user User) {
	s.mu.Lock()
	s.current = &user
	subs := make([]SessionSubscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		u := user
		sub(&u)
	}
}

// Clear forgets the signed-in user.
func (s *Session) Clear() {
	s.mu.Lock()
	s.current = nil
	subs := make([]SessionSubscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, sub := range subs {
		sub(nil)
	}
}

// IsProducer reports whether the current user holds the producer
// role.
func (s *Session) IsProducer() bool {
	u := s.CurrentUser()
	return u != nil && u.Role == RoleProducer
}
