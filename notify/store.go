// Package notify holds producer-facing notifications and the SSE
// consumer that feeds them.
//
// The Store keeps an in-memory, newest-first list of notifications
// with an unread counter; the Consumer maintains a long-lived
// server-sent-events connection and appends every order or stock
// event it receives. Both are safe for concurrent use.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// Type identifies the kind of event carried by a notification.
type Type string

const (
	// TypeNewOrder signals that a client placed an order containing
	// one of the producer's offers.
	TypeNewOrder Type = "NEW_ORDER"
	// TypeLowStock signals that an offer dropped to or below its
	// minimum threshold.
	TypeLowStock Type = "LOW_STOCK"
)

// Notification is a single event delivered to the producer.
type Notification struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Read      bool            `json:"read"`
}

// Subscriber receives the full notification list after every change,
// newest first.
type Subscriber func(notifications []Notification, unread int)

// Store accumulates notifications in memory. Unlike the cart, the
// list is session-scoped and not persisted.
type Store struct {
	mu            sync.RWMutex
	notifications []Notification
	unread        int
	connected     bool
	clock         core.Clock
	logger        core.Logger
	subscribers   []Subscriber
}

// StoreOption configures a notification Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger for the store
func WithStoreLogger(logger core.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock overrides the clock, mainly for tests
func WithStoreClock(clock core.Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewStore creates an empty notification store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		clock:  core.RealClock{},
		logger: &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a callback invoked after every mutation.
func (s *Store) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
}

// Add prepends a notification. A missing ID gets a generated one and
// a zero timestamp is stamped with the current time; the notification
// always enters unread. The stored value is returned.
func (s *Store) Add(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.clock.Now()
	}
	n.Read = false

	s.mu.Lock()
	s.notifications = append([]Notification{n}, s.notifications...)
	s.unread++
	s.mu.Unlock()

	s.logger.Debug("Notification added", map[string]interface{}{
		"id":   n.ID,
		"type": string(n.Type),
	})

	s.notifySubscribers()
	return n
}

// MarkAsRead marks one notification as read. Unknown IDs are a no-op.
// The unread count is recomputed from the list so it can never drift
// negative.
func (s *Store) MarkAsRead(id string) {
	s.mu.Lock()
	changed := false
	unread := 0
	for i := range s.notifications {
		if s.notifications[i].ID == id && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
		}
		if !s.notifications[i].Read {
			unread++
		}
	}
	s.unread = unread
	s.mu.Unlock()

	if changed {
		s.notifySubscribers()
	}
}

// MarkAllAsRead marks every notification as read.
func (s *Store) MarkAllAsRead() {
	s.mu.Lock()
	for i := range s.notifications {
		s.notifications[i].Read = true
	}
	s.unread = 0
	s.mu.Unlock()

	s.notifySubscribers()
}

// Clear removes all notifications.
func (s *Store) Clear() {
	s.mu.Lock()
	s.notifications = nil
	s.unread = 0
	s.mu.Unlock()

	s.notifySubscribers()
}

// Notifications returns a copy of the list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns the number of unread notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Connected reports whether the stream consumer currently holds a
// live connection.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Store) setConnected(connected bool) {
	s.mu.Lock()
	if s.connected == connected {
		s.mu.Unlock()
		return
	}
	s.connected = connected
	s.mu.Unlock()

	s.notifySubscribers()
}

func (s *Store) notifySubscribers() {
	s.mu.RLock()
	notifications := make([]Notification, len(s.notifications))
	copy(notifications, s.notifications)
	unread := s.unread
	subs := make([]Subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub(notifications, unread)
	}
}
