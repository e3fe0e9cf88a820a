// Package state holds the single session context of a client: the connected
// wallet, the message feed, the activity log and the sending flag.
package state

import (
	"sync"
	"time"

	"gmboard/pkg/models"
	"gmboard/pkg/wallet"

	"go.uber.org/zap"
)

const subscriberBuffer = 100

// Store is safe for concurrent use. Every mutation is broadcast to subscribers.
type Store struct {
	mu sync.RWMutex

	session  *models.WalletSession
	conn     wallet.Connection
	messages []models.Message
	logs     []models.LogEntry
	sending  bool

	subscribers []Subscriber
	logger      *zap.Logger
	now         func() time.Time
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the journal clock (useful for testing).
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Subscribe adds a new subscriber and returns a channel to receive events.
func (s *Store) Subscribe() Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(Subscriber, subscriberBuffer)
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

func (s *Store) notify(event Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscribers {
		select {
		case sub <- event:
		default:
			// slow subscriber, drop
		}
	}
}

// AddLog prepends a timestamped entry to the journal.
func (s *Store) AddLog(msg string) models.LogEntry {
	s.mu.Lock()
	entry := models.LogEntry{Timestamp: s.now().Format("15:04:05"), Message: msg}
	s.logs = append([]models.LogEntry{entry}, s.logs...)
	s.mu.Unlock()

	s.logger.Info(msg, zap.String("component", "journal"))
	s.notify(Event{Type: EventLogAppended, Data: entry})
	return entry
}

// Logs returns the journal, newest first.
func (s *Store) Logs() []models.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// SetMessages replaces the whole feed, pending entries included.
func (s *Store) SetMessages(msgs []models.Message) {
	s.mu.Lock()
	s.messages = make([]models.Message, len(msgs))
	copy(s.messages, msgs)
	s.mu.Unlock()

	s.notify(Event{Type: EventFeedUpdated, Data: s.Messages()})
}

// PrependPending inserts an optimistic entry at the head of the feed.
func (s *Store) PrependPending(msg models.Message) {
	msg.Pending = true
	msg.Timestamp = 0
	s.mu.Lock()
	s.messages = append([]models.Message{msg}, s.messages...)
	s.mu.Unlock()

	s.notify(Event{Type: EventFeedUpdated, Data: s.Messages()})
}

// Messages returns the feed, newest first.
func (s *Store) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// PendingCount returns how many optimistic entries are in the feed.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, m := range s.messages {
		if m.Pending {
			n++
		}
	}
	return n
}

// BeginSending sets the sending flag. It returns false if a send is
// already in flight.
func (s *Store) BeginSending() bool {
	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return false
	}
	s.sending = true
	s.mu.Unlock()

	s.notify(Event{Type: EventSendingChanged, Data: true})
	return true
}

// EndSending clears the sending flag.
func (s *Store) EndSending() {
	s.mu.Lock()
	changed := s.sending
	s.sending = false
	s.mu.Unlock()

	if changed {
		s.notify(Event{Type: EventSendingChanged, Data: false})
	}
}

// Sending reports whether a publish is in flight.
func (s *Store) Sending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sending
}

// ClearDraft tells presentation layers to empty their compose box.
func (s *Store) ClearDraft() {
	s.notify(Event{Type: EventDraftCleared})
}

// SetSession stores a fully established session and its connection.
func (s *Store) SetSession(sess models.WalletSession, conn wallet.Connection) {
	s.mu.Lock()
	s.session = &sess
	s.conn = conn
	s.mu.Unlock()

	s.notify(Event{Type: EventSessionUpdated, Data: sess})
}

// ClearSession drops the active session.
func (s *Store) ClearSession() {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.conn = nil
	s.mu.Unlock()

	if had {
		s.notify(Event{Type: EventSessionUpdated, Data: nil})
	}
}

// Session returns the active session, if any.
func (s *Store) Session() (models.WalletSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return models.WalletSession{}, false
	}
	return *s.session, true
}

// Connection returns the connection backing the active session.
func (s *Store) Connection() wallet.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Snapshot is a point-in-time copy of the state for rendering.
type Snapshot struct {
	Session  *models.WalletSession `json:"session"`
	Messages []models.Message      `json:"messages"`
	Logs     []models.LogEntry     `json:"logs"`
	Sending  bool                  `json:"sending"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Messages: make([]models.Message, len(s.messages)),
		Logs:     make([]models.LogEntry, len(s.logs)),
		Sending:  s.sending,
	}
	copy(snap.Messages, s.messages)
	copy(snap.Logs, s.logs)
	if s.session != nil {
		sess := *s.session
		snap.Session = &sess
	}
	return snap
}
