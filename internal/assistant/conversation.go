package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles of a conversation turn
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultMaxSessions bounds the number of conversations kept in memory.
const DefaultMaxSessions = 1000

// Message is one turn of a conversation
type Message struct {
	Role string    `json:"role"`
	Text string    `json:"content"`
	At   time.Time `json:"at"`
	// Code is set on assistant turns that carry a placeholder.
	Code string `json:"error,omitempty"`
}

// Conversation is an append-only log of turns.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
	lastSeen time.Time
}

// Append adds a turn
func (c *Conversation) Append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
	c.lastSeen = m.At
}

// Messages returns a copy of the turns in order
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of turns
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// SessionStore keeps one Conversation per session ID. When full, the
// least recently active conversation is dropped.
type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Conversation
	maxSessions int
	now         func() time.Time
}

// NewSessionStore creates an empty store
func NewSessionStore(maxSessions int) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &SessionStore{
		sessions:    make(map[string]*Conversation),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// NewSessionID returns a fresh random session ID
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether id has the shape NewSessionID produces.
func ValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the conversation for id, creating it when absent.
func (s *SessionStore) Get(id string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.sessions[id]; ok {
		return conv
	}
	if len(s.sessions) >= s.maxSessions {
		s.evictOldest()
	}
	conv := &Conversation{lastSeen: s.now()}
	s.sessions[id] = conv
	return conv
}

// Record appends a user question and the reply to the session.
func (s *SessionStore) Record(id, question, answer, code string) {
	conv := s.Get(id)
	now := s.now()
	conv.Append(Message{Role: RoleUser, Text: question, At: now})
	conv.Append(Message{Role: RoleAssistant, Text: answer, At: now, Code: code})
}

// History returns the turns of a session, empty when unknown.
func (s *SessionStore) History(id string) []Message {
	s.mu.Lock()
	conv, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return []Message{}
	}
	return conv.Messages()
}

// Clear forgets a session
func (s *SessionStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) evictOldest() {
	var (
		oldestID   string
		oldestSeen time.Time
	)
	for id, conv := range s.sessions {
		conv.mu.RLock()
		seen := conv.lastSeen
		conv.mu.RUnlock()
		if oldestID == "" || seen.Before(oldestSeen) {
			oldestID = id
			oldestSeen = seen
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
