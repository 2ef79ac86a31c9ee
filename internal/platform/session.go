// Package platform implements the chat façade: session state, mode
// dispatch across the debate and semantic runners, and the UI payload.
package platform

import (
	"sync"
	"time"
)

// DefaultMaxTurns caps session history length.
const DefaultMaxTurns = 100

// Turn is one message in a session history.
type Turn struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Session is a chat session's recorded history.
type Session struct {
	ID    string `json:"session_id"`
	Turns []Turn `json:"turns"`
}

// SessionStore keeps sessions in memory. Histories are capped; on
// overflow the oldest turns are dropped.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxTurns int
}

// NewSessionStore creates a store with the given turn cap.
func NewSessionStore(maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SessionStore{sessions: map[string]*Session{}, maxTurns: maxTurns}
}

// Append records a turn, creating the session on first use.
func (s *SessionStore) Append(sessionID, role, content string, metadata map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		session = &Session{ID: sessionID}
		s.sessions[sessionID] = session
	}
	session.Turns = append(session.Turns, Turn{Role: role, Content: content, Metadata: metadata, Timestamp: time.Now().UTC()})
	if len(session.Turns) > s.maxTurns {
		session.Turns = session.Turns[len(session.Turns)-s.maxTurns:]
	}
}

// Get returns a copy of the session history.
func (s *SessionStore) Get(sessionID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	copied := Session{ID: session.ID, Turns: make([]Turn, len(session.Turns))}
	copy(copied.Turns, session.Turns)
	return copied, true
}

// Delete clears the session.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
