package sessions

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
)

type message struct {
	role    string
	content string
}

type session struct {
	history  []message
	lastUsed time.Time
}

// Manager keeps the most recent exchanges of each conversation in memory.
// Sessions idle for longer than idleTimeout are dropped, and once maxSessions
// are live the least recently used one makes room for a new one. Zero
// disables either limit.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*session
	maxHistory  int
	maxSessions int
	idleTimeout time.Duration
	now         func() time.Time
	logger      arbor.ILogger
}

// NewManager creates a session manager remembering maxHistory exchanges per session
func NewManager(maxHistory, maxSessions int, idleTimeout time.Duration, logger arbor.ILogger) *Manager {
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Manager{
		sessions:    make(map[string]*session),
		maxHistory:  maxHistory,
		maxSessions: maxSessions,
		idleTimeout: idleTimeout,
		now:         time.Now,
		logger:      logger,
	}
}

// CreateSession starts an empty conversation and returns its id
func (m *Manager) CreateSession() string {
	id := uuid.New().String()

	m.mu.Lock()
	m.insertLocked(id)
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", id).Msg("Session created")
	return id
}

// AddExchange records a question and its answer, creating the session if needed
func (m *Manager) AddExchange(sessionID, userMessage, assistantMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.liveLocked(sessionID)
	if s == nil {
		s = m.insertLocked(sessionID)
	}

	history := append(s.history,
		message{role: "User", content: userMessage},
		message{role: "Assistant", content: assistantMessage},
	)
	if limit := m.maxHistory * 2; len(history) > limit {
		history = append([]message(nil), history[len(history)-limit:]...)
	}
	s.history = history
	s.lastUsed = m.now()
}

// GetConversationHistory renders the session as "User: ...\nAssistant: ..." lines.
// The bool is false when the session is unknown, expired or empty.
func (m *Manager) GetConversationHistory(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.liveLocked(sessionID)
	if s == nil || len(s.history) == 0 {
		return "", false
	}
	s.lastUsed = m.now()

	lines := make([]string, 0, len(s.history))
	for _, msg := range s.history {
		lines = append(lines, msg.role+": "+msg.content)
	}
	return strings.Join(lines, "\n"), true
}

// ClearSession forgets a session
func (m *Manager) ClearSession(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

// Len returns the number of sessions currently held
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// liveLocked returns the session, dropping it when it has expired
func (m *Manager) liveLocked(id string) *session {
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if m.expired(s, m.now()) {
		delete(m.sessions, id)
		return nil
	}
	return s
}

func (m *Manager) expired(s *session, now time.Time) bool {
	return m.idleTimeout > 0 && now.Sub(s.lastUsed) > m.idleTimeout
}

// insertLocked adds an empty session after making room for it
func (m *Manager) insertLocked(id string) *session {
	now := m.now()

	evicted := 0
	for key, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, key)
			evicted++
		}
	}

	for m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		var oldestID string
		var oldest time.Time
		for key, s := range m.sessions {
			if oldestID == "" || s.lastUsed.Before(oldest) {
				oldestID, oldest = key, s.lastUsed
			}
		}
		delete(m.sessions, oldestID)
		evicted++
	}

	if evicted > 0 {
		m.logger.Debug().Int("evicted", evicted).Int("sessions", len(m.sessions)).Msg("Evicted sessions")
	}

	s := &session{lastUsed: now}
	m.sessions[id] = s
	return s
}
