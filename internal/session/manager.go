// Package session scopes conversation registries to user sessions.
package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/marketwire/internal/conversation"
)

// Identity is the authenticated owner of a session.
type Identity struct {
	UserID   string
	Username string
	Token    string
}

// TransportFactory builds the real-time transport used by one session's conversations.
type TransportFactory func(id Identity) conversation.Transport

// Manager owns one conversation registry per active user session.
type Manager struct {
	newTransport   TransportFactory
	connectTimeout time.Duration
	log            *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*conversation.Registry
}

// NewManager creates a manager. newTransport may be nil, in which case
// conversations cannot connect.
func NewManager(newTransport TransportFactory, connectTimeout time.Duration, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Manager{
		newTransport:   newTransport,
		connectTimeout: connectTimeout,
		log:            logger,
		sessions:       make(map[string]*conversation.Registry),
	}
}

// Registry returns the registry for id.UserID, creating it on first use.
func (m *Manager) Registry(id Identity) *conversation.Registry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if reg, ok := m.sessions[id.UserID]; ok {
		return reg
	}

	var transport conversation.Transport
	if m.newTransport != nil {
		transport = m.newTransport(id)
	}
	logger := m.log.With().Str("user_id", id.UserID).Logger()
	reg := conversation.NewRegistry(conversation.Options{
		Transport:      transport,
		Sender:         id.Username,
		ConnectTimeout: m.connectTimeout,
		Logger:         &logger,
	})
	m.sessions[id.UserID] = reg
	m.log.Debug().Str("user_id", id.UserID).Msg("session started")
	return reg
}

// End tears down a session's conversations and forgets its registry.
func (m *Manager) End(userID string) bool {
	m.mu.Lock()
	reg, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return false
	}
	reg.Close()
	m.log.Debug().Str("user_id", userID).Msg("session ended")
	return true
}

// Close ends every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*conversation.Registry)
	m.mu.Unlock()

	for _, reg := range sessions {
		reg.Close()
	}
}
