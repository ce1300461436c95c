package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/citynav/game/engine"
	"github.com/wricardo/mcp-training/citynav/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// maxIDAttempts bounds retries when a generated ID is already taken
const maxIDAttempts = 16

// SourceFactory supplies the random source for each new session's engine
type SourceFactory func() engine.RandomSource

// TimeSeededSources gives every session an independent time-seeded source
func TimeSeededSources() SourceFactory {
	return func() engine.RandomSource {
		return engine.NewRandomSource(0)
	}
}

// SeededSources gives the n-th session created a source seeded with seed+n,
// so a whole run replays when the seed is fixed. A zero seed falls back to
// TimeSeededSources.
func SeededSources(seed uint64) SourceFactory {
	if seed == 0 {
		return TimeSeededSources()
	}
	var n atomic.Uint64
	return func() engine.RandomSource {
		return engine.NewRandomSource(seed + n.Add(1) - 1)
	}
}

// Manager handles game session lifecycle
type Manager struct {
	sessions map[string]*service.Session
	sources  SourceFactory
	mu       sync.RWMutex
}

// NewManager creates a new session manager with time-seeded games
func NewManager() *Manager {
	return NewManagerWithSources(TimeSeededSources())
}

// NewManagerWithSources creates a new session manager that draws games from
// the sources produced by factory
func NewManagerWithSources(factory SourceFactory) *Manager {
	if factory == nil {
		factory = TimeSeededSources()
	}
	return &Manager{
		sessions: make(map[string]*service.Session),
		sources:  factory,
	}
}

// Create creates a new session with the given ID on board. An empty ID is
// replaced by a generated 4-character one.
func (m *Manager) Create(id, mapName string, board *engine.Board) (*service.Session, error) {
	if board == nil {
		return nil, fmt.Errorf("board cannot be nil")
	}
	id = strings.TrimSpace(id)
	if strings.ContainsAny(id, " \t\n/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		generated, err := m.uniqueSessionID()
		if err != nil {
			return nil, err
		}
		id = generated
	} else if m.sessionExists(id) {
		// Check if session already exists (case-insensitive)
		return nil, ErrSessionAlreadyExists
	}

	// Create game engine
	eng, err := engine.NewEngine(board, m.sources())
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		MapName:        mapName,
		Engine:         eng,
		Board:          board,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	m.sessions[strings.ToLower(id)] = session

	log.Info().Str("session", id).Str("map", mapName).Msg("session created")
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(strings.TrimSpace(id))]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, mapName string, board *engine.Board) (*service.Session, error) {
	// Try to get existing session first
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	// Create new session if not found
	if errors.Is(err, ErrSessionNotFound) {
		session, err = m.Create(id, mapName, board)
		if errors.Is(err, ErrSessionAlreadyExists) {
			// Lost a race with another creator
			return m.Get(id)
		}
		return session, err
	}

	return nil, err
}

// List returns copies of all active sessions, oldest first
func (m *Manager) List() []service.Session {
	m.mu.RLock()
	result := make([]service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, *session)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(id))
	if _, exists := m.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)

	log.Info().Str("session", id).Msg("session deleted")
	return nil
}

// Touch marks a session accessed and returns a copy of it taken under the
// manager's lock. The copy shares the session's engine.
func (m *Manager) Touch(id string) (service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, exists := m.sessions[strings.ToLower(strings.TrimSpace(id))]
	if !exists {
		return service.Session{}, ErrSessionNotFound
	}

	session.LastAccessedAt = time.Now()
	return *session, nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	_, err := m.Touch(id)
	return err
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the given duration
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if session.LastAccessedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Dur("max_age", maxAge).Msg("expired sessions cleaned up")
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// uniqueSessionID generates an unused ID; called with m.mu held
func (m *Manager) uniqueSessionID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := generateSessionID()
		if !m.sessionExists(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate a free ID after %d attempts", ErrSessionAlreadyExists, maxIDAttempts)
}

// generateSessionID generates a random 4-character session ID
func generateSessionID() string {
	// Generate 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.sessions[strings.ToLower(id)]
	return exists
}
