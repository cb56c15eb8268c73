package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/liftviz/internal/log"
	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/metrics"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Manager owns the live sessions. Sessions share the skeleton and profile
// registries but no mutable state.
type Manager struct {
	ctx       context.Context
	skeletons *skeleton.Registry
	profiles  *animation.Registry
	opts      animation.DriverOptions
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a manager. Session drivers are bound to ctx.
func NewManager(ctx context.Context, skeletons *skeleton.Registry, profiles *animation.Registry, opts animation.DriverOptions) *Manager {
	return &Manager{
		ctx:       ctx,
		skeletons: skeletons,
		profiles:  profiles,
		opts:      opts,
		logger:    log.With("component", "session"),
		sessions:  make(map[string]*Session),
	}
}

// Skeletons returns the shared skeleton registry.
func (m *Manager) Skeletons() *skeleton.Registry { return m.skeletons }

// Profiles returns the shared motion profile registry.
func (m *Manager) Profiles() *animation.Registry { return m.profiles }

// Create starts a new session showing lift, or the default lift when empty.
func (m *Manager) Create(lift string) (*Session, error) {
	if skeleton.NormalizeLift(lift) == "" {
		lift = skeleton.DefaultLift
	}

	s, err := newSession(m.ctx, uuid.New().String(), lift, m.skeletons, m.profiles, m.opts, m.logger)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.logger.Info("session created", "session", s.ID, "lift", s.Lift(), "active", count)
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove stops and forgets a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	metrics.ActiveSessions.Dec()
	m.logger.Info("session removed", "session", id)
	return nil
}

// List returns all sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		metrics.ActiveSessions.Dec()
	}
}
