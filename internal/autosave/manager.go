// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package autosave

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"slidesmith/internal/metrics"
)

// ErrSessionNotFound is returned for an unknown or foreign editor session.
var ErrSessionNotFound = errors.New("editor session not found")

// maxSweepInterval caps how often idle sessions are looked for.
const maxSweepInterval = 5 * time.Minute

type session struct {
	owner    uuid.UUID
	coord    *Coordinator
	lastUsed time.Time
}

// Manager owns one Coordinator per open editor session. Sessions that are
// not used for Config.IdleTimeout are flushed and closed by a background
// sweeper, which Shutdown stops.
type Manager struct {
	saver Saver
	cfg   Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewManager creates a manager whose coordinators share saver and cfg.
// It starts a background goroutine that evicts idle sessions.
func NewManager(saver Saver, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	m := &Manager{
		saver:    saver,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*session),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	interval := max(min(cfg.IdleTimeout/2, maxSweepInterval), time.Millisecond)
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.evictIdle(time.Now())
			case <-m.stopCh:
				return
			}
		}
	}()

	return m
}

// Open starts an editor session for owner. When carouselID is not uuid.Nil
// the session edits that carousel, and baseline (its stored state) is used
// as the last saved signature.
func (m *Manager) Open(owner, carouselID uuid.UUID, baseline *State) (uuid.UUID, *Coordinator) {
	c := New(m.saver, m.cfg)
	if carouselID != uuid.Nil {
		c.Open(carouselID, baseline)
	}

	id := uuid.New()
	m.mu.Lock()
	m.sessions[id] = &session{owner: owner, coord: c, lastUsed: time.Now()}
	m.mu.Unlock()

	metrics.ActiveEditorSessions.Inc()
	return id, c
}

// Get returns the coordinator for a session owned by owner and marks the
// session as used.
func (m *Manager) Get(id, owner uuid.UUID) (*Coordinator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.owner != owner {
		return nil, ErrSessionNotFound
	}
	s.lastUsed = time.Now()
	return s.coord, nil
}

// Close flushes and removes one session.
func (m *Manager) Close(id, owner uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s.owner != owner {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.coord.Close()
	metrics.ActiveEditorSessions.Dec()
	return nil
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictIdle closes every session last used before now minus the idle
// timeout. Pending changes are flushed first.
func (m *Manager) evictIdle(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var idle []*session
	for id, s := range m.sessions {
		if s.lastUsed.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	closeAll(idle)
	if len(idle) > 0 {
		slog.Info("evicted idle editor sessions", "count", len(idle))
	}
	return len(idle)
}

// Shutdown stops the idle sweeper and flushes every session. Call it once
// the HTTP server has stopped accepting requests.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.done

	m.mu.Lock()
	sessions := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[uuid.UUID]*session)
	m.mu.Unlock()

	closeAll(sessions)
}

func closeAll(sessions []*session) {
	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.coord.Close()
			metrics.ActiveEditorSessions.Dec()
		}()
	}
	wg.Wait()
}
