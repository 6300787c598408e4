// Package memory implements domain.SessionRepository in process memory, for
// single-instance deployments and tests. Sessions expire after a fixed TTL
// measured on an injectable clock.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
)

var _ domain.SessionRepository = (*SessionRepository)(nil)

type entry struct {
	// JSON keeps stored state isolated from the caller's *domain.Session.
	data      []byte
	expiresAt time.Time
}

type SessionRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
	ttl     time.Duration
	clock   clockwork.Clock
}

func NewSessionRepository(ttl time.Duration, clock clockwork.Clock) *SessionRepository {
	return &SessionRepository{
		entries: make(map[uuid.UUID]entry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (r *SessionRepository) Get(_ context.Context, id uuid.UUID) (*domain.Session, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok || !r.clock.Now().Before(e.expiresAt) {
		return nil, domain.ErrSessionNotFound
	}

	var session domain.Session
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionCorrupt, err)
	}
	return &session, nil
}

// Save stores a copy of session and restarts its TTL.
func (r *SessionRepository) Save(_ context.Context, id uuid.UUID, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	r.mu.Lock()
	r.entries[id] = entry{data: data, expiresAt: r.clock.Now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// Size returns the number of stored sessions, expired or not.
func (r *SessionRepository) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// EvictExpired drops expired sessions and returns how many were removed.
func (r *SessionRepository) EvictExpired() int {
	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, e := range r.entries {
		if !now.Before(e.expiresAt) {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// StartEvictionTimer evicts expired sessions every interval until the
// returned stop function is called.
func (r *SessionRepository) StartEvictionTimer(interval time.Duration) func() {
	ticker := r.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				if evicted := r.EvictExpired(); evicted > 0 {
					slog.Debug("Evicted expired sessions", "count", evicted, "remaining", r.Size())
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
