// Package session keeps one chat controller per chat-surface visit.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/connectcom-support/internal/chat"
	"github.com/wolfman30/connectcom-support/internal/observability/metrics"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

var ErrNotFound = errors.New("session: not found")

// Factory builds a fresh controller for a new session id.
type Factory func(id string) *chat.Controller

// Registry maps session ids to controllers. Sessions never share state.
type Registry struct {
	factory Factory
	ttl     time.Duration
	logger  *logging.Logger
	metrics *metrics.ChatMetrics
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	controller *chat.Controller
	lastSeen   time.Time
}

type Config struct {
	Factory Factory
	// IdleTTL evicts sessions untouched for this long; zero disables eviction.
	IdleTTL time.Duration
	Logger  *logging.Logger
	Metrics *metrics.ChatMetrics
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Factory == nil {
		panic("session: controller factory cannot be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		factory:  cfg.Factory,
		ttl:      cfg.IdleTTL,
		logger:   logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a session at its welcome turn.
func (r *Registry) Create() (string, *chat.Controller) {
	id := uuid.NewString()
	c := r.factory(id)

	r.mu.Lock()
	r.sessions[id] = &entry{controller: c, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.logger.Info("session created", "session_id", id)
	return id, c
}

// Get returns the session's controller and marks it as recently used.
func (r *Registry) Get(id string) (*chat.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen = r.now()
	return e.controller, nil
}

// Reset puts the session back to its welcome turn.
func (r *Registry) Reset(id string) (*chat.Controller, error) {
	c, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	c.Reset()
	return c, nil
}

// End drops the session. A reply still in flight is discarded.
func (r *Registry) End(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.controller.Reset()
	r.metrics.SetActiveSessions(n)
	r.logger.Info("session ended", "session_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed. Sessions
// with a reply in flight are kept.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) && e.controller.State() != chat.StateAwaitingReply {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.SetActiveSessions(n)
		r.logger.Info("idle sessions evicted", "count", removed)
	}
	return removed
}

// Run sweeps on interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
