// Package session keeps one cart store and one submission pipeline per
// anonymous browsing session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/domain/cart"
	"github.com/undercontrol/storefront/internal/domain/catalogue"
	"github.com/undercontrol/storefront/internal/domain/checkout"
	"github.com/undercontrol/storefront/internal/domain/order"
	"github.com/undercontrol/storefront/internal/infrastructure/storage"
)

// Session is one browsing session. Cart access is serialized by the
// session; the pipeline guards itself so a slow submission never blocks
// cart reads.
type Session struct {
	ID string

	mu       sync.Mutex
	store    *cart.Store
	lastSeen time.Time

	pipeline *checkout.Pipeline
}

// Do runs fn with exclusive access to the cart store
func (s *Session) Do(fn func(store *cart.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.store)
}

// Snapshot returns a copy of the cart
func (s *Session) Snapshot() cart.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Clear empties the cart and its stored copy
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear(ctx)
}

// Pipeline returns the session's submission pipeline
func (s *Session) Pipeline() *checkout.Pipeline {
	return s.pipeline
}

// Registry creates sessions on first use and hydrates them from storage
type Registry struct {
	backend       storage.Backend
	catalogue     *catalogue.Catalogue
	assembler     *order.Assembler
	submitter     checkout.Submitter
	submitTimeout time.Duration
	logger        logrus.FieldLogger
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Options configures a Registry
type Options struct {
	Backend       storage.Backend
	Catalogue     *catalogue.Catalogue
	Assembler     *order.Assembler
	Submitter     checkout.Submitter
	SubmitTimeout time.Duration
	Logger        logrus.FieldLogger
}

// NewRegistry creates an empty registry
func NewRegistry(opts Options) *Registry {
	return &Registry{
		backend:       opts.Backend,
		catalogue:     opts.Catalogue,
		assembler:     opts.Assembler,
		submitter:     opts.Submitter,
		submitTimeout: opts.SubmitTimeout,
		logger:        opts.Logger,
		now:           time.Now,
		sessions:      make(map[string]*Session),
	}
}

// Get returns the session for id, creating it if needed. A session whose
// stored state could not be read yet is retried on every Get; until then
// its mutations stay in memory.
func (r *Registry) Get(ctx context.Context, id string) *Session {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		sess = r.newSession(id)
		r.sessions[id] = sess
	}
	r.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = r.now()
	if !sess.store.Hydrated() {
		if err := sess.store.Load(ctx); err != nil {
			r.logger.WithFields(logrus.Fields{
				"session_id": id,
				"error":      err,
			}).Warn("Failed to rehydrate session cart")
		}
	}
	return sess
}

func (r *Registry) newSession(id string) *Session {
	log := r.logger.WithField("session_id", id)
	sess := &Session{
		ID:    id,
		store: cart.NewStore(r.catalogue, storage.NewScoped(r.backend, id), log),
	}
	sess.pipeline = checkout.NewPipeline(r.assembler, sess, r.submitter, log).
		WithSubmitTimeout(r.submitTimeout)
	return sess
}

// Len is the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops in-memory sessions idle for longer than maxIdle. Stored
// carts are kept and rehydrate on the next visit. Sessions with a
// submission in flight are never evicted.
func (r *Registry) Evict(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, sess := range r.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()

		if idle && sess.pipeline.State() != checkout.StateSending {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunJanitor evicts idle sessions every interval until ctx is done
func (r *Registry) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				r.logger.WithField("evicted", n).Debug("Evicted idle sessions")
			}
		}
	}
}
