package storage

import "context"

// Scoped prefixes every key so many sessions can share one backend. It
// satisfies the cart store's persistence port.
type Scoped struct {
	backend Backend
	prefix  string
}

// NewScoped scopes backend to keys under "session:<id>:"
func NewScoped(backend Backend, sessionID string) *Scoped {
	return &Scoped{backend: backend, prefix: "session:" + sessionID + ":"}
}

// Key returns the backend key for key
func (s *Scoped) Key(key string) string {
	return s.prefix + key
}

func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.backend.Get(ctx, s.Key(key))
}

func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.Key(key), value)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.Key(key))
}
