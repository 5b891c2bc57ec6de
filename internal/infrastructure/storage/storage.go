// Package storage provides the key-value backends session carts persist to.
package storage

import "context"

// Backend is a string key-value store. Get reports found=false for
// missing keys rather than an error.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
