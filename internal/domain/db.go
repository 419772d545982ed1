package domain

import "context"

// Database defines lifecycle operations for the underlying store. The store
// is opened once at startup and closed on shutdown; no other component holds
// the backing file directly.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
