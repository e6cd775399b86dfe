// Package settings implements the persistent key/value policy store and the
// typed per-domain repository on top of it.
package settings

import (
	"context"
	"encoding/json"
)

// Change describes one key mutation. Old is nil when the key did not exist
// before; New is nil when the key was deleted.
type Change struct {
	Key string
	Old json.RawMessage
	New json.RawMessage
}

// Listener receives every committed mutation batch.
type Listener func(changes []Change)

// Store is the settings store adapter. Get with nil keys returns every
// stored value. Each mutation is committed as a single atomic write; there
// are no partial writes to recover from.
type Store interface {
	Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error)
	Set(ctx context.Context, values map[string]json.RawMessage) error
	Delete(ctx context.Context, keys []string) error

	// OnChange registers a listener fired after each committed mutation.
	// The returned function unregisters it.
	OnChange(l Listener) func()
}
