// Package session provides ephemeral per-tab and per-window value storage
// scoped to the browsing session. Values never persist across restarts; a
// missing value is a valid state, not an error.
package session

import (
	"context"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// Store is the session state adapter. The boolean return distinguishes a
// stored empty value from an absent one.
type Store interface {
	TabValue(ctx context.Context, tab types.TabID, key string) (string, bool, error)
	SetTabValue(ctx context.Context, tab types.TabID, key, value string) error
	WindowValue(ctx context.Context, window types.WindowID, key string) (string, bool, error)
	SetWindowValue(ctx context.Context, window types.WindowID, key, value string) error

	// RemoveTab and RemoveWindow perform the host-managed clearing of
	// session values when a tab or window goes away.
	RemoveTab(ctx context.Context, tab types.TabID) error
	RemoveWindow(ctx context.Context, window types.WindowID) error
}
