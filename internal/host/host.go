// Package host defines the boundary between the policy engine and the
// browser it governs. The engine talks to the browser through Driver and the
// browser reports back through Sink; neither side imports the other.
package host

import (
	"context"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// Driver is the browser-control surface the engine depends on.
type Driver interface {
	// NavigateTab drives the tab to the given URL.
	NavigateTab(ctx context.Context, tab types.TabID, url string) error

	// ForgetHistory removes history entries whose URL matches exactly.
	ForgetHistory(ctx context.Context, tab types.TabID, url string) error

	// OpenTab opens a new tab at the given URL and returns its ID.
	OpenTab(ctx context.Context, url string) (types.TabID, error)

	// Screenshot captures the tab as PNG bytes.
	Screenshot(ctx context.Context, tab types.TabID) ([]byte, error)
}

// Sink receives browser lifecycle and navigation events.
type Sink interface {
	// HandleNavigation decides a pending top-level navigation. A redirect
	// decision carries the confirmation URL the host must steer the tab to.
	HandleNavigation(ctx context.Context, nav types.Navigation) (redirect string, err error)

	TabCreated(ctx context.Context, tab types.TabID, window types.WindowID, url string)
	TabActivated(ctx context.Context, tab types.TabID, window types.WindowID)
	TabRemoved(ctx context.Context, tab types.TabID)
	WindowRemoved(ctx context.Context, window types.WindowID)
}
