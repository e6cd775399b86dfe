package host

import (
	"sort"
	"sync"
	"time"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// Registry maps tab IDs to live tab metadata.
type Registry struct {
	tabs map[types.TabID]*types.TabState
	mu   sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{tabs: make(map[types.TabID]*types.TabState)}
}

// Upsert records a tab, preserving the original attach time on updates.
func (r *Registry) Upsert(tab types.TabID, window types.WindowID, url, title string) *types.TabState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.tabs[tab]
	if !ok {
		state = &types.TabState{ID: tab, AttachedAt: time.Now().UTC()}
		r.tabs[tab] = state
	}
	state.WindowID = window
	if url != "" {
		state.URL = url
	}
	if title != "" {
		state.Title = title
	}
	return state
}

func (r *Registry) Get(tab types.TabID) (types.TabState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.tabs[tab]
	if !ok {
		return types.TabState{}, false
	}
	return *state, true
}

func (r *Registry) Remove(tab types.TabID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tabs, tab)
}

// SetActive marks the tab active and clears the flag on its window siblings.
func (r *Registry) SetActive(tab types.TabID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.tabs[tab]
	if !ok {
		return
	}
	for _, other := range r.tabs {
		if other.WindowID == state.WindowID {
			other.Active = false
		}
	}
	state.Active = true
}

// List returns all tracked tabs ordered by attach time.
func (r *Registry) List() []types.TabState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.TabState, 0, len(r.tabs))
	for _, state := range r.tabs {
		out = append(out, *state)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttachedAt.Equal(out[j].AttachedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].AttachedAt.Before(out[j].AttachedAt)
	})
	return out
}

// ByWindow returns the tracked tabs that belong to the window.
func (r *Registry) ByWindow(window types.WindowID) []types.TabState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []types.TabState
	for _, state := range r.tabs {
		if state.WindowID == window {
			out = append(out, *state)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Windows returns the distinct window IDs with at least one tracked tab.
func (r *Registry) Windows() []types.WindowID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[types.WindowID]struct{})
	for _, state := range r.tabs {
		seen[state.WindowID] = struct{}{}
	}
	out := make([]types.WindowID, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}
