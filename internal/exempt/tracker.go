// Package exempt tracks standing per-tab navigation waivers. Exemptions live
// only in process memory: they never persist, never expire on their own, and
// are cleared solely through an explicit invalidation for the tab.
package exempt

import (
	"sort"
	"sync"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// Tracker maps each tab to the set of domains it may enter without policy
// interception.
type Tracker struct {
	mu   sync.Mutex
	tabs map[types.TabID]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{tabs: make(map[types.TabID]map[string]struct{})}
}

// Grant adds domain to the tab's exemption set, creating the set on first
// use. Granting the same pair twice is a no-op.
func (t *Tracker) Grant(tab types.TabID, domain string) {
	if tab == "" || domain == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	set, ok := t.tabs[tab]
	if !ok {
		set = make(map[string]struct{})
		t.tabs[tab] = set
	}
	set[domain] = struct{}{}
}

// IsExempt reports whether the (tab, domain) pair holds a standing waiver.
func (t *Tracker) IsExempt(tab types.TabID, domain string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tabs[tab][domain]
	return ok
}

// Invalidate clears the entire exemption set for a tab.
func (t *Tracker) Invalidate(tab types.TabID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tabs, tab)
}

// Domains returns the tab's exempted domains in sorted order.
func (t *Tracker) Domains(tab types.TabID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	set := t.tabs[tab]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
