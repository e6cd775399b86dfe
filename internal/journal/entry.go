// Package journal records every navigation decision the engine makes: an
// in-memory ring for the API, a broker for live streaming, and an async
// JSONL writer for the on-disk audit trail.
package journal

import (
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/tabfence/internal/policy"
	"github.com/dgnsrekt/tabfence/internal/types"
)

// Entry is one recorded navigation decision.
type Entry struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	TabID       types.TabID    `json:"tab_id"`
	WindowID    types.WindowID `json:"window_id,omitempty"`
	URL         string         `json:"url"`
	Domain      string         `json:"domain,omitempty"`
	Outcome     policy.Outcome `json:"outcome"`
	Reason      policy.Reason  `json:"reason"`
	TabGroup    types.GroupID  `json:"tab_group,omitempty"`
	TargetGroup types.GroupID  `json:"target_group,omitempty"`
	ConfirmURL  string         `json:"confirm_url,omitempty"`
}

// NewEntry stamps a decision with an ID and UTC timestamp.
func NewEntry(nav types.Navigation, d policy.Decision) Entry {
	return Entry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		TabID:       nav.TabID,
		WindowID:    nav.WindowID,
		URL:         nav.URL,
		Domain:      d.Domain,
		Outcome:     d.Outcome,
		Reason:      d.Reason,
		TabGroup:    d.TabGroup,
		TargetGroup: d.TargetGroup,
		ConfirmURL:  d.ConfirmURL,
	}
}
