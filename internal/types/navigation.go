package types

import "time"

// Navigation describes one top-level navigation attempt as observed by the
// host adapter. TabID is zero when the owning tab could not be resolved;
// MainFrame is false for sub-document loads. Both states always proceed.
type Navigation struct {
	TabID     TabID
	WindowID  WindowID
	URL       string
	MainFrame bool
}

// TabState is the registry view of one attached tab.
type TabState struct {
	ID         TabID     `json:"tab_id"`
	WindowID   WindowID  `json:"window_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	Active     bool      `json:"active"`
	AttachedAt time.Time `json:"attached_at"`
}
