// Package relay maintains one WebSocket channel per browser window for the
// dashboard UI. Outbound messages announce group moves; inbound messages
// carry control operations back into the policy engine.
package relay

import "github.com/dgnsrekt/tabfence/internal/types"

// Wire method names shared with the UI surfaces.
const (
	MethodConnected        = "connected"
	MethodMoveTabGroup     = "moveTabGroup"
	MethodInvalidateExempt = "invalidateExempt"
	MethodActiveGroup      = "activeGroup"
	MethodNeverAsk         = "neverAsk"
	MethodRedirectTab      = "redirectTab"
)

// Message is the JSON envelope exchanged with UI channels. Method selects
// the operation; the remaining fields are per-method arguments.
type Message struct {
	Method      string         `json:"method"`
	TabID       types.TabID    `json:"tabId,omitempty"`
	WindowID    types.WindowID `json:"windowId,omitempty"`
	GroupID     types.GroupID  `json:"groupId,omitempty"`
	Hostname    string         `json:"hostname,omitempty"`
	Value       bool           `json:"value,omitempty"`
	RedirectURL string         `json:"redirectUrl,omitempty"`
	OriginalURL string         `json:"originalUrl,omitempty"`
	Exempt      bool           `json:"exempt,omitempty"`
}
