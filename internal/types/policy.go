package types

// PageSettings is the persisted per-domain policy record. Absence of a
// record for a domain means no policy is configured and navigation is never
// intercepted. NeverAsk disables interception for the domain regardless of
// group mismatch.
type PageSettings struct {
	Group    GroupID `json:"group"`
	NeverAsk bool    `json:"neverAsk"`
}

// Prefs holds agent-level preferences persisted alongside page settings.
type Prefs struct {
	AutoOpenDashboard bool `json:"autoOpenDashboard"`
}
