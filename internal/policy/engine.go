package policy

import (
	"context"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// SettingsSource resolves the persisted policy record for a domain.
// The second return is false when no record exists, which is a valid state.
type SettingsSource interface {
	Lookup(ctx context.Context, domain string) (types.PageSettings, bool, error)
}

// GroupSource resolves a tab's current group assignment. A tab with no
// assignment yields the zero GroupID, never an error.
type GroupSource interface {
	CurrentGroup(ctx context.Context, tab types.TabID) (types.GroupID, error)
}

// ExemptionSource answers standing per-tab domain waivers.
type ExemptionSource interface {
	IsExempt(tab types.TabID, domain string) bool
}

type Outcome string

const (
	OutcomeProceed  Outcome = "proceed"
	OutcomeRedirect Outcome = "redirect"
)

// Reason records which rule decided a navigation.
type Reason string

const (
	ReasonSubFrame   Reason = "subframe"
	ReasonNoTab      Reason = "no-tab"
	ReasonExempt     Reason = "exempt"
	ReasonNoPolicy   Reason = "no-policy"
	ReasonNeverAsk   Reason = "never-ask"
	ReasonUngoverned Reason = "ungoverned"
	ReasonSameGroup  Reason = "same-group"
	ReasonCrossGroup Reason = "cross-group"
)

// Decision is the engine's answer for one navigation.
type Decision struct {
	Outcome     Outcome       `json:"outcome"`
	Reason      Reason        `json:"reason"`
	Domain      string        `json:"domain,omitempty"`
	TabGroup    types.GroupID `json:"tab_group,omitempty"`
	TargetGroup types.GroupID `json:"target_group,omitempty"`
	ConfirmURL  string        `json:"confirm_url,omitempty"`
}

// Redirect reports whether the navigation must be rewritten to the
// confirmation surface.
func (d Decision) Redirect() bool { return d.Outcome == OutcomeRedirect }

// Engine combines exemption, settings, and membership state into a single
// proceed-or-redirect decision per top-level navigation. All state is
// injected; the engine holds nothing mutable of its own.
type Engine struct {
	settings    SettingsSource
	groups      GroupSource
	exempts     ExemptionSource
	confirmBase string
}

func NewEngine(settings SettingsSource, groups GroupSource, exempts ExemptionSource, confirmBase string) *Engine {
	return &Engine{
		settings:    settings,
		groups:      groups,
		exempts:     exempts,
		confirmBase: confirmBase,
	}
}

// Decide applies the policy rules in order; the first matching rule wins.
// Only main-frame navigations with a resolvable owning tab are considered;
// everything else proceeds untouched before any other check runs. Exemption
// and missing-record checks short-circuit ahead of the group comparison, so
// an exempted domain is never reconsidered until explicitly invalidated.
func (e *Engine) Decide(ctx context.Context, nav types.Navigation) (Decision, error) {
	if !nav.MainFrame {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonSubFrame}, nil
	}
	if nav.TabID == "" {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonNoTab}, nil
	}

	domain := Domain(nav.URL)

	if e.exempts.IsExempt(nav.TabID, domain) {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonExempt, Domain: domain}, nil
	}

	ps, ok, err := e.settings.Lookup(ctx, domain)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonNoPolicy, Domain: domain}, nil
	}
	if ps.NeverAsk {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonNeverAsk, Domain: domain, TargetGroup: ps.Group}, nil
	}

	tabGroup, err := e.groups.CurrentGroup(ctx, nav.TabID)
	if err != nil {
		return Decision{}, err
	}
	if tabGroup.Ungoverned() {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonUngoverned, Domain: domain, TargetGroup: ps.Group}, nil
	}
	if tabGroup == ps.Group {
		return Decision{Outcome: OutcomeProceed, Reason: ReasonSameGroup, Domain: domain, TabGroup: tabGroup, TargetGroup: ps.Group}, nil
	}

	return Decision{
		Outcome:     OutcomeRedirect,
		Reason:      ReasonCrossGroup,
		Domain:      domain,
		TabGroup:    tabGroup,
		TargetGroup: ps.Group,
		ConfirmURL:  BuildConfirmURL(e.confirmBase, nav.URL, ps.Group, nav.TabID),
	}, nil
}
