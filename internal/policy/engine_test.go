package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/tabfence/internal/types"
)

type fakeSettings struct {
	records map[string]types.PageSettings
	err     error
	lookups int
}

func (f *fakeSettings) Lookup(ctx context.Context, domain string) (types.PageSettings, bool, error) {
	f.lookups++
	if f.err != nil {
		return types.PageSettings{}, false, f.err
	}
	ps, ok := f.records[domain]
	return ps, ok, nil
}

type fakeGroups struct {
	assigned map[types.TabID]types.GroupID
	err      error
}

func (f *fakeGroups) CurrentGroup(ctx context.Context, tab types.TabID) (types.GroupID, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.assigned[tab], nil
}

type fakeExempts struct {
	granted map[types.TabID]map[string]bool
}

func (f *fakeExempts) IsExempt(tab types.TabID, domain string) bool {
	return f.granted[tab][domain]
}

func newTestEngine(settings *fakeSettings, groups *fakeGroups, exempts *fakeExempts) *Engine {
	if settings == nil {
		settings = &fakeSettings{}
	}
	if groups == nil {
		groups = &fakeGroups{}
	}
	if exempts == nil {
		exempts = &fakeExempts{}
	}
	return NewEngine(settings, groups, exempts, "http://127.0.0.1:8199")
}

func mainFrameNav(tab types.TabID, url string) types.Navigation {
	return types.Navigation{TabID: tab, WindowID: 1, URL: url, MainFrame: true}
}

func TestDecideIgnoresSubFrameNavigations(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "work"},
	}}
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "personal"}}
	eng := newTestEngine(settings, groups, nil)

	nav := types.Navigation{TabID: "T1", URL: "https://example.com/frame", MainFrame: false}
	d, err := eng.Decide(context.Background(), nav)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonSubFrame {
		t.Fatalf("decision = %s/%s, want %s/%s", d.Outcome, d.Reason, OutcomeProceed, ReasonSubFrame)
	}
	if settings.lookups != 0 {
		t.Fatalf("settings lookups = %d, want 0 (pre-filter must run first)", settings.lookups)
	}
}

func TestDecideIgnoresNavigationsWithoutOwningTab(t *testing.T) {
	eng := newTestEngine(&fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "work"},
	}}, nil, nil)

	d, err := eng.Decide(context.Background(), types.Navigation{URL: "https://example.com/", MainFrame: true})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonNoTab {
		t.Fatalf("decision = %s/%s, want proceed/no-tab", d.Outcome, d.Reason)
	}
}

func TestDecideProceedsWithoutPolicyRecord(t *testing.T) {
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{
		"T1": "",
		"T2": "work",
		"T3": "personal",
	}}
	eng := newTestEngine(nil, groups, nil)

	for _, tab := range []types.TabID{"T1", "T2", "T3"} {
		d, err := eng.Decide(context.Background(), mainFrameNav(tab, "https://unconfigured.example/"))
		if err != nil {
			t.Fatalf("Decide(%s) error = %v", tab, err)
		}
		if d.Outcome != OutcomeProceed || d.Reason != ReasonNoPolicy {
			t.Fatalf("tab %s: decision = %s/%s, want proceed/no-policy", tab, d.Outcome, d.Reason)
		}
	}
}

func TestDecideProceedsForUngovernedTab(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g1", NeverAsk: false},
	}}
	eng := newTestEngine(settings, &fakeGroups{}, nil)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonUngoverned {
		t.Fatalf("decision = %s/%s, want proceed/ungoverned", d.Outcome, d.Reason)
	}
}

func TestDecideProceedsWithinSameGroup(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g1"},
	}}
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "g1"}}
	eng := newTestEngine(settings, groups, nil)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/inbox"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonSameGroup {
		t.Fatalf("decision = %s/%s, want proceed/same-group", d.Outcome, d.Reason)
	}
}

func TestDecideRedirectsCrossGroupNavigation(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g2"},
	}}
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "g1"}}
	eng := newTestEngine(settings, groups, nil)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/doc?id=7"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if !d.Redirect() || d.Reason != ReasonCrossGroup {
		t.Fatalf("decision = %s/%s, want redirect/cross-group", d.Outcome, d.Reason)
	}
	if d.TargetGroup != "g2" || d.TabGroup != "g1" {
		t.Fatalf("groups = tab %q target %q, want g1/g2", d.TabGroup, d.TargetGroup)
	}

	params, err := ParseConfirmURL(d.ConfirmURL)
	if err != nil {
		t.Fatalf("ParseConfirmURL(%q) error = %v", d.ConfirmURL, err)
	}
	if params.URL != "https://example.com/doc?id=7" {
		t.Fatalf("confirm destination = %q, want original URL", params.URL)
	}
	if params.GroupID != "g2" || params.TabID != "T1" {
		t.Fatalf("confirm params = group %q tab %q, want g2/T1", params.GroupID, params.TabID)
	}
}

func TestDecideHonorsNeverAsk(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g2", NeverAsk: true},
	}}
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "g1"}}
	eng := newTestEngine(settings, groups, nil)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonNeverAsk {
		t.Fatalf("decision = %s/%s, want proceed/never-ask", d.Outcome, d.Reason)
	}
}

func TestDecideExemptionShortCircuitsBeforeSettings(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g2"},
	}}
	groups := &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "g1"}}
	exempts := &fakeExempts{granted: map[types.TabID]map[string]bool{
		"T1": {"example.com": true},
	}}
	eng := newTestEngine(settings, groups, exempts)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonExempt {
		t.Fatalf("decision = %s/%s, want proceed/exempt", d.Outcome, d.Reason)
	}
	if settings.lookups != 0 {
		t.Fatalf("settings lookups = %d, want 0 (exemption must win before the record fetch)", settings.lookups)
	}

	// The same navigation redirects again once the exemption is gone.
	exempts.granted = nil
	d, err = eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if err != nil {
		t.Fatalf("Decide() after invalidation error = %v", err)
	}
	if !d.Redirect() || d.Reason != ReasonCrossGroup {
		t.Fatalf("decision after invalidation = %s/%s, want redirect/cross-group", d.Outcome, d.Reason)
	}
}

func TestDecideTreatsUnparsableURLAsUnconfigured(t *testing.T) {
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g2"},
	}}
	eng := newTestEngine(settings, &fakeGroups{assigned: map[types.TabID]types.GroupID{"T1": "g1"}}, nil)

	d, err := eng.Decide(context.Background(), mainFrameNav("T1", "://not-a-url"))
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if d.Outcome != OutcomeProceed || d.Reason != ReasonNoPolicy {
		t.Fatalf("decision = %s/%s, want proceed/no-policy", d.Outcome, d.Reason)
	}
}

func TestDecidePropagatesSettingsFailure(t *testing.T) {
	wantErr := errors.New("disk gone")
	eng := newTestEngine(&fakeSettings{err: wantErr}, nil, nil)

	_, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Decide() error = %v, want %v", err, wantErr)
	}
}

func TestDecidePropagatesGroupLookupFailure(t *testing.T) {
	wantErr := errors.New("session store down")
	settings := &fakeSettings{records: map[string]types.PageSettings{
		"example.com": {Group: "g2"},
	}}
	eng := newTestEngine(settings, &fakeGroups{err: wantErr}, nil)

	_, err := eng.Decide(context.Background(), mainFrameNav("T1", "https://example.com/"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Decide() error = %v, want %v", err, wantErr)
	}
}
