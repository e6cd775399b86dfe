// Package controller implements the agent service: the single process-level
// state holder that owns the policy engine, the stores, the exemption
// tracker, the group manager, the journal, and the host driver. It is
// constructed once in main and injected everywhere; no package-level mutable
// state exists.
package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/tabfence/internal/exempt"
	"github.com/dgnsrekt/tabfence/internal/group"
	"github.com/dgnsrekt/tabfence/internal/host"
	"github.com/dgnsrekt/tabfence/internal/journal"
	"github.com/dgnsrekt/tabfence/internal/metrics"
	"github.com/dgnsrekt/tabfence/internal/notify"
	"github.com/dgnsrekt/tabfence/internal/policy"
	"github.com/dgnsrekt/tabfence/internal/session"
	"github.com/dgnsrekt/tabfence/internal/settings"
	"github.com/dgnsrekt/tabfence/internal/types"
)

// Channels is the outbound UI messaging surface the service depends on. The
// relay hub satisfies it; it is attached after construction because the hub
// itself needs the service for inbound controls.
type Channels interface {
	TabGroupMoved(tab types.TabID, group types.GroupID)
	DropWindow(window types.WindowID)
	Count() int
	HasWindow(window types.WindowID) bool
}

// Config carries the state holders the service owns.
type Config struct {
	Pages    *settings.Pages
	Exempts  *exempt.Tracker
	Registry *host.Registry
	Journal  *journal.Journal
	Metrics  *metrics.Metrics
	Sessions session.Store
	Pusher   *notify.Notifier
	BaseURL  string
}

// Service wires the policy engine to the stores and the host, and exposes
// the control and management operations of the agent.
type Service struct {
	pages    *settings.Pages
	exempts  *exempt.Tracker
	registry *host.Registry
	journal  *journal.Journal
	metrics  *metrics.Metrics
	sessions session.Store
	pusher   *notify.Notifier
	baseURL  string

	groups *group.Manager
	engine *policy.Engine

	mu       sync.RWMutex
	driver   host.Driver
	channels Channels

	prefsMu sync.Mutex
	prefs   types.Prefs

	dashboardOpened atomic.Bool
	unwatch         func()
}

// NewService builds the service. The group manager navigates and notifies
// through the service itself, so the driver and channels can attach later.
func NewService(cfg Config) *Service {
	s := &Service{
		pages:    cfg.Pages,
		exempts:  cfg.Exempts,
		registry: cfg.Registry,
		journal:  cfg.Journal,
		metrics:  cfg.Metrics,
		sessions: cfg.Sessions,
		pusher:   cfg.Pusher,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
	}
	s.groups = group.NewManager(cfg.Sessions, s, s)
	s.engine = policy.NewEngine(cfg.Pages, s.groups, cfg.Exempts, s.baseURL)
	s.unwatch = cfg.Pages.OnChange(s.onSettingsChange)
	return s
}

// SetDriver attaches the browser driver. Operations that need the host
// report HOST_UNAVAILABLE until it is set.
func (s *Service) SetDriver(d host.Driver) {
	s.mu.Lock()
	s.driver = d
	s.mu.Unlock()
}

// SetChannels attaches the UI messaging hub.
func (s *Service) SetChannels(c Channels) {
	s.mu.Lock()
	s.channels = c
	s.mu.Unlock()
}

// Start primes the cached preferences. Call once before host events flow.
func (s *Service) Start(ctx context.Context) error {
	prefs, _, err := s.pages.Prefs(ctx)
	if err != nil {
		return err
	}
	s.prefsMu.Lock()
	s.prefs = prefs
	s.prefsMu.Unlock()
	return nil
}

// Close releases the settings watch. The journal, driver, and stores are
// owned and closed by main.
func (s *Service) Close() {
	if s.unwatch != nil {
		s.unwatch()
	}
}

func (s *Service) driverRef() host.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.driver
}

func (s *Service) channelsRef() Channels {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channels
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &types.CodedError{Code: types.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

func (s *Service) onSettingsChange(changes []settings.Change) {
	for _, ch := range changes {
		if ch.Key != settings.PrefsKey {
			continue
		}
		var prefs types.Prefs
		if ch.New != nil {
			if err := json.Unmarshal(ch.New, &prefs); err != nil {
				slog.Debug("decode prefs change", "error", err)
				continue
			}
		}
		s.prefsMu.Lock()
		s.prefs = prefs
		s.prefsMu.Unlock()
	}
}

func (s *Service) prefsSnapshot() types.Prefs {
	s.prefsMu.Lock()
	defer s.prefsMu.Unlock()
	return s.prefs
}

// --- host.Sink ---

// HandleNavigation decides one top-level navigation and records the outcome.
// A store failure propagates to the host adapter, which fails open.
func (s *Service) HandleNavigation(ctx context.Context, nav types.Navigation) (string, error) {
	s.metrics.NavigationsIntercepted.Inc()

	d, err := s.engine.Decide(ctx, nav)
	if err != nil {
		s.metrics.StoreErrors.Inc()
		return "", err
	}

	s.journal.Record(journal.NewEntry(nav, d))
	s.metrics.RecordDecision(string(d.Outcome), string(d.Reason))

	if !d.Redirect() {
		return "", nil
	}
	slog.Info("navigation intercepted",
		"tab", nav.TabID,
		"domain", d.Domain,
		"tabGroup", d.TabGroup,
		"targetGroup", d.TargetGroup)
	s.afterIntercept(d)
	return d.ConfirmURL, nil
}

// afterIntercept fires the side effects of a redirect decision: the optional
// push notification and, once per process, the dashboard auto-open.
func (s *Service) afterIntercept(d policy.Decision) {
	if s.pusher.Enabled() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.pusher.Intercept(ctx, d.Domain, string(d.TabGroup), string(d.TargetGroup)); err != nil {
				slog.Warn("intercept notification failed", "error", err)
			}
		}()
	}

	if s.prefsSnapshot().AutoOpenDashboard && s.dashboardOpened.CompareAndSwap(false, true) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := s.OpenDashboard(ctx); err != nil {
				slog.Warn("dashboard auto-open failed", "error", err)
				s.dashboardOpened.Store(false)
			}
		}()
	}
}

func (s *Service) TabCreated(ctx context.Context, tab types.TabID, window types.WindowID, url string) {
	s.registry.Upsert(tab, window, url, "")
	if err := s.groups.OnTabCreated(ctx, tab, window); err != nil {
		slog.Warn("tab group inheritance failed", "tab", tab, "error", err)
	}
}

func (s *Service) TabActivated(ctx context.Context, tab types.TabID, window types.WindowID) {
	s.registry.Upsert(tab, window, "", "")
	s.registry.SetActive(tab)
	if err := s.groups.OnTabActivated(ctx, tab, window); err != nil {
		slog.Warn("window active group update failed", "tab", tab, "error", err)
	}
}

// TabRemoved clears the registry entry and the tab's session values.
// Exemptions stay: they are cleared only by explicit invalidation, and tab
// identifiers are never reused within a browsing session.
func (s *Service) TabRemoved(ctx context.Context, tab types.TabID) {
	s.registry.Remove(tab)
	if err := s.sessions.RemoveTab(ctx, tab); err != nil {
		slog.Warn("tab session cleanup failed", "tab", tab, "error", err)
	}
}

func (s *Service) WindowRemoved(ctx context.Context, window types.WindowID) {
	if err := s.sessions.RemoveWindow(ctx, window); err != nil {
		slog.Warn("window session cleanup failed", "window", window, "error", err)
	}
	if c := s.channelsRef(); c != nil {
		c.DropWindow(window)
	}
}

// --- group.Navigator / group.Notifier ---

// NavigateTab drives a tab through the attached browser driver.
func (s *Service) NavigateTab(ctx context.Context, tab types.TabID, url string) error {
	d := s.driverRef()
	if d == nil {
		return types.NewError(types.CodeHostUnavailable, "browser driver not attached", nil)
	}
	return d.NavigateTab(ctx, tab, url)
}

// TabGroupMoved broadcasts a membership change to every UI channel.
func (s *Service) TabGroupMoved(tab types.TabID, group types.GroupID) {
	if c := s.channelsRef(); c != nil {
		c.TabGroupMoved(tab, group)
	}
}

// --- confirmation resolution and UI controls ---

// RedirectTab resolves a pending confirmation. The exemption grant lands
// before anything navigates and a group change lands before the redirect, so
// both survive a failed navigation. The confirmation page's history entry is
// removed only after the new navigation has been issued.
func (s *Service) RedirectTab(ctx context.Context, tab types.TabID, redirectURL, originalURL string, exempt bool, group types.GroupID) error {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return err
	}
	if err := s.requireNonEmpty(redirectURL, "redirectUrl"); err != nil {
		return err
	}

	if exempt {
		if domain := policy.Domain(redirectURL); domain != "" {
			s.exempts.Grant(tab, domain)
			slog.Info("exemption granted", "tab", tab, "domain", domain)
		}
	}

	var navErr error
	if group != "" {
		navErr = s.groups.MoveTab(ctx, tab, group, redirectURL)
	} else {
		navErr = s.NavigateTab(ctx, tab, redirectURL)
	}

	if originalURL != "" {
		if d := s.driverRef(); d != nil {
			if err := d.ForgetHistory(ctx, tab, originalURL); err != nil {
				slog.Warn("confirmation history cleanup failed", "tab", tab, "error", err)
			}
		}
	}

	if navErr != nil {
		s.metrics.RedirectFailures.Inc()
	}
	return navErr
}

// InvalidateExemptions clears every standing waiver held by the tab.
func (s *Service) InvalidateExemptions(ctx context.Context, tab types.TabID) error {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return err
	}
	s.exempts.Invalidate(tab)
	slog.Debug("exemptions invalidated", "tab", tab)
	return nil
}

// SetActiveGroup records the window's active group directly, the UI form of
// the activation-driven update.
func (s *Service) SetActiveGroup(ctx context.Context, window types.WindowID, group types.GroupID) error {
	if window == 0 {
		return &types.CodedError{Code: types.CodeValidation, Message: "windowId is required"}
	}
	if err := s.groups.SetActiveGroup(ctx, window, group); err != nil {
		return err
	}
	slog.Info("window active group set", "window", window, "group", group)
	return nil
}

// SetNeverAsk is the channel form of ApplyNeverAsk; the applied flag is
// dropped because the protocol has no reply.
func (s *Service) SetNeverAsk(ctx context.Context, hostname string, value bool) error {
	_, err := s.ApplyNeverAsk(ctx, hostname, value)
	return err
}

// ApplyNeverAsk flips the neverAsk flag on an existing record. A hostname
// with no record is silently ignored and reported as not applied.
func (s *Service) ApplyNeverAsk(ctx context.Context, hostname string, value bool) (bool, error) {
	if err := s.requireNonEmpty(hostname, "hostname"); err != nil {
		return false, err
	}
	domain := strings.ToLower(strings.TrimSpace(hostname))
	applied, err := s.pages.SetNeverAsk(ctx, domain, value)
	if err != nil {
		s.metrics.StoreErrors.Inc()
		return false, err
	}
	if !applied {
		slog.Debug("never-ask ignored for unconfigured domain", "domain", domain)
		return false, nil
	}
	slog.Info("never-ask updated", "domain", domain, "value", value)
	return true, nil
}

// MoveTabToGroup is the validated API form of a group move. The tab must be
// tracked by the host.
func (s *Service) MoveTabToGroup(ctx context.Context, tab types.TabID, group types.GroupID, redirectURL string) error {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return err
	}
	if err := s.requireNonEmpty(string(group), "groupId"); err != nil {
		return err
	}
	if _, ok := s.registry.Get(tab); !ok {
		return &types.CodedError{Code: types.CodeNotFound, Message: "tab not tracked: " + string(tab)}
	}
	return s.groups.MoveTab(ctx, tab, group, redirectURL)
}

// GrantExemption adds a standing waiver for the tab and domain.
func (s *Service) GrantExemption(ctx context.Context, tab types.TabID, domain string) error {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return err
	}
	if err := s.requireNonEmpty(domain, "domain"); err != nil {
		return err
	}
	domain = strings.ToLower(strings.TrimSpace(domain))
	s.exempts.Grant(tab, domain)
	slog.Info("exemption granted", "tab", tab, "domain", domain)
	return nil
}

// Exemptions returns the tab's exempted domains in sorted order.
func (s *Service) Exemptions(ctx context.Context, tab types.TabID) ([]string, error) {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return nil, err
	}
	return s.exempts.Domains(tab), nil
}

// --- settings and prefs passthroughs ---

func (s *Service) ListSettings(ctx context.Context) (map[string]types.PageSettings, error) {
	return s.pages.All(ctx)
}

func (s *Service) GetSettings(ctx context.Context, domain string) (types.PageSettings, error) {
	if err := s.requireNonEmpty(domain, "domain"); err != nil {
		return types.PageSettings{}, err
	}
	ps, ok, err := s.pages.Lookup(ctx, domain)
	if err != nil {
		return types.PageSettings{}, err
	}
	if !ok {
		return types.PageSettings{}, &types.CodedError{Code: types.CodeNotFound, Message: "no settings for domain " + domain}
	}
	return ps, nil
}

// PutSettings writes a per-domain record. A record must carry a group unless
// it exists only to hold the neverAsk flag.
func (s *Service) PutSettings(ctx context.Context, domain string, ps types.PageSettings) error {
	if err := s.requireNonEmpty(domain, "domain"); err != nil {
		return err
	}
	if ps.Group == "" && !ps.NeverAsk {
		return &types.CodedError{Code: types.CodeValidation, Message: "group is required"}
	}
	return s.pages.Put(ctx, strings.ToLower(strings.TrimSpace(domain)), ps)
}

func (s *Service) DeleteSettings(ctx context.Context, domain string) error {
	if err := s.requireNonEmpty(domain, "domain"); err != nil {
		return err
	}
	_, ok, err := s.pages.Lookup(ctx, domain)
	if err != nil {
		return err
	}
	if !ok {
		return &types.CodedError{Code: types.CodeNotFound, Message: "no settings for domain " + domain}
	}
	return s.pages.Remove(ctx, domain)
}

// GetPrefs returns the stored preferences; unset preferences are the zero
// value, not an error.
func (s *Service) GetPrefs(ctx context.Context) (types.Prefs, error) {
	prefs, _, err := s.pages.Prefs(ctx)
	return prefs, err
}

func (s *Service) SetPrefs(ctx context.Context, prefs types.Prefs) error {
	return s.pages.SetPrefs(ctx, prefs)
}

// --- read models for the API ---

// TabView is a registry entry joined with its group assignment and standing
// exemptions.
type TabView struct {
	types.TabState
	Group      types.GroupID `json:"group,omitempty"`
	Exemptions []string      `json:"exemptions,omitempty"`
}

// WindowView aggregates a window's active group, its tabs, and whether a UI
// channel is attached.
type WindowView struct {
	ID          types.WindowID `json:"window_id"`
	ActiveGroup types.GroupID  `json:"active_group,omitempty"`
	Tabs        []TabView      `json:"tabs"`
	Channel     bool           `json:"channel"`
}

// GroupInfo is one isolation group with its configured domains and the tabs
// currently assigned to it.
type GroupInfo struct {
	ID      types.GroupID `json:"group"`
	Domains []string      `json:"domains,omitempty"`
	Tabs    []types.TabID `json:"tabs,omitempty"`
}

// HealthInfo is the agent liveness summary.
type HealthInfo struct {
	Status   string `json:"status"`
	Tabs     int    `json:"tabs"`
	Channels int    `json:"channels"`
}

func (s *Service) tabView(ctx context.Context, ts types.TabState) (TabView, error) {
	g, err := s.groups.CurrentGroup(ctx, ts.ID)
	if err != nil {
		return TabView{}, err
	}
	return TabView{TabState: ts, Group: g, Exemptions: s.exempts.Domains(ts.ID)}, nil
}

func (s *Service) ListTabs(ctx context.Context) ([]TabView, error) {
	states := s.registry.List()
	out := make([]TabView, 0, len(states))
	for _, ts := range states {
		v, err := s.tabView(ctx, ts)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) GetTab(ctx context.Context, tab types.TabID) (TabView, error) {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return TabView{}, err
	}
	ts, ok := s.registry.Get(tab)
	if !ok {
		return TabView{}, &types.CodedError{Code: types.CodeNotFound, Message: "tab not tracked: " + string(tab)}
	}
	return s.tabView(ctx, ts)
}

func (s *Service) ListWindows(ctx context.Context) ([]WindowView, error) {
	c := s.channelsRef()
	windows := s.registry.Windows()
	out := make([]WindowView, 0, len(windows))
	for _, w := range windows {
		active, err := s.groups.ActiveGroup(ctx, w)
		if err != nil {
			return nil, err
		}
		states := s.registry.ByWindow(w)
		tabs := make([]TabView, 0, len(states))
		for _, ts := range states {
			v, err := s.tabView(ctx, ts)
			if err != nil {
				return nil, err
			}
			tabs = append(tabs, v)
		}
		out = append(out, WindowView{
			ID:          w,
			ActiveGroup: active,
			Tabs:        tabs,
			Channel:     c != nil && c.HasWindow(w),
		})
	}
	return out, nil
}

// ListGroups merges the groups named by settings records with the groups
// carried by live tab assignments.
func (s *Service) ListGroups(ctx context.Context) ([]GroupInfo, error) {
	infos := make(map[types.GroupID]*GroupInfo)
	get := func(id types.GroupID) *GroupInfo {
		gi, ok := infos[id]
		if !ok {
			gi = &GroupInfo{ID: id}
			infos[id] = gi
		}
		return gi
	}

	all, err := s.pages.All(ctx)
	if err != nil {
		return nil, err
	}
	for domain, ps := range all {
		if ps.Group == "" {
			continue
		}
		gi := get(ps.Group)
		gi.Domains = append(gi.Domains, domain)
	}

	for _, ts := range s.registry.List() {
		g, err := s.groups.CurrentGroup(ctx, ts.ID)
		if err != nil {
			return nil, err
		}
		if g.Ungoverned() {
			continue
		}
		gi := get(g)
		gi.Tabs = append(gi.Tabs, ts.ID)
	}

	out := make([]GroupInfo, 0, len(infos))
	for _, gi := range infos {
		sort.Strings(gi.Domains)
		sort.Slice(gi.Tabs, func(i, j int) bool { return gi.Tabs[i] < gi.Tabs[j] })
		out = append(out, *gi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// RecentDecisions returns the newest n journal entries, newest first.
func (s *Service) RecentDecisions(n int) []journal.Entry {
	return s.journal.Recent(n)
}

// Screenshot captures the tab as PNG bytes through the driver.
func (s *Service) Screenshot(ctx context.Context, tab types.TabID) ([]byte, error) {
	if err := s.requireNonEmpty(string(tab), "tabId"); err != nil {
		return nil, err
	}
	if _, ok := s.registry.Get(tab); !ok {
		return nil, &types.CodedError{Code: types.CodeNotFound, Message: "tab not tracked: " + string(tab)}
	}
	d := s.driverRef()
	if d == nil {
		return nil, types.NewError(types.CodeHostUnavailable, "browser driver not attached", nil)
	}
	return d.Screenshot(ctx, tab)
}

// OpenDashboard opens the dashboard surface in a new tab. This is the
// explicit one-time open command; callers decide when it runs.
func (s *Service) OpenDashboard(ctx context.Context) (types.TabID, error) {
	d := s.driverRef()
	if d == nil {
		return "", types.NewError(types.CodeHostUnavailable, "browser driver not attached", nil)
	}
	return d.OpenTab(ctx, s.baseURL+"/ui")
}

// Health reports agent liveness: degraded while no browser driver is
// attached.
func (s *Service) Health(ctx context.Context) HealthInfo {
	status := "ok"
	if s.driverRef() == nil {
		status = "degraded"
	}
	channels := 0
	if c := s.channelsRef(); c != nil {
		channels = c.Count()
	}
	return HealthInfo{Status: status, Tabs: s.registry.Count(), Channels: channels}
}
