// Package cdphost drives the governed browser over the Chrome DevTools
// Protocol. It pauses every top-level document request, asks the agent
// service for a decision, and applies proceed or redirect on the wire.
package cdphost

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/tabfence/internal/host"
	"github.com/dgnsrekt/tabfence/internal/types"
)

const (
	commandTimeout  = 10 * time.Second
	decisionTimeout = 10 * time.Second
	sweepInterval   = 15 * time.Second
)

// visibilityBinding is the page-side function reporting visibility flips.
const visibilityBinding = "__tabfenceActivated"

const visibilityScript = `(function() {
	if (window.__tabfenceHooked) { return; }
	window.__tabfenceHooked = true;
	document.addEventListener('visibilitychange', function() {
		if (document.visibilityState === 'visible' && window.__tabfenceActivated) {
			window.__tabfenceActivated('visible');
		}
	});
})();`

// Client manages CDP connections to browser tabs.
type Client struct {
	cdpURL   string
	baseURL  string
	sink     host.Sink
	registry *host.Registry

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	controlID     target.ID

	tabsMu sync.RWMutex
	tabs   map[target.ID]*tabContext

	done      chan struct{}
	closeOnce sync.Once
}

// tabContext is one attached page target. window and visible are set during
// attach and read-only afterwards.
type tabContext struct {
	id      target.ID
	window  types.WindowID
	visible bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(cdpURL, baseURL string, sink host.Sink, registry *host.Registry) *Client {
	return &Client{
		cdpURL:   cdpURL,
		baseURL:  strings.TrimRight(baseURL, "/"),
		sink:     sink,
		registry: registry,
		tabs:     make(map[target.ID]*tabContext),
		done:     make(chan struct{}),
	}
}

// Connect dials the browser, attaches to every existing page target, enables
// target discovery for new ones, and starts the reconcile sweep.
func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	slog.Info("Connecting to browser", "url", c.cdpURL)

	c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), c.cdpURL)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	if err := chromedp.Run(c.browserCtx); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	// The connection context spawns its own blank tab; it carries control
	// traffic only and is never governed.
	if bc := chromedp.FromContext(c.browserCtx); bc.Target != nil {
		c.controlID = bc.Target.TargetID
	}

	chromedp.ListenBrowser(c.browserCtx, c.browserEventHandler())

	execCtx, cancel, err := c.browserExec(commandTimeout)
	if err != nil {
		return err
	}
	err = target.SetDiscoverTargets(true).Do(execCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}

	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return fmt.Errorf("failed to enumerate targets: %w", err)
	}
	slog.Info("Found browser targets", "count", len(targets))

	attached := 0
	for _, info := range targets {
		if !c.governable(info) {
			continue
		}
		if err := c.attachTab(info.TargetID, info.URL); err != nil {
			slog.Error("Failed to attach to tab", "target_id", info.TargetID, "url", truncateURL(info.URL), "error", err)
			continue
		}
		attached++
	}
	slog.Info("Attached to tabs", "count", attached)

	go c.sweep()
	return nil
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.done) })

	c.tabsMu.Lock()
	tabs := c.tabs
	c.tabs = make(map[target.ID]*tabContext)
	c.tabsMu.Unlock()
	for _, t := range tabs {
		if t == nil {
			continue
		}
		t.cancel()
	}

	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}

	slog.Info("CDP client closed")
	return nil
}

func (c *Client) GetTabCount() int {
	c.tabsMu.RLock()
	defer c.tabsMu.RUnlock()
	return len(c.tabs)
}

func (c *Client) governable(info *target.Info) bool {
	return info != nil && info.Type == "page" && info.TargetID != c.controlID
}

// browserExec returns an executor context for browser-domain commands.
func (c *Client) browserExec(timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if c.browserCtx == nil {
		return nil, nil, types.NewError(types.CodeHostUnavailable, "browser not connected", nil)
	}
	bc := chromedp.FromContext(c.browserCtx)
	if bc == nil || bc.Browser == nil {
		return nil, nil, types.NewError(types.CodeHostUnavailable, "browser not connected", nil)
	}
	ctx, cancel := context.WithTimeout(c.browserCtx, timeout)
	return cdp.WithExecutor(ctx, bc.Browser), cancel, nil
}

// attachTab connects to one page target, enables interception, and reports
// the tab to the sink. Attaching an already-attached target is a no-op.
func (c *Client) attachTab(id target.ID, url string) error {
	c.tabsMu.Lock()
	if _, ok := c.tabs[id]; ok {
		c.tabsMu.Unlock()
		return nil
	}
	c.tabs[id] = nil // reserve while the attach is in flight
	c.tabsMu.Unlock()

	t, err := c.buildTab(id)
	if err != nil {
		c.tabsMu.Lock()
		delete(c.tabs, id)
		c.tabsMu.Unlock()
		return err
	}

	c.tabsMu.Lock()
	c.tabs[id] = t
	c.tabsMu.Unlock()

	slog.Info("Attached to tab", "target_id", id, "window_id", t.window, "url", truncateURL(url))

	ctx, cancel := context.WithTimeout(context.Background(), decisionTimeout)
	defer cancel()
	c.sink.TabCreated(ctx, types.TabID(id), t.window, url)
	if t.visible {
		c.sink.TabActivated(ctx, types.TabID(id), t.window)
	}
	return nil
}

func (c *Client) buildTab(id target.ID) (*tabContext, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(id))
	t := &tabContext{id: id, ctx: tabCtx, cancel: tabCancel}

	err := chromedp.Run(tabCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := page.Enable().Do(ctx); err != nil {
				return err
			}
			if err := runtime.AddBinding(visibilityBinding).Do(ctx); err != nil {
				return err
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(visibilityScript).Do(ctx); err != nil {
				return err
			}
			return fetch.Enable().WithPatterns([]*fetch.RequestPattern{{
				URLPattern:   "*",
				ResourceType: network.ResourceTypeDocument,
				RequestStage: fetch.RequestStageRequest,
			}}).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Best effort: chrome:// documents refuse script evaluation.
			_ = chromedp.Evaluate(visibilityScript, nil).Do(ctx)
			var state string
			if err := chromedp.Evaluate(`document.visibilityState`, &state).Do(ctx); err == nil && state == "visible" {
				t.visible = true
			}
			return nil
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			win, _, err := browser.GetWindowForTarget().Do(ctx)
			if err != nil {
				slog.Debug("Window lookup failed", "target_id", id, "error", err)
				return nil
			}
			t.window = types.WindowID(win)
			return nil
		}),
	)
	if err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to enable tab domains: %w", err)
	}

	chromedp.ListenTarget(tabCtx, c.tabEventHandler(t))
	return t, nil
}

// dropTab detaches a vanished target and reports the removal. When it was
// the window's last tab, the window removal is reported too.
func (c *Client) dropTab(id target.ID) {
	c.tabsMu.Lock()
	t, ok := c.tabs[id]
	if ok {
		delete(c.tabs, id)
	}
	c.tabsMu.Unlock()
	if !ok || t == nil {
		return
	}
	t.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), decisionTimeout)
	defer cancel()
	c.sink.TabRemoved(ctx, types.TabID(id))
	slog.Info("Tab closed", "target_id", id)

	if t.window != 0 && len(c.registry.ByWindow(t.window)) == 0 {
		c.sink.WindowRemoved(ctx, t.window)
		slog.Info("Window closed", "window_id", t.window)
	}
}

func (c *Client) browserEventHandler() func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *target.EventTargetCreated:
			if !c.governable(e.TargetInfo) {
				return
			}
			info := e.TargetInfo
			go func() {
				if err := c.attachTab(info.TargetID, info.URL); err != nil {
					slog.Error("Failed to attach to tab", "target_id", info.TargetID, "url", truncateURL(info.URL), "error", err)
				}
			}()
		case *target.EventTargetDestroyed:
			go c.dropTab(e.TargetID)
		case *target.EventTargetInfoChanged:
			if !c.governable(e.TargetInfo) {
				return
			}
			info := e.TargetInfo
			if t, ok := c.tab(types.TabID(info.TargetID)); ok {
				c.registry.Upsert(types.TabID(info.TargetID), t.window, info.URL, info.Title)
			}
		}
	}
}

func (c *Client) tabEventHandler(t *tabContext) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventRequestPaused:
			go c.handlePaused(t, e)
		case *runtime.EventBindingCalled:
			if e.Name != visibilityBinding {
				return
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), decisionTimeout)
				defer cancel()
				c.sink.TabActivated(ctx, types.TabID(t.id), t.window)
			}()
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				c.registry.Upsert(types.TabID(t.id), t.window, e.Frame.URL, "")
			}
		case *page.EventNavigatedWithinDocument:
			if string(e.FrameID) == string(t.id) {
				c.registry.Upsert(types.TabID(t.id), t.window, e.URL, "")
			}
		}
	}
}

// handlePaused applies the decision to one paused document request. Decision
// failures continue the request: the agent must never wedge the browser.
func (c *Client) handlePaused(t *tabContext, ev *fetch.EventRequestPaused) {
	cmdCtx, cmdCancel := context.WithTimeout(t.ctx, commandTimeout)
	defer cmdCancel()
	execCtx := cdp.WithExecutor(cmdCtx, chromedp.FromContext(t.ctx).Target)

	rawURL := ev.Request.URL
	if c.alwaysAllowed(rawURL) {
		c.continueRequest(execCtx, t, ev.RequestID)
		return
	}

	nav := types.Navigation{
		TabID:     types.TabID(t.id),
		WindowID:  t.window,
		URL:       rawURL,
		MainFrame: string(ev.FrameID) == string(t.id),
	}

	ctx, cancel := context.WithTimeout(t.ctx, decisionTimeout)
	defer cancel()
	redirect, err := c.sink.HandleNavigation(ctx, nav)
	if err != nil {
		slog.Warn("Navigation decision failed (continuing)", "target_id", t.id, "url", truncateURL(rawURL), "error", err)
		c.continueRequest(execCtx, t, ev.RequestID)
		return
	}
	if redirect == "" {
		c.continueRequest(execCtx, t, ev.RequestID)
		return
	}

	err = fetch.FulfillRequest(ev.RequestID, http.StatusTemporaryRedirect).
		WithResponseHeaders([]*fetch.HeaderEntry{{Name: "Location", Value: redirect}}).
		Do(execCtx)
	if err != nil {
		slog.Warn("Fulfill request failed (continuing)", "target_id", t.id, "error", err)
		c.continueRequest(execCtx, t, ev.RequestID)
		return
	}
	slog.Debug("Redirect fulfilled", "target_id", t.id, "url", truncateURL(rawURL))
}

func (c *Client) continueRequest(ctx context.Context, t *tabContext, id fetch.RequestID) {
	if err := fetch.ContinueRequest(id).Do(ctx); err != nil {
		slog.Debug("Continue request failed", "target_id", t.id, "error", err)
	}
}

// alwaysAllowed reports whether the request bypasses the engine entirely:
// non-http schemes and the agent's own pages are never policy questions.
func (c *Client) alwaysAllowed(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return true
	}
	return c.baseURL != "" && strings.HasPrefix(rawURL, c.baseURL)
}

func (c *Client) tab(id types.TabID) (*tabContext, bool) {
	c.tabsMu.RLock()
	defer c.tabsMu.RUnlock()
	t, ok := c.tabs[target.ID(id)]
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

func (c *Client) attachedIDs() []target.ID {
	c.tabsMu.RLock()
	defer c.tabsMu.RUnlock()
	out := make([]target.ID, 0, len(c.tabs))
	for id, t := range c.tabs {
		if t == nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

// sweep periodically reconciles the attached set against the browser's
// target list, catching events lost to reconnects.
func (c *Client) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.reconcile()
		}
	}
}

func (c *Client) reconcile() {
	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		slog.Warn("Target reconciliation failed", "error", err)
		return
	}

	live := make(map[target.ID]bool, len(targets))
	for _, info := range targets {
		if !c.governable(info) {
			continue
		}
		live[info.TargetID] = true

		c.tabsMu.RLock()
		_, ok := c.tabs[info.TargetID]
		c.tabsMu.RUnlock()
		if ok {
			continue
		}
		slog.Debug("Reconcile attach", "target_id", info.TargetID, "url", truncateURL(info.URL))
		if err := c.attachTab(info.TargetID, info.URL); err != nil {
			slog.Warn("Failed to attach to tab", "target_id", info.TargetID, "error", err)
		}
	}

	for _, id := range c.attachedIDs() {
		if live[id] {
			continue
		}
		slog.Debug("Reconcile drop", "target_id", id)
		c.dropTab(id)
	}
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
