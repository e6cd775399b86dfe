// Package group tracks which policy group a tab belongs to and which group
// is active in each window. Membership lives in session storage only, so a
// browser restart returns every tab to the ungoverned state.
package group

import (
	"context"
	"log/slog"

	"github.com/dgnsrekt/tabfence/internal/session"
	"github.com/dgnsrekt/tabfence/internal/types"
)

const (
	tabGroupKey    = "groupId"
	activeGroupKey = "activeGroup"
)

// Navigator drives a tab to a new URL after a group move.
type Navigator interface {
	NavigateTab(ctx context.Context, tab types.TabID, url string) error
}

// Notifier fans a completed group move out to every connected UI channel.
type Notifier interface {
	TabGroupMoved(tab types.TabID, group types.GroupID)
}

// Manager owns group membership for tabs and windows.
type Manager struct {
	sessions  session.Store
	navigator Navigator
	notifier  Notifier
}

func NewManager(sessions session.Store, navigator Navigator, notifier Notifier) *Manager {
	return &Manager{sessions: sessions, navigator: navigator, notifier: notifier}
}

// OnTabCreated assigns the creating window's active group to the new tab.
// A window without an active group leaves the tab ungoverned.
func (m *Manager) OnTabCreated(ctx context.Context, tab types.TabID, window types.WindowID) error {
	value, ok, err := m.sessions.WindowValue(ctx, window, activeGroupKey)
	if err != nil {
		return err
	}
	if !ok || value == "" {
		return nil
	}
	if err := m.sessions.SetTabValue(ctx, tab, tabGroupKey, value); err != nil {
		return err
	}
	slog.Debug("tab inherited window group", "tab", tab, "window", window, "group", value)
	return nil
}

// OnTabActivated makes the window's active group follow the focused tab.
// Activating an ungoverned tab clears the window's active group.
func (m *Manager) OnTabActivated(ctx context.Context, tab types.TabID, window types.WindowID) error {
	tabGroup, _, err := m.sessions.TabValue(ctx, tab, tabGroupKey)
	if err != nil {
		return err
	}
	active, _, err := m.sessions.WindowValue(ctx, window, activeGroupKey)
	if err != nil {
		return err
	}
	if tabGroup == active {
		return nil
	}
	if err := m.sessions.SetWindowValue(ctx, window, activeGroupKey, tabGroup); err != nil {
		return err
	}
	slog.Debug("window active group updated", "window", window, "group", tabGroup)
	return nil
}

// MoveTab assigns the tab to a group, optionally drives it to a destination
// URL, and announces the move. The assignment sticks even when the follow-up
// navigation fails; the navigation error is returned to the caller.
func (m *Manager) MoveTab(ctx context.Context, tab types.TabID, group types.GroupID, destination string) error {
	if err := m.sessions.SetTabValue(ctx, tab, tabGroupKey, string(group)); err != nil {
		return err
	}

	var navErr error
	if destination != "" && m.navigator != nil {
		if navErr = m.navigator.NavigateTab(ctx, tab, destination); navErr != nil {
			slog.Warn("post-move navigation failed", "tab", tab, "url", destination, "error", navErr)
		}
	}

	if m.notifier != nil {
		m.notifier.TabGroupMoved(tab, group)
	}
	slog.Info("tab moved to group", "tab", tab, "group", group)
	return navErr
}

// CurrentGroup reports the tab's group. A tab with no recorded group is
// ungoverned, which is a valid state rather than an error.
func (m *Manager) CurrentGroup(ctx context.Context, tab types.TabID) (types.GroupID, error) {
	value, _, err := m.sessions.TabValue(ctx, tab, tabGroupKey)
	if err != nil {
		return "", err
	}
	return types.GroupID(value), nil
}

// ActiveGroup reports the window's active group, empty when none is set.
func (m *Manager) ActiveGroup(ctx context.Context, window types.WindowID) (types.GroupID, error) {
	value, _, err := m.sessions.WindowValue(ctx, window, activeGroupKey)
	if err != nil {
		return "", err
	}
	return types.GroupID(value), nil
}

// SetActiveGroup overrides the window's active group directly. UI channels
// use this to steer which group newly created tabs inherit.
func (m *Manager) SetActiveGroup(ctx context.Context, window types.WindowID, group types.GroupID) error {
	return m.sessions.SetWindowValue(ctx, window, activeGroupKey, string(group))
}
