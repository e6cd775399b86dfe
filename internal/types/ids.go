package types

import "strconv"

// TabID identifies a browser tab. It is the CDP target identifier and is
// never reused by the host within a browsing session.
type TabID string

func (t TabID) String() string { return string(t) }

// WindowID identifies a browser window, as reported by the host.
type WindowID int64

func (w WindowID) String() string { return strconv.FormatInt(int64(w), 10) }

// ParseWindowID parses the decimal form used in URLs and channel queries.
func ParseWindowID(s string) (WindowID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return WindowID(n), nil
}

// GroupID is an opaque isolation-group token. The zero value means the tab
// or window is ungoverned.
type GroupID string

func (g GroupID) String() string { return string(g) }

// Ungoverned reports whether the group value represents "no group".
func (g GroupID) Ungoverned() bool { return g == "" }
