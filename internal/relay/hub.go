package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"sync"

	"github.com/gobwas/ws/wsutil"

	"github.com/dgnsrekt/tabfence/internal/types"
)

const sendBufSize = 256

// Controls is the set of operations a UI channel may invoke.
type Controls interface {
	InvalidateExemptions(ctx context.Context, tab types.TabID) error
	SetActiveGroup(ctx context.Context, window types.WindowID, group types.GroupID) error
	SetNeverAsk(ctx context.Context, hostname string, value bool) error
	RedirectTab(ctx context.Context, tab types.TabID, redirectURL, originalURL string, exempt bool, group types.GroupID) error
}

type channel struct {
	window types.WindowID
	nc     net.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *channel) close() {
	c.once.Do(func() {
		close(c.done)
		c.nc.Close()
	})
}

// enqueue queues a frame for the writer goroutine. Non-blocking: a stalled
// channel has frames dropped.
func (c *channel) enqueue(data []byte) {
	select {
	case c.sendCh <- data:
	case <-c.done:
	default:
		slog.Warn("ui channel send buffer full, dropping frame", "window", c.window)
	}
}

// Hub tracks one UI channel per window. A reconnect for the same window
// replaces the previous channel.
type Hub struct {
	controls Controls

	mu       sync.Mutex
	channels map[types.WindowID]*channel
}

func NewHub(controls Controls) *Hub {
	return &Hub{
		controls: controls,
		channels: make(map[types.WindowID]*channel),
	}
}

// Attach registers a freshly upgraded connection for the window, replacing
// and closing any previous channel, and sends the connected handshake.
func (h *Hub) Attach(window types.WindowID, nc net.Conn) {
	c := &channel{
		window: window,
		nc:     nc,
		sendCh: make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	old := h.channels[window]
	h.channels[window] = c
	h.mu.Unlock()

	if old != nil {
		old.close()
		slog.Info("ui channel replaced", "window", window)
	} else {
		slog.Info("ui channel attached", "window", window)
	}

	go h.writeLoop(c)
	go h.readLoop(c)

	h.send(c, Message{Method: MethodConnected, WindowID: window})
}

// Broadcast sends a message to every connected window.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	channels := make([]*channel, 0, len(h.channels))
	for _, c := range h.channels {
		channels = append(channels, c)
	}
	h.mu.Unlock()

	for _, c := range channels {
		h.send(c, msg)
	}
}

// TabGroupMoved announces a completed group move to all channels.
func (h *Hub) TabGroupMoved(tab types.TabID, group types.GroupID) {
	h.Broadcast(Message{Method: MethodMoveTabGroup, TabID: tab, GroupID: group})
}

// DropWindow closes and removes the window's channel, if any.
func (h *Hub) DropWindow(window types.WindowID) {
	h.mu.Lock()
	c, ok := h.channels[window]
	if ok {
		delete(h.channels, window)
	}
	h.mu.Unlock()
	if ok {
		c.close()
		slog.Info("ui channel dropped", "window", window)
	}
}

// Count reports the number of attached channels.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels)
}

// HasWindow reports whether the window currently has a channel.
func (h *Hub) HasWindow(window types.WindowID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.channels[window]
	return ok
}

// Close shuts down every channel.
func (h *Hub) Close() {
	h.mu.Lock()
	channels := h.channels
	h.channels = make(map[types.WindowID]*channel)
	h.mu.Unlock()
	for _, c := range channels {
		c.close()
	}
}

func (h *Hub) send(c *channel, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal ui message", "error", err, "method", msg.Method)
		return
	}
	c.enqueue(data)
}

func (h *Hub) writeLoop(c *channel) {
	for {
		select {
		case data := <-c.sendCh:
			if err := wsutil.WriteServerText(c.nc, data); err != nil {
				slog.Debug("ui channel write failed", "window", c.window, "error", err)
				h.detach(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *Hub) readLoop(c *channel) {
	for {
		data, err := wsutil.ReadClientText(c.nc)
		if err != nil {
			slog.Debug("ui channel read loop exit", "window", c.window, "error", err)
			h.detach(c)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("ui channel sent malformed message", "window", c.window, "error", err)
			continue
		}
		h.dispatch(c, msg)
	}
}

// dispatch routes one inbound control to the engine. Failures are logged and
// the channel stays up.
func (h *Hub) dispatch(c *channel, msg Message) {
	if h.controls == nil {
		return
	}
	ctx := context.Background()

	var err error
	switch msg.Method {
	case MethodInvalidateExempt:
		err = h.controls.InvalidateExemptions(ctx, msg.TabID)
	case MethodActiveGroup:
		window := msg.WindowID
		if window == 0 {
			window = c.window
		}
		err = h.controls.SetActiveGroup(ctx, window, msg.GroupID)
	case MethodNeverAsk:
		err = h.controls.SetNeverAsk(ctx, msg.Hostname, msg.Value)
	case MethodRedirectTab:
		err = h.controls.RedirectTab(ctx, msg.TabID, msg.RedirectURL, msg.OriginalURL, msg.Exempt, msg.GroupID)
	default:
		slog.Warn("ui channel sent unknown method", "window", c.window, "method", msg.Method)
		return
	}
	if err != nil {
		slog.Warn("ui control failed", "window", c.window, "method", msg.Method, "error", err)
	}
}

// detach removes the channel unless a replacement has already taken its slot.
func (h *Hub) detach(c *channel) {
	h.mu.Lock()
	if h.channels[c.window] == c {
		delete(h.channels, c.window)
	}
	h.mu.Unlock()
	c.close()
}
