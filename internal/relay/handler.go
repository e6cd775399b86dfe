package relay

import (
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// Handler upgrades dashboard connections and attaches them to the hub.
// The owning window is identified by the ?windowId= query parameter.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, err := types.ParseWindowID(r.URL.Query().Get("windowId"))
		if err != nil {
			http.Error(w, "invalid windowId", http.StatusBadRequest)
			return
		}

		nc, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			slog.Warn("ui channel upgrade failed", "window", window, "error", err)
			return
		}
		hub.Attach(window, nc)
	}
}
