package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dgnsrekt/tabfence/internal/journal"
	"github.com/dgnsrekt/tabfence/internal/types"
)

const streamHeartbeat = 15 * time.Second

func registerControlHandlers(api huma.API, svc Service) {
	type decisionsOutput struct {
		Body struct {
			Decisions []journal.Entry `json:"decisions"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-decisions", Method: http.MethodGet, Path: "/api/v1/decisions", Summary: "Recent navigation decisions", Tags: []string{"Decisions"}},
		func(ctx context.Context, input *struct {
			Limit int `query:"limit" default:"50" doc:"Maximum entries, newest first"`
		}) (*decisionsOutput, error) {
			out := &decisionsOutput{}
			out.Body.Decisions = svc.RecentDecisions(input.Limit)
			return out, nil
		})

	type confirmOutput struct {
		Body struct {
			TabID  string `json:"tab_id"`
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "confirm", Method: http.MethodPost, Path: "/api/v1/confirm", Summary: "Resolve a confirmation page", Description: "Navigates the intercepted tab to its destination. Optionally grants a one-tab exemption for the destination domain, moves the tab to the destination's group first, and removes the confirmation page from tab history.", Tags: []string{"Decisions"}},
		func(ctx context.Context, input *struct {
			Body struct {
				TabID       string `json:"tabId" required:"true"`
				RedirectURL string `json:"redirectUrl" required:"true" doc:"Destination the user approved"`
				OriginalURL string `json:"originalUrl,omitempty" doc:"Confirmation page URL to drop from history"`
				Exempt      bool   `json:"exempt,omitempty" doc:"Grant a one-tab exemption for the destination domain"`
				GroupID     string `json:"groupId,omitempty" doc:"Move the tab to this group before navigating"`
			}
		}) (*confirmOutput, error) {
			err := svc.RedirectTab(ctx, types.TabID(input.Body.TabID), input.Body.RedirectURL,
				input.Body.OriginalURL, input.Body.Exempt, types.GroupID(input.Body.GroupID))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &confirmOutput{}
			out.Body.TabID = input.Body.TabID
			out.Body.Status = "redirected"
			return out, nil
		})

	type openDashboardOutput struct {
		Body struct {
			TabID string `json:"tab_id"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "open-dashboard", Method: http.MethodPost, Path: "/api/v1/dashboard/open", Summary: "Open the dashboard in a new browser tab", Tags: []string{"Dashboard"}},
		func(ctx context.Context, input *struct{}) (*openDashboardOutput, error) {
			tab, err := svc.OpenDashboard(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &openDashboardOutput{}
			out.Body.TabID = string(tab)
			return out, nil
		})
}

func screenshotHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tab := types.TabID(chi.URLParam(r, "tab_id"))
		img, err := svc.Screenshot(r.Context(), tab)
		if err != nil {
			http.Error(w, err.Error(), httpStatus(err))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		if _, err := w.Write(img); err != nil {
			slog.Debug("screenshot response write failed", "tab", tab, "error", err)
		}
	}
}

// streamHandler streams journal entries as SSE with periodic heartbeats.
func streamHandler(jnl *journal.Journal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := jnl.Subscribe()
		defer jnl.Unsubscribe(id)

		heartbeat := time.NewTicker(streamHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case e, ok := <-ch:
				if !ok {
					return
				}
				data, err := json.Marshal(e)
				if err != nil {
					slog.Debug("decision stream encode failed", "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: decision\ndata: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
