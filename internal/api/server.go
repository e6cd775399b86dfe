package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/tabfence/internal/controller"
	"github.com/dgnsrekt/tabfence/internal/journal"
	"github.com/dgnsrekt/tabfence/internal/relay"
	"github.com/dgnsrekt/tabfence/internal/types"
)

type Service interface {
	Health(ctx context.Context) controller.HealthInfo
	ListSettings(ctx context.Context) (map[string]types.PageSettings, error)
	GetSettings(ctx context.Context, domain string) (types.PageSettings, error)
	PutSettings(ctx context.Context, domain string, ps types.PageSettings) error
	DeleteSettings(ctx context.Context, domain string) error
	ApplyNeverAsk(ctx context.Context, hostname string, value bool) (bool, error)
	GetPrefs(ctx context.Context) (types.Prefs, error)
	SetPrefs(ctx context.Context, prefs types.Prefs) error
	ListTabs(ctx context.Context) ([]controller.TabView, error)
	GetTab(ctx context.Context, tab types.TabID) (controller.TabView, error)
	MoveTabToGroup(ctx context.Context, tab types.TabID, group types.GroupID, redirectURL string) error
	Exemptions(ctx context.Context, tab types.TabID) ([]string, error)
	GrantExemption(ctx context.Context, tab types.TabID, domain string) error
	InvalidateExemptions(ctx context.Context, tab types.TabID) error
	Screenshot(ctx context.Context, tab types.TabID) ([]byte, error)
	ListWindows(ctx context.Context) ([]controller.WindowView, error)
	SetActiveGroup(ctx context.Context, window types.WindowID, group types.GroupID) error
	ListGroups(ctx context.Context) ([]controller.GroupInfo, error)
	RecentDecisions(n int) []journal.Entry
	RedirectTab(ctx context.Context, tab types.TabID, redirectURL, originalURL string, exempt bool, group types.GroupID) error
	OpenDashboard(ctx context.Context) (types.TabID, error)
}

func NewServer(svc Service, hub *relay.Hub, jnl *journal.Journal, metricsHandler http.Handler) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Tab Fence API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", servePage(docsHTML))
	router.Get("/docs/relay", servePage(relayDocsHTML))
	router.Get("/confirm.html", servePage(confirmHTML))
	router.Get("/ui", servePage(dashboardHTML))
	router.Get("/ws/ui", relay.Handler(hub))
	if metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	router.Get("/api/v1/tabs/{tab_id}/screenshot", screenshotHandler(svc))
	router.Get("/api/v1/decisions/stream", streamHandler(jnl))

	registerSettingsHandlers(api, svc)
	registerTabHandlers(api, svc)
	registerControlHandlers(api, svc)

	return router
}

func servePage(html string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, err := w.Write([]byte(html)); err != nil {
			slog.Debug("page response write failed", "path", r.URL.Path, "error", err)
		}
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case types.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case types.CodeNotFound:
			return huma.Error404NotFound(coded.Message)
		case types.CodeHostUnavailable, types.CodeChannelClosed:
			return huma.Error502BadGateway(coded.Message)
		case types.CodeStoreIO:
			return huma.Error500InternalServerError(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

// httpStatus mirrors mapErr for the raw chi routes.
func httpStatus(err error) int {
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case types.CodeValidation:
			return http.StatusBadRequest
		case types.CodeNotFound:
			return http.StatusNotFound
		case types.CodeHostUnavailable, types.CodeChannelClosed:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}
