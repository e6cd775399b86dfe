package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tabfence/internal/controller"
	"github.com/dgnsrekt/tabfence/internal/types"
)

func registerTabHandlers(api huma.API, svc Service) {
	// --- Tab endpoints ---

	type listTabsOutput struct {
		Body struct {
			Tabs []controller.TabView `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List tracked tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*listTabsOutput, error) {
			tabs, err := svc.ListTabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTabsOutput{}
			out.Body.Tabs = tabs
			return out, nil
		})

	type tabIDInput struct {
		TabID string `path:"tab_id"`
	}
	type tabOutput struct {
		Body controller.TabView
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}", Summary: "Get one tracked tab", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*tabOutput, error) {
			view, err := svc.GetTab(ctx, types.TabID(input.TabID))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &tabOutput{}
			out.Body = view
			return out, nil
		})

	type moveGroupOutput struct {
		Body struct {
			TabID string `json:"tab_id"`
			Group string `json:"group"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "move-tab-group", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/group", Summary: "Move a tab to a group", Description: "Assigns the tab to the group, optionally navigates it, and notifies UI channels. The assignment survives navigation failures.", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct {
			TabID string `path:"tab_id"`
			Body  struct {
				Group       string `json:"group" required:"true"`
				RedirectURL string `json:"redirect_url,omitempty" doc:"Navigate the tab here after assignment"`
			}
		}) (*moveGroupOutput, error) {
			err := svc.MoveTabToGroup(ctx, types.TabID(input.TabID), types.GroupID(input.Body.Group), input.Body.RedirectURL)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &moveGroupOutput{}
			out.Body.TabID = input.TabID
			out.Body.Group = input.Body.Group
			return out, nil
		})

	// --- Exemption endpoints ---

	type exemptionsOutput struct {
		Body struct {
			TabID   string   `json:"tab_id"`
			Domains []string `json:"domains"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-exemptions", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/exemptions", Summary: "List a tab's exempt domains", Tags: []string{"Exemptions"}},
		func(ctx context.Context, input *tabIDInput) (*exemptionsOutput, error) {
			domains, err := svc.Exemptions(ctx, types.TabID(input.TabID))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &exemptionsOutput{}
			out.Body.TabID = input.TabID
			out.Body.Domains = domains
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "grant-exemption", Method: http.MethodPost, Path: "/api/v1/tabs/{tab_id}/exemptions", Summary: "Grant a one-tab exemption for a domain", Tags: []string{"Exemptions"}},
		func(ctx context.Context, input *struct {
			TabID string `path:"tab_id"`
			Body  struct {
				Domain string `json:"domain" required:"true"`
			}
		}) (*exemptionsOutput, error) {
			if err := svc.GrantExemption(ctx, types.TabID(input.TabID), input.Body.Domain); err != nil {
				return nil, mapErr(err)
			}
			domains, err := svc.Exemptions(ctx, types.TabID(input.TabID))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &exemptionsOutput{}
			out.Body.TabID = input.TabID
			out.Body.Domains = domains
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "invalidate-exemptions", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}/exemptions", Summary: "Invalidate all exemptions for a tab", Tags: []string{"Exemptions"}},
		func(ctx context.Context, input *tabIDInput) (*statusOutput, error) {
			if err := svc.InvalidateExemptions(ctx, types.TabID(input.TabID)); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "invalidated"
			return out, nil
		})

	// --- Window endpoints ---

	type listWindowsOutput struct {
		Body struct {
			Windows []controller.WindowView `json:"windows"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-windows", Method: http.MethodGet, Path: "/api/v1/windows", Summary: "List windows with active groups and channels", Tags: []string{"Windows"}},
		func(ctx context.Context, input *struct{}) (*listWindowsOutput, error) {
			windows, err := svc.ListWindows(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listWindowsOutput{}
			out.Body.Windows = windows
			return out, nil
		})

	type activeGroupOutput struct {
		Body struct {
			WindowID int64  `json:"window_id"`
			Group    string `json:"group"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-active-group", Method: http.MethodPut, Path: "/api/v1/windows/{window_id}/active-group", Summary: "Set a window's active group", Tags: []string{"Windows"}},
		func(ctx context.Context, input *struct {
			WindowID int64 `path:"window_id"`
			Body     struct {
				Group string `json:"group"`
			}
		}) (*activeGroupOutput, error) {
			err := svc.SetActiveGroup(ctx, types.WindowID(input.WindowID), types.GroupID(input.Body.Group))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &activeGroupOutput{}
			out.Body.WindowID = input.WindowID
			out.Body.Group = input.Body.Group
			return out, nil
		})

	// --- Group endpoints ---

	type listGroupsOutput struct {
		Body struct {
			Groups []controller.GroupInfo `json:"groups"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-groups", Method: http.MethodGet, Path: "/api/v1/groups", Summary: "List groups from settings and live assignments", Tags: []string{"Groups"}},
		func(ctx context.Context, input *struct{}) (*listGroupsOutput, error) {
			groups, err := svc.ListGroups(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listGroupsOutput{}
			out.Body.Groups = groups
			return out, nil
		})
}
