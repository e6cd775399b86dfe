package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/tabfence/internal/controller"
	"github.com/dgnsrekt/tabfence/internal/types"
)

func registerSettingsHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body controller.HealthInfo
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body = svc.Health(ctx)
			return out, nil
		})

	// --- Domain settings endpoints ---

	type listSettingsOutput struct {
		Body struct {
			Settings map[string]types.PageSettings `json:"settings"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-settings", Method: http.MethodGet, Path: "/api/v1/settings", Summary: "List all domain settings", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct{}) (*listSettingsOutput, error) {
			all, err := svc.ListSettings(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listSettingsOutput{}
			out.Body.Settings = all
			return out, nil
		})

	type domainInput struct {
		Domain string `path:"domain" doc:"Lowercase hostname, e.g. news.example"`
	}
	type settingsOutput struct {
		Body struct {
			Domain   string             `json:"domain"`
			Settings types.PageSettings `json:"settings"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "get-settings", Method: http.MethodGet, Path: "/api/v1/settings/{domain}", Summary: "Get settings for one domain", Tags: []string{"Settings"}},
		func(ctx context.Context, input *domainInput) (*settingsOutput, error) {
			ps, err := svc.GetSettings(ctx, input.Domain)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &settingsOutput{}
			out.Body.Domain = input.Domain
			out.Body.Settings = ps
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "put-settings", Method: http.MethodPut, Path: "/api/v1/settings/{domain}", Summary: "Create or replace settings for a domain", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct {
			Domain string `path:"domain"`
			Body   struct {
				Group    string `json:"group" doc:"Group the domain belongs to"`
				NeverAsk bool   `json:"neverAsk,omitempty" doc:"Skip confirmation for this domain"`
			}
		}) (*settingsOutput, error) {
			ps := types.PageSettings{Group: types.GroupID(input.Body.Group), NeverAsk: input.Body.NeverAsk}
			if err := svc.PutSettings(ctx, input.Domain, ps); err != nil {
				return nil, mapErr(err)
			}
			out := &settingsOutput{}
			out.Body.Domain = input.Domain
			out.Body.Settings = ps
			return out, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "delete-settings", Method: http.MethodDelete, Path: "/api/v1/settings/{domain}", Summary: "Delete settings for a domain", Tags: []string{"Settings"}},
		func(ctx context.Context, input *domainInput) (*statusOutput, error) {
			if err := svc.DeleteSettings(ctx, input.Domain); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})

	type neverAskOutput struct {
		Body struct {
			Domain  string `json:"domain"`
			Applied bool   `json:"applied" doc:"False when the domain has no settings record"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-never-ask", Method: http.MethodPost, Path: "/api/v1/settings/{domain}/never-ask", Summary: "Toggle never-ask for a configured domain", Description: "Domains without a settings record are left untouched and reported as applied: false.", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct {
			Domain string `path:"domain"`
			Body   struct {
				Value bool `json:"value"`
			}
		}) (*neverAskOutput, error) {
			applied, err := svc.ApplyNeverAsk(ctx, input.Domain, input.Body.Value)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &neverAskOutput{}
			out.Body.Domain = input.Domain
			out.Body.Applied = applied
			return out, nil
		})

	// --- Preference endpoints ---

	type prefsOutput struct {
		Body types.Prefs
	}
	huma.Register(api, huma.Operation{OperationID: "get-prefs", Method: http.MethodGet, Path: "/api/v1/prefs", Summary: "Get agent preferences", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct{}) (*prefsOutput, error) {
			prefs, err := svc.GetPrefs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &prefsOutput{}
			out.Body = prefs
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "put-prefs", Method: http.MethodPut, Path: "/api/v1/prefs", Summary: "Replace agent preferences", Tags: []string{"Settings"}},
		func(ctx context.Context, input *struct {
			Body types.Prefs
		}) (*prefsOutput, error) {
			if err := svc.SetPrefs(ctx, input.Body); err != nil {
				return nil, mapErr(err)
			}
			out := &prefsOutput{}
			out.Body = input.Body
			return out, nil
		})
}
