//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestRecentDecisions(t *testing.T) {
	resp := env.GET(t, "/api/v1/decisions?limit=5")
	requireStatus(t, resp, http.StatusOK)
	result := decodeJSON[struct {
		Decisions []struct {
			TabID   string `json:"tab_id"`
			Outcome string `json:"outcome"`
		} `json:"decisions"`
	}](t, resp)
	if len(result.Decisions) > 5 {
		t.Fatalf("decisions = %d, want at most 5", len(result.Decisions))
	}
	for _, d := range result.Decisions {
		if d.Outcome == "" {
			t.Fatal("decision with empty outcome")
		}
	}
}

func TestDecisionStreamConnects(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.BaseURL+"/api/v1/decisions/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := env.Client.Do(req)
	if err != nil {
		t.Fatalf("GET /api/v1/decisions/stream: %v", err)
	}
	defer resp.Body.Close()

	requireStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}
}
