package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/radieske/sports-wager-ledger/internal/commands"
	"github.com/radieske/sports-wager-ledger/internal/ledger"
	"github.com/radieske/sports-wager-ledger/internal/ledger/store/memory"
)

const adminToken = "s3cret"

var clock = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	l, err := ledger.Open(context.Background(), memory.New(), ledger.Options{
		Now: func() time.Time { return clock },
	})
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	srv := httptest.NewServer(NewServer(Options{
		Table:      commands.New(l),
		AdminToken: adminToken,
	}).Router())
	t.Cleanup(srv.Close)
	return srv, l
}

type response struct {
	status int
	body   map[string]any
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any, admin bool) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set(AdminHeader, adminToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := response{status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&out.body); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return out
}

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	res := do(t, srv, http.MethodPost, "/v1/events", map[string]any{
		"home":      "Chiefs",
		"away":      "Bills",
		"homeOdds":  -150,
		"awayOdds":  130,
		"startTime": "2026-01-15T19:00:00Z",
	}, true)
	if res.status != http.StatusOK {
		t.Fatalf("create event: status %d body %v", res.status, res.body)
	}
	data := res.body["data"].(map[string]any)
	return data["id"].(string)
}

func TestAccountDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	res := do(t, srv, http.MethodGet, "/v1/accounts/u1", nil, false)
	if res.status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.status)
	}
	data := res.body["data"].(map[string]any)
	if data["balance"].(float64) != 1000 {
		t.Fatalf("expected balance 1000, got %v", data["balance"])
	}
}

func TestWagerAndResolveOverREST(t *testing.T) {
	srv, l := newTestServer(t)
	id := createGame(t, srv)

	res := do(t, srv, http.MethodPost, "/v1/events/"+id+"/wagers", map[string]any{
		"userId": "u1", "team": "away", "stake": 100,
	}, false)
	if res.status != http.StatusOK {
		t.Fatalf("place wager: status %d body %v", res.status, res.body)
	}

	res = do(t, srv, http.MethodPost, "/v1/events/"+id+"/wagers", map[string]any{
		"userId": "u1", "team": "home", "stake": 100,
	}, false)
	if res.status != http.StatusConflict || res.body["code"] != "duplicate_wager" {
		t.Fatalf("expected 409 duplicate_wager, got %d %v", res.status, res.body)
	}

	res = do(t, srv, http.MethodPost, "/v1/events/"+id+"/resolve", map[string]any{"winner": "away"}, false)
	if res.status != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token, got %d", res.status)
	}

	res = do(t, srv, http.MethodPost, "/v1/events/"+id+"/resolve", map[string]any{"winner": "away"}, true)
	if res.status != http.StatusOK {
		t.Fatalf("resolve: status %d body %v", res.status, res.body)
	}

	acct, err := l.Account(context.Background(), "u1")
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Balance != 1130 || acct.Wins != 1 {
		t.Fatalf("expected 1130 with one win, got %+v", acct)
	}

	res = do(t, srv, http.MethodPost, "/v1/events/"+id+"/resolve", map[string]any{"winner": "away"}, true)
	if res.status != http.StatusConflict || res.body["code"] != "already_resolved" {
		t.Fatalf("expected 409 already_resolved, got %d %v", res.status, res.body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createGame(t, srv)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown event", http.MethodPost, "/v1/events/nope/wagers", map[string]any{"userId": "u1", "team": "home", "stake": 10}, http.StatusNotFound, "event_not_found"},
		{"bad selection", http.MethodPost, "/v1/events/" + id + "/wagers", map[string]any{"userId": "u1", "team": "draw", "stake": 10}, http.StatusBadRequest, "invalid_selection"},
		{"overdraw", http.MethodPost, "/v1/events/" + id + "/wagers", map[string]any{"userId": "u1", "team": "home", "stake": 5000}, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"loan out of range", http.MethodPost, "/v1/accounts/u1/loan", map[string]any{"amount": 500}, http.StatusBadRequest, "amount_out_of_range"},
		{"bad json", http.MethodPost, "/v1/accounts/u1/slots", "not an object", http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, srv, tt.method, tt.path, tt.body, false)
			if res.status != tt.status || res.body["code"] != tt.code {
				t.Fatalf("expected %d %s, got %d %v", tt.status, tt.code, res.status, res.body)
			}
		})
	}
}

func TestTextCommand(t *testing.T) {
	srv, _ := newTestServer(t)

	res := do(t, srv, http.MethodPost, "/v1/commands", map[string]any{"userId": "u1", "line": "!daily"}, false)
	if res.status != http.StatusOK {
		t.Fatalf("daily: status %d body %v", res.status, res.body)
	}
	if res.body["text"] != "Daily bonus of $100 claimed! Balance: $1,100" {
		t.Fatalf("unexpected reply %v", res.body["text"])
	}

	res = do(t, srv, http.MethodPost, "/v1/commands", map[string]any{"userId": "u1", "line": "!daily"}, false)
	if res.status != http.StatusConflict || res.body["code"] != "cooldown_active" {
		t.Fatalf("expected 409 cooldown_active, got %d %v", res.status, res.body)
	}

	res = do(t, srv, http.MethodPost, "/v1/commands", map[string]any{"userId": "u1", "line": "!nope"}, false)
	if res.status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown command, got %d", res.status)
	}
}

func TestSettingsUpdate(t *testing.T) {
	srv, l := newTestServer(t)

	res := do(t, srv, http.MethodPut, "/v1/settings", map[string]any{"slotsEnabled": false, "announceChannel": "sports"}, true)
	if res.status != http.StatusOK {
		t.Fatalf("settings: status %d body %v", res.status, res.body)
	}
	s := l.Settings()
	if s.SlotsEnabled || s.AnnounceChannel != "sports" || !s.AutoFetchEnabled {
		t.Fatalf("unexpected settings %+v", s)
	}

	res = do(t, srv, http.MethodPost, "/v1/accounts/u1/slots", map[string]any{"stake": 10}, false)
	if res.status != http.StatusConflict || res.body["code"] != "feature_disabled" {
		t.Fatalf("expected 409 feature_disabled, got %d %v", res.status, res.body)
	}

	res = do(t, srv, http.MethodPut, "/v1/settings", map[string]any{"slotsEnabled": true, "autoFetchEnabled": false, "announceChannel": "news"}, true)
	if res.status != http.StatusOK {
		t.Fatalf("settings: status %d body %v", res.status, res.body)
	}
	s = l.Settings()
	if !s.SlotsEnabled || s.AutoFetchEnabled || s.AnnounceChannel != "news" {
		t.Fatalf("expected all fields applied together, got %+v", s)
	}
}

func TestLeaderboardAndEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	createGame(t, srv)
	do(t, srv, http.MethodPost, "/v1/accounts/u1/daily", nil, false)

	res := do(t, srv, http.MethodGet, "/v1/leaderboard", nil, false)
	if res.status != http.StatusOK {
		t.Fatalf("leaderboard: status %d", res.status)
	}
	top := res.body["data"].([]any)
	if len(top) != 1 || top[0].(map[string]any)["user_id"] != "u1" {
		t.Fatalf("unexpected leaderboard %v", top)
	}

	res = do(t, srv, http.MethodGet, "/v1/events", nil, false)
	if got := res.body["data"].([]any); len(got) != 1 {
		t.Fatalf("expected one event, got %v", got)
	}
}
