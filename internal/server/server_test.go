package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type testServer struct {
	*httptest.Server
	srv   *Server
	admin *model.Person
	kid   *model.Person
}

func setupServerTest(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	passwordHash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	household, err := store.NewHouseholdStore(db).Create(ctx, "Rivera", "home@example.com", passwordHash)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	people := store.NewPersonStore(db)
	pinHash, err := auth.HashPIN("4321")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	ts := &testServer{}
	if ts.admin, err = people.Create(ctx, household.ID, "Dad", "", pinHash, true); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if ts.kid, err = people.Create(ctx, household.ID, "Kid", "", "", false); err != nil {
		t.Fatalf("create kid: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:      "server-test-secret-0123456789",
		TokenTTL:       time.Hour,
		Location:       time.UTC,
		MetricsEnabled: true,
	}
	now := func() time.Time { return time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC) }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if ts.srv, err = New(db, cfg, now, logger); err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts.Server = httptest.NewServer(ts.srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) call(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type tokenBody struct {
	Token string `json:"token"`
}

func (ts *testServer) profileToken(t *testing.T, householdToken string, p *model.Person, pin string) string {
	t.Helper()
	var tok tokenBody
	code := ts.call(t, "POST", "/api/profile", householdToken, map[string]any{"person_id": p.ID, "pin": pin}, &tok)
	if code != http.StatusOK {
		t.Fatalf("select profile %s: status %d", p.Nickname, code)
	}
	return tok.Token
}

func TestHealth(t *testing.T) {
	ts := setupServerTest(t)
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "GET /health", "200"))

	var body map[string]string
	if code := ts.call(t, "GET", "/health", "", nil, &body); code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("health body = %v", body)
	}
	if got := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "GET /health", "200")); got != before+1 {
		t.Errorf("health request counter = %v, want %v", got, before+1)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupServerTest(t)
	ts.call(t, "GET", "/health", "", nil, nil)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "chorely_http_requests_total") {
		t.Error("metrics output missing chorely_http_requests_total")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := setupServerTest(t)
	for _, path := range []string{"/api/dashboard", "/api/people", "/api/tasks"} {
		if code := ts.call(t, "GET", path, "", nil, nil); code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, code)
		}
	}
	if code := ts.call(t, "GET", "/api/dashboard", "not-a-jwt", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", code)
	}
}

func TestEndToEndChoreFlow(t *testing.T) {
	ts := setupServerTest(t)

	var login tokenBody
	if code := ts.call(t, "POST", "/api/login", "", map[string]string{"email": "home@example.com", "password": "correct horse"}, &login); code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}

	// A household token alone cannot complete chores or manage tasks.
	if code := ts.call(t, "POST", "/api/instances/1/complete", login.Token, nil, nil); code != http.StatusForbidden {
		t.Errorf("complete without profile = %d, want 403", code)
	}

	adminToken := ts.profileToken(t, login.Token, ts.admin, "4321")
	kidToken := ts.profileToken(t, login.Token, ts.kid, "")

	if code := ts.call(t, "GET", "/api/tasks", kidToken, nil, nil); code != http.StatusForbidden {
		t.Errorf("kid listing tasks = %d, want 403", code)
	}

	var task model.Task
	code := ts.call(t, "POST", "/api/tasks", adminToken, map[string]any{
		"title":               "Take out trash",
		"points":              8,
		"assigned_to":         ts.kid.ID,
		"recurrence_kind":     "weekly",
		"recurrence_interval": 1,
		"start_date":          "2025-03-26",
	}, &task)
	if code != http.StatusCreated {
		t.Fatalf("create task status = %d", code)
	}

	// Subscribe to live updates before the dashboard materializes anything.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?token="+kidToken, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.CloseNow()
	deadline := time.Now().Add(time.Second)
	for ts.srv.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var dash struct {
		Instances []struct {
			ID        int64  `json:"id"`
			TaskTitle string `json:"task_title"`
			DueDate   string `json:"due_date"`
			Status    string `json:"status"`
		} `json:"task_instances"`
	}
	if code := ts.call(t, "GET", "/api/dashboard", kidToken, nil, &dash); code != http.StatusOK {
		t.Fatalf("dashboard status = %d", code)
	}
	if len(dash.Instances) != 1 || dash.Instances[0].DueDate != "2025-04-02" || dash.Instances[0].Status != "pending" {
		t.Fatalf("dashboard instances = %+v", dash.Instances)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "instances_materialized" {
		t.Errorf("first message = %s, want instances_materialized", data)
	}

	var result struct {
		PointsEarned int `json:"points_earned"`
		Person       struct {
			TotalPoints   int `json:"total_points"`
			CurrentStreak int `json:"current_streak"`
		} `json:"person"`
	}
	path := fmt.Sprintf("/api/instances/%d/complete", dash.Instances[0].ID)
	if code := ts.call(t, "POST", path, kidToken, nil, &result); code != http.StatusOK {
		t.Fatalf("complete status = %d", code)
	}
	if result.PointsEarned != 8 || result.Person.TotalPoints != 8 || result.Person.CurrentStreak != 1 {
		t.Errorf("completion result = %+v", result)
	}
	if code := ts.call(t, "POST", path, kidToken, nil, nil); code != http.StatusConflict {
		t.Errorf("repeat completion = %d, want 409", code)
	}

	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("read websocket: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "instance_completed" {
		t.Errorf("second message = %s, want instance_completed", data)
	}
}

func TestLoginRateLimited(t *testing.T) {
	ts := setupServerTest(t)
	body := map[string]string{"email": "home@example.com", "password": "wrong password"}
	for i := range loginLimit {
		if code := ts.call(t, "POST", "/api/login", "", body, nil); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, code)
		}
	}
	if code := ts.call(t, "POST", "/api/login", "", body, nil); code != http.StatusTooManyRequests {
		t.Errorf("attempt past limit = %d, want 429", code)
	}
}

func TestMetricsDisabled(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	cfg := &config.Config{JWTSecret: "server-test-secret-0123456789", TokenTTL: time.Hour, Location: time.UTC}
	srv, err := New(db, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics with exporter disabled = %d, want 404", rec.Code)
	}
}

func TestNewRejectsShortSecret(t *testing.T) {
	cfg := &config.Config{JWTSecret: "short", TokenTTL: time.Hour, Location: time.UTC}
	if _, err := New(nil, cfg, nil, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Error("expected error for short secret")
	}
}
