package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/markRiceOld/trackerApi/internal/calendar"
	"github.com/markRiceOld/trackerApi/internal/config"
	"github.com/markRiceOld/trackerApi/internal/serverapp"
	"github.com/markRiceOld/trackerApi/internal/store"
)

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/actions", "/api/intervals", "/api/day/state", "/api/routes"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, res.Code)
		}
	}
}

func TestServer_OTPFlowAndSession(t *testing.T) {
	app := newTestApp(t)
	const email = "integration@example.com"

	res := app.json(http.MethodPost, "/api/auth/request-otp", map[string]any{
		"email": email,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("request otp expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	code := otpCodeFromLogs(t, app.logs)
	verifyRes := app.json(http.MethodPost, "/api/auth/verify-otp", map[string]any{
		"email": email,
		"code":  code,
	})
	if verifyRes.Code != http.StatusOK {
		t.Fatalf("verify otp expected 200, got %d body=%s", verifyRes.Code, verifyRes.Body.String())
	}

	sessionRes := app.request(http.MethodGet, "/api/auth/session", nil, "")
	if sessionRes.Code != http.StatusOK {
		t.Fatalf("session expected 200, got %d body=%s", sessionRes.Code, sessionRes.Body.String())
	}

	actionsRes := app.request(http.MethodGet, "/api/actions", nil, "")
	if actionsRes.Code != http.StatusOK {
		t.Fatalf("actions expected 200, got %d body=%s", actionsRes.Code, actionsRes.Body.String())
	}

	routesRes := app.request(http.MethodGet, "/api/routes", nil, "")
	if routesRes.Code != http.StatusOK {
		t.Fatalf("routes expected 200, got %d body=%s", routesRes.Code, routesRes.Body.String())
	}
	if !strings.Contains(routesRes.Body.String(), "/api/day/gather") {
		t.Fatalf("route listing should mention /api/day/gather, body=%s", routesRes.Body.String())
	}

	logoutRes := app.json(http.MethodPost, "/api/auth/logout", nil)
	if logoutRes.Code != http.StatusOK {
		t.Fatalf("logout expected 200, got %d body=%s", logoutRes.Code, logoutRes.Body.String())
	}
	afterLogout := app.request(http.MethodGet, "/api/actions", nil, "")
	if afterLogout.Code != http.StatusUnauthorized {
		t.Fatalf("actions after logout expected 401, got %d", afterLogout.Code)
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

func TestServer_DayWorkflowRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "roundtrip@example.com")

	today := calendar.Key(time.Now())
	yesterday := calendar.AddDays(today, -1)

	ivRes := app.json(http.MethodPost, "/api/intervals", map[string]any{
		"title":            "Water plants",
		"estimatedMinutes": 15,
		"repeatValue":      1,
		"repeatUnit":       "day",
	})
	if ivRes.Code != http.StatusCreated {
		t.Fatalf("interval create expected 201, got %d body=%s", ivRes.Code, ivRes.Body.String())
	}

	gatherRes := app.json(http.MethodPost, "/api/day/gather", map[string]any{"date": today})
	if gatherRes.Code != http.StatusOK {
		t.Fatalf("gather expected 200, got %d body=%s", gatherRes.Code, gatherRes.Body.String())
	}
	var gatherOut struct {
		DatesProcessed []string `json:"datesProcessed"`
		ActionsCreated int      `json:"actionsCreated"`
	}
	if err := json.Unmarshal(gatherRes.Body.Bytes(), &gatherOut); err != nil {
		t.Fatalf("decode gather result: %v body=%s", err, gatherRes.Body.String())
	}
	if len(gatherOut.DatesProcessed) != 3 {
		t.Fatalf("expected 3 dates processed, got %v", gatherOut.DatesProcessed)
	}
	if gatherOut.ActionsCreated == 0 {
		t.Fatalf("expected gathered actions for a daily interval, got none")
	}

	// A second run is a no-op: the window is already marked gathered.
	againRes := app.json(http.MethodPost, "/api/day/gather", map[string]any{"date": today})
	if againRes.Code != http.StatusOK {
		t.Fatalf("second gather expected 200, got %d body=%s", againRes.Code, againRes.Body.String())
	}
	if err := json.Unmarshal(againRes.Body.Bytes(), &gatherOut); err != nil {
		t.Fatalf("decode second gather result: %v", err)
	}
	if len(gatherOut.DatesProcessed) != 0 || gatherOut.ActionsCreated != 0 {
		t.Fatalf("second gather should skip processed dates, got %+v", gatherOut)
	}

	stateRes := app.request(http.MethodGet, "/api/day/state?date="+today, nil, "")
	if stateRes.Code != http.StatusOK {
		t.Fatalf("day state expected 200, got %d body=%s", stateRes.Code, stateRes.Body.String())
	}
	state := decodeBodyMap(t, stateRes)
	if state["actionGatheringCompletedAt"] == nil {
		t.Fatalf("expected gathering completion timestamp, body=%s", stateRes.Body.String())
	}

	todayRes := app.request(http.MethodGet, "/api/day/today?date="+today, nil, "")
	if todayRes.Code != http.StatusOK {
		t.Fatalf("day today expected 200, got %d body=%s", todayRes.Code, todayRes.Body.String())
	}
	var todayActions []map[string]any
	if err := json.Unmarshal(todayRes.Body.Bytes(), &todayActions); err != nil {
		t.Fatalf("decode today actions: %v body=%s", err, todayRes.Body.String())
	}
	if len(todayActions) == 0 {
		t.Fatalf("expected at least one gathered action for today")
	}
	actionID := asString(t, todayActions[0]["id"])

	statusRes := app.request(http.MethodGet, "/api/day/pre-day-status?date="+today, nil, "")
	if statusRes.Code != http.StatusOK {
		t.Fatalf("pre-day status expected 200, got %d body=%s", statusRes.Code, statusRes.Body.String())
	}
	status := decodeBodyMap(t, statusRes)
	if access, _ := status["canAccessToday"].(bool); access {
		t.Fatalf("today should be locked before pre-day completes, body=%s", statusRes.Body.String())
	}

	// Closing yesterday and completing today's planning unlocks the day.
	for _, step := range []struct {
		path string
		date string
	}{
		{"/api/day/complete-after-day", yesterday},
		{"/api/day/complete-pre-day", today},
	} {
		res := app.json(http.MethodPost, step.path, map[string]any{"date": step.date})
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", step.path, res.Code, res.Body.String())
		}
	}

	statusRes = app.request(http.MethodGet, "/api/day/pre-day-status?date="+today, nil, "")
	status = decodeBodyMap(t, statusRes)
	if access, _ := status["canAccessToday"].(bool); !access {
		t.Fatalf("today should be accessible after pre-day, body=%s", statusRes.Body.String())
	}

	toggleRes := app.json(http.MethodPost, "/api/actions/"+actionID+"/toggle", nil)
	if toggleRes.Code != http.StatusOK {
		t.Fatalf("toggle expected 200, got %d body=%s", toggleRes.Code, toggleRes.Body.String())
	}
	toggled := decodeBodyMap(t, toggleRes)
	if done, _ := toggled["done"].(bool); !done {
		t.Fatalf("expected action done after toggle, body=%s", toggleRes.Body.String())
	}

	afterRes := app.json(http.MethodPost, "/api/day/complete-after-day", map[string]any{"date": today})
	if afterRes.Code != http.StatusOK {
		t.Fatalf("complete-after-day expected 200, got %d body=%s", afterRes.Code, afterRes.Body.String())
	}

	statsRes := app.request(http.MethodGet, "/api/stats", nil, "")
	if statsRes.Code != http.StatusOK {
		t.Fatalf("stats expected 200, got %d body=%s", statsRes.Code, statsRes.Body.String())
	}
	stats := decodeBodyMap(t, statsRes)
	if runs, _ := stats["gatherRuns"].(float64); runs < 1 {
		t.Fatalf("expected at least one recorded gather run, body=%s", statsRes.Body.String())
	}
}

func TestServer_UsersAreIsolated(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "first@example.com")

	createRes := app.json(http.MethodPost, "/api/actions", map[string]any{
		"title": "Private errand",
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("action create expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}

	app.cookies = map[string]*http.Cookie{}
	app.login(t, "second@example.com")

	listRes := app.request(http.MethodGet, "/api/actions", nil, "")
	if listRes.Code != http.StatusOK {
		t.Fatalf("actions expected 200, got %d body=%s", listRes.Code, listRes.Body.String())
	}
	if strings.Contains(listRes.Body.String(), "Private errand") {
		t.Fatalf("second user should not see first user's actions, body=%s", listRes.Body.String())
	}
}

type testApp struct {
	handler http.Handler
	logs    *bytes.Buffer
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Default()

	st, err := store.Open(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)

	h, err := serverapp.NewHandler(serverapp.Options{
		Config: &cfg,
		Store:  st,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	return &testApp{
		handler: h,
		logs:    &logs,
		cookies: map[string]*http.Cookie{},
	}
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b), "application/json")
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	a.captureCookies(rec.Result())
	return rec
}

func (a *testApp) captureCookies(res *http.Response) {
	for _, c := range res.Cookies() {
		if c == nil {
			continue
		}
		if c.MaxAge < 0 || strings.TrimSpace(c.Value) == "" {
			delete(a.cookies, c.Name)
			continue
		}
		cp := *c
		a.cookies[c.Name] = &cp
	}
}

func (a *testApp) login(t *testing.T, email string) {
	t.Helper()

	res := a.json(http.MethodPost, "/api/auth/request-otp", map[string]any{
		"email": email,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("request otp expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	code := otpCodeFromLogs(t, a.logs)
	verifyRes := a.json(http.MethodPost, "/api/auth/verify-otp", map[string]any{
		"email": email,
		"code":  code,
	})
	if verifyRes.Code != http.StatusOK {
		t.Fatalf("verify otp expected 200, got %d body=%s", verifyRes.Code, verifyRes.Body.String())
	}
}

func otpCodeFromLogs(t *testing.T, logs *bytes.Buffer) string {
	t.Helper()
	re := regexp.MustCompile(`otp for .*: ([0-9]{6})`)
	matches := re.FindAllStringSubmatch(logs.String(), -1)
	if len(matches) == 0 {
		t.Fatalf("no OTP code found in logs: %s", logs.String())
	}
	last := matches[len(matches)-1]
	if len(last) < 2 {
		t.Fatalf("malformed OTP log match: %+v", last)
	}
	return last[1]
}

func decodeBodyMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode json body failed: %v body=%s", err, rec.Body.String())
	}
	return out
}

func asString(t *testing.T, v any) string {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected string, got %T (%v)", v, v)
	}
	return s
}
