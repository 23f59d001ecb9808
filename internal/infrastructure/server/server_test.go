package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/smartplanner/core/internal/infrastructure/config"
	"github.com/smartplanner/core/internal/infrastructure/logger"
	"github.com/smartplanner/core/internal/ports"
)

type taskJSON struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Priority    string    `json:"priority"`
	IsFlagged   bool      `json:"is_flagged"`
	IsCompleted bool      `json:"is_completed"`
	Deadline    *string   `json:"deadline"`
	Display     struct {
		PriorityLabel string `json:"priority_label"`
		Accent        string `json:"accent"`
		Subtitle      string `json:"subtitle"`
		StatusMark    string `json:"status_mark"`
	} `json:"display"`
}

type listJSON struct {
	Data      []taskJSON `json:"data"`
	Total     int        `json:"total"`
	Sort      string     `json:"sort"`
	Empty     bool       `json:"empty"`
	EmptyText string     `json:"empty_text"`
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "smartplanner", Version: "test", Environment: "test"},
		Server:   config.ServerConfig{Port: 8080},
		Session:  config.SessionConfig{IdleTimeout: time.Hour, SweepInterval: time.Minute, MaxSessions: 2},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiresIn: time.Hour, Issuer: "smartplanner-test"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*", RateLimitRequests: 1000, RateLimitWindow: time.Minute},
		Redis:    config.RedisConfig{KeyPrefix: "rl:"},
		Metrics:  config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) http.Handler {
	t.Helper()
	srv, err := New(cfg, logger.NewNop(), opts...)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func openSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/sessions", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[ports.SessionToken](t, rec).Token
}

func createTask(t *testing.T, h http.Handler, token, body string) taskJSON {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/tasks", token, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	return decode[taskJSON](t, rec)
}

func TestTaskLifecycle(t *testing.T) {
	h := newTestServer(t, testConfig())
	token := openSession(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/tasks", token, "")
	list := decode[listJSON](t, rec)
	if rec.Code != http.StatusOK || !list.Empty || list.EmptyText != "No tasks" || list.Sort != "none" {
		t.Fatalf("empty list status=%d body=%s", rec.Code, rec.Body.String())
	}

	milk := createTask(t, h, token, `{"title":"Buy milk","details":"2 liters","priority":"low"}`)
	taxes := createTask(t, h, token, `{"title":"File taxes","priority":"high","is_flagged":true,"deadline":"31.12 18:30"}`)
	bob := createTask(t, h, token, `{"title":"Call Bob"}`)

	if milk.Display.Subtitle != "2 liters" || milk.Display.Accent != "green" {
		t.Errorf("milk display=%+v", milk.Display)
	}
	if taxes.Deadline == nil || !taxes.IsFlagged || taxes.Display.PriorityLabel != "High" {
		t.Errorf("taxes=%+v", taxes)
	}
	if bob.Priority != "medium" {
		t.Errorf("default priority=%s", bob.Priority)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/tasks?sort=priority_high_first", token, "")
	list = decode[listJSON](t, rec)
	if list.Total != 3 || list.Data[0].Title != "File taxes" || list.Data[1].Title != "Call Bob" || list.Data[2].Title != "Buy milk" {
		t.Fatalf("priority order=%s", rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/tasks", token, "")
	list = decode[listJSON](t, rec)
	if list.Data[0].ID != milk.ID || list.Data[2].ID != bob.ID {
		t.Fatalf("creation order=%s", rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/tasks/"+milk.ID.String()+"/toggle", token, "")
	toggled := decode[taskJSON](t, rec)
	if rec.Code != http.StatusOK || !toggled.IsCompleted || toggled.Display.StatusMark != "✓" {
		t.Fatalf("toggle status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/tasks/"+milk.ID.String(), token, "")
	if rec.Code != http.StatusOK || !decode[taskJSON](t, rec).IsCompleted {
		t.Fatalf("get status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTaskErrors(t *testing.T) {
	h := newTestServer(t, testConfig())
	token := openSession(t, h)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank title", http.MethodPost, "/api/v1/tasks", `{"title":"   "}`, http.StatusBadRequest},
		{"missing title", http.MethodPost, "/api/v1/tasks", `{"priority":"high"}`, http.StatusBadRequest},
		{"bad priority", http.MethodPost, "/api/v1/tasks", `{"title":"x","priority":"urgent"}`, http.StatusBadRequest},
		{"bad deadline", http.MethodPost, "/api/v1/tasks", `{"title":"x","deadline":"soon"}`, http.StatusBadRequest},
		{"bad sort", http.MethodGet, "/api/v1/tasks?sort=alphabetical", "", http.StatusBadRequest},
		{"unknown task", http.MethodPost, "/api/v1/tasks/" + uuid.NewString() + "/toggle", "", http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/v1/tasks/not-a-uuid", "", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, token, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	rec := do(t, h, http.MethodGet, "/api/v1/tasks", token, "")
	if list := decode[listJSON](t, rec); !list.Empty {
		t.Fatalf("rejected requests must not change the store: %s", rec.Body.String())
	}
}

func TestSessionIsolationAndLifecycle(t *testing.T) {
	h := newTestServer(t, testConfig())

	if rec := do(t, h, http.MethodGet, "/api/v1/tasks", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/tasks", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", rec.Code)
	}

	first := openSession(t, h)
	second := openSession(t, h)
	createTask(t, h, first, `{"title":"only first"}`)

	rec := do(t, h, http.MethodGet, "/api/v1/tasks", second, "")
	if list := decode[listJSON](t, rec); !list.Empty {
		t.Fatalf("second session sees first session's tasks: %s", rec.Body.String())
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/sessions", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("session limit status=%d", rec.Code)
	}

	if rec := do(t, h, http.MethodDelete, "/api/v1/sessions", first, ""); rec.Code != http.StatusOK {
		t.Fatalf("close status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/tasks", first, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("closed session status=%d", rec.Code)
	}
	openSession(t, h)
}

func TestPublicEndpoints(t *testing.T) {
	h := newTestServer(t, testConfig())
	token := openSession(t, h)
	createTask(t, h, token, `{"title":"Buy milk"}`)
	do(t, h, http.MethodPost, "/api/v1/tasks", token, `{"title":" "}`)

	rec := do(t, h, http.MethodGet, "/api/v1/sort-options", "", "")
	var options []struct {
		Value string `json:"value"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &options); err != nil || len(options) != 5 {
		t.Fatalf("sort options=%s", rec.Body.String())
	}
	if options[3].Value != "priority_high_first" || options[3].Label != "High priority first" {
		t.Errorf("option=%+v", options[3])
	}

	rec = do(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active_sessions":1`) {
		t.Fatalf("health=%d %s", rec.Code, rec.Body.String())
	}

	if rec = do(t, h, http.MethodGet, "/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready=%d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	body := rec.Body.String()
	for _, want := range []string{
		"smartplanner_tasks_created_total 1",
		"smartplanner_task_create_rejected_total 1",
		"smartplanner_active_sessions 1",
		"http_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestEnvironmentSwitches(t *testing.T) {
	tests := []struct {
		environment string
		debug       bool
		docsStatus  int
	}{
		{"development", true, http.StatusOK},
		{"test", false, http.StatusOK},
		{"production", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			cfg := testConfig()
			cfg.App.Environment = tt.environment
			srv, err := New(cfg, logger.NewNop())
			if err != nil {
				t.Fatalf("failed to create server: %v", err)
			}

			if srv.echo.Debug != tt.debug {
				t.Errorf("debug=%v, want %v", srv.echo.Debug, tt.debug)
			}
			if rec := do(t, srv.Handler(), http.MethodGet, "/docs/index.html", "", ""); rec.Code != tt.docsStatus {
				t.Errorf("docs status=%d, want %d", rec.Code, tt.docsStatus)
			}
		})
	}
}

func TestLimiterRate(t *testing.T) {
	tests := []struct {
		name     string
		requests int
		window   time.Duration
		want     rate.Limit
	}{
		{"one per second", 60, time.Minute, rate.Every(time.Second)},
		{"floored at a millisecond", 1_000_000, time.Second, rate.Every(time.Millisecond)},
		{"more requests than nanoseconds", 10, time.Nanosecond, rate.Every(time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := limiterRate(tt.requests, tt.window)
			if got != tt.want {
				t.Errorf("limiterRate(%d, %v)=%v, want %v", tt.requests, tt.window, got, tt.want)
			}
			if got == rate.Inf {
				t.Error("limiter must never be unlimited")
			}
		})
	}
}

func TestRateLimitThroughRedis(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer m.Close()

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer client.Close()

	cfg := testConfig()
	cfg.Security.RateLimitRequests = 2
	cfg.Security.RateLimitWindow = 24 * time.Hour
	h := newTestServer(t, cfg, WithRedisClient(client))

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/sort-options", "", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i+1, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/sort-options", "", ""); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("ready with redis=%d", rec.Code)
	}

	m.Close()
	if rec := do(t, h, http.MethodGet, "/ready", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready without redis=%d", rec.Code)
	}
}
