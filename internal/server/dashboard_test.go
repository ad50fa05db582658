package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/store"
	tu "github.com/desertthunder/stemhub/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
)

type dashboardFixture struct {
	api     *tu.APIServer
	session *store.Session
	handler http.Handler
}

func newDashboardFixture(t *testing.T, record string) *dashboardFixture {
	t.Helper()

	api := tu.NewAPIServer(t)
	storage := store.NewMemoryStorage()
	if record != "" {
		if err := storage.Set(store.SessionKey, []byte(record)); err != nil {
			t.Fatalf("failed to seed storage: %v", err)
		}
	}

	reg := prometheus.NewRegistry()
	session := store.NewSession(store.SessionOpts{Storage: storage})
	client := services.NewClient(services.ClientOpts{
		BaseURL: api.URL,
		Tokens:  session,
		Metrics: services.NewMetrics(reg),
	})
	session.SetAPI(client)

	logger := shared.DiscardLogger()
	handler := NewDashboard(DashboardOpts{
		Session:  session,
		Projects: store.NewProjects(client, logger),
		Activity: store.NewActivity(client, logger),
		Guard:    guard.New(guard.GuardOpts{Session: session, RedirectPath: "/", Logger: logger}),
		Gatherer: reg,
		Logger:   logger,
	})
	return &dashboardFixture{api: api, session: session, handler: handler}
}

func (f *dashboardFixture) get(path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const amyRecord = `{"user":{"username":"amy"},"api_key":"k1","tokens":{"access":"a","refresh":"r"}}`

func TestDashboard(t *testing.T) {
	t.Run("loading before bootstrap", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)

		rec := f.get("/dashboard")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
		if len(f.api.Requests()) != 0 {
			t.Errorf("protected handler must not call the API, got %d requests", len(f.api.Requests()))
		}
	})

	t.Run("signed out redirects to landing", func(t *testing.T) {
		f := newDashboardFixture(t, "")
		guard.Bootstrap(f.session)

		rec := f.get("/dashboard")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected 302 to /, got %d %q", rec.Code, rec.Header().Get("Location"))
		}

		landing := f.get("/")
		if !strings.Contains(landing.Body.String(), "Not signed in") {
			t.Errorf("unexpected landing page: %s", landing.Body.String())
		}
	})

	t.Run("signed in renders projects and activity", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)
		guard.Bootstrap(f.session)
		f.api.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{
			map[string]any{"id": 1, "name": "Night Drive", "is_public": true, "bpm": 100},
		})
		f.api.Handle(http.MethodGet, "/activity/user/", http.StatusOK, map[string]any{
			"activities": []any{map[string]any{"id": 5, "action": "version_upload", "user": map[string]any{"username": "amy"}}},
		})

		rec := f.get("/dashboard")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{"<h1>amy</h1>", "Night Drive", "(public)", "100 bpm", "version_upload"} {
			if !strings.Contains(body, want) {
				t.Errorf("dashboard missing %q", want)
			}
		}
		if auth := f.api.Last().Header.Get("Authorization"); auth != "Bearer k1" {
			t.Errorf("expected bearer credential, got %q", auth)
		}
		if q := f.api.Last().Query; q != "limit=20" {
			t.Errorf("expected activity limit, got %q", q)
		}
	})

	t.Run("json view with partial failure", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)
		guard.Bootstrap(f.session)
		f.api.Handle(http.MethodGet, "/projects/", http.StatusInternalServerError, map[string]any{"message": "database offline"})
		f.api.Handle(http.MethodGet, "/activity/user/", http.StatusOK, []any{})

		rec := f.get("/dashboard", "Accept", "application/json")

		var view DashboardView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if view.ProjectsError != "database offline" {
			t.Errorf("unexpected projects error: %q", view.ProjectsError)
		}
		if view.ActivityError != "" {
			t.Errorf("unexpected activity error: %q", view.ActivityError)
		}
		if view.User.Username() != "amy" {
			t.Errorf("unexpected user: %v", view.User)
		}
	})

	t.Run("healthz", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)
		guard.Bootstrap(f.session)

		var body map[string]any
		if err := json.Unmarshal(f.get("/healthz").Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body["status"] != "ok" || body["initialized"] != true || body["authenticated"] != true {
			t.Errorf("unexpected health: %v", body)
		}
	})

	t.Run("metrics count API calls", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)
		guard.Bootstrap(f.session)
		f.api.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{})
		f.api.Handle(http.MethodGet, "/activity/user/", http.StatusOK, []any{})
		f.get("/dashboard")

		body := f.get("/metrics").Body.String()

		if !strings.Contains(body, `stemhub_api_requests_total{code="200",group="projects",method="GET"} 1`) {
			t.Errorf("metrics missing projects counter:\n%s", body)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		f := newDashboardFixture(t, amyRecord)
		if rec := f.get("/nope"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
