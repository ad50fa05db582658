package server

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProjectLister lists the caller's projects. [store.Projects] implements it.
type ProjectLister interface {
	List(ctx context.Context) ([]models.Project, error)
}

// UserActivityLister lists the caller's recent activity. [store.Activity] implements it.
type UserActivityLister interface {
	ListUser(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// SessionSnapshotter exposes the current session. [store.Session] implements it.
type SessionSnapshotter interface {
	Snapshot() store.SessionState
}

// DashboardOpts wires the dashboard to the stores.
type DashboardOpts struct {
	Session       SessionSnapshotter
	Projects      ProjectLister
	Activity      UserActivityLister
	Guard         *guard.Guard
	Gatherer      prometheus.Gatherer // serves /metrics when set
	ActivityLimit int
	Logger        *log.Logger
}

// Dashboard serves the landing page, the guarded dashboard, health and metrics.
type Dashboard struct {
	session  SessionSnapshotter
	projects ProjectLister
	activity UserActivityLister
	limit    int
	logger   *log.Logger
}

// DashboardView is the data behind /dashboard, also its JSON representation.
type DashboardView struct {
	User          models.UserProfile   `json:"user"`
	Projects      []models.Project     `json:"projects"`
	Activity      []models.ActivityLog `json:"activity"`
	ProjectsError string               `json:"projects_error,omitempty"`
	ActivityError string               `json:"activity_error,omitempty"`
}

// NewDashboard builds the dashboard router.
func NewDashboard(opts DashboardOpts) *BasicRouter {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Guard == nil {
		opts.Guard = guard.New(guard.GuardOpts{Session: opts.Session, Logger: opts.Logger})
	}
	if opts.ActivityLimit <= 0 {
		opts.ActivityLimit = 20
	}

	d := &Dashboard{
		session:  opts.Session,
		projects: opts.Projects,
		activity: opts.Activity,
		limit:    opts.ActivityLimit,
		logger:   opts.Logger,
	}

	r := NewBasicRouter()
	r.Use(Recover(opts.Logger), Logging(opts.Logger))

	r.HandleFunc(http.MethodGet, "/{$}", d.landing)
	r.HandleFunc(http.MethodGet, "/healthz", d.health)
	r.Handle(http.MethodGet, "/dashboard", opts.Guard.Middleware(http.HandlerFunc(d.dashboard)))
	if opts.Gatherer != nil {
		r.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (d *Dashboard) landing(w http.ResponseWriter, r *http.Request) {
	state := d.session.Snapshot()
	render(w, d.logger, landingPage, map[string]any{
		"Ready":    guard.Decide(state) != guard.Placeholder,
		"Username": state.User.Username(),
		"SignedIn": state.Authenticated(),
	})
}

func (d *Dashboard) health(w http.ResponseWriter, r *http.Request) {
	state := d.session.Snapshot()
	writeJSON(w, d.logger, http.StatusOK, map[string]any{
		"status":        "ok",
		"initialized":   state.Initialized,
		"authenticated": state.Authenticated(),
	})
}

func (d *Dashboard) dashboard(w http.ResponseWriter, r *http.Request) {
	view := DashboardView{User: d.session.Snapshot().User}

	projects, err := d.projects.List(r.Context())
	if err != nil {
		d.logger.Warn("failed to list projects", "error", err)
		view.ProjectsError = services.ErrorText(err, "Failed to fetch projects")
	}
	view.Projects = projects

	logs, err := d.activity.ListUser(r.Context(), d.limit)
	if err != nil {
		d.logger.Warn("failed to list activity", "error", err)
		view.ActivityError = services.ErrorText(err, "Failed to fetch activity")
	}
	view.Activity = logs

	if wantsJSON(r) {
		writeJSON(w, d.logger, http.StatusOK, view)
		return
	}
	render(w, d.logger, dashboardPage, view)
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, logger *log.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func render(w http.ResponseWriter, logger *log.Logger, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		logger.Warn("failed to render page", "template", tmpl.Name(), "error", err)
	}
}

var funcs = template.FuncMap{
	"visibility": formatter.Visibility,
	"actor": func(u models.UserProfile) string {
		if name := u.Username(); name != "" {
			return name
		}
		return u.ID()
	},
	"when": func(l models.ActivityLog) string {
		if l.CreatedAt.IsZero() {
			return ""
		}
		return l.CreatedAt.UTC().Format("2006-01-02 15:04")
	},
}

var landingPage = template.Must(template.New("landing").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>stemhub</title></head>
<body>
<h1>stemhub</h1>
{{if not .Ready}}<p>Loading…</p>
{{else if .SignedIn}}<p>Signed in as <strong>{{.Username}}</strong>. <a href="/dashboard">Open dashboard</a></p>
{{else}}<p>Not signed in. Run <code>stemhub auth login</code> and reload.</p>
{{end}}
</body>
</html>
`))

var dashboardPage = template.Must(template.New("dashboard").Funcs(funcs).Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>stemhub dashboard</title></head>
<body>
<h1>{{.User.Username}}</h1>
<h2>Projects</h2>
{{if .ProjectsError}}<p class="error">{{.ProjectsError}}</p>{{end}}
<ul>
{{range .Projects}}<li><strong>{{.Name}}</strong> ({{visibility .IsPublic}}){{if .Genre}} {{.Genre}}{{end}}{{if .BPM}} {{.BPM}} bpm{{end}}</li>
{{else}}<li>No projects yet.</li>
{{end}}</ul>
<h2>Recent activity</h2>
{{if .ActivityError}}<p class="error">{{.ActivityError}}</p>{{end}}
<table>
{{range .Activity}}<tr><td>{{when .}}</td><td>{{actor .User}}</td><td>{{.Action}}</td><td>{{.Description}}</td></tr>
{{else}}<tr><td>No activity.</td></tr>
{{end}}</table>
</body>
</html>
`))
