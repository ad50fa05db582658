package guard

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/store"
)

// Decision is what a protected view does for a given session snapshot.
type Decision int

const (
	Placeholder Decision = iota // show the blocking loading view
	Redirect                    // leave the protected view
	Render                      // show protected content
)

func (d Decision) String() string {
	switch d {
	case Placeholder:
		return "placeholder"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Decide maps a session snapshot onto a [Decision].
func Decide(s store.SessionState) Decision {
	switch {
	case !s.Initialized || s.Loading:
		return Placeholder
	case s.User == nil:
		return Redirect
	default:
		return Render
	}
}

// Gate tracks decisions across successive snapshots so a signed-out view redirects once.
type Gate struct {
	mu         sync.Mutex
	redirected bool
}

// Step returns the decision for s and whether the caller should navigate away now.
//
// navigate is true only for the first Redirect after the view last rendered.
func (g *Gate) Step(s store.SessionState) (d Decision, navigate bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	d = Decide(s)
	switch d {
	case Redirect:
		if !g.redirected {
			g.redirected = true
			navigate = true
		}
	case Render:
		g.redirected = false
	}
	return d, navigate
}

// GuardOpts configures a [Guard].
type GuardOpts struct {
	Session      interface{ Snapshot() store.SessionState }
	RedirectPath string
	// RedirectDelay holds the loading view before a signed-out visitor is sent away.
	// Zero answers with an immediate 302.
	RedirectDelay time.Duration
	Logger        *log.Logger
}

// Guard protects HTTP handlers with the session's current snapshot.
type Guard struct {
	session       interface{ Snapshot() store.SessionState }
	redirectPath  string
	redirectDelay time.Duration
	logger        *log.Logger
}

// New creates a [Guard]. An empty RedirectPath redirects to "/" and a nil Logger discards.
func New(opts GuardOpts) *Guard {
	if opts.RedirectPath == "" {
		opts.RedirectPath = "/"
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Guard{
		session:       opts.Session,
		redirectPath:  opts.RedirectPath,
		redirectDelay: opts.RedirectDelay,
		logger:        opts.Logger,
	}
}

// Middleware wraps next so it runs only for an authenticated, settled session.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch Decide(g.session.Snapshot()) {
		case Placeholder:
			w.Header().Set("Retry-After", "1")
			g.loading(w, http.StatusServiceUnavailable, "")
		case Redirect:
			g.logger.Debug("redirecting signed-out request", "path", r.URL.Path, "to", g.redirectPath)
			if g.redirectDelay <= 0 {
				http.Redirect(w, r, g.redirectPath, http.StatusFound)
				return
			}
			secs := int(math.Ceil(g.redirectDelay.Seconds()))
			w.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", secs, g.redirectPath))
			g.loading(w, http.StatusUnauthorized, g.redirectPath)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

var loadingPage = template.Must(template.New("loading").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>stemhub</title></head>
<body>
<p>Loading…</p>
{{if .}}<p><a href="{{.}}">Continue</a></p>{{end}}
</body>
</html>
`))

func (g *Guard) loading(w http.ResponseWriter, status int, next string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := loadingPage.Execute(w, next); err != nil {
		g.logger.Warn("failed to render loading page", "error", err)
	}
}
