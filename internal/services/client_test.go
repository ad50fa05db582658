package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	tu "github.com/desertthunder/stemhub/internal/testing"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
)

type tokenFunc func() (*oauth2.Token, error)

func (f tokenFunc) Token() (*oauth2.Token, error) { return f() }

func newTestClient(t *testing.T, key *string) (*Client, *tu.APIServer) {
	t.Helper()
	server := tu.NewAPIServer(t)
	c := NewClient(ClientOpts{
		BaseURL: server.URL,
		Tokens: tokenFunc(func() (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: *key}, nil
		}),
	})
	return c, server
}

func TestNewClient(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := NewClient(ClientOpts{})
		if c.BaseURL() != "http://127.0.0.1:8000/api/" {
			t.Errorf("unexpected base url %s", c.BaseURL())
		}
		if c.httpClient != http.DefaultClient {
			t.Error("expected http.DefaultClient to be used")
		}
		if c.authClient != c.httpClient {
			t.Error("expected unauthenticated client without a token source")
		}
	})

	t.Run("Trailing Slash Normalized", func(t *testing.T) {
		c := NewClient(ClientOpts{BaseURL: "http://example.com/api///"})
		if c.BaseURL() != "http://example.com/api/" {
			t.Errorf("unexpected base url %s", c.BaseURL())
		}
	})
}

func TestClientSend(t *testing.T) {
	t.Run("Credential Read At Call Time", func(t *testing.T) {
		key := "first"
		c, server := newTestClient(t, &key)
		server.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{})

		if _, err := c.ListProjects(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		key = "second"
		if _, err := c.ListProjects(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reqs := server.Requests()
		if got := reqs[0].Header.Get("Authorization"); got != "Bearer first" {
			t.Errorf("expected first credential, got %q", got)
		}
		if got := reqs[1].Header.Get("Authorization"); got != "Bearer second" {
			t.Errorf("expected second credential, got %q", got)
		}
	})

	t.Run("Unauthorized Endpoints Send No Credential", func(t *testing.T) {
		key := "k1"
		c, server := newTestClient(t, &key)
		server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, map[string]any{"data": map[string]any{"api_key": "k2"}})

		if _, err := c.Login(context.Background(), Credentials{Username: "amy", Password: "pw"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := server.Last().Header.Get("Authorization"); got != "" {
			t.Errorf("expected no Authorization header, got %q", got)
		}
	})

	t.Run("Request ID And User Agent", func(t *testing.T) {
		key := ""
		c, server := newTestClient(t, &key)
		server.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{})

		c.ListProjects(context.Background())

		last := server.Last()
		if _, err := uuid.Parse(last.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("expected uuid request id, got %q", last.Header.Get("X-Request-ID"))
		}
		if last.Header.Get("User-Agent") != "stemhub-cli" {
			t.Errorf("unexpected user agent %q", last.Header.Get("User-Agent"))
		}
	})

	t.Run("Non-2xx Becomes APIError", func(t *testing.T) {
		key := "k1"
		c, server := newTestClient(t, &key)
		server.Handle(http.MethodGet, "/projects/9/", http.StatusNotFound, map[string]string{"message": "Not found."})

		_, err := c.GetProject(context.Background(), "9")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %d", apiErr.Status)
		}
		if apiErr.Message != "Not found." {
			t.Errorf("unexpected message %q", apiErr.Message)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected error to wrap ErrAPIRequest")
		}
	})

	t.Run("Transport Failure Wraps ErrAPIRequest", func(t *testing.T) {
		c := NewClient(ClientOpts{
			BaseURL:    "http://example.com",
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
		})

		err := c.Logout(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if ErrorText(err, "Logout failed") != "Logout failed" {
			t.Errorf("expected fallback text for transport failure")
		}
	})

	t.Run("Malformed Success Body", func(t *testing.T) {
		key := "k1"
		c, server := newTestClient(t, &key)
		server.Handle(http.MethodGet, "/projects/1/", http.StatusOK, "{not json")

		_, err := c.GetProject(context.Background(), "1")
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})
}

func TestUnwrapData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"wrapped object", `{"data": {"a": 1}}`, `{"a": 1}`},
		{"unwrapped object", `{"a": 1}`, `{"a": 1}`},
		{"null data", `{"data": null, "a": 1}`, `{"data": null, "a": 1}`},
		{"array", `[1, 2]`, `[1, 2]`},
		{"empty", ``, ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(unwrapData([]byte(tt.body))); got != tt.want {
				t.Errorf("unwrapData(%s) = %s, want %s", tt.body, got, tt.want)
			}
		})
	}
}

func TestDecodeList(t *testing.T) {
	t.Run("Bare List Uses Requested Owner", func(t *testing.T) {
		page, err := decodeList[models.Version]([]byte(`[{"id": 1}, {"id": 2}]`), "7", "versions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.ProjectID != "7" || len(page.Items) != 2 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("Envelope Owner Wins", func(t *testing.T) {
		page, err := decodeList[models.Version]([]byte(`{"project_id": 3, "versions": [{"id": 1}]}`), "7", "versions")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.ProjectID != "3" {
			t.Errorf("expected owner 3, got %s", page.ProjectID)
		}
	})

	t.Run("Paginated Results", func(t *testing.T) {
		page, err := decodeList[models.Project]([]byte(`{"count": 1, "results": [{"id": 4}]}`), "", "projects")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Items) != 1 || page.Items[0].ID != "4" {
			t.Errorf("unexpected items %+v", page.Items)
		}
	})

	t.Run("Empty List Is Not Nil", func(t *testing.T) {
		page, err := decodeList[models.Sample]([]byte(`{"project_id": 1, "samples": []}`), "1", "samples")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Items == nil {
			t.Error("expected empty, non-nil items")
		}
	})

	t.Run("Missing Collection", func(t *testing.T) {
		if _, err := decodeList[models.Sample]([]byte(`{"project_id": 1}`), "1", "samples"); err == nil {
			t.Error("expected error for envelope without items")
		}
	})
}

func TestMultipartUpload(t *testing.T) {
	key := "k1"
	c, server := newTestClient(t, &key)
	server.Handle(http.MethodPost, "/samples/projects/5/", http.StatusCreated, map[string]any{"id": 11, "name": "kick"})

	var calls int
	var lastSent, lastTotal int64
	sample, err := c.UploadSample(context.Background(), SampleUpload{
		Project:  "5",
		Name:     "kick",
		Tags:     []string{"drums", "808"},
		FileName: "kick.wav",
		File:     strings.NewReader("RIFF....WAVE"),
		Progress: func(sent, total int64) {
			calls++
			lastSent, lastTotal = sent, total
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sample.Project != "5" {
		t.Errorf("expected project to default to the upload target, got %q", sample.Project)
	}
	if calls == 0 {
		t.Fatal("expected progress callbacks")
	}
	if lastSent != lastTotal {
		t.Errorf("expected final progress %d/%d to be complete", lastSent, lastTotal)
	}

	last := server.Last()
	if !strings.HasPrefix(last.Header.Get("Content-Type"), "multipart/form-data") {
		t.Errorf("expected multipart content type, got %s", last.Header.Get("Content-Type"))
	}
	if int64(len(last.Body)) != lastTotal {
		t.Errorf("expected %d body bytes, got %d", lastTotal, len(last.Body))
	}
	for _, want := range []string{`name="name"`, `name="tags"`, "drums,808", `filename="kick.wav"`, "RIFF....WAVE"} {
		if !strings.Contains(string(last.Body), want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	server := tu.NewAPIServer(t)
	server.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{})
	c := NewClient(ClientOpts{BaseURL: server.URL, Metrics: metrics})

	c.ListProjects(context.Background())
	c.GetProject(context.Background(), "404")

	if got := counterValue(t, reg, map[string]string{"method": "GET", "group": "projects", "code": "200"}); got != 1 {
		t.Errorf("expected one 200, got %v", got)
	}
	if got := counterValue(t, reg, map[string]string{"method": "GET", "group": "projects", "code": "404"}); got != 1 {
		t.Errorf("expected one 404, got %v", got)
	}

	t.Run("Nil Metrics", func(t *testing.T) {
		var m *Metrics
		m.observe("GET", "projects/", 200, 0)
	})

	t.Run("Endpoint Group", func(t *testing.T) {
		for path, want := range map[string]string{
			"projects/1/":         "projects",
			"/accounts/login/":    "accounts",
			"":                    "root",
			"versions/push/1/ok/": "versions",
		} {
			if got := endpointGroup(path); got != want {
				t.Errorf("endpointGroup(%q) = %q, want %q", path, got, want)
			}
		}
	})
}

// counterValue gathers reg and returns the request counter matching labels.
func counterValue(t *testing.T, reg *prometheus.Registry, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != "stemhub_api_requests_total" {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}
