package ui

import (
	"context"
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/store"
	tu "github.com/desertthunder/stemhub/internal/testing"
)

func newTestModel(t *testing.T, record string) (*Model, *tu.APIServer) {
	t.Helper()

	api := tu.NewAPIServer(t)
	storage := store.NewMemoryStorage()
	if record != "" {
		if err := storage.Set(store.SessionKey, []byte(record)); err != nil {
			t.Fatalf("failed to seed storage: %v", err)
		}
	}
	session := store.NewSession(store.SessionOpts{Storage: storage})
	client := services.NewClient(services.ClientOpts{BaseURL: api.URL, Tokens: session})
	session.SetAPI(client)

	m := NewModel(context.Background(), Stores{
		Session:  session,
		Projects: store.NewProjects(client, nil),
		Versions: store.NewVersions(client, nil),
		Samples:  store.NewSamples(client, nil),
		Activity: store.NewActivity(client, nil),
	})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, api
}

// run executes cmd and feeds every resulting message back into m, expanding batches.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case Msg:
		_, next := m.Update(msg)
		if msg.kind != MsgSession {
			run(m, next)
		}
	}
}

func bootstrap(m *Model) {
	_, cmd := m.Update(bootstrappedMsg(guard.Bootstrap(m.stores.Session)))
	run(m, cmd)
}

const amyRecord = `{"user":{"username":"amy"},"api_key":"k1"}`

func TestModel(t *testing.T) {
	t.Run("starts on the loading view", func(t *testing.T) {
		m, api := newTestModel(t, amyRecord)

		if m.view != LoadingView {
			t.Errorf("expected LoadingView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Loading session") {
			t.Errorf("unexpected view: %q", m.View())
		}
		if len(api.Requests()) != 0 {
			t.Errorf("expected no API calls before bootstrap")
		}
	})

	t.Run("signed out", func(t *testing.T) {
		m, api := newTestModel(t, "")

		bootstrap(m)

		if m.view != SignedOutView {
			t.Fatalf("expected SignedOutView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Not signed in") {
			t.Errorf("unexpected view: %q", m.View())
		}
		if len(api.Requests()) != 0 {
			t.Errorf("expected no API calls when signed out")
		}
	})

	t.Run("project list and detail", func(t *testing.T) {
		m, api := newTestModel(t, amyRecord)
		api.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{
			map[string]any{"id": 1, "name": "Night Drive", "genre": "synthwave"},
		})
		api.Handle(http.MethodGet, "/versions/projects/1/versions/", http.StatusOK, []any{
			map[string]any{"id": 10, "version_number": 3, "commit_message": "final mix"},
		})
		api.Handle(http.MethodGet, "/samples/projects/1/", http.StatusOK, []any{
			map[string]any{"id": 20, "name": "kick", "duration": 1.2, "tags": []string{"drums"}},
		})
		api.Handle(http.MethodGet, "/activity/projects/1/", http.StatusOK, []any{
			map[string]any{"id": 30, "action": "version_upload", "user": map[string]any{"username": "amy"}},
		})

		bootstrap(m)
		if m.view != ProjectListView {
			t.Fatalf("expected ProjectListView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Night Drive") {
			t.Errorf("project missing from list view: %q", m.View())
		}

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(m, cmd)
		if m.view != ProjectDetailView {
			t.Fatalf("expected ProjectDetailView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "v3  final mix") {
			t.Errorf("versions tab missing version: %q", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if view := m.View(); !strings.Contains(view, "kick") || !strings.Contains(view, "0:01") {
			t.Errorf("samples tab missing sample: %q", view)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if !strings.Contains(m.View(), "[version_upload] amy") {
			t.Errorf("activity tab missing entry: %q", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != ProjectListView {
			t.Errorf("expected esc to return to the list, got %v", m.view)
		}
	})

	t.Run("detail tab error", func(t *testing.T) {
		m, api := newTestModel(t, amyRecord)
		api.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{map[string]any{"id": 2, "name": "Sketches"}})
		api.Handle(http.MethodGet, "/versions/projects/2/versions/", http.StatusForbidden, map[string]any{"message": "not a member"})

		bootstrap(m)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		run(m, cmd)

		if !strings.Contains(m.View(), "not a member") {
			t.Errorf("expected error in versions tab: %q", m.View())
		}
	})

	t.Run("sign out while browsing redirects once", func(t *testing.T) {
		m, api := newTestModel(t, amyRecord)
		api.Handle(http.MethodGet, "/projects/", http.StatusOK, []any{})
		bootstrap(m)

		signedOut := store.SessionState{Initialized: true}
		m.Update(sessionMsg(signedOut))
		if m.view != SignedOutView {
			t.Fatalf("expected SignedOutView, got %v", m.view)
		}

		loading := store.SessionState{Initialized: true, Flags: store.Flags{Loading: true}}
		m.Update(sessionMsg(loading))
		if m.view != SignedOutView {
			t.Errorf("loading snapshot must not leave the signed-out view, got %v", m.view)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t, "")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
		if cmd == nil {
			t.Fatal("expected a quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
