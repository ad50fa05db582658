package store

import (
	"testing"

	"github.com/desertthunder/stemhub/internal/services"
	tu "github.com/desertthunder/stemhub/internal/testing"
)

type harness struct {
	server  *tu.APIServer
	client  *services.Client
	storage *MemoryStorage
	session *Session
}

// newHarness wires a session and client against a canned API server, the same way the CLI does.
func newHarness(t *testing.T) *harness {
	t.Helper()

	server := tu.NewAPIServer(t)
	storage := NewMemoryStorage()
	session := NewSession(SessionOpts{Storage: storage})
	client := services.NewClient(services.ClientOpts{BaseURL: server.URL, Tokens: session})
	session.SetAPI(client)

	return &harness{server: server, client: client, storage: storage, session: session}
}

func amyRegistration() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"user":    map[string]any{"username": "amy"},
			"api_key": "k1",
			"tokens":  map[string]any{"access": "a", "refresh": "r"},
		},
	}
}
