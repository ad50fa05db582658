package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegister(t *testing.T) {
	t.Run("stores identity in memory and durably", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/register/", http.StatusCreated, amyRegistration())

		state, err := h.session.Register(context.Background(), services.Registration{Username: "amy", Password: "Secret123"})
		require.NoError(t, err)

		assert.Equal(t, models.UserProfile{"username": "amy"}, state.User)
		assert.Equal(t, "k1", state.APIKey)
		assert.Equal(t, &models.Tokens{Access: "a", Refresh: "r"}, state.Tokens)
		assert.False(t, state.Loading)
		assert.Empty(t, state.Error)
		assert.True(t, state.Initialized)

		data, err := h.storage.Get(SessionKey)
		require.NoError(t, err)
		assert.JSONEq(t, `{"user":{"username":"amy"},"api_key":"k1","tokens":{"access":"a","refresh":"r"}}`, string(data))
	})

	t.Run("publishes loading then settled snapshots", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/register/", http.StatusCreated, amyRegistration())

		var seen []SessionState
		cancel := h.session.Subscribe(func(s SessionState) { seen = append(seen, s) })
		defer cancel()

		_, err := h.session.Register(context.Background(), services.Registration{Username: "amy", Password: "Secret123"})
		require.NoError(t, err)

		require.Len(t, seen, 2)
		assert.True(t, seen[0].Loading)
		assert.Nil(t, seen[0].User)
		assert.False(t, seen[1].Loading)
		assert.Equal(t, "amy", seen[1].User.Username())
	})
}

func TestSessionLogin(t *testing.T) {
	t.Run("failure keeps identity and extracts error", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, amyRegistration())
		_, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "Secret123"})
		require.NoError(t, err)

		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusBadRequest, map[string]any{
			"errors": map[string]any{"password": "too short"},
		})
		state, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "x"})

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.Equal(t, "too short", state.Error)
		assert.Equal(t, "amy", state.User.Username())
		assert.Equal(t, "k1", state.APIKey)
		assert.True(t, state.Initialized)
		assert.False(t, state.Loading)
	})

	t.Run("failure before any login leaves session empty", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusUnauthorized, `"Invalid credentials"`)

		state, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "nope"})

		require.Error(t, err)
		assert.Equal(t, "Invalid credentials", state.Error)
		assert.Nil(t, state.User)
		assert.True(t, state.Initialized)

		_, err = h.storage.Get(SessionKey)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	})

	t.Run("network failure uses default message", func(t *testing.T) {
		h := newHarness(t)
		h.server.Close()

		state, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "pw"})

		require.Error(t, err)
		assert.Equal(t, "Login failed", state.Error)
	})

	t.Run("authorized calls use the new key", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, amyRegistration())
		h.server.Handle(http.MethodGet, "/accounts/check/", http.StatusOK, map[string]any{"username": "amy"})

		_, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "pw"})
		require.NoError(t, err)
		_, err = h.session.Check(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "Bearer k1", h.server.Last().Header.Get("Authorization"))
	})
}

func TestSessionLogout(t *testing.T) {
	t.Run("clears identity and record", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, amyRegistration())
		h.server.Handle(http.MethodPost, "/accounts/logout/", http.StatusOK, map[string]any{})

		_, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "pw"})
		require.NoError(t, err)

		state := h.session.Logout(context.Background())

		assert.Nil(t, state.User)
		assert.Empty(t, state.APIKey)
		assert.Nil(t, state.Tokens)
		assert.False(t, state.Loading)
		_, err = h.storage.Get(SessionKey)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
		assert.Equal(t, "/accounts/logout/", h.server.Last().Path)
	})

	t.Run("notification failure is swallowed", func(t *testing.T) {
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, amyRegistration())
		h.server.Handle(http.MethodPost, "/accounts/logout/", http.StatusInternalServerError, map[string]any{"message": "boom"})

		_, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "pw"})
		require.NoError(t, err)

		state := h.session.Logout(context.Background())

		assert.Nil(t, state.User)
		assert.Empty(t, state.Error)
		_, err = h.storage.Get(SessionKey)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	})

	t.Run("without a credential the server is not called", func(t *testing.T) {
		h := newHarness(t)

		h.session.Logout(context.Background())

		assert.Empty(t, h.server.Requests())
	})
}

func TestSessionRehydrate(t *testing.T) {
	t.Run("loads record", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.storage.Set(SessionKey, []byte(`{"user":{"username":"amy"},"api_key":"k1","tokens":{"access":"a","refresh":"r"}}`)))

		state := h.session.Rehydrate()

		assert.Equal(t, "amy", state.User.Username())
		assert.Equal(t, "k1", state.APIKey)
		assert.Equal(t, "r", state.Tokens.Refresh)
		assert.True(t, state.Initialized)
	})

	t.Run("is idempotent", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.storage.Set(SessionKey, []byte(`{"user":{"username":"amy"},"api_key":"k1"}`)))

		first := h.session.Rehydrate()
		second := h.session.Rehydrate()

		assert.Equal(t, first, second)
		assert.True(t, second.Initialized)
	})

	t.Run("absent record yields empty session", func(t *testing.T) {
		h := newHarness(t)

		state := h.session.Rehydrate()

		assert.False(t, state.Authenticated())
		assert.Empty(t, state.APIKey)
		assert.True(t, state.Initialized)
	})

	t.Run("corrupt record is removed", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.storage.Set(SessionKey, []byte(`{not json`)))

		state := h.session.Rehydrate()

		assert.False(t, state.Authenticated())
		assert.True(t, state.Initialized)
		_, err := h.storage.Get(SessionKey)
		assert.True(t, errors.Is(err, shared.ErrRecordNotFound))
	})
}

func TestSessionPartialUpdates(t *testing.T) {
	login := func(t *testing.T) *harness {
		t.Helper()
		h := newHarness(t)
		h.server.Handle(http.MethodPost, "/accounts/login/", http.StatusOK, amyRegistration())
		_, err := h.session.Login(context.Background(), services.Credentials{Username: "amy", Password: "pw"})
		require.NoError(t, err)
		return h
	}

	readRecord := func(t *testing.T, h *harness) map[string]json.RawMessage {
		t.Helper()
		data, err := h.storage.Get(SessionKey)
		require.NoError(t, err)
		var rec map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &rec))
		return rec
	}

	t.Run("UpdateProfile rewrites only user", func(t *testing.T) {
		h := login(t)
		h.server.Handle(http.MethodPatch, "/accounts/profile/update/", http.StatusOK, map[string]any{"username": "amy", "bio": "drums"})

		user, err := h.session.UpdateProfile(context.Background(), models.UserProfile{"bio": "drums"})
		require.NoError(t, err)
		assert.Equal(t, "drums", user["bio"])
		assert.Equal(t, "drums", h.session.Snapshot().User["bio"])

		rec := readRecord(t, h)
		assert.JSONEq(t, `{"username":"amy","bio":"drums"}`, string(rec["user"]))
		assert.JSONEq(t, `"k1"`, string(rec["api_key"]))
		assert.JSONEq(t, `{"access":"a","refresh":"r"}`, string(rec["tokens"]))
	})

	t.Run("UpdateProfile keeps unknown record fields", func(t *testing.T) {
		h := login(t)
		require.NoError(t, h.storage.Set(SessionKey, []byte(`{"user":{"username":"amy"},"api_key":"k1","theme":"dark"}`)))
		h.server.Handle(http.MethodPatch, "/accounts/profile/update/", http.StatusOK, map[string]any{"username": "amy2"})

		_, err := h.session.UpdateProfile(context.Background(), models.UserProfile{"username": "amy2"})
		require.NoError(t, err)

		rec := readRecord(t, h)
		assert.JSONEq(t, `"dark"`, string(rec["theme"]))
		assert.JSONEq(t, `{"username":"amy2"}`, string(rec["user"]))
	})

	t.Run("RegenerateAPIKey rewrites only api_key", func(t *testing.T) {
		h := login(t)
		h.server.Handle(http.MethodPost, "/accounts/profile/regenerate-api-key/", http.StatusOK, map[string]any{"api_key": "k2"})

		key, err := h.session.RegenerateAPIKey(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "k2", key)
		assert.Equal(t, "k2", h.session.Snapshot().APIKey)

		rec := readRecord(t, h)
		assert.JSONEq(t, `"k2"`, string(rec["api_key"]))
		assert.JSONEq(t, `{"username":"amy"}`, string(rec["user"]))
		assert.JSONEq(t, `{"access":"a","refresh":"r"}`, string(rec["tokens"]))
	})

	t.Run("failure sets error and leaves record", func(t *testing.T) {
		h := login(t)
		h.server.Handle(http.MethodPost, "/accounts/profile/regenerate-api-key/", http.StatusForbidden, map[string]any{"message": "Not allowed."})

		_, err := h.session.RegenerateAPIKey(context.Background())
		require.Error(t, err)

		state := h.session.Snapshot()
		assert.Equal(t, "Not allowed.", state.Error)
		assert.Equal(t, "k1", state.APIKey)
		assert.JSONEq(t, `"k1"`, string(readRecord(t, h)["api_key"]))

		h.session.ClearError()
		assert.Empty(t, h.session.Snapshot().Error)
	})

	t.Run("no record means nothing is written", func(t *testing.T) {
		h := login(t)
		require.NoError(t, h.storage.Remove(SessionKey))
		h.server.Handle(http.MethodPost, "/accounts/profile/regenerate-api-key/", http.StatusOK, map[string]any{"api_key": "k2"})

		_, err := h.session.RegenerateAPIKey(context.Background())
		require.NoError(t, err)

		_, err = h.storage.Get(SessionKey)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	})
}

func TestSessionToken(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.storage.Set(SessionKey, []byte(`{"api_key":"k1"}`)))
	h.session.Rehydrate()

	tok, err := h.session.Token()
	require.NoError(t, err)
	assert.Equal(t, "k1", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}
