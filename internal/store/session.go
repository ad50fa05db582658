package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"golang.org/x/oauth2"
)

// SessionState is a snapshot of the session.
type SessionState struct {
	Flags

	User        models.UserProfile
	APIKey      string
	Tokens      *models.Tokens
	Initialized bool
}

// Authenticated reports whether a user is present.
func (s SessionState) Authenticated() bool {
	return s.User != nil
}

func (s SessionState) clone() SessionState {
	s.User = s.User.Clone()
	s.Tokens = s.Tokens.Clone()
	return s
}

// SessionOpts configures a [Session].
type SessionOpts struct {
	API     services.AccountsAPI
	Storage Storage
	Logger  *log.Logger
}

// Session owns the authenticated identity and mirrors it to durable storage under [SessionKey].
//
// Only Session mutates identity fields. Identity-mutating operations are not serialized here;
// callers must not start one while Loading is set.
type Session struct {
	container[SessionState]

	api     services.AccountsAPI
	storage Storage
	logger  *log.Logger
}

// NewSession creates an uninitialized session. Call [Session.Rehydrate] (through the bootstrap)
// before trusting its identity fields.
func NewSession(opts SessionOpts) *Session {
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	s := &Session{api: opts.API, storage: opts.Storage, logger: opts.Logger}
	s.init(SessionState{}, SessionState.clone)
	return s
}

// SetAPI attaches the accounts client. The client usually takes the session as its token
// source, so it can only be built after the session.
func (s *Session) SetAPI(api services.AccountsAPI) {
	s.api = api
}

// Token implements [oauth2.TokenSource] with the current API key as a bearer credential.
//
// An absent key yields an empty credential; the server rejects the call.
func (s *Session) Token() (*oauth2.Token, error) {
	snap := s.Snapshot()
	return &oauth2.Token{AccessToken: snap.APIKey, TokenType: "Bearer"}, nil
}

// Register creates an account and stores the resulting identity in memory and durably.
func (s *Session) Register(ctx context.Context, in services.Registration) (SessionState, error) {
	return s.authenticate(ctx, "Registration failed", func() (*models.AuthPayload, error) {
		return s.api.Register(ctx, in)
	})
}

// Login authenticates and stores the resulting identity in memory and durably.
func (s *Session) Login(ctx context.Context, in services.Credentials) (SessionState, error) {
	return s.authenticate(ctx, "Login failed", func() (*models.AuthPayload, error) {
		return s.api.Login(ctx, in)
	})
}

func (s *Session) authenticate(ctx context.Context, fallback string, call func() (*models.AuthPayload, error)) (SessionState, error) {
	s.update(func(st *SessionState) {
		st.Loading = true
		st.Error = ""
	})

	payload, err := call()
	if err != nil {
		msg := services.ErrorText(err, fallback)
		s.logger.Debug("authentication failed", "err", err)
		return s.update(func(st *SessionState) {
			st.Loading = false
			st.Error = msg
			st.Initialized = true
		}), fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}

	s.writeRecord(models.SessionRecord{User: payload.User, APIKey: payload.APIKey, Tokens: payload.Tokens})

	return s.update(func(st *SessionState) {
		st.User = payload.User.Clone()
		st.APIKey = payload.APIKey
		st.Tokens = payload.Tokens.Clone()
		st.Loading = false
		st.Error = ""
		st.Initialized = true
	}), nil
}

// Logout notifies the server when a credential is held, then clears the identity and the
// durable record whatever the outcome of that call.
func (s *Session) Logout(ctx context.Context) SessionState {
	snap := s.update(func(st *SessionState) { st.Loading = true })

	if snap.APIKey != "" && s.api != nil {
		if err := s.api.Logout(ctx); err != nil {
			s.logger.Warn("logout notification failed", "err", err)
		}
	}

	if err := s.storage.Remove(SessionKey); err != nil {
		s.logger.Warn("failed to remove session record", "err", err)
	}

	return s.update(func(st *SessionState) {
		st.User = nil
		st.APIKey = ""
		st.Tokens = nil
		st.Loading = false
		st.Error = ""
	})
}

// Rehydrate loads the durable record into memory and marks the session initialized.
//
// An absent record leaves the identity as it is. A corrupt record is removed and treated as absent.
func (s *Session) Rehydrate() SessionState {
	rec, err := s.readRecord()
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrRecordNotFound):
		s.logger.Debug("no stored session")
	case errors.Is(err, shared.ErrCorruptRecord):
		s.logger.Warn("removing corrupt session record", "err", err)
		if err := s.storage.Remove(SessionKey); err != nil {
			s.logger.Warn("failed to remove session record", "err", err)
		}
	default:
		s.logger.Warn("failed to read session record", "err", err)
	}

	return s.update(func(st *SessionState) {
		if rec != nil {
			st.User = rec.User.Clone()
			st.APIKey = rec.APIKey
			st.Tokens = rec.Tokens.Clone()
		}
		st.Initialized = true
	})
}

// UpdateProfile sends patch to the server and replaces the in-memory user with the result.
//
// Only the user field of the durable record is rewritten.
func (s *Session) UpdateProfile(ctx context.Context, patch models.UserProfile) (models.UserProfile, error) {
	s.update(func(st *SessionState) { st.begin() })

	user, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		s.update(func(st *SessionState) { st.fail(services.ErrorText(err, "Failed to update profile")) })
		return nil, err
	}

	snap := s.update(func(st *SessionState) {
		if user == nil {
			user = st.User.Merge(patch)
		}
		st.User = user.Clone()
		st.Loading = false
	})

	s.patchRecord("user", snap.User)
	return snap.User.Clone(), nil
}

// RegenerateAPIKey replaces the API key. Only the api_key field of the durable record is rewritten.
func (s *Session) RegenerateAPIKey(ctx context.Context) (string, error) {
	s.update(func(st *SessionState) { st.begin() })

	key, err := s.api.RegenerateAPIKey(ctx)
	if err != nil {
		s.update(func(st *SessionState) { st.fail(services.ErrorText(err, "Failed to regenerate API key")) })
		return "", err
	}

	s.update(func(st *SessionState) {
		st.APIKey = key
		st.Loading = false
	})

	s.patchRecord("api_key", key)
	return key, nil
}

// ChangePassword changes the current user's password. Session state other than the flags is untouched.
func (s *Session) ChangePassword(ctx context.Context, in services.PasswordChange) error {
	s.update(func(st *SessionState) { st.begin() })

	if err := s.api.ChangePassword(ctx, in); err != nil {
		s.update(func(st *SessionState) { st.fail(services.ErrorText(err, "Failed to change password")) })
		return err
	}

	s.update(func(st *SessionState) { st.Loading = false })
	return nil
}

// Check asks the server who the credential belongs to and refreshes the in-memory and durable user.
func (s *Session) Check(ctx context.Context) (models.UserProfile, error) {
	s.update(func(st *SessionState) { st.begin() })

	user, err := s.api.Check(ctx)
	if err != nil {
		s.update(func(st *SessionState) { st.fail(services.ErrorText(err, "Session check failed")) })
		return nil, err
	}

	snap := s.update(func(st *SessionState) {
		if user != nil {
			st.User = user.Clone()
		}
		st.Loading = false
	})

	if user != nil {
		s.patchRecord("user", snap.User)
	}
	return snap.User.Clone(), nil
}

// SearchUsers returns matching users. Results are not kept in the session.
func (s *Session) SearchUsers(ctx context.Context, query string) ([]models.UserProfile, error) {
	s.update(func(st *SessionState) { st.begin() })

	users, err := s.api.SearchUsers(ctx, query)
	if err != nil {
		s.update(func(st *SessionState) { st.fail(services.ErrorText(err, "User search failed")) })
		return nil, err
	}

	s.update(func(st *SessionState) { st.Loading = false })
	return users, nil
}

// ClearError drops the current error message.
func (s *Session) ClearError() {
	s.update(func(st *SessionState) { st.Error = "" })
}

func (s *Session) readRecord() (*models.SessionRecord, error) {
	data, err := s.storage.Get(SessionKey)
	if err != nil {
		return nil, err
	}

	var rec models.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCorruptRecord, err)
	}
	return &rec, nil
}

// writeRecord fully overwrites the durable record. Failures are logged, not returned.
func (s *Session) writeRecord(rec models.SessionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("failed to encode session record", "err", err)
		return
	}
	if err := s.storage.Set(SessionKey, data); err != nil {
		s.logger.Warn("failed to write session record", "err", err)
	}
}

// patchRecord rewrites one top-level field of the durable record, keeping every other key as stored.
//
// Nothing is written when no readable record exists.
func (s *Session) patchRecord(field string, value any) {
	data, err := s.storage.Get(SessionKey)
	if err != nil {
		s.logger.Debug("no session record to patch", "field", field, "err", err)
		return
	}

	var rec map[string]json.RawMessage
	if err := json.Unmarshal(data, &rec); err != nil || rec == nil {
		s.logger.Warn("session record is corrupt, not patching", "field", field, "err", err)
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to encode session field", "field", field, "err", err)
		return
	}
	rec[field] = encoded

	out, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("failed to encode session record", "err", err)
		return
	}
	if err := s.storage.Set(SessionKey, out); err != nil {
		s.logger.Warn("failed to write session record", "err", err)
	}
}
