package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/stemhub/internal/models"
)

// Registration is the body of a register request.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// Credentials is the body of a login request.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PasswordChange is the body of a change-password request.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Register creates an account and returns the new session material.
//
// Calls POST accounts/register/.
func (c *Client) Register(ctx context.Context, in Registration) (*models.AuthPayload, error) {
	var out models.AuthPayload
	if err := c.doJSON(ctx, http.MethodPost, "accounts/register/", nil, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for session material.
//
// Calls POST accounts/login/.
func (c *Client) Login(ctx context.Context, in Credentials) (*models.AuthPayload, error) {
	var out models.AuthPayload
	if err := c.doJSON(ctx, http.MethodPost, "accounts/login/", nil, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the server to end the session.
//
// Calls POST accounts/logout/.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/logout/", nil, nil, nil, true)
}

// Check returns the profile of the credential's owner.
//
// Calls GET accounts/check/.
func (c *Client) Check(ctx context.Context) (models.UserProfile, error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: "accounts/check/", authorized: true})
	if err != nil {
		return nil, err
	}
	return decodeProfile(body)
}

// UpdateProfile applies patch to the current user's profile and returns the server's copy.
//
// Calls PATCH accounts/profile/update/.
func (c *Client) UpdateProfile(ctx context.Context, patch models.UserProfile) (models.UserProfile, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := c.send(ctx, request{
		method:      http.MethodPatch,
		path:        "accounts/profile/update/",
		body:        bytes.NewReader(data),
		contentType: "application/json",
		authorized:  true,
	})
	if err != nil {
		return nil, err
	}
	return decodeProfile(body)
}

// ChangePassword updates the current user's password.
//
// Calls POST accounts/profile/change-password/.
func (c *Client) ChangePassword(ctx context.Context, in PasswordChange) error {
	return c.doJSON(ctx, http.MethodPost, "accounts/profile/change-password/", nil, in, nil, true)
}

// RegenerateAPIKey issues a new API key, invalidating the old one.
//
// Calls POST accounts/profile/regenerate-api-key/.
func (c *Client) RegenerateAPIKey(ctx context.Context) (string, error) {
	var out struct {
		APIKey string `json:"api_key"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "accounts/profile/regenerate-api-key/", nil, nil, &out, true); err != nil {
		return "", err
	}
	if out.APIKey == "" {
		return "", fmt.Errorf("response did not include an api_key")
	}
	return out.APIKey, nil
}

// SearchUsers finds users whose username or email matches query.
//
// Calls GET accounts/users/search/?q=.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.UserProfile, error) {
	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       "accounts/users/search/",
		query:      url.Values{"q": {query}},
		authorized: true,
	})
	if err != nil {
		return nil, err
	}

	page, err := decodeList[models.UserProfile](body, "", "users")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// decodeProfile accepts a bare profile or one nested under "user".
func decodeProfile(body []byte) (models.UserProfile, error) {
	var wrapped struct {
		User models.UserProfile `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var profile models.UserProfile
	if err := decode(body, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}
