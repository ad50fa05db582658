package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the access/refresh pair issued on login and registration.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessExpiry reports the exp claim of the access token when it is a JWT.
//
// The signature is not verified; the server remains the authority on validity.
func (t *Tokens) AccessExpiry() (time.Time, bool) {
	if t == nil || t.Access == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.Access, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Clone returns a copy of t, or nil.
func (t *Tokens) Clone() *Tokens {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// AuthPayload is the data returned by register and login.
type AuthPayload struct {
	User   UserProfile `json:"user"`
	APIKey string      `json:"api_key"`
	Tokens *Tokens     `json:"tokens,omitempty"`
}

// SessionRecord is the durable layout of the session, stored under a single key.
type SessionRecord struct {
	User   UserProfile `json:"user"`
	APIKey string      `json:"api_key"`
	Tokens *Tokens     `json:"tokens,omitempty"`
}

// PushState is the approval state of a version push.
type PushState string

const (
	PushPending  PushState = "pending"
	PushApproved PushState = "approved"
	PushRejected PushState = "rejected"
	PushFailed   PushState = "failed"
)

// Terminal reports whether no further transition is defined from s.
func (s PushState) Terminal() bool {
	return s == PushApproved || s == PushRejected || s == PushFailed
}

// Validate checks that s is one of the known states.
func (s PushState) Validate() error {
	switch s {
	case PushPending, PushApproved, PushRejected, PushFailed:
		return nil
	}
	return fmt.Errorf("unknown push status %q", string(s))
}

// PushStatus is the transfer/approval record of a version upload.
type PushStatus struct {
	ID          ID             `json:"id"`
	Project     ID             `json:"project,omitempty"`
	Version     ID             `json:"version,omitempty"`
	Status      PushState      `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	RequestedBy UserProfile    `json:"requested_by,omitempty"`
	ReviewedBy  UserProfile    `json:"reviewed_by,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
	UpdatedAt   time.Time      `json:"updated_at,omitzero"`
}

// Clone returns a copy of p, or nil.
func (p *PushStatus) Clone() *PushStatus {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
