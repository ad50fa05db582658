package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is a server-assigned identifier. The API emits numbers for most resources
// but the client treats them as opaque text.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits integral ids as numbers so they round-trip with the API.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string { return string(id) }

// Identified is implemented by every resource held in a store collection.
type Identified interface {
	Key() ID
}

// UserProfile is the remote-owned account record. The client does not validate its shape;
// accessors return zero values for missing fields.
type UserProfile map[string]any

// UnmarshalJSON accepts a profile object, or a bare id which becomes {"id": id}.
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = nil
		return nil
	}
	if len(data) > 0 && data[0] != '{' {
		var id ID
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("user must be an object or id: %w", err)
		}
		*u = UserProfile{"id": id.String()}
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*u = m
	return nil
}

func (u UserProfile) str(key string) string {
	if u == nil {
		return ""
	}
	switch v := u[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func (u UserProfile) ID() string         { return u.str("id") }
func (u UserProfile) Username() string   { return u.str("username") }
func (u UserProfile) Email() string      { return u.str("email") }
func (u UserProfile) DateJoined() string { return u.str("date_joined") }

// Clone returns a shallow copy so snapshots do not share the map.
func (u UserProfile) Clone() UserProfile {
	if u == nil {
		return nil
	}
	c := make(UserProfile, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}

// Merge returns a copy of u with patch applied on top.
func (u UserProfile) Merge(patch UserProfile) UserProfile {
	merged := u.Clone()
	if merged == nil {
		merged = UserProfile{}
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Project is a collaboration workspace.
type Project struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Genre       string      `json:"genre,omitempty"`
	BPM         int         `json:"bpm,omitempty"`
	MusicalKey  string      `json:"key,omitempty"`
	IsPublic    bool        `json:"is_public"`
	Owner       UserProfile `json:"owner,omitempty"`
	MemberCount int         `json:"member_count,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitzero"`
	UpdatedAt   time.Time   `json:"updated_at,omitzero"`
}

// Key implements [Identified].
func (p Project) Key() ID { return p.ID }

// ProjectInput is the body for project create and update requests.
type ProjectInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Genre       string `json:"genre,omitempty"`
	BPM         int    `json:"bpm,omitempty"`
	MusicalKey  string `json:"key,omitempty"`
	IsPublic    *bool  `json:"is_public,omitempty"`
}

// Member is a user's membership in a project.
type Member struct {
	ID       ID          `json:"id"`
	User     UserProfile `json:"user,omitempty"`
	Role     string      `json:"role"`
	JoinedAt time.Time   `json:"joined_at,omitzero"`
}

// Key implements [Identified].
func (m Member) Key() ID { return m.ID }

// Version is a snapshot of a project's session files.
type Version struct {
	ID            ID          `json:"id"`
	Project       ID          `json:"project"`
	VersionNumber int         `json:"version_number,omitempty"`
	Message       string      `json:"commit_message,omitempty"`
	FileName      string      `json:"file_name,omitempty"`
	FileSize      int64       `json:"file_size,omitempty"`
	Author        UserProfile `json:"author,omitempty"`
	CreatedAt     time.Time   `json:"created_at,omitzero"`
}

// Key implements [Identified].
func (v Version) Key() ID { return v.ID }

// Sample is an audio file attached to a project.
type Sample struct {
	ID          ID          `json:"id"`
	Project     ID          `json:"project"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	FileURL     string      `json:"file,omitempty"`
	FileSize    int64       `json:"file_size,omitempty"`
	Duration    float64     `json:"duration,omitempty"` // seconds
	BPM         int         `json:"bpm,omitempty"`
	MusicalKey  string      `json:"key,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	UploadedBy  UserProfile `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitzero"`
}

// Key implements [Identified].
func (s Sample) Key() ID { return s.ID }

// ActivityLog is one entry in a project's audit trail.
type ActivityLog struct {
	ID          ID             `json:"id"`
	Project     ID             `json:"project,omitempty"`
	User        UserProfile    `json:"user,omitempty"`
	Action      string         `json:"action"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitzero"`
}

// Key implements [Identified].
func (a ActivityLog) Key() ID { return a.ID }
