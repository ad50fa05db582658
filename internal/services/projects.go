package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/stemhub/internal/models"
)

// ListProjects returns the projects visible to the current user.
//
// Calls GET projects/.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	body, err := c.send(ctx, request{method: http.MethodGet, path: "projects/", authorized: true})
	if err != nil {
		return nil, err
	}

	page, err := decodeList[models.Project](body, "", "projects")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetProject calls GET projects/{id}/.
func (c *Client) GetProject(ctx context.Context, id models.ID) (*models.Project, error) {
	var out models.Project
	if err := c.doJSON(ctx, http.MethodGet, resourcePath("projects", id.String()), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProject calls POST projects/.
func (c *Client) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	var out models.Project
	if err := c.doJSON(ctx, http.MethodPost, "projects/", nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProject calls PUT projects/{id}/.
func (c *Client) UpdateProject(ctx context.Context, id models.ID, in models.ProjectInput) (*models.Project, error) {
	var out models.Project
	if err := c.doJSON(ctx, http.MethodPut, resourcePath("projects", id.String()), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProject calls DELETE projects/{id}/.
func (c *Client) DeleteProject(ctx context.Context, id models.ID) error {
	return c.doJSON(ctx, http.MethodDelete, resourcePath("projects", id.String()), nil, nil, nil, true)
}

// ListMembers calls GET projects/{id}/members/.
func (c *Client) ListMembers(ctx context.Context, projectID models.ID) (Partition[models.Member], error) {
	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       resourcePath("projects", projectID.String(), "members"),
		authorized: true,
	})
	if err != nil {
		return Partition[models.Member]{}, err
	}
	return decodeList[models.Member](body, projectID, "members")
}

// AddMember calls POST projects/{id}/members/ with {user_id, role}.
func (c *Client) AddMember(ctx context.Context, projectID, userID models.ID, role string) (*models.Member, error) {
	in := struct {
		UserID models.ID `json:"user_id"`
		Role   string    `json:"role"`
	}{userID, role}

	var out models.Member
	path := resourcePath("projects", projectID.String(), "members")
	if err := c.doJSON(ctx, http.MethodPost, path, nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveMember calls DELETE projects/{id}/members/{member_id}/.
func (c *Client) RemoveMember(ctx context.Context, projectID, memberID models.ID) error {
	path := resourcePath("projects", projectID.String(), "members", memberID.String())
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil, nil, true)
}
