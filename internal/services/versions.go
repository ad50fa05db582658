package services

import (
	"context"
	"io"
	"net/http"

	"github.com/desertthunder/stemhub/internal/models"
)

// VersionUpload describes a new version push. When File is nil the metadata is sent as JSON.
type VersionUpload struct {
	Project  models.ID
	Message  string
	FileName string
	File     io.Reader
	Progress func(sent, total int64)
}

// VersionPatch is the body of a version update.
type VersionPatch struct {
	Message string `json:"commit_message,omitempty"`
}

// ListVersions calls GET versions/projects/{id}/versions/.
//
// The response is either {project_id, versions} or a bare list.
func (c *Client) ListVersions(ctx context.Context, projectID models.ID) (Partition[models.Version], error) {
	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       resourcePath("versions", "projects", projectID.String(), "versions"),
		authorized: true,
	})
	if err != nil {
		return Partition[models.Version]{}, err
	}
	return decodeList[models.Version](body, projectID, "versions")
}

// GetVersion calls GET versions/{id}/.
func (c *Client) GetVersion(ctx context.Context, id models.ID) (*models.Version, error) {
	var out models.Version
	if err := c.doJSON(ctx, http.MethodGet, resourcePath("versions", id.String()), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadVersion calls POST versions/upload/ and returns the push created for it.
func (c *Client) UploadVersion(ctx context.Context, in VersionUpload) (*models.PushStatus, error) {
	var out models.PushStatus
	if in.File == nil {
		body := struct {
			Project models.ID `json:"project"`
			Message string    `json:"commit_message,omitempty"`
		}{in.Project, in.Message}
		if err := c.doJSON(ctx, http.MethodPost, "versions/upload/", nil, body, &out, true); err != nil {
			return nil, err
		}
		return &out, nil
	}

	upload := &Upload{
		Fields:    map[string]string{"project": in.Project.String()},
		FileField: "file",
		FileName:  in.FileName,
		File:      in.File,
		Progress:  in.Progress,
	}
	if in.Message != "" {
		upload.Fields["commit_message"] = in.Message
	}
	if err := c.doMultipart(ctx, "versions/upload/", upload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVersion calls PATCH versions/{id}/.
func (c *Client) UpdateVersion(ctx context.Context, id models.ID, in VersionPatch) (*models.Version, error) {
	var out models.Version
	if err := c.doJSON(ctx, http.MethodPatch, resourcePath("versions", id.String()), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVersion calls DELETE versions/{id}/.
func (c *Client) DeleteVersion(ctx context.Context, id models.ID) error {
	return c.doJSON(ctx, http.MethodDelete, resourcePath("versions", id.String()), nil, nil, nil, true)
}

// PushStatus calls GET versions/push/{id}/status/.
func (c *Client) PushStatus(ctx context.Context, pushID models.ID) (*models.PushStatus, error) {
	var out models.PushStatus
	path := resourcePath("versions", "push", pushID.String(), "status")
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApprovePush calls POST versions/push/{id}/approve/.
func (c *Client) ApprovePush(ctx context.Context, pushID models.ID) error {
	path := resourcePath("versions", "push", pushID.String(), "approve")
	return c.doJSON(ctx, http.MethodPost, path, nil, struct{}{}, nil, true)
}

// RejectPush calls POST versions/push/{id}/reject/ with {reason}.
func (c *Client) RejectPush(ctx context.Context, pushID models.ID, reason string) error {
	in := struct {
		Reason string `json:"reason"`
	}{reason}
	path := resourcePath("versions", "push", pushID.String(), "reject")
	return c.doJSON(ctx, http.MethodPost, path, nil, in, nil, true)
}

// CancelPush calls POST versions/push/{id}/cancel/.
func (c *Client) CancelPush(ctx context.Context, pushID models.ID) error {
	path := resourcePath("versions", "push", pushID.String(), "cancel")
	return c.doJSON(ctx, http.MethodPost, path, nil, struct{}{}, nil, true)
}
