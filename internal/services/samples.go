package services

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/stemhub/internal/models"
)

// SampleUpload describes a new sample file.
type SampleUpload struct {
	Project     models.ID
	Name        string
	Description string
	BPM         int
	MusicalKey  string
	Tags        []string
	FileName    string
	File        io.Reader
	Progress    func(sent, total int64)
}

// SamplePatch is the body of a sample update.
type SamplePatch struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	BPM         int      `json:"bpm,omitempty"`
	MusicalKey  string   `json:"key,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ListSamples calls GET samples/projects/{id}/.
//
// The response is either {project_id, samples} or a bare list.
func (c *Client) ListSamples(ctx context.Context, projectID models.ID) (Partition[models.Sample], error) {
	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       resourcePath("samples", "projects", projectID.String()),
		authorized: true,
	})
	if err != nil {
		return Partition[models.Sample]{}, err
	}
	return decodeList[models.Sample](body, projectID, "samples")
}

// GetSample calls GET samples/{id}/.
func (c *Client) GetSample(ctx context.Context, id models.ID) (*models.Sample, error) {
	var out models.Sample
	if err := c.doJSON(ctx, http.MethodGet, resourcePath("samples", id.String()), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadSample posts a multipart form to samples/projects/{id}/.
func (c *Client) UploadSample(ctx context.Context, in SampleUpload) (*models.Sample, error) {
	fields := map[string]string{"name": in.Name}
	if in.Description != "" {
		fields["description"] = in.Description
	}
	if in.BPM > 0 {
		fields["bpm"] = strconv.Itoa(in.BPM)
	}
	if in.MusicalKey != "" {
		fields["key"] = in.MusicalKey
	}
	if len(in.Tags) > 0 {
		fields["tags"] = strings.Join(in.Tags, ",")
	}

	upload := &Upload{
		Fields:    fields,
		FileField: "file",
		FileName:  in.FileName,
		File:      in.File,
		Progress:  in.Progress,
	}

	var out models.Sample
	if err := c.doMultipart(ctx, resourcePath("samples", "projects", in.Project.String()), upload, &out); err != nil {
		return nil, err
	}
	if out.Project == "" {
		out.Project = in.Project
	}
	return &out, nil
}

// UpdateSample calls PUT samples/{id}/.
func (c *Client) UpdateSample(ctx context.Context, id models.ID, in SamplePatch) (*models.Sample, error) {
	var out models.Sample
	if err := c.doJSON(ctx, http.MethodPut, resourcePath("samples", id.String()), nil, in, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSample calls DELETE samples/{id}/.
func (c *Client) DeleteSample(ctx context.Context, id models.ID) error {
	return c.doJSON(ctx, http.MethodDelete, resourcePath("samples", id.String()), nil, nil, nil, true)
}
