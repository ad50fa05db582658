package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"sort"

	"github.com/desertthunder/stemhub/internal/models"
)

// Upload is a multipart/form-data request body.
type Upload struct {
	Fields    map[string]string
	FileField string
	FileName  string
	File      io.Reader
	// Progress, when set, receives the bytes sent so far and the total body size.
	Progress func(sent, total int64)
}

// encode buffers the form so the request carries a Content-Length.
func (u *Upload) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(u.Fields))
	for k := range u.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := mw.WriteField(k, u.Fields[k]); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}

	if u.File != nil {
		field := u.FileField
		if field == "" {
			field = "file"
		}
		part, err := mw.CreateFormFile(field, u.FileName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create file part: %w", err)
		}
		if _, err := io.Copy(part, u.File); err != nil {
			return nil, "", fmt.Errorf("failed to read upload file: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}

func (c *Client) doMultipart(ctx context.Context, path string, u *Upload, out any) error {
	buf, contentType, err := u.encode()
	if err != nil {
		return err
	}

	total := int64(buf.Len())
	var body io.Reader = buf
	if u.Progress != nil {
		body = &progressReader{r: buf, total: total, fn: u.Progress}
	}

	data, err := c.send(ctx, request{
		method:        http.MethodPost,
		path:          path,
		body:          body,
		contentType:   contentType,
		contentLength: total,
		authorized:    true,
	})
	if err != nil {
		return err
	}
	return decode(data, out)
}

// Partition is a list response attributed to its owning project.
type Partition[T any] struct {
	ProjectID models.ID
	Items     []T
}

// decodeList accepts a bare array, or an envelope holding the items under one of keys
// (or "results") with an optional project_id. owner is used when the body names no project.
func decodeList[T any](body []byte, owner models.ID, keys ...string) (Partition[T], error) {
	page := Partition[T]{ProjectID: owner, Items: []T{}}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return page, nil
	}
	if body[0] == '[' {
		if err := json.Unmarshal(body, &page.Items); err != nil {
			return page, fmt.Errorf("failed to decode list: %w", err)
		}
		return page, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return page, fmt.Errorf("failed to decode list: %w", err)
	}

	if raw, ok := envelope["project_id"]; ok && !isNull(raw) {
		var id models.ID
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			page.ProjectID = id
		}
	}

	for _, key := range slices.Concat(keys, []string{"results"}) {
		raw, ok := envelope[key]
		if !ok || isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		if page.Items == nil {
			page.Items = []T{}
		}
		return page, nil
	}

	return page, fmt.Errorf("unexpected list response: no %v field", keys)
}
