package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/stemhub/internal/models"
)

const (
	DefaultProjectActivityLimit = 100
	DefaultUserActivityLimit    = 50
)

// ProjectActivity calls GET activity/projects/{id}/?limit=&action=.
//
// A limit of zero uses [DefaultProjectActivityLimit]; an empty action matches every action.
func (c *Client) ProjectActivity(ctx context.Context, projectID models.ID, limit int, action string) (Partition[models.ActivityLog], error) {
	if limit <= 0 {
		limit = DefaultProjectActivityLimit
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if action != "" {
		query.Set("action", action)
	}

	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       resourcePath("activity", "projects", projectID.String()),
		query:      query,
		authorized: true,
	})
	if err != nil {
		return Partition[models.ActivityLog]{}, err
	}
	return decodeList[models.ActivityLog](body, projectID, "activities")
}

// UserActivity calls GET activity/user/?limit=.
func (c *Client) UserActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = DefaultUserActivityLimit
	}

	body, err := c.send(ctx, request{
		method:     http.MethodGet,
		path:       "activity/user/",
		query:      url.Values{"limit": {strconv.Itoa(limit)}},
		authorized: true,
	})
	if err != nil {
		return nil, err
	}

	page, err := decodeList[models.ActivityLog](body, "", "activities")
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// GetActivity calls GET activity/{id}/.
func (c *Client) GetActivity(ctx context.Context, id models.ID) (*models.ActivityLog, error) {
	var out models.ActivityLog
	if err := c.doJSON(ctx, http.MethodGet, resourcePath("activity", id.String()), nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
