package store

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
)

// ActivityState is a snapshot of the activity store.
type ActivityState struct {
	Flags

	Project Partitions[models.ActivityLog]
	User    []models.ActivityLog
	Current *models.ActivityLog
}

func (s ActivityState) clone() ActivityState {
	s.Project = s.Project.Clone()
	s.User = slices.Clone(s.User)
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	return s
}

// Activity holds read-only audit logs: per-project partitions and the current user's feed.
type Activity struct {
	container[ActivityState]

	api    services.ActivityAPI
	logger *log.Logger
}

// NewActivity creates an empty activity store.
func NewActivity(api services.ActivityAPI, logger *log.Logger) *Activity {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	a := &Activity{api: api, logger: logger}
	a.init(ActivityState{Project: Partitions[models.ActivityLog]{}}, ActivityState.clone)
	return a
}

// ListProject replaces the partition of projectID with logs filtered by action.
//
// A zero limit uses the client's default; an empty action matches every action.
func (a *Activity) ListProject(ctx context.Context, projectID models.ID, limit int, action string) ([]models.ActivityLog, error) {
	a.update(func(s *ActivityState) { s.begin() })

	page, err := a.api.ProjectActivity(ctx, projectID, limit, action)
	if err != nil {
		a.update(func(s *ActivityState) { s.fail(services.ErrorText(err, "Failed to fetch project activity")) })
		return nil, err
	}

	a.update(func(s *ActivityState) {
		s.Project.Replace(page.ProjectID, page.Items)
		s.succeed()
	})
	return page.Items, nil
}

// ListUser replaces the current user's feed.
func (a *Activity) ListUser(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	a.update(func(s *ActivityState) { s.begin() })

	logs, err := a.api.UserActivity(ctx, limit)
	if err != nil {
		a.update(func(s *ActivityState) { s.fail(services.ErrorText(err, "Failed to fetch user activity")) })
		return nil, err
	}

	a.update(func(s *ActivityState) {
		s.User = slices.Clone(logs)
		s.succeed()
	})
	return logs, nil
}

// Get fetches one log entry and makes it current.
func (a *Activity) Get(ctx context.Context, id models.ID) (*models.ActivityLog, error) {
	a.update(func(s *ActivityState) { s.begin() })

	entry, err := a.api.GetActivity(ctx, id)
	if err != nil {
		a.update(func(s *ActivityState) { s.fail(services.ErrorText(err, "Failed to fetch activity")) })
		return nil, err
	}

	a.update(func(s *ActivityState) {
		c := *entry
		s.Current = &c
		s.succeed()
	})
	return entry, nil
}

// ClearProject drops projectID's partition, or every partition when projectID is empty.
func (a *Activity) ClearProject(projectID models.ID) {
	a.update(func(s *ActivityState) { s.Project.Clear(projectID) })
}

// ClearError drops the current error message.
func (a *Activity) ClearError() {
	a.update(func(s *ActivityState) { s.Error = "" })
}
