package store

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
)

// VersionsState is a snapshot of the versions store.
//
// PushConfirmed is true when Push is the server's view (after Upload or RefreshPushStatus)
// and false after an optimistic ApprovePush, RejectPush or CancelPush.
type VersionsState struct {
	Flags

	Versions      Partitions[models.Version]
	Current       *models.Version
	Push          *models.PushStatus
	PushConfirmed bool
}

func (s VersionsState) clone() VersionsState {
	s.Versions = s.Versions.Clone()
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	s.Push = s.Push.Clone()
	return s
}

// Versions holds version partitions keyed by project and the single current push.
type Versions struct {
	container[VersionsState]

	api    services.VersionsAPI
	logger *log.Logger
}

// NewVersions creates an empty versions store.
func NewVersions(api services.VersionsAPI, logger *log.Logger) *Versions {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	v := &Versions{api: api, logger: logger}
	v.init(VersionsState{Versions: Partitions[models.Version]{}}, VersionsState.clone)
	return v
}

// List replaces the partition of projectID, or of the project named in the response envelope.
func (v *Versions) List(ctx context.Context, projectID models.ID) ([]models.Version, error) {
	v.update(func(s *VersionsState) { s.begin() })

	page, err := v.api.ListVersions(ctx, projectID)
	if err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to fetch versions")) })
		return nil, err
	}

	v.update(func(s *VersionsState) {
		s.Versions.Replace(page.ProjectID, page.Items)
		s.succeed()
	})
	return page.Items, nil
}

// Get fetches one version and makes it current.
func (v *Versions) Get(ctx context.Context, id models.ID) (*models.Version, error) {
	v.update(func(s *VersionsState) { s.begin() })

	version, err := v.api.GetVersion(ctx, id)
	if err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to fetch version")) })
		return nil, err
	}

	v.update(func(s *VersionsState) {
		c := *version
		s.Current = &c
		s.succeed()
	})
	return version, nil
}

// Upload pushes a new version. The returned push replaces the current one.
func (v *Versions) Upload(ctx context.Context, in services.VersionUpload) (*models.PushStatus, error) {
	v.update(func(s *VersionsState) { s.begin() })

	push, err := v.api.UploadVersion(ctx, in)
	if err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to upload version")) })
		return nil, err
	}

	v.update(func(s *VersionsState) {
		s.Push = push.Clone()
		s.PushConfirmed = true
		s.succeed()
	})
	return push, nil
}

// Update replaces the version by id in whichever partition holds it.
func (v *Versions) Update(ctx context.Context, id models.ID, in services.VersionPatch) (*models.Version, error) {
	v.update(func(s *VersionsState) { s.begin() })

	version, err := v.api.UpdateVersion(ctx, id, in)
	if err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to update version")) })
		return nil, err
	}
	if version.ID == "" {
		version.ID = id
	}

	v.update(func(s *VersionsState) {
		s.Versions.Update(*version)
		if s.Current != nil && s.Current.ID == version.ID {
			c := *version
			s.Current = &c
		}
		s.succeed()
	})
	return version, nil
}

// Delete removes the version by id from every partition.
func (v *Versions) Delete(ctx context.Context, id models.ID) error {
	v.update(func(s *VersionsState) { s.begin() })

	if err := v.api.DeleteVersion(ctx, id); err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to delete version")) })
		return err
	}

	v.update(func(s *VersionsState) {
		s.Versions.Remove(id)
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
		s.succeed()
	})
	return nil
}

// RefreshPushStatus overwrites the current push with the server's record.
func (v *Versions) RefreshPushStatus(ctx context.Context, pushID models.ID) (*models.PushStatus, error) {
	v.update(func(s *VersionsState) { s.begin() })

	push, err := v.api.PushStatus(ctx, pushID)
	if err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, "Failed to fetch push status")) })
		return nil, err
	}

	v.update(func(s *VersionsState) {
		s.Push = push.Clone()
		s.PushConfirmed = true
		s.succeed()
	})
	return push, nil
}

// ApprovePush approves pushID and optimistically marks the current push approved.
func (v *Versions) ApprovePush(ctx context.Context, pushID models.ID) error {
	return v.pushAction(pushID, models.PushApproved, "Failed to approve push", func() error {
		return v.api.ApprovePush(ctx, pushID)
	})
}

// RejectPush rejects pushID with reason and optimistically marks the current push rejected.
func (v *Versions) RejectPush(ctx context.Context, pushID models.ID, reason string) error {
	return v.pushAction(pushID, models.PushRejected, "Failed to reject push", func() error {
		return v.api.RejectPush(ctx, pushID, reason)
	})
}

// CancelPush cancels pushID and optimistically marks the current push failed.
func (v *Versions) CancelPush(ctx context.Context, pushID models.ID) error {
	return v.pushAction(pushID, models.PushFailed, "Failed to cancel push", func() error {
		return v.api.CancelPush(ctx, pushID)
	})
}

// pushAction sets only the status field of the held push, and only when it is pushID.
func (v *Versions) pushAction(pushID models.ID, next models.PushState, fallback string, call func() error) error {
	v.update(func(s *VersionsState) { s.begin() })

	if err := call(); err != nil {
		v.update(func(s *VersionsState) { s.fail(services.ErrorText(err, fallback)) })
		return err
	}

	v.update(func(s *VersionsState) {
		if s.Push != nil && s.Push.ID == pushID {
			s.Push.Status = next
			s.PushConfirmed = false
		}
		s.succeed()
	})
	return nil
}

// ClearPushStatus drops the current push.
func (v *Versions) ClearPushStatus() {
	v.update(func(s *VersionsState) {
		s.Push = nil
		s.PushConfirmed = false
	})
}

// ClearError drops the current error message.
func (v *Versions) ClearError() {
	v.update(func(s *VersionsState) { s.Error = "" })
}
