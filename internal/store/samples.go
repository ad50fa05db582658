package store

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
)

// SamplesState is a snapshot of the samples store. UploadProgress is a percentage.
type SamplesState struct {
	Flags

	Samples        Partitions[models.Sample]
	Current        *models.Sample
	UploadProgress int
}

func (s SamplesState) clone() SamplesState {
	s.Samples = s.Samples.Clone()
	if s.Current != nil {
		c := *s.Current
		s.Current = &c
	}
	return s
}

// Samples holds sample partitions keyed by project.
type Samples struct {
	container[SamplesState]

	api    services.SamplesAPI
	logger *log.Logger
}

// NewSamples creates an empty samples store.
func NewSamples(api services.SamplesAPI, logger *log.Logger) *Samples {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	s := &Samples{api: api, logger: logger}
	s.init(SamplesState{Samples: Partitions[models.Sample]{}}, SamplesState.clone)
	return s
}

// List replaces the partition of projectID, or of the project named in the response envelope.
func (m *Samples) List(ctx context.Context, projectID models.ID) ([]models.Sample, error) {
	m.update(func(s *SamplesState) { s.begin() })

	page, err := m.api.ListSamples(ctx, projectID)
	if err != nil {
		m.update(func(s *SamplesState) { s.fail(services.ErrorText(err, "Failed to fetch samples")) })
		return nil, err
	}

	m.update(func(s *SamplesState) {
		s.Samples.Replace(page.ProjectID, page.Items)
		s.succeed()
	})
	return page.Items, nil
}

// Get fetches one sample and makes it current.
func (m *Samples) Get(ctx context.Context, id models.ID) (*models.Sample, error) {
	m.update(func(s *SamplesState) { s.begin() })

	sample, err := m.api.GetSample(ctx, id)
	if err != nil {
		m.update(func(s *SamplesState) { s.fail(services.ErrorText(err, "Failed to fetch sample")) })
		return nil, err
	}

	m.update(func(s *SamplesState) {
		c := *sample
		s.Current = &c
		s.succeed()
	})
	return sample, nil
}

// Upload sends a sample file, tracking progress, and appends the result to its project's partition.
//
// Progress returns to zero once the upload settles.
func (m *Samples) Upload(ctx context.Context, in services.SampleUpload) (*models.Sample, error) {
	m.update(func(s *SamplesState) {
		s.begin()
		s.UploadProgress = 0
	})

	report := in.Progress
	last := -1
	in.Progress = func(sent, total int64) {
		if total > 0 {
			if pct := int(sent * 100 / total); pct != last {
				last = pct
				m.SetUploadProgress(pct)
			}
		}
		if report != nil {
			report(sent, total)
		}
	}

	sample, err := m.api.UploadSample(ctx, in)
	if err != nil {
		m.update(func(s *SamplesState) {
			s.fail(services.ErrorText(err, "Failed to upload sample"))
			s.UploadProgress = 0
		})
		return nil, err
	}

	owner := sample.Project
	if owner == "" {
		owner = in.Project
	}
	m.update(func(s *SamplesState) {
		s.Samples.Append(owner, *sample)
		s.UploadProgress = 0
		s.succeed()
	})
	return sample, nil
}

// Update replaces the sample by id in whichever partition holds it.
func (m *Samples) Update(ctx context.Context, id models.ID, in services.SamplePatch) (*models.Sample, error) {
	m.update(func(s *SamplesState) { s.begin() })

	sample, err := m.api.UpdateSample(ctx, id, in)
	if err != nil {
		m.update(func(s *SamplesState) { s.fail(services.ErrorText(err, "Failed to update sample")) })
		return nil, err
	}
	if sample.ID == "" {
		sample.ID = id
	}

	m.update(func(s *SamplesState) {
		s.Samples.Update(*sample)
		if s.Current != nil && s.Current.ID == sample.ID {
			c := *sample
			s.Current = &c
		}
		s.succeed()
	})
	return sample, nil
}

// Delete removes the sample by id from every partition.
func (m *Samples) Delete(ctx context.Context, id models.ID) error {
	m.update(func(s *SamplesState) { s.begin() })

	if err := m.api.DeleteSample(ctx, id); err != nil {
		m.update(func(s *SamplesState) { s.fail(services.ErrorText(err, "Failed to delete sample")) })
		return err
	}

	m.update(func(s *SamplesState) {
		s.Samples.Remove(id)
		if s.Current != nil && s.Current.ID == id {
			s.Current = nil
		}
		s.succeed()
	})
	return nil
}

// SetUploadProgress sets the upload percentage, clamped to 0..100.
func (m *Samples) SetUploadProgress(pct int) {
	pct = max(0, min(pct, 100))
	m.update(func(s *SamplesState) { s.UploadProgress = pct })
}

// ResetUploadProgress sets the upload percentage to zero.
func (m *Samples) ResetUploadProgress() {
	m.SetUploadProgress(0)
}

// ClearError drops the current error message.
func (m *Samples) ClearError() {
	m.update(func(s *SamplesState) { s.Error = "" })
}
