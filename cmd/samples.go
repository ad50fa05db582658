package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/store"
	"github.com/urfave/cli/v3"
)

// SamplesList prints a project's samples.
func (r *Runner) SamplesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	samples, err := r.samples.List(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, samples, func() error {
		if len(samples) == 0 {
			return r.writePlain("No samples\n")
		}
		for _, s := range samples {
			r.writePlain("%-6s %-24s %6s %9s\n", s.ID, s.Name, formatter.Duration(s.Duration), formatter.FileSize(s.FileSize))
		}
		return nil
	})
}

func (r *Runner) printSample(s *models.Sample) {
	r.writePlainHeader(s.Name)
	r.writePlain("ID:       %s\n", s.ID)
	r.writePlain("Project:  %s\n", s.Project)
	if s.Description != "" {
		r.writePlain("About:    %s\n", s.Description)
	}
	if s.Duration > 0 {
		r.writePlain("Length:   %s\n", formatter.Duration(s.Duration))
	}
	if s.FileSize > 0 {
		r.writePlain("Size:     %s\n", formatter.FileSize(s.FileSize))
	}
	if s.BPM > 0 {
		r.writePlain("BPM:      %d\n", s.BPM)
	}
	if s.MusicalKey != "" {
		r.writePlain("Key:      %s\n", s.MusicalKey)
	}
	if len(s.Tags) > 0 {
		r.writePlain("Tags:     %s\n", strings.Join(s.Tags, ", "))
	}
	if s.FileURL != "" {
		r.writePlain("File:     %s\n", s.FileURL)
	}
}

// SamplesGet prints one sample.
func (r *Runner) SamplesGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "sample")
	if err != nil {
		return err
	}

	sample, err := r.samples.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, sample, func() error {
		r.printSample(sample)
		return nil
	})
}

// SamplesUpload uploads an audio file, reporting progress from the samples store.
func (r *Runner) SamplesUpload(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	path := cmd.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	name := cmd.String("name")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	if !cmd.Bool("json") {
		reported := 0
		cancel := r.samples.Subscribe(func(s store.SamplesState) {
			if step := s.UploadProgress / 25 * 25; step > reported {
				reported = step
				r.writePlain("  uploading %s: %d%%\n", filepath.Base(path), step)
			}
		})
		defer cancel()
	}

	sample, err := r.samples.Upload(ctx, services.SampleUpload{
		Project:     id,
		Name:        name,
		Description: cmd.String("description"),
		BPM:         cmd.Int("bpm"),
		MusicalKey:  cmd.String("key"),
		Tags:        cmd.StringSlice("tag"),
		FileName:    filepath.Base(path),
		File:        f,
	})
	if err != nil {
		return err
	}

	r.logger.Info("sample uploaded", "project", id, "sample", sample.ID)
	return r.emit(cmd, sample, func() error {
		return r.writePlain("✓ Uploaded %s (%s)\n", sample.Name, sample.ID)
	})
}

// SamplesUpdate edits a sample's metadata.
func (r *Runner) SamplesUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "sample")
	if err != nil {
		return err
	}

	sample, err := r.samples.Update(ctx, id, services.SamplePatch{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		BPM:         cmd.Int("bpm"),
		MusicalKey:  cmd.String("key"),
		Tags:        cmd.StringSlice("tag"),
	})
	if err != nil {
		return err
	}
	return r.emit(cmd, sample, func() error {
		return r.writePlain("✓ Updated sample %s\n", sample.ID)
	})
}

// SamplesDelete deletes a sample.
func (r *Runner) SamplesDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "sample")
	if err != nil {
		return err
	}

	if err := r.samples.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted sample %s\n", id)
}
