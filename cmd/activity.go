package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ActivityProject prints a project's audit trail as text, CSV or Markdown.
func (r *Runner) ActivityProject(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	logs, err := r.activity.ListProject(ctx, id, cmd.Int("limit"), cmd.String("action"))
	if err != nil {
		return err
	}

	return r.emit(cmd, logs, func() error {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		var out []byte
		switch format {
		case formatter.FormatCSV:
			if out, err = formatter.ActivityToCSV(logs); err != nil {
				return err
			}
		case formatter.FormatMarkdown:
			out = formatter.ActivityToMarkdown(&formatter.ActivityExport{
				Project: models.Project{ID: id},
				Logs:    logs,
			})
		case formatter.FormatText:
			out = formatter.ActivityToText(fmt.Sprintf("Project %s", id), logs)
		default:
			return fmt.Errorf("%w: activity cannot be listed as %s", shared.ErrInvalidArgument, format)
		}
		_, err = r.output.Write(out)
		return err
	})
}

// ActivityUser prints the caller's own recent activity.
func (r *Runner) ActivityUser(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	logs, err := r.activity.ListUser(ctx, cmd.Int("limit"))
	if err != nil {
		return err
	}
	return r.emit(cmd, logs, func() error {
		_, err := r.output.Write(formatter.ActivityToText("Your activity", logs))
		return err
	})
}

// ActivityGet prints one activity entry.
func (r *Runner) ActivityGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "activity")
	if err != nil {
		return err
	}

	entry, err := r.activity.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, entry, func() error {
		_, err := r.output.Write(formatter.ActivityToText(fmt.Sprintf("Activity %s", entry.ID), []models.ActivityLog{*entry}))
		return err
	})
}

// ActivityExport writes the activity of the selected projects, or all of them, to disk.
func (r *Runner) ActivityExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	projects, err := r.exportTargets(ctx, cmd.StringSlice("project"))
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return r.writePlain("No projects to export\n")
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Limit:      cmd.Int("limit"),
		Action:     cmd.String("action"),
	}

	progress := make(chan tasks.ProgressUpdate, 20)
	done := make(chan struct{})
	quiet := cmd.Bool("json")
	go func() {
		defer close(done)
		for update := range progress {
			if !quiet {
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	result, err := r.exporter.Export(ctx, progress, projects, opts)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.logger.Info("activity export finished", "dir", result.OutputDirectory,
		"ok", result.SuccessfulExports, "failed", result.FailedExports)

	return r.emit(cmd, result, func() error {
		r.writePlainln("Exported %d of %d projects to %s", result.SuccessfulExports, result.TotalProjects, result.OutputDirectory)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  ✗ %s: %v\n", res.ProjectName, res.Error)
			}
		}
		return r.writePlain("Manifest: %s\n", result.ManifestPath)
	})
}

// exportTargets resolves project ids to projects; no ids means every project.
func (r *Runner) exportTargets(ctx context.Context, ids []string) ([]models.Project, error) {
	if len(ids) == 0 {
		return r.projects.List(ctx)
	}

	projects := make([]models.Project, 0, len(ids))
	for _, id := range ids {
		p, err := r.projects.Get(ctx, models.ID(id))
		if err != nil {
			return nil, fmt.Errorf("failed to load project %s: %w", id, err)
		}
		projects = append(projects, *p)
	}
	return projects, nil
}
