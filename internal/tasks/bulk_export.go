package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	"golang.org/x/time/rate"
)

// ActivityLister fetches a project's audit trail. [store.Activity] implements it.
type ActivityLister interface {
	ListProject(ctx context.Context, projectID models.ID, limit int, action string) ([]models.ActivityLog, error)
}

// BulkExportOpts contains configuration for bulk activity exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: activity_export_{epoch})
	NumWorkers int     // Concurrent writers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
	Limit      int     // Entries per project; zero uses the API default
	Action     string  // Optional action filter
}

// exportJob is one fetched project waiting to be written.
type exportJob struct {
	project models.Project
	logs    []models.ActivityLog
}

// ProjectExportResult is the outcome of exporting one project.
type ProjectExportResult struct {
	ProjectID   models.ID
	ProjectName string
	Success     bool
	Files       []string
	Error       error
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	TotalProjects     int
	SuccessfulExports int
	FailedExports     int
	Results           []ProjectExportResult
	OutputDirectory   string
	ManifestPath      string
}

// ActivityExporter writes the activity of many projects to disk.
type ActivityExporter struct {
	activity ActivityLister
}

// NewActivityExporter creates an [ActivityExporter] reading from activity.
func NewActivityExporter(activity ActivityLister) *ActivityExporter {
	return &ActivityExporter{activity: activity}
}

// Export fetches each project's activity at the configured rate and writes it with a pool of workers.
//
// A project that fails to fetch or write is recorded in the result and does not stop the others.
// A manifest summarizing every project is written to the output directory.
func (e *ActivityExporter) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	projects []models.Project,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.activity == nil {
		return nil, fmt.Errorf("%w: activity store not initialized", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("activity_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalProjects:   len(projects),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ProjectExportResult, 0, len(projects)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(projects))
	results := make(chan ProjectExportResult, len(projects))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, project := range projects {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchingActivityUpdate(i+1, len(projects), project.Name))

			logs, err := e.activity.ListProject(ctx, project.ID, opts.Limit, opts.Action)
			if err != nil {
				results <- ProjectExportResult{
					ProjectID:   project.ID,
					ProjectName: project.Name,
					Error:       fmt.Errorf("failed to fetch activity: %w", err),
				}
				continue
			}

			jobs <- exportJob{project: project, logs: logs}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(projects), res.ProjectName, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(projects), res.ProjectName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker writes projects from the jobs channel until it closes.
//
// Every job yields a result, so the results channel never drops a project that was fetched.
func (e *ActivityExporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- ProjectExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := ProjectExportResult{ProjectID: job.project.ID, ProjectName: job.project.Name}
		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		export := &formatter.ActivityExport{Project: job.project, Logs: job.logs}
		files, err := formatter.WriteActivityExport(export, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.Files = files
			res.Success = true
		}
		results <- res
	}
}

func manifest(result *BulkExportResult, format string) formatter.Manifest {
	m := formatter.Manifest{
		Format:     format,
		ExportedAt: time.Now().UTC(),
		Total:      result.TotalProjects,
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Projects:   make([]formatter.ManifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := formatter.ManifestEntry{
			ProjectID:   r.ProjectID.String(),
			ProjectName: r.ProjectName,
			Status:      "success",
			Files:       r.Files,
		}
		if !r.Success {
			entry.Status = "failed"
			if r.Error != nil {
				entry.Error = r.Error.Error()
			}
		}
		m.Projects = append(m.Projects, entry)
	}
	return m
}
