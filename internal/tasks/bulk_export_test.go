package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	th "github.com/desertthunder/stemhub/internal/testing"
)

type fakeActivity struct {
	mu    sync.Mutex
	logs  map[models.ID][]models.ActivityLog
	fail  map[models.ID]error
	calls []models.ID
}

func (f *fakeActivity) ListProject(ctx context.Context, projectID models.ID, limit int, action string) ([]models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, projectID)
	if err := f.fail[projectID]; err != nil {
		return nil, err
	}
	return f.logs[projectID], nil
}

func exportProjects() []models.Project {
	return []models.Project{
		{ID: "1", Name: "Night Drive"},
		{ID: "2", Name: "Sketches"},
		{ID: "3", Name: "Broken"},
	}
}

func TestActivityExporter(t *testing.T) {
	ctx := context.Background()

	newSource := func() *fakeActivity {
		return &fakeActivity{
			logs: map[models.ID][]models.ActivityLog{
				"1": {{ID: "10", Action: "version_upload"}},
				"2": {},
			},
			fail: map[models.ID]error{"3": shared.ErrAPIRequest},
		}
	}

	t.Run("exports every project and writes a manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		src := newSource()
		progress := make(chan ProgressUpdate, 32)

		result, err := NewActivityExporter(src).Export(ctx, progress, exportProjects(), BulkExportOpts{
			Format:    "csv",
			OutputDir: dir,
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		if result.TotalProjects != 3 || result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}
		if len(src.calls) != 3 {
			t.Errorf("expected 3 fetches, got %v", src.calls)
		}

		th.AssertFileExists(t, filepath.Join(dir, "1_activity.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "2_project.json"))
		if _, err := os.Stat(filepath.Join(dir, "3_activity.csv")); !os.IsNotExist(err) {
			t.Errorf("failed project should not be written")
		}

		if result.ManifestPath != filepath.Join(dir, "export_manifest.json") {
			t.Errorf("unexpected manifest path: %s", result.ManifestPath)
		}
		content := th.MustReadFile(t, result.ManifestPath)
		for _, want := range []string{`"format": "csv"`, `"successful_exports": 2`, `"status": "failed"`, `"project_name": "Broken"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s", want)
			}
		}

		updates := drain(progress)
		var fetched, exported int
		for _, u := range updates {
			switch u.Phase {
			case FetchActivity:
				fetched++
			case ExportActivity:
				exported++
			}
		}
		if fetched != 3 || exported != 3 {
			t.Errorf("expected 3 fetch and 3 export updates, got %d and %d", fetched, exported)
		}
	})

	t.Run("no projects", func(t *testing.T) {
		dir := t.TempDir()

		result, err := NewActivityExporter(newSource()).Export(ctx, nil, nil, BulkExportOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if result.TotalProjects != 0 || len(result.Results) != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		th.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := NewActivityExporter(newSource()).Export(ctx, nil, exportProjects(), BulkExportOpts{Format: "xml", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dir := t.TempDir()

		result, err := NewActivityExporter(newSource()).Export(ctx, nil, exportProjects(), BulkExportOpts{OutputDir: dir})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.SuccessfulExports != 0 {
			t.Errorf("expected nothing exported, got %d", result.SuccessfulExports)
		}
		if _, err := os.Stat(filepath.Join(dir, "export_manifest.json")); !os.IsNotExist(err) {
			t.Errorf("manifest should not be written for a cancelled export")
		}
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := NewActivityExporter(nil).Export(ctx, nil, nil, BulkExportOpts{})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
