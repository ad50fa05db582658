package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	th "github.com/desertthunder/stemhub/internal/testing"
)

func sampleExport() *ActivityExport {
	return &ActivityExport{
		Project: models.Project{ID: "7", Name: "Night Drive", Description: "synthwave EP"},
		Logs: []models.ActivityLog{
			{
				ID:          "1",
				User:        models.UserProfile{"username": "amy"},
				Action:      "version_upload",
				Description: "Uploaded v3",
				CreatedAt:   time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC),
			},
			{
				ID:          "2",
				User:        models.UserProfile{"id": float64(42)},
				Action:      "sample_upload",
				Description: "kick | snare",
			},
		},
	}
}

func sampleProjects() []models.Project {
	return []models.Project{
		{ID: "1", Name: "Night Drive", Genre: "synthwave", BPM: 100, MusicalKey: "Am", IsPublic: true, MemberCount: 3},
		{ID: "2", Name: "Sketches"},
	}
}

func TestActivityFormats(t *testing.T) {
	t.Run("ActivityToCSV", func(t *testing.T) {
		data, err := ActivityToCSV(sampleExport().Logs)
		if err != nil {
			t.Fatalf("ActivityToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d: %q", len(lines), data)
		}
		if lines[0] != "ID,Time,User,Action,Description" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if lines[1] != "1,2025-03-01 14:30,amy,version_upload,Uploaded v3" {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if lines[2] != "2,,42,sample_upload,kick | snare" {
			t.Errorf("unexpected second row: %s", lines[2])
		}
	})

	t.Run("ActivityToMarkdown", func(t *testing.T) {
		output := string(ActivityToMarkdown(sampleExport()))

		for _, want := range []string{
			"# Night Drive",
			"**Description**: synthwave EP",
			"**Entries**: 2",
			"| 2025-03-01 14:30 | amy | version_upload | Uploaded v3 |",
			`kick \| snare`,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ActivityToMarkdown without entries", func(t *testing.T) {
		output := string(ActivityToMarkdown(&ActivityExport{Project: models.Project{ID: "9"}}))

		if !strings.Contains(output, "# Project 9") {
			t.Errorf("expected fallback title, got:\n%s", output)
		}
		if !strings.Contains(output, "No activity recorded") {
			t.Errorf("expected empty marker, got:\n%s", output)
		}
	})

	t.Run("ActivityToText", func(t *testing.T) {
		output := string(ActivityToText("Recent activity", sampleExport().Logs))

		if !strings.HasPrefix(output, "Recent activity\nEntries: 2\n\n") {
			t.Errorf("unexpected heading: %q", output)
		}
		if !strings.Contains(output, "1. [version_upload] amy at 2025-03-01 14:30: Uploaded v3") {
			t.Errorf("missing first entry, got:\n%s", output)
		}
		if !strings.Contains(output, "2. [sample_upload] 42: kick | snare") {
			t.Errorf("missing second entry, got:\n%s", output)
		}
	})
}

func TestProjectFormats(t *testing.T) {
	t.Run("ProjectsToCSV", func(t *testing.T) {
		data, err := ProjectsToCSV(sampleProjects())
		if err != nil {
			t.Fatalf("ProjectsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Name,Genre,BPM,Key,Public,Members") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,Night Drive,synthwave,100,Am,true,3") {
			t.Errorf("CSV missing first project, got: %s", output)
		}
		if !strings.Contains(output, "2,Sketches,,,,false,0") {
			t.Errorf("CSV missing second project, got: %s", output)
		}
	})

	t.Run("ProjectsToMarkdown", func(t *testing.T) {
		output := string(ProjectsToMarkdown(sampleProjects()))

		if !strings.Contains(output, "- **Night Drive** (public) synthwave, 100 bpm, Am") {
			t.Errorf("Markdown missing project details, got:\n%s", output)
		}
		if !strings.Contains(output, "- **Sketches** (private)\n") {
			t.Errorf("Markdown missing bare project, got:\n%s", output)
		}
	})

	t.Run("ProjectsToText", func(t *testing.T) {
		output := string(ProjectsToText(sampleProjects()))

		if output != "1\tNight Drive\tpublic synthwave, 100 bpm, Am\n2\tSketches\tprivate\n" {
			t.Errorf("unexpected text output: %q", output)
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("ParseFormat", func(t *testing.T) {
		tests := map[string]string{"": FormatJSON, "CSV": FormatCSV, "md": FormatMarkdown, "text": FormatText, " txt ": FormatText}
		for in, want := range tests {
			got, err := ParseFormat(in)
			if err != nil {
				t.Errorf("ParseFormat(%q) failed: %v", in, err)
			}
			if got != want {
				t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
			}
		}

		if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("FileSize", func(t *testing.T) {
		tests := map[int64]string{0: "0 B", 1023: "1023 B", 1536: "1.5 KiB", 5 * 1024 * 1024: "5.0 MiB"}
		for in, want := range tests {
			if got := FileSize(in); got != want {
				t.Errorf("FileSize(%d) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("Duration", func(t *testing.T) {
		if got := Duration(125.4); got != "2:05" {
			t.Errorf("Duration = %q, want 2:05", got)
		}
		if got := Duration(0); got != "0:00" {
			t.Errorf("Duration = %q, want 0:00", got)
		}
	})
}

func TestWriteActivityExport(t *testing.T) {
	tests := []struct {
		format string
		files  []string
	}{
		{FormatJSON, []string{"7.json"}},
		{FormatCSV, []string{"7_activity.csv", "7_project.json"}},
		{FormatMarkdown, []string{filepath.Join("7", "README.md")}},
		{FormatText, []string{"7_activity.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()

			files, err := WriteActivityExport(sampleExport(), tt.format, dir)
			if err != nil {
				t.Fatalf("WriteActivityExport failed: %v", err)
			}
			if len(files) != len(tt.files) {
				t.Fatalf("expected %d files, got %v", len(tt.files), files)
			}
			for i, name := range tt.files {
				want := filepath.Join(dir, name)
				if files[i] != want {
					t.Errorf("file %d = %s, want %s", i, files[i], want)
				}
				th.AssertFileExists(t, want)
			}
		})
	}

	t.Run("json round trip", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteActivityExport(sampleExport(), FormatJSON, dir)
		if err != nil {
			t.Fatalf("WriteActivityExport failed: %v", err)
		}

		var got ActivityExport
		if err := json.Unmarshal([]byte(th.MustReadFile(t, files[0])), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Project.Name != "Night Drive" || len(got.Logs) != 2 {
			t.Errorf("unexpected export: %+v", got)
		}
	})

	t.Run("missing project id", func(t *testing.T) {
		_, err := WriteActivityExport(&ActivityExport{}, FormatJSON, t.TempDir())
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := WriteActivityExport(sampleExport(), "xml", t.TempDir())
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := Manifest{
		Format:     FormatCSV,
		Total:      2,
		Successful: 1,
		Failed:     1,
		Projects: []ManifestEntry{
			{ProjectID: "1", ProjectName: "Night Drive", Status: "success", Files: []string{"1_activity.csv"}},
			{ProjectID: "2", Status: "failed", Error: "not found"},
		},
	}

	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	content := th.MustReadFile(t, path)
	for _, want := range []string{`"format": "csv"`, `"total_projects": 2`, `"failed_exports": 1`, `"status": "failed"`, `"not found"`} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest missing %s, got:\n%s", want, content)
		}
	}
}
