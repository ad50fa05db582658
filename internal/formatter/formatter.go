// package formatter renders project listings and activity logs as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
)

// Formats accepted by [WriteActivityExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

const timeLayout = "2006-01-02 15:04"

// ParseFormat normalizes a user supplied format name. "md" and "text" are accepted aliases.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatText, "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

// ActivityExport is one project's audit trail.
type ActivityExport struct {
	Project models.Project       `json:"project"`
	Logs    []models.ActivityLog `json:"activities"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func actor(u models.UserProfile) string {
	if name := u.Username(); name != "" {
		return name
	}
	return u.ID()
}

// ActivityToCSV converts logs to CSV with columns: ID, Time, User, Action, Description
func ActivityToCSV(logs []models.ActivityLog) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Time", "User", "Action", "Description"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range logs {
		record := []string{l.ID.String(), formatTime(l.CreatedAt), actor(l.User), l.Action, l.Description}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ActivityToMarkdown renders a project's activity as a Markdown document.
func ActivityToMarkdown(export *ActivityExport) []byte {
	var buf bytes.Buffer

	title := export.Project.Name
	if title == "" {
		title = "Project " + export.Project.ID.String()
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	if export.Project.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", export.Project.Description)
	}
	fmt.Fprintf(&buf, "**Entries**: %d\n\n", len(export.Logs))

	buf.WriteString("## Activity\n\n")
	if len(export.Logs) == 0 {
		buf.WriteString("_No activity recorded._\n")
		return buf.Bytes()
	}

	buf.WriteString("| Time | User | Action | Description |\n")
	buf.WriteString("|---|---|---|---|\n")
	for _, l := range export.Logs {
		fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
			formatTime(l.CreatedAt), escapeCell(actor(l.User)), escapeCell(l.Action), escapeCell(l.Description))
	}
	return buf.Bytes()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// ActivityToText renders logs as one line per entry under a heading.
func ActivityToText(heading string, logs []models.ActivityLog) []byte {
	var buf bytes.Buffer

	if heading != "" {
		fmt.Fprintf(&buf, "%s\n", heading)
	}
	fmt.Fprintf(&buf, "Entries: %d\n\n", len(logs))

	for i, l := range logs {
		line := fmt.Sprintf("%d. [%s] %s", i+1, l.Action, actor(l.User))
		if ts := formatTime(l.CreatedAt); ts != "" {
			line += " at " + ts
		}
		if l.Description != "" {
			line += ": " + l.Description
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

// ProjectsToCSV converts projects to CSV with columns: ID, Name, Genre, BPM, Key, Public, Members
func ProjectsToCSV(projects []models.Project) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Name", "Genre", "BPM", "Key", "Public", "Members"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range projects {
		record := []string{
			p.ID.String(),
			p.Name,
			p.Genre,
			intOrEmpty(p.BPM),
			p.MusicalKey,
			strconv.FormatBool(p.IsPublic),
			strconv.Itoa(p.MemberCount),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ProjectsToMarkdown renders projects as a Markdown list.
func ProjectsToMarkdown(projects []models.Project) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Projects\n\n")
	fmt.Fprintf(&buf, "**Projects**: %d\n\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&buf, "- **%s** (%s)%s\n", p.Name, Visibility(p.IsPublic), details(p))
	}
	return buf.Bytes()
}

// ProjectsToText renders projects one per line.
func ProjectsToText(projects []models.Project) []byte {
	var buf bytes.Buffer
	for _, p := range projects {
		fmt.Fprintf(&buf, "%s\t%s\t%s%s\n", p.ID, p.Name, Visibility(p.IsPublic), details(p))
	}
	return buf.Bytes()
}

func details(p models.Project) string {
	var parts []string
	if p.Genre != "" {
		parts = append(parts, p.Genre)
	}
	if p.BPM > 0 {
		parts = append(parts, fmt.Sprintf("%d bpm", p.BPM))
	}
	if p.MusicalKey != "" {
		parts = append(parts, p.MusicalKey)
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, ", ")
}

func intOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Visibility returns "public" or "private".
func Visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// FileSize formats a byte count with a binary unit, e.g. 1.5 MiB.
func FileSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Duration formats seconds as m:ss.
func Duration(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// WriteActivityExport writes export into dir in the given format and returns the files created.
//
// Files are named after the project id:
//   - json: {id}.json
//   - csv: {id}_activity.csv and {id}_project.json
//   - markdown: {id}/README.md
//   - txt: {id}_activity.txt
func WriteActivityExport(export *ActivityExport, format, dir string) ([]string, error) {
	base := export.Project.ID.String()
	if base == "" {
		return nil, fmt.Errorf("%w: export has no project id", shared.ErrInvalidInput)
	}

	switch format {
	case FormatCSV:
		data, err := ActivityToCSV(export.Logs)
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		logsFile := filepath.Join(dir, base+"_activity.csv")
		if err := os.WriteFile(logsFile, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write CSV file: %w", err)
		}

		meta, err := shared.MarshalJSON(export.Project, true)
		if err != nil {
			return nil, fmt.Errorf("failed to generate project JSON: %w", err)
		}
		metaFile := filepath.Join(dir, base+"_project.json")
		if err := os.WriteFile(metaFile, meta, 0644); err != nil {
			return nil, fmt.Errorf("failed to write project file: %w", err)
		}
		return []string{logsFile, metaFile}, nil

	case FormatMarkdown:
		projectDir := filepath.Join(dir, base)
		if err := os.MkdirAll(projectDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		mdFile := filepath.Join(projectDir, "README.md")
		if err := os.WriteFile(mdFile, ActivityToMarkdown(export), 0644); err != nil {
			return nil, fmt.Errorf("failed to write Markdown file: %w", err)
		}
		return []string{mdFile}, nil

	case FormatText:
		txtFile := filepath.Join(dir, base+"_activity.txt")
		heading := "Project: " + export.Project.Name
		if err := os.WriteFile(txtFile, ActivityToText(heading, export.Logs), 0644); err != nil {
			return nil, fmt.Errorf("failed to write text file: %w", err)
		}
		return []string{txtFile}, nil

	case FormatJSON:
		data, err := shared.MarshalJSON(export, true)
		if err != nil {
			return nil, fmt.Errorf("JSON marshal failed: %w", err)
		}
		jsonFile := filepath.Join(dir, base+".json")
		if err := os.WriteFile(jsonFile, data, 0644); err != nil {
			return nil, fmt.Errorf("JSON write failed: %w", err)
		}
		return []string{jsonFile}, nil
	}

	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// ManifestEntry describes one project in an export manifest.
type ManifestEntry struct {
	ProjectID   string   `json:"project_id"`
	ProjectName string   `json:"project_name"`
	Status      string   `json:"status"`
	Files       []string `json:"files,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Manifest summarizes a multi-project export.
type Manifest struct {
	Format     string          `json:"format"`
	ExportedAt time.Time       `json:"exported_at"`
	Total      int             `json:"total_projects"`
	Successful int             `json:"successful_exports"`
	Failed     int             `json:"failed_exports"`
	Projects   []ManifestEntry `json:"projects"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
