package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
)

var _ list.Item = projectItem{}

// projectItem wraps [models.Project] to implement [list.Item].
type projectItem struct {
	project models.Project
}

func (i projectItem) FilterValue() string { return i.project.Name }
func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string {
	parts := []string{formatter.Visibility(i.project.IsPublic)}
	if i.project.Genre != "" {
		parts = append(parts, i.project.Genre)
	}
	if i.project.BPM > 0 {
		parts = append(parts, fmt.Sprintf("%d bpm", i.project.BPM))
	}
	if i.project.MemberCount > 0 {
		parts = append(parts, fmt.Sprintf("%d members", i.project.MemberCount))
	}
	return strings.Join(parts, " • ")
}

func projectItems(projects []models.Project) []list.Item {
	items := make([]list.Item, len(projects))
	for i, p := range projects {
		items[i] = projectItem{project: p}
	}
	return items
}
