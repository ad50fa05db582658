package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/ui"
	"github.com/urfave/cli/v3"
)

// prepareTUI moves logging to a file before the stores are wired, since the dashboard owns the terminal.
func (r *Runner) prepareTUI(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return ctx, fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	return r.prepare(ctx, cmd)
}

// TUI launches the interactive terminal dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	model := ui.NewModel(ctx, ui.Stores{
		Session:  r.session,
		Projects: r.projects,
		Versions: r.versions,
		Samples:  r.samples,
		Activity: r.activity,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
