package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/urfave/cli/v3"
)

// projectInput collects the project flags that were set on cmd.
func projectInput(cmd *cli.Command) models.ProjectInput {
	in := models.ProjectInput{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Genre:       cmd.String("genre"),
		BPM:         cmd.Int("bpm"),
		MusicalKey:  cmd.String("key"),
	}
	if cmd.IsSet("public") {
		public := cmd.Bool("public")
		in.IsPublic = &public
	}
	return in
}

// ProjectsList prints the caller's projects as text, CSV or Markdown.
func (r *Runner) ProjectsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	projects, err := r.projects.List(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, projects, func() error {
		format, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}

		var out []byte
		switch format {
		case formatter.FormatCSV:
			if out, err = formatter.ProjectsToCSV(projects); err != nil {
				return err
			}
		case formatter.FormatMarkdown:
			out = formatter.ProjectsToMarkdown(projects)
		case formatter.FormatText:
			out = formatter.ProjectsToText(projects)
		default:
			return fmt.Errorf("%w: projects cannot be listed as %s", shared.ErrInvalidArgument, format)
		}
		_, err = r.output.Write(out)
		return err
	})
}

func (r *Runner) printProject(p *models.Project) {
	r.writePlainHeader(p.Name)
	r.writePlain("ID:          %s\n", p.ID)
	if p.Description != "" {
		r.writePlain("Description: %s\n", p.Description)
	}
	if p.Genre != "" {
		r.writePlain("Genre:       %s\n", p.Genre)
	}
	if p.BPM > 0 {
		r.writePlain("BPM:         %d\n", p.BPM)
	}
	if p.MusicalKey != "" {
		r.writePlain("Key:         %s\n", p.MusicalKey)
	}
	r.writePlain("Visibility:  %s\n", formatter.Visibility(p.IsPublic))
	if owner := p.Owner.Username(); owner != "" {
		r.writePlain("Owner:       %s\n", owner)
	}
	if p.MemberCount > 0 {
		r.writePlain("Members:     %d\n", p.MemberCount)
	}
}

// ProjectsGet prints one project.
func (r *Runner) ProjectsGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	project, err := r.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, project, func() error {
		r.printProject(project)
		return nil
	})
}

// ProjectsCreate creates a project from the flags.
func (r *Runner) ProjectsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	project, err := r.projects.Create(ctx, projectInput(cmd))
	if err != nil {
		return err
	}

	r.logger.Info("project created", "id", project.ID)
	return r.emit(cmd, project, func() error {
		return r.writePlain("✓ Created project %s (%s)\n", project.Name, project.ID)
	})
}

// ProjectsUpdate applies the set flags to a project.
func (r *Runner) ProjectsUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	project, err := r.projects.Update(ctx, id, projectInput(cmd))
	if err != nil {
		return err
	}
	return r.emit(cmd, project, func() error {
		return r.writePlain("✓ Updated project %s\n", project.ID)
	})
}

// ProjectsDelete deletes a project.
func (r *Runner) ProjectsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	if err := r.projects.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted project %s\n", id)
}

// ProjectsMembers lists a project's members.
func (r *Runner) ProjectsMembers(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	members, err := r.projects.ListMembers(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, members, func() error {
		if len(members) == 0 {
			return r.writePlain("No members\n")
		}
		for _, m := range members {
			r.writePlain("%-6s %-20s %s\n", m.ID, m.User.Username(), m.Role)
		}
		return nil
	})
}

// ProjectsAddMember adds a user to a project with a role.
func (r *Runner) ProjectsAddMember(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	member, err := r.projects.AddMember(ctx, id, models.ID(cmd.String("user")), cmd.String("role"))
	if err != nil {
		return err
	}
	return r.emit(cmd, member, func() error {
		return r.writePlain("✓ Added member %s as %s\n", member.ID, member.Role)
	})
}

// ProjectsRemoveMember removes a membership from a project.
func (r *Runner) ProjectsRemoveMember(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	projectID, err := idArg(cmd, "project")
	if err != nil {
		return err
	}
	memberID, err := idArg(cmd, "member")
	if err != nil {
		return err
	}

	if err := r.projects.RemoveMember(ctx, projectID, memberID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed member %s from project %s\n", memberID, projectID)
}
