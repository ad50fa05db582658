package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/stemhub/internal/formatter"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/tasks"
	"github.com/urfave/cli/v3"
)

// VersionsList prints a project's versions, newest first as the server orders them.
func (r *Runner) VersionsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	versions, err := r.versions.List(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, versions, func() error {
		if len(versions) == 0 {
			return r.writePlain("No versions\n")
		}
		for _, v := range versions {
			r.writePlain("v%-4d %-6s %-16s %s\n", v.VersionNumber, v.ID, v.Author.Username(), v.Message)
		}
		return nil
	})
}

// VersionsGet prints one version.
func (r *Runner) VersionsGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "version")
	if err != nil {
		return err
	}

	version, err := r.versions.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, version, func() error {
		r.writePlainHeader(fmt.Sprintf("Version %d", version.VersionNumber))
		r.writePlain("ID:      %s\n", version.ID)
		r.writePlain("Project: %s\n", version.Project)
		r.writePlain("Message: %s\n", version.Message)
		if version.FileName != "" {
			r.writePlain("File:    %s (%s)\n", version.FileName, formatter.FileSize(version.FileSize))
		}
		if author := version.Author.Username(); author != "" {
			r.writePlain("Author:  %s\n", author)
		}
		return nil
	})
}

// VersionsUpload pushes a new version and optionally waits for the push to settle.
func (r *Runner) VersionsUpload(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "project")
	if err != nil {
		return err
	}

	in := services.VersionUpload{Project: id, Message: cmd.String("message")}
	if path := cmd.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		defer f.Close()
		in.File = f
		in.FileName = filepath.Base(path)
	}

	push, err := r.versions.Upload(ctx, in)
	if err != nil {
		return err
	}
	r.logger.Info("version pushed", "project", id, "push", push.ID)

	if !cmd.Bool("watch") {
		return r.emit(cmd, push, func() error {
			return r.writePlain("✓ Push %s is %s\n", push.ID, push.Status)
		})
	}
	return r.watchPush(ctx, cmd, push.ID)
}

// VersionsUpdate edits a version's commit message.
func (r *Runner) VersionsUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "version")
	if err != nil {
		return err
	}

	version, err := r.versions.Update(ctx, id, services.VersionPatch{Message: cmd.String("message")})
	if err != nil {
		return err
	}
	return r.emit(cmd, version, func() error {
		return r.writePlain("✓ Updated version %s\n", version.ID)
	})
}

// VersionsDelete deletes a version.
func (r *Runner) VersionsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "version")
	if err != nil {
		return err
	}

	if err := r.versions.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted version %s\n", id)
}

func (r *Runner) printPush(push *models.PushStatus) {
	r.writePlainHeader(fmt.Sprintf("Push %s", push.ID))
	r.writePlain("Status:  %s\n", push.Status)
	if push.Project != "" {
		r.writePlain("Project: %s\n", push.Project)
	}
	if push.Version != "" {
		r.writePlain("Version: %s\n", push.Version)
	}
	if push.Reason != "" {
		r.writePlain("Reason:  %s\n", push.Reason)
	}
	if by := push.ReviewedBy.Username(); by != "" {
		r.writePlain("Reviewer: %s\n", by)
	}
}

// PushStatus fetches the server's view of a push.
func (r *Runner) PushStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "push")
	if err != nil {
		return err
	}

	push, err := r.versions.RefreshPushStatus(ctx, id)
	if err != nil {
		return err
	}
	return r.emit(cmd, push, func() error {
		r.printPush(push)
		return nil
	})
}

// PushApprove approves a push.
func (r *Runner) PushApprove(ctx context.Context, cmd *cli.Command) error {
	return r.pushAction(ctx, cmd, "approved", func(id models.ID) error {
		return r.versions.ApprovePush(ctx, id)
	})
}

// PushReject rejects a push with an optional reason.
func (r *Runner) PushReject(ctx context.Context, cmd *cli.Command) error {
	return r.pushAction(ctx, cmd, "rejected", func(id models.ID) error {
		return r.versions.RejectPush(ctx, id, cmd.String("reason"))
	})
}

// PushCancel cancels a push.
func (r *Runner) PushCancel(ctx context.Context, cmd *cli.Command) error {
	return r.pushAction(ctx, cmd, "cancelled", func(id models.ID) error {
		return r.versions.CancelPush(ctx, id)
	})
}

func (r *Runner) pushAction(ctx context.Context, cmd *cli.Command, verb string, call func(models.ID) error) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "push")
	if err != nil {
		return err
	}

	if err := call(id); err != nil {
		return err
	}
	return r.writePlain("✓ Push %s %s\n", id, verb)
}

// PushWatch polls a push until it settles.
func (r *Runner) PushWatch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}
	id, err := idArg(cmd, "push")
	if err != nil {
		return err
	}
	return r.watchPush(ctx, cmd, id)
}

// watchPush runs the push watcher, printing each poll as it arrives.
func (r *Runner) watchPush(ctx context.Context, cmd *cli.Command, id models.ID) error {
	progress := make(chan tasks.ProgressUpdate, 10)
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

	push, err := r.watcher.Watch(ctx, id, progress)
	close(progress)
	<-done

	if err != nil {
		if errors.Is(err, shared.ErrPushPending) && push != nil {
			r.logger.Warn("push still pending", "push", id, "status", push.Status)
		}
		return err
	}

	return r.emit(cmd, push, func() error {
		r.printPush(push)
		return nil
	})
}
