package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// readPassword reads a line from the terminal without echo.
var readPassword = term.ReadPassword

// password returns the value of flag, prompting on the terminal when it is empty.
func (r *Runner) password(cmd *cli.Command, flag, label string) (string, error) {
	if v := cmd.String(flag); v != "" {
		return v, nil
	}

	r.writePlain("%s: ", label)
	b, err := readPassword(int(os.Stdin.Fd()))
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("%w: --%s", shared.ErrMissingArgument, flag)
	}
	return string(b), nil
}

// AuthRegister creates an account and stores the resulting session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	pw, err := r.password(cmd, "password", "Password")
	if err != nil {
		return err
	}

	state, err := r.session.Register(ctx, services.Registration{
		Username:        cmd.String("username"),
		Email:           cmd.String("email"),
		Password:        pw,
		PasswordConfirm: pw,
		FirstName:       cmd.String("first-name"),
		LastName:        cmd.String("last-name"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("registered", "username", state.User.Username())
	return r.emit(cmd, state.User, func() error {
		return r.writePlain("✓ Registered and signed in as %s\n", state.User.Username())
	})
}

// AuthLogin signs in and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	pw, err := r.password(cmd, "password", "Password")
	if err != nil {
		return err
	}

	state, err := r.session.Login(ctx, services.Credentials{
		Username: cmd.String("username"),
		Password: pw,
	})
	if err != nil {
		return err
	}

	r.logger.Info("signed in", "username", state.User.Username())
	return r.emit(cmd, state.User, func() error {
		return r.writePlain("✓ Signed in as %s\n", state.User.Username())
	})
}

// AuthLogout clears the session locally; the server is notified on a best-effort basis.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout(ctx)
	return r.emit(cmd, map[string]bool{"authenticated": false}, func() error {
		return r.writePlain("✓ Signed out\n")
	})
}

// sessionStatus is the --json shape of auth status.
type sessionStatus struct {
	Authenticated bool               `json:"authenticated"`
	User          models.UserProfile `json:"user,omitempty"`
	APIKey        string             `json:"api_key,omitempty"`
	AccessExpiry  *time.Time         `json:"access_expires_at,omitempty"`
}

// AuthStatus reports the stored session without contacting the server.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	state := r.session.Snapshot()

	status := sessionStatus{
		Authenticated: state.Authenticated(),
		User:          state.User,
		APIKey:        maskKey(state.APIKey),
	}
	if exp, ok := state.Tokens.AccessExpiry(); ok {
		status.AccessExpiry = &exp
	}

	return r.emit(cmd, status, func() error {
		if state.User == nil {
			return r.writePlain("Not signed in. Run `stemhub auth login`.\n")
		}

		r.writePlainHeader("Session")
		r.writePlain("User:    %s\n", state.User.Username())
		if email := state.User.Email(); email != "" {
			r.writePlain("Email:   %s\n", email)
		}
		if status.APIKey != "" {
			r.writePlain("API key: %s\n", status.APIKey)
		}
		if status.AccessExpiry != nil {
			label := "expires"
			if status.AccessExpiry.Before(time.Now()) {
				label = "expired"
			}
			r.writePlain("Token:   %s %s\n", label, status.AccessExpiry.Local().Format(time.RFC1123))
		}
		return nil
	})
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[:4] + strings.Repeat("•", 8)
}

// AuthCheck asks the server whether the session is valid and refreshes the stored profile.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	user, err := r.session.Check(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, user, func() error {
		return r.writePlain("✓ Session valid for %s\n", user.Username())
	})
}

// AuthProfile prints the profile, or applies --set key=value pairs to it.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	pairs := cmd.StringSlice("set")
	user := r.session.Snapshot().User
	if len(pairs) > 0 {
		patch := models.UserProfile{}
		for _, pair := range pairs {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || k == "" {
				return fmt.Errorf("%w: --set %q must look like key=value", shared.ErrInvalidArgument, pair)
			}
			patch[k] = v
		}

		updated, err := r.session.UpdateProfile(ctx, patch)
		if err != nil {
			return err
		}
		user = updated
	}

	return r.emit(cmd, user, func() error {
		r.writePlainHeader("Profile")
		keys := make([]string, 0, len(user))
		for k := range user {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			r.writePlain("%-14s %v\n", k+":", user[k])
		}
		return nil
	})
}

// AuthPassword changes the account password.
func (r *Runner) AuthPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	oldPW, err := r.password(cmd, "old", "Current password")
	if err != nil {
		return err
	}
	newPW, err := r.password(cmd, "new", "New password")
	if err != nil {
		return err
	}

	if err := r.session.ChangePassword(ctx, services.PasswordChange{OldPassword: oldPW, NewPassword: newPW}); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed\n")
}

// AuthRegenerateKey issues a new API key and stores it with the session.
func (r *Runner) AuthRegenerateKey(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	key, err := r.session.RegenerateAPIKey(ctx)
	if err != nil {
		return err
	}

	return r.emit(cmd, map[string]string{"api_key": key}, func() error {
		return r.writePlain("✓ New API key: %s\n", key)
	})
}

// UsersSearch lists users matching the query.
func (r *Runner) UsersSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: <query> is required", shared.ErrMissingArgument)
	}

	users, err := r.session.SearchUsers(ctx, query)
	if err != nil {
		return err
	}

	return r.emit(cmd, users, func() error {
		if len(users) == 0 {
			return r.writePlain("No users match %q\n", query)
		}
		for _, u := range users {
			r.writePlain("%-6s %-20s %s\n", u.ID(), u.Username(), u.Email())
		}
		return nil
	})
}
