// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func idArgs(names ...string) []cli.Argument {
	args := make([]cli.Argument, 0, len(names))
	for _, name := range names {
		args = append(args, &cli.StringArg{Name: name})
	}
	return args
}

func projectInputFlags(nameRequired bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Project name", Required: nameRequired},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Project description"},
		&cli.StringFlag{Name: "genre", Usage: "Genre"},
		&cli.IntFlag{Name: "bpm", Usage: "Tempo in beats per minute"},
		&cli.StringFlag{Name: "key", Usage: "Musical key"},
		&cli.BoolFlag{Name: "public", Usage: "Make the project public"},
	}
}

func sampleInputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Sample name"},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Sample description"},
		&cli.IntFlag{Name: "bpm", Usage: "Tempo in beats per minute"},
		&cli.StringFlag{Name: "key", Usage: "Musical key"},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag (repeatable)"},
	}
}

func formatFlag(value string) cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: txt, csv or markdown",
		Value:   value,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and the sqlite storage database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the default configuration to --config",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the session database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "rollback", Usage: "Roll back the most recent migration"},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "auth",
		Usage:  "Sign in, sign out and manage the account",
		Before: r.prepare,
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
					&cli.StringFlag{Name: "first-name", Usage: "First name"},
					&cli.StringFlag{Name: "last-name", Usage: "Last name"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in with a username and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Username", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session",
				Action: r.AuthStatus,
			},
			{
				Name:   "check",
				Usage:  "Verify the session with the server and refresh the profile",
				Action: r.AuthCheck,
			},
			{
				Name:  "profile",
				Usage: "Show or update the profile",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Usage: "Profile field as key=value (repeatable)"},
				},
				Action: r.AuthProfile,
			},
			{
				Name:  "password",
				Usage: "Change the account password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "old", Usage: "Current password (prompted when omitted)"},
					&cli.StringFlag{Name: "new", Usage: "New password (prompted when omitted)"},
				},
				Action: r.AuthPassword,
			},
			{
				Name:   "regenerate-key",
				Usage:  "Issue a new API key",
				Action: r.AuthRegenerateKey,
			},
		},
	}
}

func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "users",
		Usage:  "Find other users",
		Before: r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search users by name",
				Arguments: idArgs("query"),
				Action:    r.UsersSearch,
			},
		},
	}
}

func projectsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"p"},
		Usage:   "Manage projects and their members",
		Before:  r.prepare,
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your projects",
				Flags:  []cli.Flag{formatFlag("txt")},
				Action: r.ProjectsList,
			},
			{
				Name:      "get",
				Usage:     "Show one project",
				Arguments: idArgs("project"),
				Action:    r.ProjectsGet,
			},
			{
				Name:   "create",
				Usage:  "Create a project",
				Flags:  projectInputFlags(true),
				Action: r.ProjectsCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a project",
				Arguments: idArgs("project"),
				Flags:     projectInputFlags(false),
				Action:    r.ProjectsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a project",
				Arguments: idArgs("project"),
				Action:    r.ProjectsDelete,
			},
			{
				Name:      "members",
				Usage:     "List a project's members",
				Arguments: idArgs("project"),
				Action:    r.ProjectsMembers,
			},
			{
				Name:      "add-member",
				Usage:     "Add a user to a project",
				Arguments: idArgs("project"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "User id", Required: true},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Usage: "Member role", Value: "member"},
				},
				Action: r.ProjectsAddMember,
			},
			{
				Name:      "remove-member",
				Usage:     "Remove a member from a project",
				Arguments: idArgs("project", "member"),
				Action:    r.ProjectsRemoveMember,
			},
		},
	}
}

func versionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "versions",
		Aliases: []string{"v"},
		Usage:   "Manage project versions",
		Before:  r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a project's versions",
				Arguments: idArgs("project"),
				Action:    r.VersionsList,
			},
			{
				Name:      "get",
				Usage:     "Show one version",
				Arguments: idArgs("version"),
				Action:    r.VersionsGet,
			},
			{
				Name:      "upload",
				Usage:     "Push a new version for approval",
				Arguments: idArgs("project"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Commit message", Required: true},
					&cli.StringFlag{Name: "file", Usage: "Session archive to attach"},
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Wait for the push to settle"},
				},
				Action: r.VersionsUpload,
			},
			{
				Name:      "update",
				Usage:     "Edit a version's commit message",
				Arguments: idArgs("version"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Commit message", Required: true},
				},
				Action: r.VersionsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a version",
				Arguments: idArgs("version"),
				Action:    r.VersionsDelete,
			},
		},
	}
}

func pushCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "push",
		Usage:  "Review pushes awaiting approval",
		Before: r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Fetch a push's status",
				Arguments: idArgs("push"),
				Action:    r.PushStatus,
			},
			{
				Name:      "approve",
				Usage:     "Approve a push",
				Arguments: idArgs("push"),
				Action:    r.PushApprove,
			},
			{
				Name:      "reject",
				Usage:     "Reject a push",
				Arguments: idArgs("push"),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Why the push was rejected"},
				},
				Action: r.PushReject,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel your own push",
				Arguments: idArgs("push"),
				Action:    r.PushCancel,
			},
			{
				Name:      "watch",
				Usage:     "Poll a push until it is approved, rejected or fails",
				Arguments: idArgs("push"),
				Action:    r.PushWatch,
			},
		},
	}
}

func samplesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "samples",
		Aliases: []string{"s"},
		Usage:   "Manage project samples",
		Before:  r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List a project's samples",
				Arguments: idArgs("project"),
				Action:    r.SamplesList,
			},
			{
				Name:      "get",
				Usage:     "Show one sample",
				Arguments: idArgs("sample"),
				Action:    r.SamplesGet,
			},
			{
				Name:      "upload",
				Usage:     "Upload an audio file to a project",
				Arguments: idArgs("project"),
				Flags: append(sampleInputFlags(),
					&cli.StringFlag{Name: "file", Usage: "Audio file to upload", Required: true},
				),
				Action: r.SamplesUpload,
			},
			{
				Name:      "update",
				Usage:     "Edit a sample's metadata",
				Arguments: idArgs("sample"),
				Flags:     sampleInputFlags(),
				Action:    r.SamplesUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a sample",
				Arguments: idArgs("sample"),
				Action:    r.SamplesDelete,
			},
		},
	}
}

func activityCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "activity",
		Usage:  "Browse and export activity logs",
		Before: r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "project",
				Usage:     "Show a project's activity",
				Arguments: idArgs("project"),
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum entries to return", Value: 50},
					&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Usage: "Only entries with this action"},
					formatFlag("txt"),
				},
				Action: r.ActivityProject,
			},
			{
				Name:  "user",
				Usage: "Show your own activity",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum entries to return", Value: 50},
				},
				Action: r.ActivityUser,
			},
			{
				Name:      "get",
				Usage:     "Show one activity entry",
				Arguments: idArgs("activity"),
				Action:    r.ActivityGet,
			},
			{
				Name:  "export",
				Usage: "Export the activity of many projects to disk",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Export format: json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.StringSliceFlag{Name: "project", Aliases: []string{"p"}, Usage: "Project id (repeatable; defaults to all)"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Entries per project"},
					&cli.StringFlag{Name: "action", Aliases: []string{"a"}, Usage: "Only entries with this action"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent writers", Value: 5},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
				},
				Action: r.ActivityExport,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the local web dashboard",
		Before: r.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Listen host (overrides config)"},
			&cli.IntFlag{Name: "port", Usage: "Listen port (overrides config)"},
			&cli.BoolFlag{Name: "open", Usage: "Open the dashboard in a browser"},
		},
		Action: r.Serve,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the terminal dashboard",
		Before: r.prepareTUI,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Usage: "Where to write logs while the dashboard runs", Value: "./tmp/stemhub-tui.log"},
		},
		Action: r.TUI,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "api",
		Usage:  "Direct calls to the REST API",
		Before: r.prepare,
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET, prints the response body",
				Arguments: idArgs("path"),
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with a JSON body",
				Arguments: idArgs("path"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
