package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/models"
	"github.com/desertthunder/stemhub/internal/services"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/desertthunder/stemhub/internal/store"
	"github.com/desertthunder/stemhub/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The stores are built lazily by [Runner.prepare] so commands that only touch the
// config file never open durable storage.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer

	storage      store.Storage
	closeStorage func() error
	registry     *prometheus.Registry

	client   *services.Client
	session  *store.Session
	projects *store.Projects
	versions *store.Versions
	samples  *store.Samples
	activity *store.Activity
	watcher  *tasks.PushWatcher
	exporter *tasks.ActivityExporter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config // loaded from --config when nil
	Storage    store.Storage  // opened from the config when nil
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		storage:    opts.Storage,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "stemhub",
		Usage:   "Collaborate on music projects from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("STEMHUB_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: r.register(),
		After:    r.after,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, usersCommand, projectsCommand, versionsCommand, pushCommand,
		samplesCommand, activityCommand, serveCommand, tuiCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// prepare loads the config, opens storage, wires the stores and bootstraps the session.
//
// It runs as the Before hook of every command that talks to the API and does its work once.
func (r *Runner) prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.session != nil {
		return ctx, nil
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config == nil {
		config, err := shared.LoadConfigOrDefault(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if r.storage == nil {
		storage, closeFn, err := store.OpenStorage(r.config)
		if err != nil {
			return ctx, fmt.Errorf("failed to open session storage: %w", err)
		}
		r.storage = storage
		r.closeStorage = closeFn
	}

	r.wire()

	state := guard.Bootstrap(r.session)
	r.logger.Debug("session bootstrapped", "authenticated", state.Authenticated(), "driver", r.config.Storage.Driver)
	return ctx, nil
}

// wire builds the session, the API client and the domain stores.
//
// The session supplies the client's bearer token and the client backs the session's
// account calls, so the session is created first and handed its API afterwards.
func (r *Runner) wire() {
	r.registry = prometheus.NewRegistry()

	r.session = store.NewSession(store.SessionOpts{
		Storage: r.storage,
		Logger:  shared.WithLogger(r.logger, "store", "session"),
	})
	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		UserAgent:  r.config.API.UserAgent,
		HTTPClient: r.httpClient,
		Tokens:     r.session,
		Logger:     shared.WithLogger(r.logger, "component", "api"),
		Metrics:    services.NewMetrics(r.registry),
	})
	r.session.SetAPI(r.client)

	r.projects = store.NewProjects(r.client, shared.WithLogger(r.logger, "store", "projects"))
	r.versions = store.NewVersions(r.client, shared.WithLogger(r.logger, "store", "versions"))
	r.samples = store.NewSamples(r.client, shared.WithLogger(r.logger, "store", "samples"))
	r.activity = store.NewActivity(r.client, shared.WithLogger(r.logger, "store", "activity"))

	r.watcher = tasks.NewPushWatcher(r.versions, tasks.WatchOpts{
		Interval: r.config.Polling.Interval,
		MaxPolls: r.config.Polling.MaxPolls,
		Logger:   shared.WithLogger(r.logger, "task", "push"),
	})
	r.exporter = tasks.NewActivityExporter(r.activity)
}

func (r *Runner) after(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases durable storage. It is safe to call more than once.
func (r *Runner) Close() error {
	if r.closeStorage == nil {
		return nil
	}
	closeFn := r.closeStorage
	r.closeStorage = nil
	return closeFn()
}

// SetLogger replaces the runner's logger. Stores wired afterwards log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// requireSession fails unless the access guard would render protected content.
func (r *Runner) requireSession() error {
	switch guard.Decide(r.session.Snapshot()) {
	case guard.Render:
		return nil
	case guard.Placeholder:
		return fmt.Errorf("%w: session is still loading", shared.ErrServiceUnavailable)
	default:
		return fmt.Errorf("%w: run `stemhub auth login` first", shared.ErrNotAuthenticated)
	}
}

// idArg reads a required positional id.
func idArg(cmd *cli.Command, name string) (models.ID, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s> is required", shared.ErrMissingArgument, name)
	}
	return models.ID(v), nil
}

// emit writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) emit(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
