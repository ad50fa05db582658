package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/stemhub/internal/guard"
	"github.com/desertthunder/stemhub/internal/server"
	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the web dashboard until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	logger := shared.WithLogger(r.logger, "component", "server")
	dashboard := server.NewDashboard(server.DashboardOpts{
		Session:  r.session,
		Projects: r.projects,
		Activity: r.activity,
		Guard: guard.New(guard.GuardOpts{
			Session:       r.session,
			RedirectPath:  cfg.RedirectPath,
			RedirectDelay: cfg.RedirectDelay,
			Logger:        logger,
		}),
		Gatherer: r.registry,
		Logger:   logger,
	})
	handler := server.Recover(logger)(server.Logging(logger)(dashboard))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.Addr()
	url := fmt.Sprintf("http://%s/dashboard", addr)
	ready := func() {
		r.writePlain("Dashboard listening on %s\n", url)
		if cmd.Bool("open") {
			if err := shared.OpenBrowser(url); err != nil {
				logger.Warn("failed to open browser", "error", err)
			}
		}
	}

	return server.Serve(ctx, addr, handler, logger, ready)
}
