package commands

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"orgcal/internal/capture"
	"orgcal/internal/library"
	appLog "orgcal/internal/log"
	"orgcal/internal/web"
)

// captureDelay gives the HTTP server time to bind before the first capture.
const captureDelay = time.Second

type ServeCmd struct {
	flags *Flags

	// flags
	listen  string
	capture bool
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Serve the agenda over HTTP",
		UsageText: "orgcal serve [--listen ADDR] [--capture]",
		Description: `Starts the web server and keeps the agenda current: the directory is
reloaded on the 'refresh' cron schedule and, with 'watch' enabled, whenever a
file in it changes.

With --capture the agenda page is screenshotted to preview_path after every
reload.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen",
				Aliases:     []string{"l"},
				Usage:       "HTTP listen address (overrides config)",
				Sources:     cli.EnvVars("ORGCAL_LISTEN"),
				Destination: &cmd.listen,
			},
			&cli.BoolFlag{
				Name:        "capture",
				Usage:       "refresh the preview screenshot after every reload",
				Destination: &cmd.capture,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	lib, err := cmd.flags.openLibrary(ctx)
	if err != nil {
		return err
	}

	cfg := cmd.flags.Config
	if cmd.listen != "" {
		cfg.Listen = cmd.listen
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := web.NewServer(cfg, lib)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	g.Go(func() error { return lib.RunSchedule(gctx, cfg.RefreshCron, cfg.Location()) })
	if cfg.Watch {
		g.Go(func() error {
			return lib.Watch(gctx, library.WatchOptions{Debounce: cfg.WatchDebounce()})
		})
	}
	if cmd.capture {
		opts := capture.CaptureOptions{URL: agendaURL(cfg.Listen), OutputPath: cfg.PreviewPath}
		updates := lib.Subscribe(gctx)
		g.Go(func() error {
			captureOnUpdate(gctx, opts, updates)
			return nil
		})
	}

	return g.Wait()
}

// captureOnUpdate takes one screenshot at startup and one per published
// snapshot until ctx is cancelled. Failures are logged and do not stop the
// server.
func captureOnUpdate(ctx context.Context, opts capture.CaptureOptions, updates <-chan *library.Snapshot) {
	shoot := func() {
		if err := capture.CaptureAgendaPNG(ctx, opts); err != nil {
			if ctx.Err() == nil {
				appLog.Warn("preview capture failed", "url", opts.URL, "error", err.Error())
			}
			return
		}
		appLog.Debug("preview captured", "path", opts.OutputPath)
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(captureDelay):
		shoot()
	}

	for range updates {
		shoot()
	}
}
