package commands

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"orgcal/internal/library"
	appLog "orgcal/internal/log"
	"orgcal/internal/tui"
)

type TuiCmd struct {
	flags *Flags
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Browse documents and the weekly agenda in the terminal",
		UsageText: "orgcal tui",
		Description: `Opens the interactive browser. This is also what runs when orgcal is
started without a command.

Keys: tab cycles panes, [ and ] move by week, t returns to this week,
r reloads, q quits.`,
		Action: cmd.run,
	})

	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	// The terminal belongs to the TUI; only an explicit log file keeps logs.
	if cmd.flags.LogFile == "" {
		appLog.SetOutput(io.Discard)
	}

	lib, err := cmd.flags.openLibrary(ctx)
	if err != nil {
		return err
	}
	cfg := cmd.flags.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lib.RunSchedule(gctx, cfg.RefreshCron, cfg.Location()) })
	if cfg.Watch {
		g.Go(func() error {
			return lib.Watch(gctx, library.WatchOptions{Debounce: cfg.WatchDebounce()})
		})
	}

	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, tui.Options{
			Library:   lib,
			WeekStart: cfg.FirstWeekday(),
			Location:  cfg.Location(),
			Updates:   lib.Subscribe(gctx),
		})
	})

	return g.Wait()
}
