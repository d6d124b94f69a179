package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"orgcal/internal/ics"
	appLog "orgcal/internal/log"
)

type ExportCmd struct {
	flags *Flags

	// flags
	out string
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Export the agenda as an iCalendar file",
		UsageText: "orgcal export [--out FILE]",
		Description: `Writes one VEVENT per active SCHEDULED, DEADLINE or CLOSED timestamp.
Repeaters become RRULEs and warning periods become display alarms. Diary
expressions cannot be represented and are skipped.

Without --out the calendar is written to stdout.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "write the calendar to this file",
				Destination: &cmd.out,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	lib, err := cmd.flags.openLibrary(ctx)
	if err != nil {
		return err
	}
	snap := lib.Snapshot()

	cal, skipped := ics.Export(snap.Documents, ics.ExportOptions{
		Name:  cmd.flags.Config.CalendarName,
		Stamp: snap.LoadedAt,
	})
	if skipped > 0 {
		appLog.Warn("diary entries not exported", "count", skipped)
	}

	if cmd.out == "" {
		return ics.Write(c.Root().Writer, cal)
	}

	if err := os.MkdirAll(filepath.Dir(cmd.out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(cmd.out)
	if err != nil {
		return fmt.Errorf("create %s: %w", cmd.out, err)
	}
	if err := ics.Write(f, cal); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", cmd.out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(c.Root().Writer, "wrote %s (%d events, %d skipped)\n", cmd.out, len(cal.Events()), skipped)
	return nil
}
