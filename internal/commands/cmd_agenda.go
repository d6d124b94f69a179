package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"orgcal/internal/agenda"
	"orgcal/internal/library"
)

const dateLayout = "2006-01-02"

type AgendaCmd struct {
	flags *Flags

	// flags
	from       string
	to         string
	week       string
	jsonOutput bool
}

// NewAgendaCmd creates a new agenda command
func NewAgendaCmd(flags *Flags) *AgendaCmd {
	return &AgendaCmd{flags: flags}
}

// Register adds the agenda command to the application
func (cmd *AgendaCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "agenda",
		Usage:     "Print the agenda",
		UsageText: "orgcal agenda [--from DATE] [--to DATE] [--week DATE] [--json]",
		Description: `Loads every document in the configured directory and prints the merged,
time-ordered agenda, one "[YYYY-MM-DD HH:MM] label" line per entry.

Bounds accept YYYY-MM-DD (midnight in the configured timezone) or RFC 3339.
--week selects the week containing the given day and overrides --from/--to.
Annotations that cannot be placed on the agenda are listed at the end.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "from",
				Usage:       "first instant to include",
				Destination: &cmd.from,
			},
			&cli.StringFlag{
				Name:        "to",
				Usage:       "first instant to exclude",
				Destination: &cmd.to,
			},
			&cli.StringFlag{
				Name:        "week",
				Aliases:     []string{"w"},
				Usage:       "show the week containing this day",
				Destination: &cmd.week,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AgendaCmd) run(ctx context.Context, c *cli.Command) error {
	from, to, err := cmd.window()
	if err != nil {
		return err
	}

	lib, err := cmd.flags.openLibrary(ctx)
	if err != nil {
		return err
	}
	snap := lib.Snapshot()

	if cmd.jsonOutput {
		return writeAgendaJSON(c.Root().Writer, snap, from, to)
	}
	return writeAgendaText(c.Root().Writer, snap, from, to)
}

func (cmd *AgendaCmd) window() (from, to time.Time, err error) {
	loc := cmd.flags.Config.Location()

	if cmd.week != "" {
		day, err := time.ParseInLocation(dateLayout, cmd.week, loc)
		if err != nil {
			return from, to, fmt.Errorf("invalid --week %q: want YYYY-MM-DD", cmd.week)
		}
		wk := agenda.WeekOf(day, cmd.flags.Config.FirstWeekday())
		return wk.Start, wk.End, nil
	}

	if cmd.from != "" {
		if from, err = parseBound(cmd.from, loc); err != nil {
			return from, to, fmt.Errorf("invalid --from %q", cmd.from)
		}
	}
	if cmd.to != "" {
		if to, err = parseBound(cmd.to, loc); err != nil {
			return from, to, fmt.Errorf("invalid --to %q", cmd.to)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("--to is before --from")
	}
	return from, to, nil
}

func parseBound(v string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

func writeAgendaText(w io.Writer, snap *library.Snapshot, from, to time.Time) error {
	for _, occ := range snap.Agenda.Window(from, to) {
		if _, err := fmt.Fprintln(w, occ.String()); err != nil {
			return err
		}
	}

	if n := snap.Agenda.SkippedCount(); n > 0 {
		fmt.Fprintf(w, "\n%d skipped:\n", n)
		for _, sk := range snap.Agenda.Skipped {
			fmt.Fprintf(w, "  %s:%d %s (%s): %v\n", sk.Filename, sk.Line, sk.Label, sk.Slot, sk.Err)
		}
	}
	for _, f := range snap.Failures {
		fmt.Fprintf(w, "unreadable: %v\n", f)
	}
	for _, pe := range snap.ParseErrors {
		fmt.Fprintf(w, "unparsable: %v\n", pe)
	}
	return nil
}

type agendaJSON struct {
	Entries      []entryJSON `json:"entries"`
	SkippedCount int         `json:"skipped_count"`
	Skipped      []skipJSON  `json:"skipped"`
}

type entryJSON struct {
	Time  time.Time `json:"time"`
	Label string    `json:"label"`
	Line  string    `json:"line"`
}

type skipJSON struct {
	Filename string `json:"filename"`
	Label    string `json:"label"`
	Slot     string `json:"slot"`
	Line     int    `json:"line"`
	Error    string `json:"error"`
}

func writeAgendaJSON(w io.Writer, snap *library.Snapshot, from, to time.Time) error {
	window := snap.Agenda.Window(from, to)

	out := agendaJSON{
		Entries:      make([]entryJSON, 0, len(window)),
		SkippedCount: snap.Agenda.SkippedCount(),
		Skipped:      make([]skipJSON, 0, len(snap.Agenda.Skipped)),
	}
	for _, occ := range window {
		out.Entries = append(out.Entries, entryJSON{Time: occ.Time, Label: occ.Label, Line: occ.String()})
	}
	for _, sk := range snap.Agenda.Skipped {
		out.Skipped = append(out.Skipped, skipJSON{
			Filename: sk.Filename,
			Label:    sk.Label,
			Slot:     sk.Slot.String(),
			Line:     sk.Line,
			Error:    sk.Err.Error(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
