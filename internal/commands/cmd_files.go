package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

type FilesCmd struct {
	flags *Flags
}

// NewFilesCmd creates a new files command
func NewFilesCmd(flags *Flags) *FilesCmd {
	return &FilesCmd{flags: flags}
}

// Register adds the files command to the application
func (cmd *FilesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "files",
		Usage:     "List the documents in the configured directory",
		UsageText: "orgcal files",
		Action:    cmd.run,
	})

	return app
}

func (cmd *FilesCmd) run(ctx context.Context, c *cli.Command) error {
	lib, err := cmd.flags.openLibrary(ctx)
	if err != nil {
		return err
	}
	snap := lib.Snapshot()

	parseErrs := make(map[string]string, len(snap.ParseErrors))
	for _, pe := range snap.ParseErrors {
		parseErrs[pe.Filename] = pe.Reason
	}

	w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tHEADLINES\tBYTES\tERROR")
	for _, d := range snap.Documents {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Filename, len(d.Headlines), len(d.RawText), parseErrs[d.Filename])
	}
	for _, f := range snap.Failures {
		fmt.Fprintf(w, "%s\t-\t-\t%v\n", f.Filename, f.Err)
	}
	return w.Flush()
}
