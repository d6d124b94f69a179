package commands

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/urfave/cli/v3"

	"orgcal/internal/capture"
)

type CaptureCmd struct {
	flags *Flags

	// flags
	url     string
	out     string
	width   int
	height  int
	timeout time.Duration
}

// NewCaptureCmd creates a new capture command
func NewCaptureCmd(flags *Flags) *CaptureCmd {
	return &CaptureCmd{flags: flags}
}

// Register adds the capture command to the application
func (cmd *CaptureCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "capture",
		Usage:     "Screenshot the agenda page with headless Chromium",
		UsageText: "orgcal capture [--url URL] [--out FILE] [--width PX] [--height PX]",
		Description: `Opens the agenda page of a running 'orgcal serve' in headless Chromium and
writes a PNG screenshot. The URL defaults to the configured listen address and
the output to preview_path, which the server publishes as /preview.png.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Usage:       "page to capture (default: agenda page of the configured listen address)",
				Destination: &cmd.url,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "PNG output path (default: preview_path)",
				Destination: &cmd.out,
			},
			&cli.IntFlag{
				Name:        "width",
				Value:       capture.DefaultWidth,
				Usage:       "viewport width in pixels",
				Destination: &cmd.width,
			},
			&cli.IntFlag{
				Name:        "height",
				Value:       capture.DefaultHeight,
				Usage:       "viewport height in pixels",
				Destination: &cmd.height,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Value:       time.Duration(capture.DefaultTimeoutSec) * time.Second,
				Usage:       "give up after this long",
				Destination: &cmd.timeout,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *CaptureCmd) run(ctx context.Context, c *cli.Command) error {
	opts := cmd.options()
	if err := capture.CaptureAgendaPNG(ctx, opts); err != nil {
		return fmt.Errorf("capture %s: %w", opts.URL, err)
	}
	fmt.Fprintf(c.Root().Writer, "wrote %s\n", opts.OutputPath)
	return nil
}

func (cmd *CaptureCmd) options() capture.CaptureOptions {
	opts := capture.CaptureOptions{
		URL:        cmd.url,
		OutputPath: cmd.out,
		Width:      cmd.width,
		Height:     cmd.height,
		Timeout:    cmd.timeout,
	}
	if opts.URL == "" {
		opts.URL = agendaURL(cmd.flags.Config.Listen)
	}
	if opts.OutputPath == "" {
		opts.OutputPath = cmd.flags.Config.PreviewPath
	}
	return opts
}

// agendaURL returns the local URL of the agenda page served on listen.
// Wildcard hosts are replaced with the loopback address.
func agendaURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen + "/agenda"
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/agenda"
}
