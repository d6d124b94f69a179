package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"orgcal/internal/config"
)

type ConfigCmd struct {
	flags *Flags
}

// NewConfigCmd creates a new config command
func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

// Register adds the config command to the application
func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "config",
		Usage:     "Print the effective configuration",
		UsageText: "orgcal config",
		Description: `Prints the configuration after defaults and command line overrides are
applied, then validates it. The basic auth password is masked. Exits non-zero if any field is invalid.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ConfigCmd) run(_ context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}

	out := c.Root().Writer
	fmt.Fprintf(out, "# %s\n", cmd.flags.ConfigPath)

	shown := *cfg
	if cfg.BasicAuth != nil {
		shown.BasicAuth = &config.BasicAuthConfig{Username: cfg.BasicAuth.Username, Password: "********"}
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
