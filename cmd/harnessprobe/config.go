package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate a configuration file",
				ArgsUsage: "[file]",
				Description: `Validates a harnessprobe configuration file for syntax errors and invalid
values. Without a file, --config or the discovered config is checked.

Examples:
  harnessprobe config validate
  harnessprobe config validate harnessprobe.toml
  harnessprobe -c .harnessprobe/harnessprobe.yaml config validate`,
				Action: runConfigValidateCmd,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration as TOML",
				Description: `Shows the configuration after defaults, the config file and global flag
overrides are merged.`,
				Action: runConfigShowCmd,
			},
		},
	}
}

func runConfigValidateCmd(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = c.String("config")
	}
	if path == "" {
		found, ok := config.Find(".")
		if !ok {
			color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
			return nil
		}
		path = found
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		color.New(color.FgRed).Fprintln(c.App.ErrWriter, "Configuration validation failed:")
		fmt.Fprintf(c.App.ErrWriter, "  - %s\n", err)
		return fmt.Errorf("invalid configuration %s", path)
	}

	color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", path)
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	st, err := loadState(c)
	if err != nil {
		return err
	}

	if st.cfgPath != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", st.cfgPath)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := st.cfg.TOML()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = c.App.Writer.Write(content)
	return err
}
