package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio that exposes extraction as tools an
assistant can call while writing test harnesses.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "harnessprobe": {
        "command": "harnessprobe",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - extract_functions   Function shapes, enum selectors, candidate arguments
  - extract_inputs      Variables read from stdin and driver readiness
  - list_sources        C/C++ files a path resolves to`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "compdb",
				Aliases: []string{"p"},
				Usage:   "compile_commands.json, or the build directory holding it",
			},
			&cli.StringFlag{
				Name:  "frontend",
				Usage: "Tree builder: treesitter or clang",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry server.json",
				Action: runMCPManifestCmd,
			},
		},
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	st, err := loadState(c)
	if err != nil {
		return err
	}
	db, err := st.loadCompDB(c.String("compdb"))
	if err != nil {
		return err
	}
	p, err := st.provider(frontendOptions{name: c.String("frontend")}, db)
	if err != nil {
		return err
	}
	e := st.extractor(p, nil)
	defer e.Close()

	st.logger.Info().Str("frontend", p.Name()).Msg("serving MCP over stdio")
	return mcpserver.NewServer(version, e, st.cfg).Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}
