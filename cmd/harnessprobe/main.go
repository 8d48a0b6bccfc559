package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/phuslu/log"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/internal/output"
	"github.com/panbanda/harnessprobe/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "harnessprobe",
		Usage:     "Extract test-harness facts from C and C++ sources",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  make(map[string]interface{}),
		Description: `harnessprobe reads C and C++ translation units and reports what a
test-harness generator needs to know about them:

  funcs  every defined function, its data shape (array, text, matrix, image),
         enum selector parameters and file-scope candidate arguments
  vars   variables read from standard input and whether main already
         builds a complete test driver`,
		DefaultCommand: "extract",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"HARNESSPROBE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, yaml, toon, text, markdown (default from config: json)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the result cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug diagnostics (same as --log-level debug)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostics level on stderr: trace, debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			extractCmd(),
			watchCmd(),
			mcpCmd(),
			configCmd(),
			schemaCmd(),
			cacheCmd(),
		},
		// Errors are reported by run; nothing may call os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// appState is the configuration shared by every command, loaded once.
type appState struct {
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
}

// loadState resolves the config (--config or discovery), applies the
// global flag overrides and builds the logger.
func loadState(c *cli.Context) (*appState, error) {
	if st, ok := c.App.Metadata["state"].(*appState); ok {
		return st, nil
	}

	var (
		cfg  *config.Config
		path string
		err  error
	)
	if path = c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}

	if f := c.String("format"); f != "" {
		cfg.Output.Format = f
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if l := c.String("log-level"); l != "" {
		cfg.Log.Level = l
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Output.Color {
		color.NoColor = true
	}

	st := &appState{
		cfg:     cfg,
		cfgPath: path,
		logger: logging.New(logging.Options{
			Level:  cfg.Log.Level,
			Writer: c.App.ErrWriter,
			Color:  cfg.Output.Color && !color.NoColor,
		}),
	}
	if path != "" {
		st.logger.Debug().Str("path", path).Msg("loaded config")
	}
	c.App.Metadata["state"] = st
	return st, nil
}

// formatter writes to --output when given, otherwise to the app writer.
// Files never get color.
func (st *appState) formatter(c *cli.Context) (*output.Formatter, error) {
	format, err := output.ParseFormat(st.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, st.cfg.Output.Color && !color.NoColor), nil
}
