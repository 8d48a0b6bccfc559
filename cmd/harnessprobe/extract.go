package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/internal/output"
	"github.com/panbanda/harnessprobe/internal/progress"
	"github.com/panbanda/harnessprobe/internal/scanner"
	"github.com/panbanda/harnessprobe/pkg/models"
	"github.com/panbanda/harnessprobe/pkg/schema"
)

func extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract functions or input variables from C/C++ sources",
		ArgsUsage: "[file|dir|glob...]",
		Description: `Builds each translation unit and reports, in vars mode, the variables read
from stdin and the harness readiness of main, or, in funcs mode, every defined
function with its data shape and selector parameters.

With no arguments the current directory is scanned, or every file of the
compilation database when -p is given. One file prints its result object;
several print {"files": [...], "failed": [...]}.

Examples:
  harnessprobe extract --mode funcs sort.cpp
  harnessprobe extract -p build 'src/**/*.cpp'
  harnessprobe extract --frontend clang --ast-json main.json main.cpp`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Value:   string(models.ModeVariables),
				Usage:   "What to extract: vars or funcs",
			},
			&cli.StringFlag{
				Name:    "compdb",
				Aliases: []string{"p"},
				Usage:   "compile_commands.json, or the build directory holding it",
			},
			&cli.StringFlag{
				Name:  "frontend",
				Usage: "Tree builder: treesitter or clang",
			},
			&cli.StringFlag{
				Name:  "ast-json",
				Usage: "Read a clang -ast-dump=json file for the single source instead of running clang",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   -1,
				Usage:   "Files extracted concurrently, 0 for twice the CPU count (default from config)",
			},
			&cli.BoolFlag{
				Name:  "validate",
				Usage: "Check the result against the published JSON Schema",
			},
		},
		Action: runExtractCmd,
	}
}

func runExtractCmd(c *cli.Context) error {
	st, err := loadState(c)
	if err != nil {
		return err
	}
	mode, err := models.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	if j := c.Int("jobs"); j >= 0 {
		st.cfg.Jobs = j
	}

	db, err := st.loadCompDB(c.String("compdb"))
	if err != nil {
		return err
	}

	args := c.Args().Slice()
	if len(args) == 0 {
		if db != nil {
			args = db.Files()
		} else {
			args = []string{"."}
		}
	}
	files, err := scanner.NewScanner(st.cfg).Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no C or C++ source files found")
	}

	opts := frontendOptions{name: c.String("frontend"), astJSON: c.String("ast-json")}
	if opts.astJSON != "" {
		if len(files) != 1 {
			return fmt.Errorf("--ast-json describes one source, got %d", len(files))
		}
		opts.source = files[0]
	}
	p, err := st.provider(opts, db)
	if err != nil {
		return err
	}

	var tracker *progress.Tracker
	var tick func()
	if len(files) > 1 {
		tracker = progress.NewTrackerTo(c.App.ErrWriter, "Extracting "+string(mode), len(files))
		tick = tracker.Tick
	}
	e := st.extractor(p, tick)
	defer e.Close()

	run, errs := e.ExtractFiles(c.Context, files, mode)
	tracker.Finish(len(run.Failed))

	if len(files) == 1 {
		if errs != nil {
			return fmt.Errorf("%s: %s", run.Failed[0].File, run.Failed[0].Error)
		}
		return emit(c, st, mode, run.Files[0], output.ForFile(run.Files[0]))
	}

	if err := emit(c, st, mode, run, output.ForRun(run)); err != nil {
		return err
	}
	if errs != nil {
		return fmt.Errorf("%d of %d files failed", len(run.Failed), len(files))
	}
	return nil
}

// emit optionally validates data, then writes the rendered result.
func emit(c *cli.Context, st *appState, mode models.Mode, data any, r output.Renderable) error {
	if c.Bool("validate") {
		v, err := schema.New()
		if err != nil {
			return err
		}
		if err := v.ValidateResult(mode, data); err != nil {
			return fmt.Errorf("schema validation: %w", err)
		}
		st.logger.Debug().Str("mode", string(mode)).Msg("output matches schema")
	}

	f, err := st.formatter(c)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Output(r)
}
