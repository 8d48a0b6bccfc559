package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/harnessprobe/internal/output"
	"github.com/panbanda/harnessprobe/internal/scanner"
	"github.com/panbanda/harnessprobe/pkg/analyzer"
	"github.com/panbanda/harnessprobe/pkg/models"
	"github.com/panbanda/harnessprobe/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-extract C/C++ sources as they change",
		ArgsUsage: "[dir]",
		Description: `Extracts every translation unit under dir once, then again whenever a
source settles after a change. A changed header re-extracts all sources; the
cache keeps unaffected ones cheap.`,
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
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "How long a file must be quiet before it is re-extracted",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	st, err := loadState(c)
	if err != nil {
		return err
	}
	mode, err := models.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}

	root := "."
	if c.Args().Len() > 0 {
		root = c.Args().First()
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
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

	f, err := st.formatter(c)
	if err != nil {
		return err
	}
	defer f.Close()
	status := output.NewWriterFormatter(output.FormatText, c.App.ErrWriter, st.cfg.Output.Color && !color.NoColor)

	sources := func() []string {
		files, err := scanner.NewScanner(st.cfg).ScanDir(absRoot)
		if err != nil {
			status.Error("scan %s: %v", absRoot, err)
		}
		return files
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractAndPrint(ctx, e, f, status, sources(), mode)

	watcher, err := watch.NewWatcher(absRoot, st.cfg, c.Duration("debounce"))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetOutput(c.App.ErrWriter)
	watcher.SetCallback(func(changed []string) {
		extractAndPrint(ctx, e, f, status, watch.Sources(changed, sources), mode)
	})

	if err := watcher.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// extractAndPrint writes results to f and status lines to status.
func extractAndPrint(ctx context.Context, e *analyzer.Extractor, f, status *output.Formatter, files []string, mode models.Mode) {
	if len(files) == 0 {
		return
	}
	start := time.Now()
	run, _ := e.ExtractFiles(ctx, files, mode)
	for _, res := range run.Files {
		if err := f.Output(output.ForFile(res)); err != nil {
			status.Error("write %s: %v", res.File, err)
		}
	}
	for _, failed := range run.Failed {
		status.Error("%s: %s", failed.File, failed.Error)
	}
	status.Success("%d extracted, %d failed in %s", len(run.Files), len(run.Failed), time.Since(start).Round(time.Millisecond))
}
