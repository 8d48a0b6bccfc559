package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/panbanda/harnessprobe/internal/cache"
	"github.com/panbanda/harnessprobe/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the number, size and age of cached results",
				Action: runCacheStatsCmd,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached result",
				Action: runCacheClearCmd,
			},
		},
	}
}

// openCache opens the configured cache directory even when caching is off
// for extraction, so it can still be inspected and cleared.
func openCache(c *cli.Context) (*cache.Cache, string, error) {
	st, err := loadState(c)
	if err != nil {
		return nil, "", err
	}
	dir := st.cfg.Cache.Dir
	ch, err := cache.New(dir, time.Duration(st.cfg.Cache.TTL)*time.Hour, true)
	if err != nil {
		return nil, "", fmt.Errorf("open cache %s: %w", dir, err)
	}
	return ch, dir, nil
}

func runCacheStatsCmd(c *cli.Context) error {
	st, err := loadState(c)
	if err != nil {
		return err
	}
	ch, dir, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := ch.GetStats()
	if err != nil {
		return fmt.Errorf("read cache %s: %w", dir, err)
	}

	f, err := st.formatter(c)
	if err != nil {
		return err
	}
	defer f.Close()

	p := message.NewPrinter(language.English)
	table := output.NewTable("Cache",
		[]string{"Directory", "Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			dir,
			p.Sprintf("%d", stats.Entries),
			formatBytes(stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil, stats)
	return f.Output(table)
}

func runCacheClearCmd(c *cli.Context) error {
	ch, dir, err := openCache(c)
	if err != nil {
		return err
	}
	if err := ch.Clear(); err != nil {
		return fmt.Errorf("clear cache %s: %w", dir, err)
	}
	color.New(color.FgGreen).Fprintf(c.App.Writer, "Cleared cache: %s\n", dir)
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
