package main

import (
	"fmt"
	"time"

	"github.com/panbanda/harnessprobe/internal/cache"
	"github.com/panbanda/harnessprobe/pkg/analyzer"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/ast/clangjson"
	"github.com/panbanda/harnessprobe/pkg/ast/treesitter"
	"github.com/panbanda/harnessprobe/pkg/compdb"
	"github.com/panbanda/harnessprobe/pkg/config"
)

// frontendOptions are the per-invocation front-end overrides.
type frontendOptions struct {
	name    string
	compdb  string
	astJSON string // clang JSON dump standing in for source
	source  string
}

// loadCompDB loads the database named by the flag or config, if any.
func (st *appState) loadCompDB(path string) (*compdb.Database, error) {
	if path == "" {
		path = st.cfg.Frontend.CompDB
	}
	if path == "" {
		return nil, nil
	}
	db, err := compdb.Load(path)
	if err != nil {
		return nil, err
	}
	st.logger.Debug().Str("path", db.Path).Int("entries", db.Len()).Msg("loaded compilation database")
	return db, nil
}

// provider builds the configured front-end. The tree-sitter front-end takes
// the union of the database's include directories since it has no
// per-file command lines.
func (st *appState) provider(opts frontendOptions, db *compdb.Database) (ast.Provider, error) {
	fc := st.cfg.Frontend
	name := fc.Name
	if opts.name != "" {
		name = opts.name
	}
	if opts.astJSON != "" {
		name = config.FrontendClang
	}

	switch name {
	case "", config.FrontendTreeSitter:
		includeDirs := append([]string(nil), fc.IncludeDirs...)
		systemPrefixes := append([]string(nil), fc.SystemPrefixes...)
		if db != nil {
			for _, file := range db.Files() {
				cmd, _ := db.Lookup(file)
				user, system := cmd.IncludeDirs()
				includeDirs = append(includeDirs, user...)
				systemPrefixes = append(systemPrefixes, system...)
			}
		}
		return treesitter.New(
			treesitter.WithIncludeDirs(includeDirs...),
			treesitter.WithSystemPrefixes(systemPrefixes...),
			treesitter.WithAllowSyntaxErrors(fc.AllowSyntaxErrors),
			treesitter.WithMaxIncludeDepth(fc.MaxIncludeDepth),
			treesitter.WithLogger(st.logger),
		), nil

	case config.FrontendClang:
		copts := []clangjson.Option{
			clangjson.WithClang(fc.Clang),
			clangjson.WithArgs(fc.Args...),
			clangjson.WithLogger(st.logger),
		}
		for _, dir := range fc.IncludeDirs {
			copts = append(copts, clangjson.WithArgs("-I"+dir))
		}
		if len(fc.SystemPrefixes) > 0 {
			copts = append(copts, clangjson.WithSystemPrefixes(append(clangjson.DefaultSystemPrefixes, fc.SystemPrefixes...)...))
		}
		if db != nil {
			copts = append(copts, clangjson.WithCompilationDatabase(db))
		}
		if opts.astJSON != "" {
			copts = append(copts, clangjson.WithDump(opts.source, opts.astJSON))
		}
		return clangjson.New(copts...), nil

	default:
		return nil, fmt.Errorf("unknown frontend %q (want treesitter or clang)", name)
	}
}

// extractor wires a provider to the analyzers with the configured rules,
// cache and worker count.
func (st *appState) extractor(p ast.Provider, progress func()) *analyzer.Extractor {
	opts := []analyzer.Option{
		analyzer.WithClassifyRules(st.cfg.ClassifyRules()),
		analyzer.WithHarnessRules(st.cfg.HarnessRules()),
		analyzer.WithSpelling(st.cfg.Spelling()),
		analyzer.WithJobs(st.cfg.Jobs),
		analyzer.WithLogger(st.logger),
	}
	if st.cfg.Cache.Enabled {
		c, err := cache.New(st.cfg.Cache.Dir, time.Duration(st.cfg.Cache.TTL)*time.Hour, true)
		if err != nil {
			st.logger.Warn().Err(err).Msg("cache disabled")
		} else {
			opts = append(opts, analyzer.WithCache(c))
		}
	}
	if progress != nil {
		opts = append(opts, analyzer.WithProgress(progress))
	}
	return analyzer.New(p, opts...)
}
