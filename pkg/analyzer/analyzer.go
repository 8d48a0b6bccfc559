// Package analyzer composes the extractors into one walk per translation
// unit and runs that walk over many files.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/panbanda/harnessprobe/internal/cache"
	"github.com/panbanda/harnessprobe/internal/fileproc"
	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/pkg/analyzer/classify"
	"github.com/panbanda/harnessprobe/pkg/analyzer/harness"
	"github.com/panbanda/harnessprobe/pkg/analyzer/inputsite"
	"github.com/panbanda/harnessprobe/pkg/analyzer/signature"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

// Extractor turns source files into extraction results.
type Extractor struct {
	provider ast.Provider
	classify classify.Rules
	harness  harness.Rules
	spelling ast.SpellingMode
	jobs     int
	cache    *cache.Cache
	logger   *log.Logger
	progress fileproc.ProgressFunc
}

// Option is a functional option for configuring Extractor.
type Option func(*Extractor)

// WithClassifyRules overrides the classification rules.
func WithClassifyRules(rules classify.Rules) Option {
	return func(e *Extractor) {
		e.classify = rules
	}
}

// WithHarnessRules overrides the readiness markers and data wrappers.
func WithHarnessRules(rules harness.Rules) Option {
	return func(e *Extractor) {
		e.harness = rules
	}
}

// WithSpelling selects canonical or written type spellings.
func WithSpelling(mode ast.SpellingMode) Option {
	return func(e *Extractor) {
		e.spelling = mode
	}
}

// WithJobs sets how many files are extracted concurrently. One (the
// default) processes files sequentially; zero uses twice the CPU count.
func WithJobs(n int) Option {
	return func(e *Extractor) {
		e.jobs = max(n, 0)
	}
}

// WithCache stores results keyed by file, mode and options.
func WithCache(c *cache.Cache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// WithProgress is called after every file of ExtractFiles.
func WithProgress(fn func()) Option {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// New creates an extractor reading translation units from provider.
func New(provider ast.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		classify: classify.DefaultRules(),
		harness:  harness.DefaultRules(),
		spelling: ast.SpellingCanonical,
		jobs:     1,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Close releases the provider.
func (e *Extractor) Close() {
	if e.provider != nil {
		e.provider.Close()
	}
}

// Analyze runs the extractors mode needs over a built translation unit in
// a single walk.
func (e *Extractor) Analyze(tu *ast.TranslationUnit, mode models.Mode) models.FileResult {
	res := models.FileResult{File: tu.Path}
	switch mode {
	case models.ModeFunctions:
		sig := signature.New(tu, signature.WithRules(e.classify), signature.WithSpelling(e.spelling))
		ast.Walk(tu, sig)
		res.FunctionsResult = sig.Result()
	default:
		sites := inputsite.New(inputsite.WithSpelling(e.spelling), inputsite.WithLogger(e.logger))
		detector := harness.New(harness.WithRules(e.harness), harness.WithLogger(e.logger))
		ast.Walk(tu, sites, detector)
		vars := detector.Result()
		vars.Variables = sites.Variables()
		res.VariablesResult = vars
	}
	return res
}

// ExtractFile builds the translation unit rooted at path and analyzes it.
// A tree the front-end could not build completely is an error; nothing is
// extracted from it.
func (e *Extractor) ExtractFile(ctx context.Context, path string, mode models.Mode) (models.FileResult, error) {
	key := e.cacheKey(path, mode)
	if data, ok := e.cache.Get(key); ok {
		var res models.FileResult
		if err := json.Unmarshal(data, &res); err == nil {
			e.logger.Debug().Str("file", path).Msg("cache hit")
			return res, nil
		}
		_ = e.cache.Invalidate(key)
	}

	tu, err := e.provider.Parse(ctx, path)
	if err != nil {
		return models.FileResult{}, err
	}
	res := e.Analyze(tu, mode)
	res.File = path
	e.logger.Debug().Str("file", path).Str("mode", string(mode)).Int("files", len(tu.Files)).Msg("extracted")

	if e.cache.Enabled() {
		e.store(key, tu.Files, res)
	}
	return res, nil
}

// ExtractFiles extracts every file, keeping input order. A failed file is
// reported in the result and in the returned errors without stopping the
// others; errs is nil when every file succeeded.
func (e *Extractor) ExtractFiles(ctx context.Context, files []string, mode models.Mode) (*models.RunResult, *fileproc.ProcessingErrors) {
	outcomes, errs := fileproc.MapIndexed(ctx, files, e.jobs, func(ctx context.Context, path string) (models.FileResult, error) {
		return e.ExtractFile(ctx, path, mode)
	}, e.progress)

	run := &models.RunResult{Files: []models.FileResult{}, Failed: []models.FailedFile{}}
	for _, out := range outcomes {
		if out.Err != nil {
			e.logger.Warn().Str("file", out.Path).Err(out.Err).Msg("skipping file")
			run.Failed = append(run.Failed, models.FailedFile{File: out.Path, Error: out.Err.Error()})
			continue
		}
		run.Files = append(run.Files, out.Value)
	}
	return run, errs
}

func (e *Extractor) cacheKey(path string, mode models.Mode) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return cache.Key(
		abs,
		string(mode),
		e.provider.Name(),
		string(e.spelling),
		fmt.Sprintf("%v", e.classify),
		fmt.Sprintf("%v", e.harness),
	)
}

// store caches res with every readable file of the unit as a dependency.
func (e *Extractor) store(key string, files []string, res models.FileResult) {
	deps := make([]string, 0, len(files))
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
			deps = append(deps, f)
		}
	}
	if len(deps) == 0 {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := e.cache.Set(key, deps, data); err != nil {
		e.logger.Debug().Err(err).Msg("cache write failed")
	}
}
