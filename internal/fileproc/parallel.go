// Package fileproc runs per-file work on a bounded worker pool.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError is the failure of one translation unit.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects per-file failures from concurrent workers.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add records err for path. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any file failed. A nil collection has none.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed, first %v", len(e.Errors), e.Errors[0])
	}
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU when no worker
// count is given.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called once per finished file, failed or not.
type ProgressFunc func()

// Outcome is the result of processing one file.
type Outcome[T any] struct {
	Path  string
	Value T
	Err   error
}

// MapIndexed calls fn for every file on at most maxWorkers goroutines and
// returns one outcome per file in input order. Failed files keep their slot
// with Err set and are also collected into the returned ProcessingErrors,
// which is nil when every file succeeded. Files not yet started when ctx is
// cancelled fail with the context error.
func MapIndexed[T any](ctx context.Context, files []string, maxWorkers int, fn func(context.Context, string) (T, error), onProgress ProgressFunc) ([]Outcome[T], *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	outcomes := make([]Outcome[T], len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			out := Outcome[T]{Path: path}
			if err := ctx.Err(); err != nil {
				out.Err = err
			} else {
				out.Value, out.Err = fn(ctx, path)
			}
			outcomes[i] = out

			if onProgress != nil {
				onProgress()
			}
		})
	}
	p.Wait()

	for _, out := range outcomes {
		if out.Err != nil {
			errs.Add(out.Path, out.Err)
		}
	}
	if !errs.HasErrors() {
		return outcomes, nil
	}
	return outcomes, errs
}
