package clangjson

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/compdb"
)

// DefaultClang is the compiler driver looked up on PATH.
const DefaultClang = "clang"

// DefaultSystemPrefixes are the toolchain locations treated as system headers.
var DefaultSystemPrefixes = []string{
	"/usr/include",
	"/usr/lib",
	"/usr/local/include",
	"/Library/Developer",
	"/Applications/Xcode.app",
}

var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider by running clang once per translation
// unit. It is safe for concurrent use.
type Provider struct {
	clang          string
	args           []string
	db             *compdb.Database
	systemPrefixes []string
	dumps          map[string]string
	logger         *log.Logger
}

// Option is a functional option for configuring Provider.
type Option func(*Provider)

// WithClang sets the clang executable.
func WithClang(path string) Option {
	return func(p *Provider) {
		if path != "" {
			p.clang = path
		}
	}
}

// WithArgs appends compiler arguments used for every file.
func WithArgs(args ...string) Option {
	return func(p *Provider) {
		p.args = append(p.args, args...)
	}
}

// WithCompilationDatabase takes per-file arguments from db. Files the
// database does not list fall back to the WithArgs arguments.
func WithCompilationDatabase(db *compdb.Database) Option {
	return func(p *Provider) {
		p.db = db
	}
}

// WithSystemPrefixes replaces the system header prefixes.
func WithSystemPrefixes(prefixes ...string) Option {
	return func(p *Provider) {
		p.systemPrefixes = prefixes
	}
}

// WithDump decodes an existing JSON dump for source instead of running clang.
func WithDump(source, dumpPath string) Option {
	return func(p *Provider) {
		if p.dumps == nil {
			p.dumps = make(map[string]string)
		}
		p.dumps[filepath.Clean(source)] = dumpPath
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a clang provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		clang:          DefaultClang,
		systemPrefixes: DefaultSystemPrefixes,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger)
	return p
}

// Name implements ast.Provider.
func (p *Provider) Name() string {
	return "clang"
}

// Close implements ast.Provider.
func (p *Provider) Close() {}

// Parse implements ast.Provider.
func (p *Provider) Parse(ctx context.Context, path string) (*ast.TranslationUnit, error) {
	lang := ast.DetectLanguage(path)
	if lang == ast.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	opts := DecodeOptions{MainFile: path, Language: lang, SystemPrefixes: p.systemPrefixes}

	if dump, ok := p.dumps[filepath.Clean(path)]; ok {
		f, err := os.Open(dump)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ast.ErrFrontend, err)
		}
		defer f.Close()
		return Decode(f, opts)
	}

	args, dir := p.command(path, lang)
	cmd := exec.CommandContext(ctx, p.clang, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ast.ErrFrontend, err)
	}

	p.logger.Debug().Str("file", path).Strs("args", args).Msg("running clang")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ast.ErrFrontend, err)
	}
	tu, decodeErr := Decode(stdout, opts)
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: clang %s: %v: %s", ast.ErrFrontend, path, err, firstLines(stderr.String(), 5))
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return tu, nil
}

// command builds the clang invocation for path and its working directory.
func (p *Provider) command(path string, lang ast.Language) ([]string, string) {
	args := []string{"-Xclang", "-ast-dump=json", "-fsyntax-only"}
	var dir string
	if c, ok := p.db.Lookup(path); ok {
		args = append(args, c.CompileArgs()...)
		dir = c.Directory
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	} else {
		if lang == ast.LangCPP && !ast.IsSource(path) {
			args = append(args, "-x", "c++")
		}
		args = append(args, p.args...)
	}
	return append(args, path), dir
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(strings.TrimSpace(s), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "; ")
}
