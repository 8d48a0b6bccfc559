// Package inputsite finds the variables a program reads from standard input,
// through scanf calls and std::cin extraction chains.
package inputsite

import (
	"github.com/phuslu/log"

	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

const (
	scanfName   = "scanf"
	extractOp   = ">>"
	stdinStream = "cin"
)

var _ ast.Visitor = (*Extractor)(nil)

// cached is the memoized rendering of one resolved variable. The type is
// reported without top-level qualifiers.
type cached struct {
	typ  string
	name string
}

// Extractor records one VariableRecord per input site.
type Extractor struct {
	spelling ast.SpellingMode
	logger   *log.Logger

	// seen maps a declaration to its rendered type and name; repeated sites
	// still produce their own records.
	seen    map[*ast.Decl]cached
	records []models.VariableRecord
}

// Option is a functional option for configuring Extractor.
type Option func(*Extractor)

// WithSpelling selects which type spelling is reported.
func WithSpelling(mode ast.SpellingMode) Option {
	return func(e *Extractor) {
		e.spelling = mode
	}
}

// WithLogger sets the logger used for resolution misses.
func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// New creates an input-site extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		spelling: ast.SpellingCanonical,
		seen:     make(map[*ast.Decl]cached),
		records:  []models.VariableRecord{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrNop(e.logger)
	return e
}

// Enter inspects scanf calls and >> operator calls.
func (e *Extractor) Enter(n *ast.Node) ast.Action {
	switch n.Kind {
	case ast.KindCall:
		if n.Name == scanfName {
			e.scanf(n)
		}
	case ast.KindOperatorCall:
		if n.Operator == extractOp {
			e.extraction(n)
		}
	}
	return ast.Descend
}

// Leave implements ast.Visitor.
func (e *Extractor) Leave(*ast.Node) {}

// Variables returns the records in traversal order.
func (e *Extractor) Variables() []models.VariableRecord {
	return e.records
}

func (e *Extractor) scanf(call *ast.Node) {
	for i := 1; i < len(call.Args); i++ {
		arg := call.Args[i]
		if arg == nil {
			continue
		}
		if stripped := ast.IgnoreParenCasts(arg); stripped.Kind == ast.KindUnary && stripped.Operator == "&" && stripped.Sub != nil {
			arg = stripped.Sub
		}
		e.record(arg, call.Begin)
	}
}

func (e *Extractor) extraction(op *ast.Node) {
	lhs, rhs := op.Arg(0), op.Arg(1)
	if lhs == nil || rhs == nil {
		return
	}
	if !readsStdin(lhs) {
		return
	}
	e.record(rhs, op.Begin)
}

// readsStdin reports whether expr is std::cin, possibly behind a chain of
// nested >> calls. The search gives up as soon as it leaves the analyzed file.
func readsStdin(expr *ast.Node) bool {
	for expr != nil {
		if !ast.BelongsToAnalyzedFile(expr.Begin) {
			return false
		}
		expr = ast.IgnoreParenImpCasts(expr)
		switch expr.Kind {
		case ast.KindDeclRef:
			ref := expr.Ref
			return ref != nil && ref.IsVariable() && ref.Name == stdinStream && ref.InStd
		case ast.KindOperatorCall:
			if expr.Operator != extractOp {
				return false
			}
			expr = expr.Arg(0)
		default:
			return false
		}
	}
	return false
}

// Resolve returns the named variable expr refers to once parentheses and
// casts are stripped, or nil.
func Resolve(expr *ast.Node) *ast.Decl {
	expr = ast.IgnoreParenCasts(expr)
	if expr == nil || expr.Kind != ast.KindDeclRef {
		return nil
	}
	if !expr.Ref.IsVariable() || expr.Ref.Name == "" {
		return nil
	}
	return expr.Ref
}

func (e *Extractor) record(expr *ast.Node, at ast.Location) {
	decl := Resolve(expr)
	if decl == nil {
		e.logger.Debug().Str("at", at.String()).Str("kind", expr.Kind.String()).Msg("input operand is not a named variable")
		return
	}
	c, ok := e.seen[decl]
	if !ok {
		c = cached{typ: ast.Unqualified(decl.Type.Render(e.spelling)), name: decl.Name}
		e.seen[decl] = c
	}
	e.records = append(e.records, models.VariableRecord{
		Name: c.name,
		Type: c.typ,
		Pos:  models.Position{Line: at.Line, Column: at.Column},
	})
}
