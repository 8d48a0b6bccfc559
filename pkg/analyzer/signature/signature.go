// Package signature extracts the signatures of function definitions and the
// values a harness generator can feed to their selector parameters.
package signature

import (
	"github.com/panbanda/harnessprobe/pkg/analyzer/classify"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

// EnumPrefix marks the type spelling of an enum-typed parameter.
const EnumPrefix = "enumeration "

// Compile-time check that Extractor is a visitor.
var _ ast.Visitor = (*Extractor)(nil)

// Extractor records one FunctionRecord per function definition it visits.
type Extractor struct {
	tu       *ast.TranslationUnit
	rules    classify.Rules
	spelling ast.SpellingMode
	records  []models.FunctionRecord
}

// Option is a functional option for configuring Extractor.
type Option func(*Extractor)

// WithRules overrides the classification rules.
func WithRules(rules classify.Rules) Option {
	return func(e *Extractor) {
		e.rules = rules
	}
}

// WithSpelling selects which return type spelling is reported.
func WithSpelling(mode ast.SpellingMode) Option {
	return func(e *Extractor) {
		e.spelling = mode
	}
}

// New creates an extractor for one translation unit. The unit's file-scope
// variables are the candidate argument pool.
func New(tu *ast.TranslationUnit, opts ...Option) *Extractor {
	e := &Extractor{
		tu:       tu,
		rules:    classify.DefaultRules(),
		spelling: ast.SpellingCanonical,
		records:  []models.FunctionRecord{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enter records function definitions. Prototypes and lambdas are skipped.
func (e *Extractor) Enter(n *ast.Node) ast.Action {
	if n.Kind == ast.KindFunction && n.HasBody() && !n.Lambda {
		e.records = append(e.records, e.extract(n))
	}
	return ast.Descend
}

// Leave implements ast.Visitor.
func (e *Extractor) Leave(*ast.Node) {}

// Functions returns the records in traversal order.
func (e *Extractor) Functions() []models.FunctionRecord {
	return e.records
}

// Result wraps the records for serialization.
func (e *Extractor) Result() *models.FunctionsResult {
	return &models.FunctionsResult{Functions: e.records}
}

func (e *Extractor) extract(fn *ast.Node) models.FunctionRecord {
	name := fn.Name
	if name == "" && fn.Decl != nil {
		name = fn.Decl.Name
	}
	rec := models.NewFunctionRecord(name, fn.ReturnType.Render(e.spelling))
	rec.StartPos = models.Position{Line: fn.Begin.Line, Column: fn.Begin.Column}
	rec.EndPos = models.Position{Line: fn.End.Line, Column: fn.End.Column}

	types := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		spelling := p.Type.Spelling
		if p.Type.IsEnum() {
			spelling = EnumPrefix + spelling
		}
		rec.Parameters = append(rec.Parameters, models.Parameter{Type: spelling, Title: p.Name})
		types = append(types, spelling)
	}

	shape := e.rules.Classify(types)
	rec.Category = shape.Category
	if !shape.Known() {
		return rec
	}

	for _, p := range fn.Params[shape.Consumed:] {
		if p.Type.IsEnum() {
			rec.EnumSelectors = append(rec.EnumSelectors, models.EnumSelector{
				Var:  p.Name,
				Enum: p.Type.Enum.QualifiedEnumerators(),
			})
		}
		rec.CandidateArguments = append(rec.CandidateArguments, models.CandidateArgument{
			Var:   p.Name,
			Names: e.candidates(p.Type.Spelling),
		})
	}
	return rec
}

// candidates returns the file-scope variables whose declared type is spelled
// exactly like the parameter's.
func (e *Extractor) candidates(spelling string) []string {
	names := []string{}
	if e.tu == nil {
		return names
	}
	for _, g := range e.tu.Globals {
		if g.Name != "" && g.Type.Spelling == spelling {
			names = append(names, g.Name)
		}
	}
	return names
}
