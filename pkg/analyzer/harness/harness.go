// Package harness checks whether a program's entry point is shaped like a
// generated test driver, and harvests the literal file names passed to data
// wrapper objects.
//
// A driver is ready when the entry function declares one object of each of
// the four collaborator types and then invokes run on the TestFunctions
// object. Readiness and every marker flag are monotonic.
package harness

import (
	"strings"

	"github.com/phuslu/log"

	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

// Markers names the collaborator types a ready driver declares.
type Markers struct {
	TestOptions     string
	FunctionManager string
	DataManager     string
	TestFunctions   string
}

// Rules parameterize the detector.
type Rules struct {
	Entry        string
	RunMethod    string
	Markers      Markers
	DataWrappers []string
}

// DefaultRules returns the standard driver shape.
func DefaultRules() Rules {
	return Rules{
		Entry:     "main",
		RunMethod: "run",
		Markers: Markers{
			TestOptions:     "TestOptions",
			FunctionManager: "FunctionManager",
			DataManager:     "DataManager",
			TestFunctions:   "TestFunctions",
		},
		DataWrappers: []string{"DataImage", "DataArray", "DataMatrix", "DataText"},
	}
}

// State is the detector's fold state.
type State struct {
	InsideEntry bool
	Readiness   models.HarnessReadiness
	Literals    []string
	Data        []models.DiscoveredData
}

var _ ast.Visitor = (*Detector)(nil)

// Detector is the readiness visitor.
type Detector struct {
	rules  Rules
	logger *log.Logger
	state  State
	// saved holds InsideEntry for every function definition being walked.
	saved []bool
}

// Option is a functional option for configuring Detector.
type Option func(*Detector)

// WithRules overrides the markers, entry name and wrapper classes.
func WithRules(rules Rules) Option {
	return func(d *Detector) {
		d.rules = rules
	}
}

// WithLogger sets the logger used for readiness events.
func WithLogger(l *log.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// New creates a detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		rules: DefaultRules(),
		state: State{
			Literals: []string{},
			Data:     []models.DiscoveredData{},
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrNop(d.logger)
	return d
}

// Enter implements ast.Visitor.
func (d *Detector) Enter(n *ast.Node) ast.Action {
	switch n.Kind {
	case ast.KindFunction:
		if n.HasBody() {
			d.enterFunction(n)
		}
	case ast.KindVar:
		if d.state.InsideEntry {
			d.markDeclaration(n.Decl)
		}
	case ast.KindMemberCall:
		if d.state.InsideEntry && d.state.Readiness.AllMarkers() {
			d.checkRun(n)
		}
	case ast.KindConstruct:
		d.harvest(n)
	}
	return ast.Descend
}

// Leave restores the entry flag when a function definition ends.
func (d *Detector) Leave(n *ast.Node) {
	if n.Kind != ast.KindFunction || !n.HasBody() || len(d.saved) == 0 {
		return
	}
	last := len(d.saved) - 1
	d.state.InsideEntry = d.saved[last]
	d.saved = d.saved[:last]
}

// State returns a copy of the current state.
func (d *Detector) State() State {
	return d.state
}

// Result renders the state as a vars-mode result without input variables.
func (d *Detector) Result() *models.VariablesResult {
	res := models.NewVariablesResult()
	res.Ready = d.state.Readiness.Ready
	res.Markers = d.state.Readiness
	res.DiscoveredLiterals = append(res.DiscoveredLiterals, d.state.Literals...)
	res.DiscoveredData = append(res.DiscoveredData, d.state.Data...)
	return res
}

func (d *Detector) enterFunction(fn *ast.Node) {
	d.saved = append(d.saved, d.state.InsideEntry)
	name := fn.Name
	if name == "" && fn.Decl != nil {
		name = fn.Decl.Name
	}
	switch {
	case name == d.rules.Entry && fn.TopLevel:
		d.state.InsideEntry = true
	case fn.TopLevel:
		d.state.InsideEntry = false
	}
}

func (d *Detector) markDeclaration(decl *ast.Decl) {
	if decl == nil || decl.Kind != ast.DeclVar || decl.Scope != ast.ScopeLocal {
		return
	}
	spelling := decl.Type.Spelling
	m := d.rules.Markers
	r := &d.state.Readiness
	if containsName(spelling, m.TestOptions) {
		r.HasTestOptions = true
	}
	if containsName(spelling, m.FunctionManager) {
		r.HasFunctionManager = true
	}
	if containsName(spelling, m.DataManager) {
		r.HasDataManager = true
	}
	if containsName(spelling, m.TestFunctions) {
		r.HasTestFunctions = true
	}
}

func (d *Detector) checkRun(call *ast.Node) {
	if call.Name != d.rules.RunMethod {
		return
	}
	recv := ast.IgnoreParenImpCasts(call.Sub)
	if recv == nil || recv.Kind != ast.KindDeclRef {
		return
	}
	var spelling string
	switch {
	case recv.Type != nil:
		spelling = recv.Type.Spelling
	case recv.Ref != nil:
		spelling = recv.Ref.Type.Spelling
	}
	if !containsName(spelling, d.rules.Markers.TestFunctions) {
		return
	}
	if !d.state.Readiness.Ready {
		d.logger.Debug().Str("at", call.Begin.String()).Msg("test runner invoked from entry function")
	}
	d.state.Readiness.Ready = true
}

func (d *Detector) harvest(construct *ast.Node) {
	class := constructedClass(construct)
	if !d.isDataWrapper(class) || len(construct.Args) == 0 {
		return
	}
	literal := ResolveLiteral(construct.Args[0])
	if literal == "" {
		d.logger.Debug().Str("at", construct.Begin.String()).Str("class", class).Msg("data wrapper argument is not a literal")
		return
	}
	d.state.Literals = append(d.state.Literals, literal)
	d.state.Data = append(d.state.Data, models.DiscoveredData{Type: class, Filename: literal})
}

func (d *Detector) isDataWrapper(class string) bool {
	for _, w := range d.rules.DataWrappers {
		if containsName(class, w) {
			return true
		}
	}
	return false
}

func constructedClass(n *ast.Node) string {
	if n.Name != "" {
		return ast.ClassName(n.Name)
	}
	if n.Type != nil {
		return ast.ClassName(n.Type.Spelling)
	}
	return ""
}

func containsName(spelling, marker string) bool {
	return marker != "" && strings.Contains(spelling, marker)
}

// ResolveLiteral folds expr to the string it denotes, or "" when it is not
// a recognizable literal.
func ResolveLiteral(expr *ast.Node) string {
	return resolveLiteral(expr, make(map[*ast.Decl]bool))
}

func resolveLiteral(expr *ast.Node, visiting map[*ast.Decl]bool) string {
	expr = ast.IgnoreParenImpCasts(expr)
	if expr == nil {
		return ""
	}
	switch expr.Kind {
	case ast.KindStringLiteral:
		return expr.Value
	case ast.KindFunctionalCast, ast.KindBindTemporary:
		return resolveLiteral(expr.Sub, visiting)
	case ast.KindConstruct:
		if constructedClass(expr) == "basic_string" && len(expr.Args) > 0 {
			return resolveLiteral(expr.Args[0], visiting)
		}
	case ast.KindDeclRef:
		ref := expr.Ref
		if ref == nil || !ref.IsVariable() || ref.Init == nil || visiting[ref] {
			return ""
		}
		visiting[ref] = true
		return resolveLiteral(ref.Init, visiting)
	case ast.KindInitList:
		var b strings.Builder
		for _, elem := range expr.Args {
			if c := ast.IgnoreParenImpCasts(elem); c != nil && c.Kind == ast.KindCharLiteral {
				b.WriteString(c.Value)
			}
		}
		return strings.TrimRight(b.String(), "\x00")
	}
	return ""
}
