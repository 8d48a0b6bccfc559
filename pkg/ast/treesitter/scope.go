package treesitter

import (
	"strings"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

type scopeKind int

const (
	scopeFile scopeKind = iota
	scopeNamespace
	scopeFunction
	scopeBlock
	scopeRecord
)

// scope is one lexical scope. Names declared in a namespace are also
// registered on the file scope under their qualified name.
type scope struct {
	parent *scope
	kind   scopeKind
	decls  map[string]*ast.Decl
	types  map[string]*typeEntry

	usingStd   bool
	usingNames map[string]bool
}

func newScope(parent *scope, kind scopeKind) *scope {
	return &scope{
		parent:     parent,
		kind:       kind,
		decls:      make(map[string]*ast.Decl),
		types:      make(map[string]*typeEntry),
		usingNames: make(map[string]bool),
	}
}

type typeKind int

const (
	typeRecord typeKind = iota
	typeEnum
	typeAlias
)

// typeEntry is a named type visible in a scope.
type typeEntry struct {
	kind typeKind
	typ  ast.Type
}

func (s *scope) root() *scope {
	for s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *scope) declare(d *ast.Decl) {
	if d == nil || d.Name == "" {
		return
	}
	s.decls[d.Name] = d
}

func (s *scope) declareType(name string, e *typeEntry) {
	if name == "" {
		return
	}
	s.types[name] = e
}

func (s *scope) lookup(name string) *ast.Decl {
	for sc := s; sc != nil; sc = sc.parent {
		if d, ok := sc.decls[name]; ok {
			return d
		}
	}
	return nil
}

func (s *scope) lookupType(name string) *typeEntry {
	for sc := s; sc != nil; sc = sc.parent {
		if e, ok := sc.types[name]; ok {
			return e
		}
	}
	return nil
}

// seesStd reports whether an unqualified name may refer to std::name: either
// a using-directive for std or a using-declaration for that name is in scope.
func (s *scope) seesStd(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.usingStd || sc.usingNames[name] {
			return true
		}
	}
	return false
}

func (s *scope) inFunction() bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.kind == scopeFunction {
			return true
		}
	}
	return false
}

// stripStd removes a leading std:: qualifier and reports whether it was there.
func stripStd(name string) (string, bool) {
	for _, p := range []string{"std::__1::", "std::__cxx11::", "std::"} {
		if strings.HasPrefix(name, p) {
			return name[len(p):], true
		}
	}
	return name, false
}
