// Package clangjson provides a resolved-tree front-end that runs clang and
// decodes its JSON AST dump (-Xclang -ast-dump=json).
//
// Clang does all semantic work; the decoder only restores the location
// fields clang elides, indexes enumerations and maps node kinds onto the
// ast package's vocabulary.
package clangjson

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// DecodeOptions describe the dump being decoded.
type DecodeOptions struct {
	// MainFile is the path of the analyzed file as passed to clang.
	MainFile string
	// Language of the translation unit; detected from MainFile when empty.
	Language ast.Language
	// SystemPrefixes mark headers under these paths as system headers.
	SystemPrefixes []string
}

// Decode reads one JSON AST dump and builds the resolved tree.
func Decode(r io.Reader, opts DecodeOptions) (*ast.TranslationUnit, error) {
	var root rawNode
	dec := json.NewDecoder(r)
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: decode ast dump: %v", ast.ErrFrontend, err)
	}
	if root.Kind != "TranslationUnitDecl" {
		return nil, fmt.Errorf("%w: ast dump root is %q, want TranslationUnitDecl", ast.ErrFrontend, root.Kind)
	}
	lang := opts.Language
	if lang == "" {
		lang = ast.DetectLanguage(opts.MainFile)
	}

	d := newDecoder(opts, lang)
	d.fix(&root)
	tu := &ast.TranslationUnit{
		Path:     opts.MainFile,
		Language: lang,
		Root:     d.node(&root),
		Globals:  d.globals,
		Files:    d.fileList(),
	}
	tu.Root.Kind = ast.KindTranslationUnit
	tu.Root.Begin = ast.Location{File: opts.MainFile, Line: 1, Column: 1, MainFile: true, Valid: true}
	return tu, nil
}

type decoder struct {
	main   string
	lang   ast.Language
	system []string

	// location restoration state
	lastFile     string
	lastLine     int
	lastPresumed string
	includedFrom map[string]string
	seenFiles    []string
	mainCache    map[string]bool

	decls        map[string]*ast.Decl
	enums        map[string]*ast.EnumInfo
	enumByID     map[string]*ast.EnumInfo
	typedefEnums map[string]*ast.EnumInfo
	globals      []*ast.Decl

	// conversion context
	nsStd    []bool
	nsNames  []string
	fnDepth  int
	recDepth int
	tmplDep  int
}

func newDecoder(opts DecodeOptions, lang ast.Language) *decoder {
	return &decoder{
		main:         filepath.Clean(opts.MainFile),
		lang:         lang,
		system:       opts.SystemPrefixes,
		includedFrom: make(map[string]string),
		mainCache:    make(map[string]bool),
		decls:        make(map[string]*ast.Decl),
		enums:        make(map[string]*ast.EnumInfo),
		enumByID:     make(map[string]*ast.EnumInfo),
		typedefEnums: make(map[string]*ast.EnumInfo),
	}
}

// fix restores elided file and line fields in document order: a node's loc,
// then its range, then its children.
func (d *decoder) fix(n *rawNode) {
	if n == nil {
		return
	}
	d.fixLoc(n.Loc)
	if n.Range != nil {
		d.fixLoc(&n.Range.Begin)
		d.fixLoc(&n.Range.End)
	}
	for _, c := range n.Inner {
		d.fix(c)
	}
}

func (d *decoder) fixLoc(l *rawLoc) {
	if l == nil {
		return
	}
	if l.isMacro() {
		d.fixLoc(l.SpellingLoc)
		d.fixLoc(l.ExpansionLoc)
		return
	}
	if l.empty() {
		return
	}
	if l.File == "" {
		l.File = d.lastFile
	} else if l.File != d.lastFile {
		d.lastFile = l.File
		d.lastPresumed = ""
		d.noteFile(l.File)
	}
	if l.IncludedFrom != nil {
		d.includedFrom[l.File] = l.IncludedFrom.File
	}
	if l.Line == 0 {
		l.Line = d.lastLine
	} else {
		d.lastLine = l.Line
	}
	if l.PresumedFile != "" {
		d.lastPresumed = l.PresumedFile
	} else {
		l.PresumedFile = d.lastPresumed
	}
}

func (d *decoder) noteFile(f string) {
	for _, s := range d.seenFiles {
		if s == f {
			return
		}
	}
	d.seenFiles = append(d.seenFiles, f)
}

// fileList puts the main file first.
func (d *decoder) fileList() []string {
	out := []string{d.main}
	for _, f := range d.seenFiles {
		if !d.isMain(f) {
			out = append(out, f)
		}
	}
	return out
}

func (d *decoder) isMain(file string) bool {
	if v, ok := d.mainCache[file]; ok {
		return v
	}
	clean := filepath.Clean(file)
	v := clean == d.main ||
		strings.HasSuffix(d.main, string(filepath.Separator)+clean) ||
		strings.HasSuffix(clean, string(filepath.Separator)+d.main)
	d.mainCache[file] = v
	return v
}

func (d *decoder) isSystem(file string) bool {
	for _, prefix := range d.system {
		if prefix != "" && strings.HasPrefix(file, prefix) {
			return true
		}
	}
	return false
}

func (d *decoder) location(l *rawLoc) ast.Location {
	if l == nil {
		return ast.Location{}
	}
	if l.isMacro() {
		exp := l.ExpansionLoc
		if exp == nil {
			exp = l.SpellingLoc
		}
		loc := d.location(exp)
		if !loc.Valid {
			return loc
		}
		loc.Macro = true
		if l.SpellingLoc != nil && !l.SpellingLoc.empty() {
			loc.SystemMacro = d.isSystem(l.SpellingLoc.File)
		}
		return loc
	}
	if l.empty() || l.File == "" {
		return ast.Location{}
	}
	loc := ast.Location{
		File:         l.File,
		Line:         l.Line,
		Column:       l.Col,
		IncludedFrom: d.includedFrom[l.File],
		MainFile:     d.isMain(l.File),
		SystemHeader: d.isSystem(l.File),
		Valid:        true,
	}
	if l.Offset != nil {
		loc.Offset = *l.Offset
	}
	if l.PresumedFile != "" {
		loc.File = l.PresumedFile
	}
	if l.PresumedLine != 0 {
		loc.Line = l.PresumedLine
	}
	return loc
}

func (d *decoder) begin(n *rawNode) ast.Location {
	if n.Range != nil {
		if loc := d.location(&n.Range.Begin); loc.Valid {
			return loc
		}
	}
	return d.location(n.Loc)
}

func (d *decoder) end(n *rawNode) ast.Location {
	if n.Range == nil {
		return ast.Location{}
	}
	return d.location(&n.Range.End)
}

func (d *decoder) inStd() bool {
	return len(d.nsStd) > 0 && d.nsStd[len(d.nsStd)-1]
}

// typeOf converts a clang type; the canonical spelling is the desugared one.
func (d *decoder) typeOf(rt *rawType) ast.Type {
	if rt == nil {
		return ast.Type{}
	}
	t := ast.Type{Spelling: rt.QualType, Canonical: rt.Desugared}
	if t.Canonical == "" {
		t.Canonical = t.Spelling
	}
	t.Enum = d.enumFor(t)
	return t
}

// enumFor finds the enumeration a non-pointer type names, directly or
// through a typedef.
func (d *decoder) enumFor(t ast.Type) *ast.EnumInfo {
	for _, s := range []string{t.Spelling, t.Canonical} {
		if s == "" || strings.ContainsAny(ast.Unqualified(s), "*&[(") {
			continue
		}
		name := ast.BaseTypeName(s)
		if e := d.typedefEnums[name]; e != nil {
			return e
		}
		if e := d.enums[name]; e != nil {
			return e
		}
	}
	return nil
}

// declFor returns the declaration with clang id id, creating a placeholder
// that the declaring node fills in later.
func (d *decoder) declFor(id string) *ast.Decl {
	if id == "" {
		return &ast.Decl{}
	}
	if decl, ok := d.decls[id]; ok {
		return decl
	}
	decl := &ast.Decl{ID: id}
	d.decls[id] = decl
	return decl
}

// referenced resolves a declaration reference, filling what the reference
// itself tells about a declaration not seen yet.
func (d *decoder) referenced(ref *rawDeclRef) *ast.Decl {
	if ref == nil {
		return nil
	}
	decl := d.declFor(ref.ID)
	if decl.Kind == "" {
		decl.Kind = declKind(ref.Kind)
		decl.Name = ref.Name
		decl.Type = d.typeOf(ref.Type)
		switch decl.Kind {
		case ast.DeclParam:
			decl.Scope = ast.ScopeParam
		case ast.DeclField:
			decl.Scope = ast.ScopeMember
		}
	}
	return decl
}

func declKind(kind string) ast.DeclKind {
	switch kind {
	case "VarDecl", "DecompositionDecl", "BindingDecl":
		return ast.DeclVar
	case "ParmVarDecl":
		return ast.DeclParam
	case "FunctionDecl", "CXXMethodDecl", "CXXConstructorDecl", "CXXDestructorDecl", "CXXConversionDecl":
		return ast.DeclFunction
	case "EnumDecl":
		return ast.DeclEnum
	case "EnumConstantDecl":
		return ast.DeclEnumerator
	case "RecordDecl", "CXXRecordDecl":
		return ast.DeclRecord
	case "FieldDecl":
		return ast.DeclField
	case "TypedefDecl", "TypeAliasDecl":
		return ast.DeclTypedef
	}
	return ""
}

// returnType takes the return type out of a function type spelling such as
// "int (int *, size_t) const" or "auto (int) -> long".
func returnType(fn string) string {
	if i := topLevelIndex(fn, " -> "); i >= 0 {
		return strings.TrimSpace(fn[i+4:])
	}
	end := strings.LastIndexByte(fn, ')')
	if end < 0 {
		return strings.TrimSpace(fn)
	}
	depth := 0
	for i := end; i >= 0; i-- {
		switch fn[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return strings.TrimSpace(fn[:i])
			}
		}
	}
	return strings.TrimSpace(fn)
}

func topLevelIndex(s, sub string) int {
	depth := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		switch s[i] {
		case '(', '<', '[':
			depth++
		case ')', '>', ']':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && strings.HasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}
