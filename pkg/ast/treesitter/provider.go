// Package treesitter provides a resolved-tree front-end built on tree-sitter.
//
// It parses the main file and the headers it includes with quotes (or finds
// in the configured include directories), keeps lexical scopes for name
// resolution and rebuilds enough of clang's semantic view (canonical types,
// enum members, constructor calls, std::cin) for the extractors to run
// without a compiler installed.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/phuslu/log"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/harnessprobe/internal/logging"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/parser"
	"github.com/panbanda/harnessprobe/pkg/source"
)

// DefaultMaxIncludeDepth bounds how deep quoted includes are followed.
const DefaultMaxIncludeDepth = 16

var _ ast.Provider = (*Provider)(nil)

// Provider implements ast.Provider. It holds no parser state between calls
// and is safe for concurrent use.
type Provider struct {
	src               source.ContentSource
	includeDirs       []string
	systemPrefixes    []string
	allowSyntaxErrors bool
	maxIncludeDepth   int
	logger            *log.Logger
}

// Option is a functional option for configuring Provider.
type Option func(*Provider)

// WithSource sets where files are read from. Defaults to the filesystem.
func WithSource(src source.ContentSource) Option {
	return func(p *Provider) {
		p.src = src
	}
}

// WithIncludeDirs adds directories searched for included headers.
func WithIncludeDirs(dirs ...string) Option {
	return func(p *Provider) {
		p.includeDirs = append(p.includeDirs, dirs...)
	}
}

// WithSystemPrefixes marks headers under these path prefixes as system
// headers.
func WithSystemPrefixes(prefixes ...string) Option {
	return func(p *Provider) {
		p.systemPrefixes = append(p.systemPrefixes, prefixes...)
	}
}

// WithAllowSyntaxErrors builds a tree even when the parser recovered from
// errors; erroneous regions are dropped.
func WithAllowSyntaxErrors(allow bool) Option {
	return func(p *Provider) {
		p.allowSyntaxErrors = allow
	}
}

// WithMaxIncludeDepth bounds include nesting.
func WithMaxIncludeDepth(depth int) Option {
	return func(p *Provider) {
		if depth > 0 {
			p.maxIncludeDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Provider) {
		p.logger = l
	}
}

// New creates a tree-sitter provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		src:             source.NewFilesystem(),
		maxIncludeDepth: DefaultMaxIncludeDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrNop(p.logger)
	return p
}

// Name implements ast.Provider.
func (p *Provider) Name() string {
	return "treesitter"
}

// Close implements ast.Provider.
func (p *Provider) Close() {}

// Parse implements ast.Provider.
func (p *Provider) Parse(ctx context.Context, path string) (*ast.TranslationUnit, error) {
	lang := ast.DetectLanguage(path)
	if lang == ast.LangUnknown {
		return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, path)
	}
	content, err := p.src.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	b := newBuilder(ctx, p, path, lang)
	inner, err := b.parseFile(path, "", content, 0)
	if err != nil {
		return nil, err
	}
	if b.err != nil {
		return nil, b.err
	}

	start := ast.Location{File: path, Line: 1, Column: 1, MainFile: true, Valid: true}
	return &ast.TranslationUnit{
		Path:     path,
		Language: lang,
		Root:     &ast.Node{Kind: ast.KindTranslationUnit, Begin: start, Inner: inner},
		Globals:  b.globals,
		Files:    b.files,
	}, nil
}

func (p *Provider) isSystem(path string) bool {
	for _, prefix := range p.systemPrefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// fileState is the file currently being converted.
type fileState struct {
	path         string
	src          []byte
	includedFrom string
	main         bool
	system       bool
}

// builder converts tree-sitter syntax into the resolved tree.
type builder struct {
	ctx  context.Context
	p    *Provider
	lang ast.Language

	cur      *fileState
	scope    *scope
	ns       []string
	inStd    int
	included map[string]bool
	anon     map[string]*typeEntry

	stdObjs    map[string]*ast.Decl
	depthStack []int

	globals []*ast.Decl
	files   []string
	err     error
}

func newBuilder(ctx context.Context, p *Provider, path string, lang ast.Language) *builder {
	return &builder{
		ctx:      ctx,
		p:        p,
		lang:     lang,
		scope:    newScope(nil, scopeFile),
		included: map[string]bool{filepath.Clean(path): true},
		anon:     make(map[string]*typeEntry),
		stdObjs:  make(map[string]*ast.Decl),
	}
}

func (b *builder) parseFile(path, includedFrom string, content []byte, depth int) ([]*ast.Node, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, err
	}
	ps := parser.New()
	defer ps.Close()

	res, err := ps.Parse(b.ctx, content, b.lang, path)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	if !b.p.allowSyntaxErrors {
		if se := parser.FirstSyntaxError(res); se != nil {
			return nil, fmt.Errorf("%w: %w", ast.ErrIncompleteTree, se)
		}
	}

	prev := b.cur
	b.cur = &fileState{
		path:         path,
		src:          content,
		includedFrom: includedFrom,
		main:         includedFrom == "",
		system:       includedFrom != "" && b.p.isSystem(path),
	}
	defer func() { b.cur = prev }()
	b.files = append(b.files, path)

	b.depthStack = append(b.depthStack, depth)
	defer func() { b.depthStack = b.depthStack[:len(b.depthStack)-1] }()

	return b.items(res.Tree.RootNode()), nil
}

// include follows #include "x" and #include <x> found in the include dirs.
func (b *builder) include(n *sitter.Node) []*ast.Node {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return nil
	}
	raw := b.text(pathNode)
	quoted := pathNode.Type() == "string_literal"
	name := strings.Trim(raw, "\"<> ")
	if name == "" {
		return nil
	}

	var candidates []string
	if quoted {
		candidates = append(candidates, filepath.Join(filepath.Dir(b.cur.path), name))
	}
	for _, dir := range b.p.includeDirs {
		candidates = append(candidates, filepath.Join(dir, name))
	}

	resolved := ""
	for _, c := range candidates {
		if b.p.src.Exists(c) {
			resolved = filepath.Clean(c)
			break
		}
	}
	if resolved == "" {
		b.p.logger.Debug().Str("include", raw).Str("from", b.cur.path).Msg("header not found, skipping")
		return nil
	}
	if b.included[resolved] {
		return nil
	}
	depth := b.depth() + 1
	if depth > b.p.maxIncludeDepth {
		b.p.logger.Warn().Str("include", resolved).Int("depth", depth).Msg("include depth exceeded")
		return nil
	}
	b.included[resolved] = true

	content, err := b.p.src.Read(resolved)
	if err != nil {
		b.fail(fmt.Errorf("read %s: %w", resolved, err))
		return nil
	}
	nodes, err := b.parseFile(resolved, b.cur.path, content, depth)
	if err != nil {
		b.fail(err)
		return nil
	}
	return nodes
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) depth() int {
	if len(b.depthStack) == 0 {
		return 0
	}
	return b.depthStack[len(b.depthStack)-1]
}

func (b *builder) text(n *sitter.Node) string {
	return parser.Text(n, b.cur.src)
}

func (b *builder) loc(n *sitter.Node) ast.Location {
	if n == nil {
		return ast.Location{}
	}
	pt := n.StartPoint()
	return ast.Location{
		File:         b.cur.path,
		Line:         int(pt.Row) + 1,
		Column:       int(pt.Column) + 1,
		Offset:       int(n.StartByte()),
		IncludedFrom: b.cur.includedFrom,
		MainFile:     b.cur.main,
		SystemHeader: b.cur.system,
		Valid:        true,
	}
}

// endLoc is the start of the node's last token.
func (b *builder) endLoc(n *sitter.Node) ast.Location {
	if n == nil {
		return ast.Location{}
	}
	last := n
	for last.ChildCount() > 0 {
		last = last.Child(int(last.ChildCount()) - 1)
	}
	return b.loc(last)
}

func (b *builder) id(n *sitter.Node, name string) string {
	key := b.cur.path + ":" + strconv.Itoa(int(n.StartByte())) + ":" + name
	return strconv.FormatUint(xxhash.Sum64String(key), 16)
}

// qualified prefixes name with the enclosing namespaces.
func (b *builder) qualified(name string) string {
	if len(b.ns) == 0 || name == "" {
		return name
	}
	return strings.Join(b.ns, "::") + "::" + name
}

// stdObject returns the synthesized declaration for std::cin and friends.
func (b *builder) stdObject(name string) *ast.Decl {
	if d, ok := b.stdObjs[name]; ok {
		return d
	}
	cls, ok := stdObjects[name]
	if !ok {
		return nil
	}
	d := &ast.Decl{
		ID:    "std::" + name,
		Kind:  ast.DeclVar,
		Name:  name,
		Scope: ast.ScopeFile,
		InStd: true,
		Type:  ast.Type{Spelling: "std::" + cls, Canonical: stdClasses[cls]},
	}
	b.stdObjs[name] = d
	return d
}

func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

// IsIncomplete reports whether err means the tree had syntax errors.
func IsIncomplete(err error) bool {
	return errors.Is(err, ast.ErrIncompleteTree)
}
