// Package parser wraps tree-sitter for C and C++ sources.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// Parser wraps a tree-sitter parser. It is not safe for concurrent use; give
// each goroutine its own.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed syntax tree and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language ast.Language
	Source   []byte
	Path     string
}

// New returns a parser with no language set.
func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Parse parses src with the grammar for lang. path is only recorded.
func (p *Parser) Parse(ctx context.Context, src []byte, lang ast.Language, path string) (*ParseResult, error) {
	grammar, err := Grammar(lang)
	if err != nil {
		return nil, err
	}

	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: lang, Source: src, Path: path}, nil
}

// Grammar maps a language to its tree-sitter grammar. C sources use the C
// grammar so K&R declarations and C-only keywords parse cleanly.
func Grammar(lang ast.Language) (*sitter.Language, error) {
	switch lang {
	case ast.LangC:
		return c.GetLanguage(), nil
	case ast.LangCPP:
		return cpp.GetLanguage(), nil
	}
	return nil, fmt.Errorf("%w: %s", ast.ErrUnsupportedLanguage, lang)
}

func (p *Parser) Close() {
	p.parser.Close()
}

// Close releases the tree.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// Visitor is called once per node with its type already fetched, saving a
// cgo round trip per comparison. Returning false skips the node's children.
type Visitor func(node *sitter.Node, nodeType string) bool

// Walk visits node and its descendants depth-first.
func Walk(node *sitter.Node, visit Visitor) {
	if node == nil || !visit(node, node.Type()) {
		return
	}
	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visit)
	}
}

// Text returns the source slice a node spans, or "" for a nil node or
// offsets outside src.
func Text(node *sitter.Node, src []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(src)) {
		return ""
	}
	return string(src[start:end])
}

// SyntaxError locates the first error or missing node of a tree.
type SyntaxError struct {
	Path    string
	Line    int
	Column  int
	Missing bool
	Text    string
}

func (e *SyntaxError) Error() string {
	what := "syntax error"
	if e.Missing {
		what = "missing " + e.Text
	} else if e.Text != "" {
		what = fmt.Sprintf("syntax error near %q", e.Text)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, what)
}

// FirstSyntaxError returns the first ERROR or MISSING node in document order,
// or nil when the tree is clean.
func FirstSyntaxError(result *ParseResult) *SyntaxError {
	root := result.Tree.RootNode()
	if root == nil || !root.HasError() {
		return nil
	}

	var found *SyntaxError
	Walk(root, func(node *sitter.Node, nodeType string) bool {
		if found != nil {
			return false
		}
		if nodeType != "ERROR" && !node.IsMissing() {
			return node.HasError()
		}
		pt := node.StartPoint()
		found = &SyntaxError{
			Path:    result.Path,
			Line:    int(pt.Row) + 1,
			Column:  int(pt.Column) + 1,
			Missing: node.IsMissing(),
		}
		if node.IsMissing() {
			found.Text = nodeType
		} else {
			found.Text = firstLine(Text(node, result.Source))
		}
		return false
	})
	return found
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	if len(s) > 40 {
		return s[:40]
	}
	return s
}
