package parser

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

func nodesOfType(root *sitter.Node, nodeType string) []*sitter.Node {
	var found []*sitter.Node
	Walk(root, func(n *sitter.Node, typ string) bool {
		if typ == nodeType {
			found = append(found, n)
		}
		return true
	})
	return found
}

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.NotNil(t, p.parser)
	p.Close()
}

func TestParseCPP(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("#include <cstddef>\nvoid sort(int *arr, size_t n) { }\n")
	result, err := p.Parse(context.Background(), src, ast.LangCPP, "sort.cpp")
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, ast.LangCPP, result.Language)
	assert.Equal(t, "translation_unit", result.Tree.RootNode().Type())
	assert.Nil(t, FirstSyntaxError(result))

	fns := nodesOfType(result.Tree.RootNode(), "function_definition")
	require.Len(t, fns, 1)
	assert.Equal(t, "void sort(int *arr, size_t n) { }", Text(fns[0], src))
}

func TestParseC(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("int main(void) { int x; scanf(\"%d\", &x); return 0; }\n")
	result, err := p.Parse(context.Background(), src, ast.LangC, "main.c")
	require.NoError(t, err)
	defer result.Close()

	calls := nodesOfType(result.Tree.RootNode(), "call_expression")
	require.Len(t, calls, 1)
}

func TestUnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Parse(context.Background(), []byte("x"), ast.LangUnknown, "notes.txt")
	assert.True(t, errors.Is(err, ast.ErrUnsupportedLanguage))
}

func TestFirstSyntaxError(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("int main() {\n  int x = ;\n}\n")
	result, err := p.Parse(context.Background(), src, ast.LangCPP, "bad.cpp")
	require.NoError(t, err)
	defer result.Close()

	synErr := FirstSyntaxError(result)
	require.NotNil(t, synErr)
	assert.Equal(t, "bad.cpp", synErr.Path)
	assert.Equal(t, 2, synErr.Line)
	assert.Contains(t, synErr.Error(), "bad.cpp:2:")
}

func TestWalkSkipsChildren(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("void f() { g(); }\nvoid h() { g(); }\n")
	result, err := p.Parse(context.Background(), src, ast.LangCPP, "w.cpp")
	require.NoError(t, err)
	defer result.Close()

	var calls int
	Walk(result.Tree.RootNode(), func(node *sitter.Node, nodeType string) bool {
		if nodeType == "call_expression" {
			calls++
		}
		return Text(node.ChildByFieldName("declarator"), src) != "h()"
	})
	assert.Equal(t, 1, calls)
}

func TestTextNil(t *testing.T) {
	assert.Equal(t, "", Text(nil, []byte("x")))
}
