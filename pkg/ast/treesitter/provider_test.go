package treesitter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/harnessprobe/pkg/analyzer/harness"
	"github.com/panbanda/harnessprobe/pkg/analyzer/inputsite"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
	"github.com/panbanda/harnessprobe/pkg/source"
)

func parse(t *testing.T, files map[string]string, path string, opts ...Option) *ast.TranslationUnit {
	t.Helper()
	p := New(append([]Option{WithSource(source.NewMemory(files))}, opts...)...)
	defer p.Close()
	tu, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, tu)
	return tu
}

func collect(tu *ast.TranslationUnit, kind ast.Kind) []*ast.Node {
	var out []*ast.Node
	ast.Inspect(tu.Root, func(n *ast.Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

func functionNamed(t *testing.T, tu *ast.TranslationUnit, name string) *ast.Node {
	t.Helper()
	for _, fn := range collect(tu, ast.KindFunction) {
		if fn.Name == name && fn.HasBody() {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestProviderImplementsInterface(t *testing.T) {
	var _ ast.Provider = (*Provider)(nil)
	assert.Equal(t, "treesitter", New().Name())
}

const sortSource = `#include <cstddef>

enum SortOrder { ASC, DESC };
SortOrder DEFAULT_ORDER = ASC;
int LIMIT = 10;

void sort(int *arr, size_t n, SortOrder order) {
    if (order == ASC) {
        arr[0] = 0;
    }
}
`

func TestFunctionSignature(t *testing.T) {
	tu := parse(t, map[string]string{"sort.cpp": sortSource}, "sort.cpp")

	assert.Equal(t, "sort.cpp", tu.Path)
	assert.Equal(t, ast.LangCPP, tu.Language)
	assert.Equal(t, []string{"sort.cpp"}, tu.Files)

	fn := functionNamed(t, tu, "sort")
	assert.True(t, fn.TopLevel)
	assert.Equal(t, "void", fn.ReturnType.Spelling)
	assert.Equal(t, 7, fn.Begin.Line)
	assert.Equal(t, 1, fn.Begin.Column)
	assert.Equal(t, 11, fn.End.Line)
	assert.Equal(t, 1, fn.End.Column)
	assert.True(t, fn.Begin.MainFile)

	require.Len(t, fn.Params, 3)
	assert.Equal(t, "arr", fn.Params[0].Name)
	assert.Equal(t, "int *", fn.Params[0].Type.Spelling)
	assert.Equal(t, "size_t", fn.Params[1].Type.Spelling)
	assert.Equal(t, "unsigned long", fn.Params[1].Type.Canonical)
	require.True(t, fn.Params[2].Type.IsEnum())
	assert.Equal(t, "SortOrder", fn.Params[2].Type.Spelling)
	assert.Equal(t, []string{"SortOrder::ASC", "SortOrder::DESC"}, fn.Params[2].Type.Enum.QualifiedEnumerators())
}

func TestGlobals(t *testing.T) {
	tu := parse(t, map[string]string{"sort.cpp": sortSource}, "sort.cpp")

	require.Len(t, tu.Globals, 2)
	assert.Equal(t, "DEFAULT_ORDER", tu.Globals[0].Name)
	assert.Equal(t, "SortOrder", tu.Globals[0].Type.Spelling)
	assert.Equal(t, ast.ScopeFile, tu.Globals[0].Scope)
	assert.Equal(t, "LIMIT", tu.Globals[1].Name)
	assert.Equal(t, "int", tu.Globals[1].Type.Spelling)
	assert.NotEmpty(t, tu.Globals[0].ID)
	assert.NotEqual(t, tu.Globals[0].ID, tu.Globals[1].ID)
}

func TestTypedefAnonymousEnum(t *testing.T) {
	src := `typedef enum { RED, GREEN } Color;
void paint(unsigned char *px, unsigned long n, Color c) {}
`
	tu := parse(t, map[string]string{"paint.cpp": src}, "paint.cpp")
	fn := functionNamed(t, tu, "paint")
	require.Len(t, fn.Params, 3)
	assert.Equal(t, "unsigned char *", fn.Params[0].Type.Spelling)
	assert.Equal(t, "unsigned long", fn.Params[1].Type.Spelling)
	require.True(t, fn.Params[2].Type.IsEnum())
	assert.Equal(t, "Color", fn.Params[2].Type.Spelling)
	assert.Equal(t, []string{"Color::RED", "Color::GREEN"}, fn.Params[2].Type.Enum.QualifiedEnumerators())
}

func TestPointerAndArraySpellings(t *testing.T) {
	src := `struct RGBImage { int r; };
void blur(RGBImage **img, size_t rows, size_t cols, const char *name, char buf[16]) {}
`
	tu := parse(t, map[string]string{"blur.cpp": src}, "blur.cpp")
	fn := functionNamed(t, tu, "blur")
	require.Len(t, fn.Params, 5)
	assert.Equal(t, "RGBImage **", fn.Params[0].Type.Spelling)
	assert.Equal(t, "const char *", fn.Params[3].Type.Spelling)
	assert.Equal(t, "char *", fn.Params[4].Type.Spelling)
}

const inputSource = `#include <iostream>
#include <cstdio>
using namespace std;

int main() {
    int a;
    string s;
    char buf[32];
    cin >> a >> s;
    scanf("%31s", buf);
    std::cin >> a;
    return 0;
}
`

func TestInputSites(t *testing.T) {
	tu := parse(t, map[string]string{"main.cpp": inputSource}, "main.cpp")

	calls := collect(tu, ast.KindCall)
	var scanf *ast.Node
	for _, c := range calls {
		if c.Name == "scanf" {
			scanf = c
		}
	}
	require.NotNil(t, scanf)
	require.Len(t, scanf.Args, 2)
	assert.Equal(t, "%31s", scanf.Args[0].Value)
	buf := inputsite.Resolve(scanf.Args[1])
	require.NotNil(t, buf)
	assert.Equal(t, "char[32]", buf.Type.Spelling)

	e := inputsite.New()
	ast.Walk(tu, e)
	var got []string
	for _, r := range e.Variables() {
		got = append(got, r.Name+":"+r.Type)
	}
	assert.ElementsMatch(t, []string{
		"a:int", "s:std::basic_string<char>", "buf:char[32]", "a:int",
	}, got)
}

func TestCinRequiresStd(t *testing.T) {
	src := `struct Reader { int v; };
Reader cin;
int main() {
    int a;
    cin >> a;
}
`
	tu := parse(t, map[string]string{"main.cpp": src}, "main.cpp")
	e := inputsite.New()
	ast.Walk(tu, e)
	assert.Empty(t, e.Variables())
}

const harnessHeader = `#pragma once
#include <string>
class TestOptions {};
class FunctionManager { public: FunctionManager(TestOptions &o) {} };
class DataManager { public: DataManager(TestOptions &o, FunctionManager &f) {} };
class TestFunctions {
public:
    TestFunctions(TestOptions &o, FunctionManager &f, DataManager &d) {}
    void run() {}
};
class DataArray { public: DataArray(std::string path) {} };
`

const harnessDriver = `#include "harness.h"

int main() {
    TestOptions opts;
    FunctionManager fm(opts);
    DataManager dm(opts, fm);
    TestFunctions tf(opts, fm, dm);
    DataArray arr(std::string("input.txt"));
    tf.run();
    return 0;
}
`

func TestHarnessDriver(t *testing.T) {
	files := map[string]string{"driver.cpp": harnessDriver, "harness.h": harnessHeader}
	tu := parse(t, files, "driver.cpp")
	assert.Equal(t, []string{"driver.cpp", "harness.h"}, tu.Files)

	d := harness.New()
	ast.Walk(tu, d)
	st := d.State()
	assert.True(t, st.Readiness.AllMarkers())
	assert.True(t, st.Readiness.Ready)
	assert.Equal(t, []string{"input.txt"}, st.Literals)
	assert.Equal(t, []models.DiscoveredData{{Type: "DataArray", Filename: "input.txt"}}, st.Data)
}

func TestHeaderNodesAreNotMainFile(t *testing.T) {
	files := map[string]string{"driver.cpp": harnessDriver, "harness.h": harnessHeader}
	tu := parse(t, files, "driver.cpp")

	for _, rec := range collect(tu, ast.KindRecord) {
		assert.False(t, rec.Begin.MainFile, rec.Name)
		assert.Equal(t, "driver.cpp", rec.Begin.IncludedFrom)
		assert.False(t, ast.BelongsToAnalyzedFile(rec.Begin))
	}
}

func TestSystemIncludes(t *testing.T) {
	files := map[string]string{
		"main.cpp":            "#include <lib.h>\n#include \"missing.h\"\nint main() { return helper(); }\n",
		"/opt/sdk/lib.h":      "#include \"lib_impl.h\"\nint helper() { return 1; }\n",
		"/opt/sdk/lib_impl.h": "#include \"lib.h\"\nint impl() { return 2; }\n",
	}
	tu := parse(t, files, "main.cpp", WithIncludeDirs("/opt/sdk"), WithSystemPrefixes("/opt/sdk"))

	assert.Equal(t, []string{"main.cpp", "/opt/sdk/lib.h", "/opt/sdk/lib_impl.h"}, tu.Files)
	helper := functionNamed(t, tu, "helper")
	assert.True(t, helper.Begin.SystemHeader)
	assert.False(t, helper.Begin.MainFile)
}

func TestAngleIncludeNotFollowedWithoutIncludeDirs(t *testing.T) {
	files := map[string]string{
		"main.cpp": "#include <lib.h>\nint main() { return 0; }\n",
		"lib.h":    "int helper() { return 1; }\n",
	}
	tu := parse(t, files, "main.cpp")
	assert.Equal(t, []string{"main.cpp"}, tu.Files)
}

func TestIncludeDepthLimit(t *testing.T) {
	files := map[string]string{
		"main.cpp": "#include \"a.h\"\nint main() { return 0; }\n",
		"a.h":      "#include \"b.h\"\n",
		"b.h":      "int deep = 1;\n",
	}
	tu := parse(t, files, "main.cpp", WithMaxIncludeDepth(1))
	assert.Equal(t, []string{"main.cpp", "a.h"}, tu.Files)
	assert.Empty(t, tu.Globals)
}

func TestSyntaxErrors(t *testing.T) {
	files := map[string]string{"broken.cpp": "int main( {\n  return 0;\n"}

	p := New(WithSource(source.NewMemory(files)))
	_, err := p.Parse(context.Background(), "broken.cpp")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrIncompleteTree))
	assert.True(t, IsIncomplete(err))

	p = New(WithSource(source.NewMemory(files)), WithAllowSyntaxErrors(true))
	tu, err := p.Parse(context.Background(), "broken.cpp")
	require.NoError(t, err)
	assert.NotNil(t, tu.Root)
}

func TestUnsupportedAndMissing(t *testing.T) {
	p := New(WithSource(source.NewMemory(map[string]string{"script.py": "print(1)"})))

	_, err := p.Parse(context.Background(), "script.py")
	assert.True(t, errors.Is(err, ast.ErrUnsupportedLanguage))

	_, err = p.Parse(context.Background(), "absent.cpp")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ast.ErrIncompleteTree))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(WithSource(source.NewMemory(map[string]string{"main.cpp": "int main() {}\n"})))
	_, err := p.Parse(ctx, "main.cpp")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCLanguage(t *testing.T) {
	src := `#include <stdio.h>
struct point { int x; };
int read(struct point *p, unsigned long n) {
    int v;
    scanf("%d", &v);
    return v;
}
`
	tu := parse(t, map[string]string{"read.c": src}, "read.c")
	assert.Equal(t, ast.LangC, tu.Language)
	fn := functionNamed(t, tu, "read")
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "struct point *", fn.Params[0].Type.Spelling)

	e := inputsite.New()
	ast.Walk(tu, e)
	require.Len(t, e.Variables(), 1)
	assert.Equal(t, "v", e.Variables()[0].Name)
	assert.Equal(t, 5, e.Variables()[0].Pos.Line)
	assert.Equal(t, 5, e.Variables()[0].Pos.Column)
}

func TestLambdaIsNotTopLevel(t *testing.T) {
	src := "int main() {\n    auto f = [](int x) { return x; };\n    return f(1);\n}\n"
	tu := parse(t, map[string]string{"main.cpp": src}, "main.cpp")
	var lambda *ast.Node
	for _, fn := range collect(tu, ast.KindFunction) {
		if fn.Name == "operator()" {
			lambda = fn
		}
	}
	require.NotNil(t, lambda)
	assert.True(t, lambda.Lambda)
	assert.False(t, lambda.TopLevel)
	require.Len(t, lambda.Params, 1)
	assert.Equal(t, ast.ScopeParam, lambda.Params[0].Scope)
}
