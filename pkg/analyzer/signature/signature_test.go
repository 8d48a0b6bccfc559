package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/harnessprobe/pkg/analyzer/classify"
	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

func loc(line, col int) ast.Location {
	return ast.Location{File: "sort.cpp", Line: line, Column: col, MainFile: true, Valid: true}
}

func headerLoc(line int) ast.Location {
	return ast.Location{File: "/usr/include/stdlib.h", Line: line, Column: 1, SystemHeader: true, Valid: true}
}

var sortOrder = &ast.EnumInfo{Name: "SortOrder", Enumerators: []string{"ASC", "DESC"}}

func param(name, spelling, canonical string) *ast.Decl {
	return &ast.Decl{Kind: ast.DeclParam, Name: name, Scope: ast.ScopeParam, Type: ast.Type{Spelling: spelling, Canonical: canonical}}
}

func enumParam(name string, info *ast.EnumInfo) *ast.Decl {
	return &ast.Decl{Kind: ast.DeclParam, Name: name, Scope: ast.ScopeParam, Type: ast.Type{Spelling: info.Name, Canonical: info.Name, Enum: info}}
}

func global(name, spelling string) *ast.Decl {
	return &ast.Decl{Kind: ast.DeclVar, Name: name, Scope: ast.ScopeFile, Type: ast.Type{Spelling: spelling}}
}

func function(name string, begin, end ast.Location, ret string, body bool, params ...*ast.Decl) *ast.Node {
	fn := &ast.Node{
		Kind:       ast.KindFunction,
		Begin:      begin,
		End:        end,
		Name:       name,
		Decl:       &ast.Decl{Kind: ast.DeclFunction, Name: name, Scope: ast.ScopeFile},
		Params:     params,
		ReturnType: &ast.Type{Spelling: ret, Canonical: ret},
		TopLevel:   true,
	}
	for _, p := range params {
		fn.Inner = append(fn.Inner, &ast.Node{Kind: ast.KindParam, Begin: begin, Decl: p})
	}
	if body {
		fn.Body = &ast.Node{Kind: ast.KindCompound, Begin: begin, End: end}
		fn.Inner = append(fn.Inner, fn.Body)
	}
	return fn
}

func unit(globals []*ast.Decl, nodes ...*ast.Node) *ast.TranslationUnit {
	return &ast.TranslationUnit{
		Path:    "sort.cpp",
		Root:    &ast.Node{Kind: ast.KindTranslationUnit, Inner: nodes},
		Globals: globals,
	}
}

func extract(t *testing.T, tu *ast.TranslationUnit, opts ...Option) []models.FunctionRecord {
	t.Helper()
	e := New(tu, opts...)
	ast.Walk(tu, e)
	return e.Functions()
}

func TestSortWithEnumSelector(t *testing.T) {
	fn := function("sort", loc(3, 1), loc(5, 1), "void", true,
		param("arr", "int *", "int *"),
		param("n", "size_t", "unsigned long"),
		enumParam("order", sortOrder),
	)
	tu := unit([]*ast.Decl{global("DEFAULT_ORDER", "SortOrder"), global("LIMIT", "int")}, fn)

	records := extract(t, tu)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "sort", rec.Name)
	assert.Equal(t, "void", rec.ReturnType)
	assert.Equal(t, "array", rec.Category)
	assert.Equal(t, []models.Parameter{
		{Type: "int *", Title: "arr"},
		{Type: "size_t", Title: "n"},
		{Type: "enumeration SortOrder", Title: "order"},
	}, rec.Parameters)
	assert.Equal(t, []models.EnumSelector{{Var: "order", Enum: []string{"SortOrder::ASC", "SortOrder::DESC"}}}, rec.EnumSelectors)
	assert.Equal(t, []models.CandidateArgument{{Var: "order", Names: []string{"DEFAULT_ORDER"}}}, rec.CandidateArguments)
	assert.Equal(t, models.Position{Line: 3, Column: 1}, rec.StartPos)
	assert.Equal(t, models.Position{Line: 5, Column: 1}, rec.EndPos)
}

func TestMatrixConsumesThree(t *testing.T) {
	fn := function("blur", loc(1, 1), loc(9, 1), "void", true,
		param("img", "RGBImage **", "RGBImage **"),
		param("rows", "size_t", "unsigned long"),
		param("cols", "size_t", "unsigned long"),
		param("radius", "int", "int"),
	)
	tu := unit([]*ast.Decl{global("DEFAULT_RADIUS", "int"), global("SMALL", "int"), global("ratio", "double")}, fn)

	records := extract(t, tu)
	require.Len(t, records, 1)
	assert.Equal(t, "matrix image", records[0].Category)
	assert.Empty(t, records[0].EnumSelectors)
	assert.Equal(t, []models.CandidateArgument{{Var: "radius", Names: []string{"DEFAULT_RADIUS", "SMALL"}}}, records[0].CandidateArguments)
}

func TestCandidateWithoutMatchesIsEmptyList(t *testing.T) {
	fn := function("fill", loc(1, 1), loc(2, 1), "void", true,
		param("buf", "char *", "char *"),
		param("n", "size_t", "unsigned long"),
		param("c", "char", "char"),
	)

	records := extract(t, unit(nil, fn))
	require.Len(t, records, 1)
	assert.Equal(t, "array text", records[0].Category)
	require.Len(t, records[0].CandidateArguments, 1)
	assert.NotNil(t, records[0].CandidateArguments[0].Names)
	assert.Empty(t, records[0].CandidateArguments[0].Names)
}

func TestUnknownHasNoSelectors(t *testing.T) {
	fn := function("pick", loc(1, 1), loc(2, 1), "int", true,
		param("x", "int", "int"),
		enumParam("order", sortOrder),
	)
	tu := unit([]*ast.Decl{global("DEFAULT_ORDER", "SortOrder")}, fn)

	records := extract(t, tu)
	require.Len(t, records, 1)
	assert.Equal(t, models.CategoryUnknown, records[0].Category)
	assert.Empty(t, records[0].EnumSelectors)
	assert.Empty(t, records[0].CandidateArguments)
	assert.Equal(t, "enumeration SortOrder", records[0].Parameters[1].Type)
}

func TestPrototypesAreSkipped(t *testing.T) {
	proto := function("sort", loc(1, 1), loc(1, 40), "void", false,
		param("arr", "int *", "int *"),
		param("n", "size_t", "unsigned long"),
	)
	def := function("sum", loc(3, 1), loc(6, 1), "int", true,
		param("arr", "int *", "int *"),
		param("n", "size_t", "unsigned long"),
	)

	records := extract(t, unit(nil, proto, def))
	require.Len(t, records, 1)
	assert.Equal(t, "sum", records[0].Name)
}

func TestHeaderFunctionsAreSkipped(t *testing.T) {
	lib := function("qsort_r", headerLoc(10), headerLoc(20), "void", true,
		param("base", "void *", "void *"),
		param("n", "size_t", "unsigned long"),
	)
	own := function("sum", loc(3, 1), loc(6, 1), "int", true)

	records := extract(t, unit(nil, lib, own))
	require.Len(t, records, 1)
	assert.Equal(t, "sum", records[0].Name)
}

func TestReturnTypeSpelling(t *testing.T) {
	fn := function("size", loc(1, 1), loc(2, 1), "size_t", true)
	fn.ReturnType = &ast.Type{Spelling: "size_t", Canonical: "unsigned long"}
	tu := unit(nil, fn)

	assert.Equal(t, "unsigned long", extract(t, tu)[0].ReturnType)
	assert.Equal(t, "size_t", extract(t, tu, WithSpelling(ast.SpellingWritten))[0].ReturnType)
}

func TestCustomRules(t *testing.T) {
	fn := function("sum", loc(1, 1), loc(2, 1), "int", true,
		param("arr", "int *", "int *"),
		param("n", "uint32_t", "unsigned int"),
	)
	rules := classify.DefaultRules()
	rules.SizeTypes = append(rules.SizeTypes, "uint32_t")

	assert.Equal(t, models.CategoryUnknown, extract(t, unit(nil, fn))[0].Category)
	assert.Equal(t, "array", extract(t, unit(nil, fn), WithRules(rules))[0].Category)
}

func TestIdempotent(t *testing.T) {
	fn := function("sort", loc(3, 1), loc(5, 1), "void", true,
		param("arr", "int *", "int *"),
		param("n", "size_t", "unsigned long"),
		enumParam("order", sortOrder),
	)
	tu := unit([]*ast.Decl{global("DEFAULT_ORDER", "SortOrder")}, fn)

	assert.Equal(t, extract(t, tu), extract(t, tu))
}

func TestLambdasAreSkipped(t *testing.T) {
	lambda := function("operator()", loc(2, 14), loc(2, 50), "auto", true,
		param("a", "int *", "int *"),
		param("n", "size_t", "unsigned long"),
	)
	lambda.TopLevel = false
	lambda.Lambda = true

	main := function("main", loc(1, 1), loc(3, 1), "int", true)
	main.Body.Inner = []*ast.Node{lambda}
	main.Inner = []*ast.Node{main.Body}

	records := extract(t, unit(nil, main))
	require.Len(t, records, 1)
	assert.Equal(t, "main", records[0].Name)
}
