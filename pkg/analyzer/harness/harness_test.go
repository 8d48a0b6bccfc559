package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/harnessprobe/pkg/ast"
	"github.com/panbanda/harnessprobe/pkg/models"
)

func at(line int) ast.Location {
	return ast.Location{File: "driver.cpp", Line: line, Column: 1, MainFile: true, Valid: true}
}

func localVar(name, spelling string, line int) *ast.Node {
	d := &ast.Decl{Kind: ast.DeclVar, Name: name, Scope: ast.ScopeLocal, Type: ast.Type{Spelling: spelling, Canonical: spelling}}
	return &ast.Node{Kind: ast.KindVar, Begin: at(line), Decl: d, Name: name}
}

func declRef(v *ast.Node, line int) *ast.Node {
	t := v.Decl.Type
	return &ast.Node{Kind: ast.KindDeclRef, Begin: at(line), Ref: v.Decl, Name: v.Decl.Name, Type: &t}
}

func memberCall(method string, recv *ast.Node, line int) *ast.Node {
	return &ast.Node{Kind: ast.KindMemberCall, Name: method, Begin: at(line), Sub: recv, Inner: []*ast.Node{recv}}
}

func fn(name string, topLevel bool, stmts ...*ast.Node) *ast.Node {
	body := &ast.Node{Kind: ast.KindCompound, Begin: at(1), Inner: stmts}
	return &ast.Node{
		Kind:     ast.KindFunction,
		Name:     name,
		Begin:    at(1),
		Decl:     &ast.Decl{Kind: ast.DeclFunction, Name: name, Scope: ast.ScopeFile},
		Body:     body,
		TopLevel: topLevel,
		Inner:    []*ast.Node{body},
	}
}

func construct(class string, line int, args ...*ast.Node) *ast.Node {
	return &ast.Node{Kind: ast.KindConstruct, Name: class, Begin: at(line), Args: args, Inner: args}
}

func strLit(v string) *ast.Node {
	return &ast.Node{Kind: ast.KindStringLiteral, Value: v, Begin: at(1)}
}

func detect(t *testing.T, opts []Option, nodes ...*ast.Node) *Detector {
	t.Helper()
	tu := &ast.TranslationUnit{Path: "driver.cpp", Root: &ast.Node{Kind: ast.KindTranslationUnit, Inner: nodes}}
	d := New(opts...)
	ast.Walk(tu, d)
	return d
}

func driver(skip string) *ast.Node {
	decls := []*ast.Node{
		localVar("opts", "TestOptions", 2),
		localVar("fm", "FunctionManager", 3),
		localVar("dm", "DataManager", 4),
		localVar("tf", "TestFunctions", 5),
	}
	var stmts []*ast.Node
	var tf *ast.Node
	for _, d := range decls {
		if d.Decl.Type.Spelling == "TestFunctions" {
			tf = d
		}
		if d.Decl.Type.Spelling != skip {
			stmts = append(stmts, d)
		}
	}
	stmts = append(stmts, memberCall("run", declRef(tf, 6), 6))
	return fn("main", true, stmts...)
}

func TestReadyDriver(t *testing.T) {
	d := detect(t, nil, driver(""))
	st := d.State()
	assert.True(t, st.Readiness.Ready)
	assert.True(t, st.Readiness.AllMarkers())
	assert.False(t, st.InsideEntry)
}

func TestMissingMarkerIsNotReady(t *testing.T) {
	for _, skip := range []string{"TestOptions", "FunctionManager", "DataManager", "TestFunctions"} {
		t.Run(skip, func(t *testing.T) {
			d := detect(t, nil, driver(skip))
			assert.False(t, d.State().Readiness.Ready)
			assert.False(t, d.State().Readiness.AllMarkers())
		})
	}
}

func TestRunOutsideEntryIsIgnored(t *testing.T) {
	tf := localVar("tf", "TestFunctions", 12)
	helper := fn("helper", true,
		localVar("opts", "TestOptions", 10),
		localVar("fm", "FunctionManager", 10),
		localVar("dm", "DataManager", 11),
		tf,
		memberCall("run", declRef(tf, 13), 13),
	)
	d := detect(t, nil, helper)
	assert.False(t, d.State().Readiness.HasTestOptions)
	assert.False(t, d.State().Readiness.Ready)
}

func TestRunBeforeAllMarkersIsIgnored(t *testing.T) {
	tf := localVar("tf", "TestFunctions", 2)
	main := fn("main", true,
		tf,
		memberCall("run", declRef(tf, 3), 3),
		localVar("opts", "TestOptions", 4),
		localVar("fm", "FunctionManager", 5),
		localVar("dm", "DataManager", 6),
	)
	d := detect(t, nil, main)
	assert.True(t, d.State().Readiness.AllMarkers())
	assert.False(t, d.State().Readiness.Ready)
}

func TestRunReceiverMustBeDirectReference(t *testing.T) {
	tf := localVar("tf", "TestFunctions", 5)
	member := &ast.Node{Kind: ast.KindMember, Name: "inner", Begin: at(6), Sub: declRef(tf, 6), Type: &ast.Type{Spelling: "TestFunctions"}}
	main := fn("main", true,
		localVar("opts", "TestOptions", 2),
		localVar("fm", "FunctionManager", 3),
		localVar("dm", "DataManager", 4),
		tf,
		memberCall("run", member, 6),
		memberCall("start", declRef(tf, 7), 7),
	)
	d := detect(t, nil, main)
	assert.False(t, d.State().Readiness.Ready)
}

func TestNestedFunctionKeepsEntryScope(t *testing.T) {
	lambda := fn("operator()", false, localVar("opts", "TestOptions", 3))
	main := fn("main", true, lambda, localVar("fm", "FunctionManager", 5))
	other := fn("other", true, localVar("dm", "DataManager", 9))

	d := detect(t, nil, main, other)
	r := d.State().Readiness
	assert.True(t, r.HasTestOptions)
	assert.True(t, r.HasFunctionManager)
	assert.False(t, r.HasDataManager)
}

func TestDataWrapperLiterals(t *testing.T) {
	stringCtor := func(arg *ast.Node) *ast.Node {
		ctor := construct("std::basic_string<char>", 3, arg)
		bind := &ast.Node{Kind: ast.KindBindTemporary, Sub: ctor, Inner: []*ast.Node{ctor}}
		return &ast.Node{Kind: ast.KindFunctionalCast, Sub: bind, Inner: []*ast.Node{bind}}
	}

	pathDecl := &ast.Decl{Kind: ast.DeclVar, Name: "path", Scope: ast.ScopeFile, Init: strLit("pixels.ppm")}
	pathRef := &ast.Node{Kind: ast.KindDeclRef, Ref: pathDecl, Begin: at(5)}

	chars := &ast.Node{Kind: ast.KindInitList, Args: []*ast.Node{
		{Kind: ast.KindCharLiteral, Value: "a"},
		{Kind: ast.KindCharLiteral, Value: "."},
		{Kind: ast.KindImplicitCast, Sub: &ast.Node{Kind: ast.KindCharLiteral, Value: "b"}},
		{Kind: ast.KindCharLiteral, Value: "\x00"},
	}}

	d := detect(t, nil,
		construct("DataArray", 3, stringCtor(strLit("input.txt"))),
		construct("DataImage", 5, pathRef),
		construct("DataText", 7, chars),
		construct("DataMatrix", 9),
		construct("Logger", 11, strLit("log.txt")),
		construct("DataArray", 13, strLit("")),
	)

	st := d.State()
	assert.Equal(t, []string{"input.txt", "pixels.ppm", "a.b"}, st.Literals)
	assert.Equal(t, []models.DiscoveredData{
		{Type: "DataArray", Filename: "input.txt"},
		{Type: "DataImage", Filename: "pixels.ppm"},
		{Type: "DataText", Filename: "a.b"},
	}, st.Data)
	assert.False(t, st.Readiness.Ready)
}

func TestResolveLiteralStopsOnCycles(t *testing.T) {
	self := &ast.Decl{Kind: ast.DeclVar, Name: "p"}
	self.Init = &ast.Node{Kind: ast.KindDeclRef, Ref: self}

	assert.Equal(t, "", ResolveLiteral(self.Init))
	assert.Equal(t, "", ResolveLiteral(nil))
	assert.Equal(t, "", ResolveLiteral(construct("std::vector<int>", 1, strLit("x"))))
}

func TestResult(t *testing.T) {
	d := detect(t, nil, driver(""), construct("DataArray", 20, strLit("in.txt")))
	res := d.Result()
	require.NotNil(t, res)
	assert.True(t, res.Ready)
	assert.True(t, res.Markers.HasTestFunctions)
	assert.Equal(t, []string{"in.txt"}, res.DiscoveredLiterals)
	assert.Empty(t, res.Variables)
}

func TestCustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.Entry = "test_main"
	rules.DataWrappers = []string{"Fixture"}

	tf := localVar("tf", "TestFunctions", 5)
	entry := fn("test_main", true,
		localVar("opts", "TestOptions", 2),
		localVar("fm", "FunctionManager", 3),
		localVar("dm", "DataManager", 4),
		tf,
		memberCall("run", declRef(tf, 6), 6),
		construct("FixtureFile", 7, strLit("f.bin")),
	)
	d := detect(t, []Option{WithRules(rules)}, entry)
	assert.True(t, d.State().Readiness.Ready)
	assert.Equal(t, []string{"f.bin"}, d.State().Literals)
}
