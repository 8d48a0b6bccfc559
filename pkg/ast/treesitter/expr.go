package treesitter

import (
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// stmt converts a statement inside a function body.
func (b *builder) stmt(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "compound_statement":
		outer := b.scope
		b.scope = newScope(outer, scopeBlock)
		defer func() { b.scope = outer }()
		node := &ast.Node{Kind: ast.KindCompound, Begin: b.loc(n), End: b.endLoc(n)}
		node.Inner = b.stmts(namedChildren(n))
		return node
	case "declaration", "type_definition", "alias_declaration", "struct_specifier", "class_specifier",
		"union_specifier", "enum_specifier", "function_definition":
		return &ast.Node{Kind: ast.KindOther, Name: "DeclStmt", Begin: b.loc(n), End: b.endLoc(n), Inner: b.item(n)}
	case "using_declaration":
		b.using(n)
		return nil
	case "expression_statement":
		kids := namedChildren(n)
		if len(kids) == 1 {
			return b.expr(kids[0])
		}
		return b.generic(n)
	case "for_range_loop":
		return b.rangeLoop(n)
	case "for_statement", "while_statement", "do_statement", "if_statement", "switch_statement",
		"case_statement", "try_statement", "catch_clause", "condition_clause", "else_clause":
		outer := b.scope
		b.scope = newScope(outer, scopeBlock)
		defer func() { b.scope = outer }()
		if n.Type() == "catch_clause" {
			for _, p := range b.params(n.ChildByFieldName("parameters")) {
				b.scope.declare(p.decl)
			}
		}
		return b.generic(n)
	case "preproc_if", "preproc_ifdef":
		return &ast.Node{Kind: ast.KindOther, Begin: b.loc(n), End: b.endLoc(n), Inner: b.conditional(n, func(c *sitter.Node) []*ast.Node {
			return one(b.stmt(c))
		})}
	case "comment", "preproc_def", "preproc_function_def", "preproc_call", "preproc_include":
		return nil
	case "ERROR":
		return nil
	}
	return b.expr(n)
}

func (b *builder) stmts(list []*sitter.Node) []*ast.Node {
	var out []*ast.Node
	for _, c := range list {
		if s := b.stmt(c); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// generic keeps a node whose own semantics do not matter and converts its
// children.
func (b *builder) generic(n *sitter.Node) *ast.Node {
	node := &ast.Node{Kind: ast.KindOther, Name: n.Type(), Begin: b.loc(n), End: b.endLoc(n)}
	node.Inner = b.stmts(namedChildren(n))
	return node
}

func (b *builder) rangeLoop(n *sitter.Node) *ast.Node {
	outer := b.scope
	b.scope = newScope(outer, scopeBlock)
	defer func() { b.scope = outer }()

	node := &ast.Node{Kind: ast.KindOther, Name: n.Type(), Begin: b.loc(n), End: b.endLoc(n)}
	if right := b.expr(n.ChildByFieldName("right")); right != nil {
		node.Inner = append(node.Inner, right)
	}
	info := b.declarator(b.baseType(n), n.ChildByFieldName("declarator"))
	if info.name != "" {
		decl := &ast.Decl{
			ID:    b.id(info.nameNode, info.name),
			Kind:  ast.DeclVar,
			Name:  info.name,
			Type:  info.typ,
			Scope: ast.ScopeLocal,
			Loc:   b.loc(info.nameNode),
		}
		b.scope.declare(decl)
		node.Inner = append(node.Inner, &ast.Node{Kind: ast.KindVar, Name: info.name, Begin: b.loc(n), Decl: decl})
	}
	if body := b.stmt(n.ChildByFieldName("body")); body != nil {
		node.Inner = append(node.Inner, body)
	}
	return node
}

func (b *builder) exprs(list []*sitter.Node) []*ast.Node {
	var out []*ast.Node
	for _, c := range list {
		if c.Type() == "comment" {
			continue
		}
		if e := b.expr(c); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// expr converts an expression.
func (b *builder) expr(n *sitter.Node) *ast.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return b.reference(n, b.text(n))
	case "qualified_identifier", "template_function":
		return b.reference(n, normalizeName(b.text(n)))
	case "parenthesized_expression":
		return b.wrap(n, ast.KindParen, b.expr(firstExpr(n)))
	case "cast_expression":
		node := b.wrap(n, ast.KindCast, b.expr(n.ChildByFieldName("value")))
		if td := n.ChildByFieldName("type"); td != nil {
			t := b.typeDescriptor(td)
			node.Type = &t
		}
		return node
	case "pointer_expression", "unary_expression":
		node := b.wrap(n, ast.KindUnary, b.expr(n.ChildByFieldName("argument")))
		node.Operator = b.text(n.ChildByFieldName("operator"))
		return node
	case "field_expression":
		node := b.wrap(n, ast.KindMember, b.expr(n.ChildByFieldName("argument")))
		node.Name = b.text(n.ChildByFieldName("field"))
		node.Operator = b.text(n.ChildByFieldName("operator"))
		return node
	case "string_literal":
		return b.stringLiteral(n, ast.UnquoteLiteral(b.text(n), '"'))
	case "raw_string_literal":
		return b.stringLiteral(n, ast.UnquoteRaw(b.text(n)))
	case "concatenated_string":
		var sb strings.Builder
		for _, c := range namedChildren(n) {
			switch c.Type() {
			case "string_literal":
				sb.WriteString(ast.UnquoteLiteral(b.text(c), '"'))
			case "raw_string_literal":
				sb.WriteString(ast.UnquoteRaw(b.text(c)))
			}
		}
		return b.stringLiteral(n, sb.String())
	case "char_literal":
		t := ast.Type{Spelling: "char", Canonical: "char"}
		return &ast.Node{Kind: ast.KindCharLiteral, Begin: b.loc(n), End: b.endLoc(n), Value: ast.UnquoteLiteral(b.text(n), '\''), Type: &t}
	case "initializer_list":
		args := b.exprs(namedChildren(n))
		return &ast.Node{Kind: ast.KindInitList, Begin: b.loc(n), End: b.endLoc(n), Args: args, Inner: args}
	case "call_expression":
		return b.call(n)
	case "binary_expression":
		return b.binary(n)
	case "new_expression":
		return b.newExpr(n)
	case "lambda_expression":
		return b.lambda(n)
	case "compound_literal_expression":
		t := b.typeDescriptor(n.ChildByFieldName("type"))
		value := b.expr(n.ChildByFieldName("value"))
		node := &ast.Node{Kind: ast.KindOther, Name: n.Type(), Begin: b.loc(n), End: b.endLoc(n), Type: &t, Sub: value, Inner: one(value)}
		return node
	case "comment", "ERROR", "type_descriptor", "primitive_type", "type_identifier", "sized_type_specifier":
		return nil
	}
	node := &ast.Node{Kind: ast.KindOther, Name: n.Type(), Begin: b.loc(n), End: b.endLoc(n)}
	if op := n.ChildByFieldName("operator"); op != nil {
		node.Operator = b.text(op)
	}
	node.Inner = b.stmts(namedChildren(n))
	return node
}

func firstExpr(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() != "comment" {
			return c
		}
	}
	return nil
}

func (b *builder) wrap(n *sitter.Node, kind ast.Kind, sub *ast.Node) *ast.Node {
	return &ast.Node{Kind: kind, Begin: b.loc(n), End: b.endLoc(n), Sub: sub, Inner: one(sub)}
}

func (b *builder) stringLiteral(n *sitter.Node, value string) *ast.Node {
	elem := "const char"
	if b.lang == ast.LangC {
		elem = "char"
	}
	size := strconv.Itoa(len(value) + 1)
	t := ast.Type{Spelling: elem + "[" + size + "]", Canonical: elem + "[" + size + "]"}
	return &ast.Node{Kind: ast.KindStringLiteral, Begin: b.loc(n), End: b.endLoc(n), Value: value, Type: &t}
}

func (b *builder) typeDescriptor(td *sitter.Node) ast.Type {
	if td == nil {
		return ast.Type{}
	}
	t := b.baseType(td)
	if d := td.ChildByFieldName("declarator"); d != nil {
		t = b.declarator(t, d).typ
	}
	return t
}

// reference resolves a name used in an expression.
func (b *builder) reference(n *sitter.Node, name string) *ast.Node {
	node := &ast.Node{Kind: ast.KindDeclRef, Name: lastComponent(name), Begin: b.loc(n), End: b.endLoc(n)}
	if d := b.resolve(name); d != nil {
		node.Ref = d
		t := d.Type
		node.Type = &t
	}
	return node
}

func (b *builder) resolve(name string) *ast.Decl {
	if !strings.Contains(name, "::") {
		if d := b.scope.lookup(name); d != nil {
			return d
		}
		if b.scope.seesStd(name) {
			return b.stdObject(name)
		}
		return nil
	}
	if bare, ok := stripStd(name); ok {
		if d := b.stdObject(bare); d != nil {
			return d
		}
	}
	if d, ok := b.scope.root().decls[name]; ok {
		return d
	}
	if q := b.qualified(name); q != name {
		if d, ok := b.scope.root().decls[q]; ok {
			return d
		}
	}
	return nil
}

// classNamed reports whether a callee name denotes a class, and its
// canonical spelling. Unresolved capitalized names are taken for classes
// declared in headers that were not followed.
func (b *builder) classNamed(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if e := b.scope.lookupType(name); e != nil {
		if e.kind == typeEnum {
			return "", false
		}
		t := ast.Type{Spelling: name, Canonical: e.typ.Canonical}
		return t.Canonical, isClassType(t)
	}
	if d := b.resolve(name); d != nil {
		return "", false
	}
	bare, std := stripStd(name)
	if std || (!strings.Contains(name, "::") && b.scope.seesStd(name)) {
		if c, ok := stdClasses[bare]; ok {
			return c, true
		}
		head := bare
		if i := strings.IndexByte(head, '<'); i > 0 {
			head = head[:i]
		}
		if stdTemplates[head] {
			return "std::" + bare, true
		}
		return "", false
	}
	last := lastComponent(name)
	if last == "" {
		return "", false
	}
	return name, unicode.IsUpper(rune(last[0]))
}

func (b *builder) call(n *sitter.Node) *ast.Node {
	callee := n.ChildByFieldName("function")
	args := b.exprs(namedChildren(n.ChildByFieldName("arguments")))
	if callee == nil {
		return &ast.Node{Kind: ast.KindOther, Begin: b.loc(n), End: b.endLoc(n), Args: args, Inner: args}
	}

	switch callee.Type() {
	case "field_expression":
		recv := b.expr(callee.ChildByFieldName("argument"))
		node := &ast.Node{
			Kind:     ast.KindMemberCall,
			Name:     b.text(callee.ChildByFieldName("field")),
			Operator: b.text(callee.ChildByFieldName("operator")),
			Begin:    b.loc(n),
			End:      b.endLoc(n),
			Sub:      recv,
			Args:     args,
		}
		node.Inner = append(one(recv), args...)
		return node
	case "identifier", "qualified_identifier", "template_function", "template_type":
		name := normalizeName(b.text(callee))
		if class, ok := b.classNamed(name); ok {
			ctor := b.construct(n, class, args)
			if len(args) != 1 {
				return ctor
			}
			cast := &ast.Node{Kind: ast.KindFunctionalCast, Name: class, Begin: b.loc(n), End: b.endLoc(n), Type: ctor.Type, Sub: ctor, Inner: one(ctor)}
			return cast
		}
		ref := b.reference(callee, name)
		node := &ast.Node{Kind: ast.KindCall, Name: lastComponent(name), Begin: b.loc(n), End: b.endLoc(n), Args: args}
		if ref.Ref != nil {
			t := ref.Ref.Type
			node.Type = &t
		}
		node.Inner = append(one(ref), args...)
		return node
	}

	target := b.expr(callee)
	node := &ast.Node{Kind: ast.KindCall, Begin: b.loc(n), End: b.endLoc(n), Args: args}
	node.Inner = append(one(target), args...)
	return node
}

// binary converts a binary expression. Shifts whose left operand is an
// object are overloaded stream operators.
func (b *builder) binary(n *sitter.Node) *ast.Node {
	op := b.text(n.ChildByFieldName("operator"))
	lhs := b.expr(n.ChildByFieldName("left"))
	rhs := b.expr(n.ChildByFieldName("right"))
	args := []*ast.Node{lhs, rhs}
	if lhs == nil || rhs == nil {
		args = nil
		if lhs != nil {
			args = append(args, lhs)
		}
		if rhs != nil {
			args = append(args, rhs)
		}
	}
	kind := ast.KindOther
	if (op == ">>" || op == "<<") && b.lang == ast.LangCPP && isObject(lhs) {
		kind = ast.KindOperatorCall
	}
	return &ast.Node{Kind: kind, Operator: op, Begin: b.loc(n), End: b.endLoc(n), Args: args, Inner: args}
}

// isObject reports whether an operand may have class type: a reference to a
// class object, a nested overloaded operator, or a name whose type is
// unknown.
func isObject(e *ast.Node) bool {
	e = ast.IgnoreParenImpCasts(e)
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.KindOperatorCall, ast.KindConstruct, ast.KindFunctionalCast:
		return true
	case ast.KindDeclRef:
		if e.Ref == nil {
			return true
		}
		return isClassType(e.Ref.Type) || strings.HasSuffix(strings.TrimSpace(e.Ref.Type.CanonicalOrSpelling()), "&")
	case ast.KindMember, ast.KindMemberCall, ast.KindCall:
		return e.Type == nil || isClassType(*e.Type)
	}
	return false
}

func (b *builder) newExpr(n *sitter.Node) *ast.Node {
	t := b.typeSpec(n.ChildByFieldName("type"))
	node := &ast.Node{Kind: ast.KindOther, Name: n.Type(), Begin: b.loc(n), End: b.endLoc(n), Type: &t}
	argsNode := n.ChildByFieldName("arguments")
	args := b.exprs(namedChildren(argsNode))
	if isClassType(t) {
		ctor := b.construct(n, t.CanonicalOrSpelling(), args)
		node.Sub = ctor
		node.Inner = one(ctor)
		return node
	}
	node.Args = args
	node.Inner = args
	return node
}

func (b *builder) lambda(n *sitter.Node) *ast.Node {
	decl := &ast.Decl{ID: b.id(n, "operator()"), Kind: ast.DeclFunction, Name: "operator()", Scope: ast.ScopeLocal, Loc: b.loc(n)}
	ret := ast.Type{Spelling: "auto", Canonical: "auto"}
	fn := &ast.Node{
		Kind:       ast.KindFunction,
		Name:       "operator()",
		Begin:      b.loc(n),
		End:        b.endLoc(n),
		Decl:       decl,
		ReturnType: &ret,
		TopLevel:   !b.scope.inFunction(),
		Lambda:     true,
	}

	outer := b.scope
	b.scope = newScope(outer, scopeFunction)
	defer func() { b.scope = outer }()

	if d := n.ChildByFieldName("declarator"); d != nil {
		for _, p := range b.params(d.ChildByFieldName("parameters")) {
			fn.Params = append(fn.Params, p.decl)
			fn.Inner = append(fn.Inner, p.node)
			b.scope.declare(p.decl)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = b.stmt(body)
		fn.Inner = append(fn.Inner, fn.Body)
	}
	return fn
}
