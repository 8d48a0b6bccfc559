package clangjson

import (
	"strings"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

var kinds = map[string]ast.Kind{
	"TranslationUnitDecl": ast.KindTranslationUnit,

	"FunctionDecl":       ast.KindFunction,
	"CXXMethodDecl":      ast.KindFunction,
	"CXXConstructorDecl": ast.KindFunction,
	"CXXDestructorDecl":  ast.KindFunction,
	"CXXConversionDecl":  ast.KindFunction,
	"VarDecl":            ast.KindVar,
	"ParmVarDecl":        ast.KindParam,
	"EnumDecl":           ast.KindEnum,
	"RecordDecl":         ast.KindRecord,
	"CXXRecordDecl":      ast.KindRecord,
	"NamespaceDecl":      ast.KindNamespace,
	"LinkageSpecDecl":    ast.KindNamespace,
	"TypedefDecl":        ast.KindTypedef,
	"TypeAliasDecl":      ast.KindTypedef,

	"FunctionTemplateDecl":                   ast.KindTemplate,
	"ClassTemplateDecl":                      ast.KindTemplate,
	"ClassTemplateSpecializationDecl":        ast.KindTemplate,
	"ClassTemplatePartialSpecializationDecl": ast.KindTemplate,
	"VarTemplateDecl":                        ast.KindTemplate,
	"VarTemplateSpecializationDecl":          ast.KindTemplate,
	"TypeAliasTemplateDecl":                  ast.KindTemplate,

	"CompoundStmt": ast.KindCompound,

	"CallExpr":               ast.KindCall,
	"CXXOperatorCallExpr":    ast.KindOperatorCall,
	"CXXMemberCallExpr":      ast.KindMemberCall,
	"CXXConstructExpr":       ast.KindConstruct,
	"CXXTemporaryObjectExpr": ast.KindConstruct,
	"DeclRefExpr":            ast.KindDeclRef,
	"MemberExpr":             ast.KindMember,
	"UnaryOperator":          ast.KindUnary,

	"ParenExpr":                ast.KindParen,
	"ImplicitCastExpr":         ast.KindImplicitCast,
	"CStyleCastExpr":           ast.KindCast,
	"CXXStaticCastExpr":        ast.KindCast,
	"CXXReinterpretCastExpr":   ast.KindCast,
	"CXXConstCastExpr":         ast.KindCast,
	"CXXDynamicCastExpr":       ast.KindCast,
	"CXXFunctionalCastExpr":    ast.KindFunctionalCast,
	"CXXBindTemporaryExpr":     ast.KindBindTemporary,
	"MaterializeTemporaryExpr": ast.KindMaterializeTemporary,
	"ExprWithCleanups":         ast.KindCleanups,

	"StringLiteral":    ast.KindStringLiteral,
	"CharacterLiteral": ast.KindCharLiteral,
	"InitListExpr":     ast.KindInitList,
}

// wrappers are the kinds whose single operand becomes Sub.
var wrappers = map[ast.Kind]bool{
	ast.KindUnary:                true,
	ast.KindParen:                true,
	ast.KindImplicitCast:         true,
	ast.KindCast:                 true,
	ast.KindFunctionalCast:       true,
	ast.KindBindTemporary:        true,
	ast.KindMaterializeTemporary: true,
	ast.KindCleanups:             true,
	ast.KindMember:               true,
}

func (d *decoder) node(n *rawNode) *ast.Node {
	if n == nil {
		return nil
	}
	if n.Kind == "LambdaExpr" {
		return d.lambda(n)
	}
	kind := kinds[n.Kind]
	out := &ast.Node{
		Kind:     kind,
		Begin:    d.begin(n),
		End:      d.end(n),
		Implicit: n.IsImplicit,
		Name:     n.Name,
		Operator: n.Opcode,
	}
	if n.Type != nil {
		t := d.typeOf(n.Type)
		out.Type = &t
	}

	switch kind {
	case ast.KindNamespace:
		std := d.inStd() || (n.Kind == "NamespaceDecl" && n.Name == "std" && d.qualifiedName("") == "")
		d.nsStd = append(d.nsStd, std)
		d.nsNames = append(d.nsNames, n.Name)
		out.Inner = d.nodes(n.Inner)
		d.nsStd = d.nsStd[:len(d.nsStd)-1]
		d.nsNames = d.nsNames[:len(d.nsNames)-1]
		return out
	case ast.KindTemplate:
		d.tmplDep++
		out.Inner = d.nodes(n.Inner)
		d.tmplDep--
		return out
	case ast.KindRecord:
		d.recDepth++
		out.Decl = d.declare(n, ast.ScopeFile)
		out.Inner = d.nodes(n.Inner)
		d.recDepth--
		return out
	case ast.KindEnum:
		return d.enum(n, out)
	case ast.KindTypedef:
		d.typedef(n)
		out.Decl = d.declare(n, ast.ScopeFile)
		out.Inner = d.nodes(n.Inner)
		return out
	case ast.KindFunction:
		return d.function(n, out)
	case ast.KindVar:
		return d.variable(n, out)
	case ast.KindParam:
		out.Decl = d.declare(n, ast.ScopeParam)
		out.Inner = d.nodes(n.Inner)
		return out
	}

	out.Inner = d.nodes(n.Inner)
	switch kind {
	case ast.KindCall:
		if callee := ast.IgnoreParenImpCasts(first(out.Inner)); callee != nil && callee.Kind == ast.KindDeclRef {
			out.Name = callee.Name
		}
		out.Args = rest(out.Inner)
	case ast.KindOperatorCall:
		if callee := ast.IgnoreParenImpCasts(first(out.Inner)); callee != nil {
			out.Operator = strings.TrimSpace(strings.TrimPrefix(callee.Name, "operator"))
		}
		out.Args = rest(out.Inner)
	case ast.KindMemberCall:
		if m := ast.IgnoreParenImpCasts(first(out.Inner)); m != nil && m.Kind == ast.KindMember {
			out.Name = m.Name
			out.Sub = m.Sub
		}
		out.Args = rest(out.Inner)
	case ast.KindConstruct:
		if out.Type != nil {
			out.Name = out.Type.CanonicalOrSpelling()
		}
		out.Args = out.Inner
	case ast.KindDeclRef:
		out.Ref = d.referenced(n.ReferencedDecl)
		if out.Ref != nil {
			out.Name = out.Ref.Name
		}
	case ast.KindInitList:
		out.Args = out.Inner
	case ast.KindStringLiteral:
		if s, ok := n.stringValue(); ok {
			out.Value = ast.UnquoteLiteral(s, '"')
		}
	case ast.KindCharLiteral:
		if v, ok := n.intValue(); ok {
			out.Value = string(rune(v))
			if v >= 0 && v < 256 {
				out.Value = string([]byte{byte(v)})
			}
		}
	}
	if wrappers[kind] {
		out.Sub = first(out.Inner)
	}
	return out
}

func (d *decoder) nodes(in []*rawNode) []*ast.Node {
	if len(in) == 0 {
		return nil
	}
	out := make([]*ast.Node, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, d.node(c))
	}
	return out
}

func first(nodes []*ast.Node) *ast.Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func rest(nodes []*ast.Node) []*ast.Node {
	if len(nodes) < 2 {
		return nil
	}
	return nodes[1:]
}

// declare fills the declaration with clang id n.ID from the declaring node.
func (d *decoder) declare(n *rawNode, scope ast.Scope) *ast.Decl {
	decl := d.declFor(n.ID)
	decl.Kind = declKind(n.Kind)
	decl.Name = n.Name
	decl.Type = d.typeOf(n.Type)
	decl.Scope = scope
	decl.InStd = d.inStd()
	decl.Loc = d.location(n.Loc)
	return decl
}

func (d *decoder) scopeHere() ast.Scope {
	switch {
	case d.fnDepth > 0:
		return ast.ScopeLocal
	case d.recDepth > 0:
		return ast.ScopeMember
	default:
		return ast.ScopeFile
	}
}

func (d *decoder) function(n *rawNode, out *ast.Node) *ast.Node {
	scope := ast.ScopeFile
	if n.Kind != "FunctionDecl" {
		scope = ast.ScopeMember
	}
	out.Decl = d.declare(n, scope)
	out.TopLevel = d.fnDepth == 0
	if n.Type != nil {
		ret := ast.Type{
			Spelling:  returnType(n.Type.QualType),
			Canonical: returnType(n.Type.Desugared),
		}
		if ret.Canonical == "" {
			ret.Canonical = ret.Spelling
		}
		ret.Enum = d.enumFor(ret)
		out.ReturnType = &ret
	}

	d.fnDepth++
	defer func() { d.fnDepth-- }()
	for _, c := range n.Inner {
		child := d.node(c)
		out.Inner = append(out.Inner, child)
		switch c.Kind {
		case "ParmVarDecl":
			out.Params = append(out.Params, child.Decl)
		case "CompoundStmt", "CXXTryStmt":
			out.Body = child
		}
	}
	return out
}

func (d *decoder) variable(n *rawNode, out *ast.Node) *ast.Node {
	scope := d.scopeHere()
	out.Decl = d.declare(n, scope)
	out.Inner = d.nodes(n.Inner)
	if n.Init != "" {
		for i := len(out.Inner) - 1; i >= 0; i-- {
			if !strings.HasSuffix(n.Inner[i].Kind, "Attr") {
				out.Sub = out.Inner[i]
				break
			}
		}
		out.Decl.Init = out.Sub
	}
	if scope == ast.ScopeFile && d.tmplDep == 0 && !n.IsImplicit {
		d.globals = append(d.globals, out.Decl)
	}
	return out
}

func (d *decoder) enum(n *rawNode, out *ast.Node) *ast.Node {
	info := &ast.EnumInfo{Name: n.Name}
	d.enumByID[n.ID] = info
	if n.Name != "" {
		d.enums[n.Name] = info
		if q := d.qualifiedName(n.Name); q != n.Name {
			d.enums[q] = info
		}
	}
	out.Decl = d.declare(n, ast.ScopeFile)
	out.Decl.Type = ast.Type{Spelling: n.Name, Canonical: n.Name, Enum: info}
	if d.lang == ast.LangC && n.Name != "" {
		out.Decl.Type.Spelling = "enum " + n.Name
		out.Decl.Type.Canonical = out.Decl.Type.Spelling
	}
	out.Type = &out.Decl.Type

	for _, c := range n.Inner {
		child := d.node(c)
		out.Inner = append(out.Inner, child)
		if c.Kind == "EnumConstantDecl" {
			info.Enumerators = append(info.Enumerators, c.Name)
			child.Decl = d.declare(c, ast.ScopeFile)
			child.Decl.Type.Enum = info
		}
	}
	return out
}

// typedef registers aliases of enumerations, naming anonymous ones.
func (d *decoder) typedef(n *rawNode) {
	ref := findEnumRef(n)
	if ref == nil {
		return
	}
	info := d.enumByID[ref.ID]
	if info == nil {
		return
	}
	if info.Name == "" {
		info.Name = n.Name
	}
	d.typedefEnums[n.Name] = info
}

func findEnumRef(n *rawNode) *rawDeclRef {
	for _, ref := range []*rawDeclRef{n.Decl, n.OwnedTagDecl} {
		if ref != nil && ref.Kind == "EnumDecl" {
			return ref
		}
	}
	for _, c := range n.Inner {
		if ref := findEnumRef(c); ref != nil {
			return ref
		}
	}
	return nil
}

// qualifiedName prefixes name with the enclosing named namespaces.
func (d *decoder) qualifiedName(name string) string {
	parts := make([]string, 0, len(d.nsNames)+1)
	for _, ns := range d.nsNames {
		if ns != "" {
			parts = append(parts, ns)
		}
	}
	return strings.Join(append(parts, name), "::")
}

// lambda keeps only the call operator of the closure class, as a nested
// function definition.
func (d *decoder) lambda(n *rawNode) *ast.Node {
	out := &ast.Node{Kind: ast.KindOther, Begin: d.begin(n), End: d.end(n)}
	var body *rawNode
	for _, c := range n.Inner {
		if c.Kind == "CompoundStmt" {
			body = c
		}
	}
	for _, c := range n.Inner {
		if c.Kind != "CXXRecordDecl" {
			continue
		}
		for _, m := range c.Inner {
			if m.Kind != "CXXMethodDecl" || m.Name != "operator()" {
				continue
			}
			fn := d.node(m)
			fn.Implicit = false
			fn.Lambda = true
			fn.Decl.Scope = ast.ScopeLocal
			if fn.Body == nil && body != nil {
				d.fnDepth++
				fn.Body = d.node(body)
				d.fnDepth--
				fn.Inner = append(fn.Inner, fn.Body)
			}
			out.Inner = append(out.Inner, fn)
		}
	}
	return out
}
