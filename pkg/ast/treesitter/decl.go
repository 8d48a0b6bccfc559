package treesitter

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// items converts the declarations directly under parent.
func (b *builder) items(parent *sitter.Node) []*ast.Node {
	var out []*ast.Node
	for _, c := range namedChildren(parent) {
		if b.err != nil {
			return out
		}
		out = append(out, b.item(c)...)
	}
	return out
}

func (b *builder) item(n *sitter.Node) []*ast.Node {
	switch n.Type() {
	case "function_definition":
		return one(b.function(n))
	case "declaration":
		return b.declaration(n)
	case "type_definition":
		return b.typedef(n)
	case "alias_declaration":
		return b.alias(n)
	case "struct_specifier", "class_specifier", "union_specifier", "enum_specifier":
		if n.ChildByFieldName("body") != nil {
			return one(b.tagDefinition(n))
		}
	case "namespace_definition":
		return one(b.namespace(n))
	case "linkage_specification":
		return b.linkage(n)
	case "template_declaration", "template_instantiation":
		return one(&ast.Node{Kind: ast.KindTemplate, Begin: b.loc(n), End: b.endLoc(n)})
	case "using_declaration":
		b.using(n)
	case "preproc_include":
		return b.include(n)
	case "preproc_if", "preproc_ifdef":
		return b.conditional(n, b.item)
	case "expression_statement", "compound_statement":
		// stray statements produced by macro-heavy code
		return one(b.stmt(n))
	}
	return nil
}

// conditional converts the first branch of a preprocessor conditional. Only
// one branch can be compiled; without evaluating the condition the first is
// the one include guards and feature tests rely on.
func (b *builder) conditional(n *sitter.Node, conv func(*sitter.Node) []*ast.Node) []*ast.Node {
	var out []*ast.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() {
			continue
		}
		switch n.FieldNameForChild(i) {
		case "name", "condition", "alternative":
			continue
		}
		out = append(out, conv(c)...)
	}
	return out
}

func one(n *ast.Node) []*ast.Node {
	if n == nil {
		return nil
	}
	return []*ast.Node{n}
}

func (b *builder) namespace(n *sitter.Node) *ast.Node {
	name := normalizeName(b.text(n.ChildByFieldName("name")))
	node := &ast.Node{Kind: ast.KindNamespace, Name: name, Begin: b.loc(n), End: b.endLoc(n)}

	parts := strings.Split(name, "::")
	if name == "" {
		parts = nil
	}
	for _, part := range parts {
		b.ns = append(b.ns, part)
	}
	std := len(b.ns) > 0 && b.ns[0] == "std"
	if std {
		b.inStd++
	}
	outer := b.scope
	b.scope = newScope(outer, scopeNamespace)

	node.Inner = b.items(n.ChildByFieldName("body"))

	// members of an unnamed namespace are visible in the enclosing scope
	if name == "" {
		for k, v := range b.scope.decls {
			if _, ok := outer.decls[k]; !ok {
				outer.decls[k] = v
			}
		}
		for k, v := range b.scope.types {
			if _, ok := outer.types[k]; !ok {
				outer.types[k] = v
			}
		}
	}
	b.scope = outer
	if std {
		b.inStd--
	}
	b.ns = b.ns[:len(b.ns)-len(parts)]
	return node
}

func (b *builder) linkage(n *sitter.Node) []*ast.Node {
	body := n.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Type() == "declaration_list" {
		return one(&ast.Node{Kind: ast.KindNamespace, Begin: b.loc(n), End: b.endLoc(n), Inner: b.items(body)})
	}
	return b.item(body)
}

func (b *builder) using(n *sitter.Node) {
	if hasChild(n, "namespace") {
		for _, c := range namedChildren(n) {
			if normalizeName(b.text(c)) == "std" {
				b.scope.usingStd = true
			}
		}
		return
	}
	for _, c := range namedChildren(n) {
		name := normalizeName(b.text(c))
		if bare, ok := stripStd(name); ok {
			b.scope.usingNames[bare] = true
		}
	}
}

// declInfo is what a declarator contributes to a declaration.
type declInfo struct {
	name      string
	qualified string
	nameNode  *sitter.Node
	typ       ast.Type
	fn        *sitter.Node // function_declarator of a function declaration
	init      *sitter.Node
	ctor      *ast.Node // constructor call recovered from a vexing parse
}

// declarator applies the declarator chain d to the base type t.
func (b *builder) declarator(t ast.Type, d *sitter.Node) declInfo {
	for d != nil {
		switch d.Type() {
		case "init_declarator":
			info := b.declarator(t, d.ChildByFieldName("declarator"))
			info.init = d.ChildByFieldName("value")
			return info
		case "pointer_declarator", "abstract_pointer_declarator":
			var quals []string
			for _, c := range namedChildren(d) {
				if c.Type() == "type_qualifier" {
					quals = append(quals, b.text(c))
				}
			}
			t = pointerTo(t, quals)
			d = d.ChildByFieldName("declarator")
		case "reference_declarator", "abstract_reference_declarator":
			op := "&"
			if hasChild(d, "&&") {
				op = "&&"
			}
			t = referenceTo(t, op)
			d = lastNamed(d)
		case "array_declarator", "abstract_array_declarator":
			t = arrayOf(t, normalizeName(b.text(d.ChildByFieldName("size"))))
			d = d.ChildByFieldName("declarator")
		case "parenthesized_declarator", "attributed_declarator", "abstract_parenthesized_declarator":
			d = firstDeclarator(d)
		case "function_declarator", "abstract_function_declarator":
			inner := d.ChildByFieldName("declarator")
			for inner != nil && strings.HasPrefix(inner.Type(), "parenthesized_declarator") {
				inner = firstDeclarator(inner)
			}
			if inner != nil && (inner.Type() == "pointer_declarator" || inner.Type() == "reference_declarator") {
				t = b.functionPointer(t, d.ChildByFieldName("parameters"))
				if inner.Type() == "pointer_declarator" {
					d = inner.ChildByFieldName("declarator")
				} else {
					d = lastNamed(inner)
				}
				continue
			}
			info := b.declarator(t, inner)
			info.fn = d
			return info
		case "identifier", "field_identifier", "type_identifier", "destructor_name", "operator_name", "namespace_identifier":
			name := b.text(d)
			return declInfo{name: name, qualified: name, nameNode: d, typ: t}
		case "qualified_identifier", "template_function", "operator_cast":
			q := normalizeName(b.text(d))
			return declInfo{name: lastComponent(q), qualified: q, nameNode: d, typ: t}
		default:
			return declInfo{typ: t}
		}
	}
	return declInfo{typ: t}
}

func (b *builder) functionPointer(ret ast.Type, params *sitter.Node) ast.Type {
	var spelled, canonical []string
	for _, p := range b.params(params) {
		spelled = append(spelled, p.decl.Type.Spelling)
		canonical = append(canonical, p.decl.Type.CanonicalOrSpelling())
	}
	return ast.Type{
		Spelling:  ret.Spelling + " (*)(" + strings.Join(spelled, ", ") + ")",
		Canonical: ret.CanonicalOrSpelling() + " (*)(" + strings.Join(canonical, ", ") + ")",
	}
}

func lastNamed(n *sitter.Node) *sitter.Node {
	if n == nil || n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(int(n.NamedChildCount()) - 1)
}

func firstDeclarator(n *sitter.Node) *sitter.Node {
	for _, c := range namedChildren(n) {
		if c.Type() != "attribute_declaration" && c.Type() != "ms_call_modifier" {
			return c
		}
	}
	return nil
}

// baseType reads the type specifier and cv-qualifiers of a declaration-like
// node.
func (b *builder) baseType(n *sitter.Node) ast.Type {
	var quals []string
	for _, c := range namedChildren(n) {
		if c.Type() == "type_qualifier" {
			if q := b.text(c); q == "const" || q == "volatile" {
				quals = append(quals, q)
			}
		}
	}
	return qualify(b.typeSpec(n.ChildByFieldName("type")), quals)
}

func (b *builder) typeSpec(spec *sitter.Node) ast.Type {
	if spec == nil {
		return ast.Type{Spelling: "int", Canonical: "int"}
	}
	switch spec.Type() {
	case "primitive_type":
		name := b.text(spec)
		if c, ok := builtinTypedefs[name]; ok {
			return ast.Type{Spelling: name, Canonical: c}
		}
		return ast.Type{Spelling: name, Canonical: name}
	case "sized_type_specifier":
		s := sizedSpelling(strings.Fields(b.text(spec)))
		return ast.Type{Spelling: s, Canonical: s}
	case "type_identifier", "qualified_identifier", "template_type", "scoped_type_identifier":
		return b.namedType(normalizeName(b.text(spec)))
	case "struct_specifier", "class_specifier", "union_specifier":
		return b.tagType(spec, strings.TrimSuffix(spec.Type(), "_specifier"))
	case "enum_specifier":
		return b.tagType(spec, "enum")
	case "placeholder_type_specifier", "auto":
		return ast.Type{Spelling: "auto", Canonical: "auto"}
	}
	s := normalizeName(b.text(spec))
	return ast.Type{Spelling: s, Canonical: s}
}

// namedType resolves a type name through the visible typedefs, records and
// enums, then the std and builtin tables.
func (b *builder) namedType(name string) ast.Type {
	if e := b.scope.lookupType(name); e != nil {
		return ast.Type{Spelling: name, Canonical: e.typ.Canonical, Enum: e.typ.Enum}
	}
	bare, std := stripStd(name)
	if !std && !strings.Contains(name, "::") && b.scope.seesStd(name) {
		std = true
	}
	if std {
		if c, ok := stdClasses[bare]; ok {
			return ast.Type{Spelling: name, Canonical: c}
		}
		if c, ok := builtinTypedefs[bare]; ok {
			return ast.Type{Spelling: name, Canonical: c}
		}
		if i := strings.IndexByte(bare, '<'); i > 0 && stdTemplates[bare[:i]] {
			return ast.Type{Spelling: name, Canonical: "std::" + bare}
		}
	}
	if c, ok := builtinTypedefs[name]; ok {
		return ast.Type{Spelling: name, Canonical: c}
	}
	return ast.Type{Spelling: name, Canonical: name}
}

// tagType is the type named by a struct/class/union/enum specifier,
// registering the definition when the specifier has a body.
func (b *builder) tagType(spec *sitter.Node, keyword string) ast.Type {
	if e := b.anon[b.anonKey(spec)]; e != nil {
		return e.typ
	}
	name := normalizeName(b.text(spec.ChildByFieldName("name")))
	if name == "" {
		if spec.ChildByFieldName("body") != nil {
			b.tagDefinition(spec)
			if e := b.anon[b.anonKey(spec)]; e != nil {
				return e.typ
			}
		}
		s := "(anonymous " + keyword + ")"
		return ast.Type{Spelling: s, Canonical: s}
	}
	if spec.ChildByFieldName("body") != nil && b.scope.lookupType(name) == nil {
		b.tagDefinition(spec)
	}
	written := keyword + " " + name
	if e := b.scope.lookupType(name); e != nil {
		return ast.Type{Spelling: written, Canonical: e.typ.Canonical, Enum: e.typ.Enum}
	}
	if b.lang == ast.LangC {
		return ast.Type{Spelling: written, Canonical: written}
	}
	return ast.Type{Spelling: written, Canonical: b.qualified(name)}
}

func (b *builder) anonKey(spec *sitter.Node) string {
	return b.cur.path + "#" + strconv.Itoa(int(spec.StartByte()))
}

// tagDefinition registers a struct/class/union/enum with a body.
func (b *builder) tagDefinition(spec *sitter.Node) *ast.Node {
	if spec.Type() == "enum_specifier" {
		return b.enumDefinition(spec)
	}
	return b.recordDefinition(spec)
}

func (b *builder) tagCanonical(keyword, name string) string {
	if b.lang == ast.LangC {
		return keyword + " " + name
	}
	return b.qualified(name)
}

func (b *builder) registerTag(spec *sitter.Node, name string, e *typeEntry) {
	if name == "" {
		b.anon[b.anonKey(spec)] = e
		return
	}
	b.scope.declareType(name, e)
	if q := b.qualified(name); q != name {
		b.scope.root().declareType(q, e)
	}
}

func (b *builder) enumDefinition(spec *sitter.Node) *ast.Node {
	name := normalizeName(b.text(spec.ChildByFieldName("name")))
	scoped := hasChild(spec, "class") || hasChild(spec, "struct")

	info := &ast.EnumInfo{Name: lastComponent(name)}
	typ := ast.Type{Enum: info}
	if name == "" {
		typ.Spelling, typ.Canonical = "(anonymous enum)", "(anonymous enum)"
	} else {
		typ.Spelling = name
		if b.lang == ast.LangC {
			typ.Spelling = "enum " + name
		}
		typ.Canonical = b.tagCanonical("enum", name)
	}
	entry := &typeEntry{kind: typeEnum, typ: typ}
	b.registerTag(spec, name, entry)

	node := &ast.Node{Kind: ast.KindEnum, Name: info.Name, Begin: b.loc(spec), End: b.endLoc(spec), Type: &entry.typ}
	body := spec.ChildByFieldName("body")
	for _, c := range namedChildren(body) {
		if c.Type() != "enumerator" {
			continue
		}
		nameNode := c.ChildByFieldName("name")
		enumerator := b.text(nameNode)
		info.Enumerators = append(info.Enumerators, enumerator)
		decl := &ast.Decl{
			ID:    b.id(nameNode, enumerator),
			Kind:  ast.DeclEnumerator,
			Name:  enumerator,
			Type:  typ,
			Scope: ast.ScopeFile,
			InStd: b.inStd > 0,
			Loc:   b.loc(nameNode),
		}
		if !scoped {
			b.scope.declare(decl)
		}
		if info.Name != "" {
			b.scope.root().decls[b.qualified(info.Name)+"::"+enumerator] = decl
		}
	}
	return node
}

func (b *builder) recordDefinition(spec *sitter.Node) *ast.Node {
	keyword := strings.TrimSuffix(spec.Type(), "_specifier")
	name := normalizeName(b.text(spec.ChildByFieldName("name")))

	typ := ast.Type{Spelling: "(anonymous " + keyword + ")", Canonical: "(anonymous " + keyword + ")"}
	if name != "" {
		typ.Spelling = name
		if b.lang == ast.LangC {
			typ.Spelling = keyword + " " + name
		}
		typ.Canonical = b.tagCanonical(keyword, name)
	}
	entry := &typeEntry{kind: typeRecord, typ: typ}
	b.registerTag(spec, name, entry)

	node := &ast.Node{Kind: ast.KindRecord, Name: lastComponent(name), Begin: b.loc(spec), End: b.endLoc(spec), Type: &entry.typ}

	outer := b.scope
	b.scope = newScope(outer, scopeRecord)
	defer func() { b.scope = outer }()

	for _, c := range namedChildren(spec.ChildByFieldName("body")) {
		switch c.Type() {
		case "function_definition":
			if fn := b.function(c); fn != nil {
				fn.Decl.Scope = ast.ScopeMember
				node.Inner = append(node.Inner, fn)
			}
		case "template_declaration":
			node.Inner = append(node.Inner, &ast.Node{Kind: ast.KindTemplate, Begin: b.loc(c), End: b.endLoc(c)})
		case "struct_specifier", "class_specifier", "union_specifier", "enum_specifier":
			if c.ChildByFieldName("body") != nil {
				node.Inner = append(node.Inner, b.tagDefinition(c))
			}
		case "field_declaration", "declaration":
			if t := c.ChildByFieldName("type"); t != nil && t.ChildByFieldName("body") != nil && isTag(t) {
				node.Inner = append(node.Inner, b.tagDefinition(t))
			}
		case "type_definition":
			node.Inner = append(node.Inner, b.typedef(c)...)
		case "alias_declaration":
			node.Inner = append(node.Inner, b.alias(c)...)
		}
	}
	return node
}

func isTag(n *sitter.Node) bool {
	switch n.Type() {
	case "struct_specifier", "class_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

func (b *builder) typedef(n *sitter.Node) []*ast.Node {
	var out []*ast.Node
	spec := n.ChildByFieldName("type")
	if spec != nil && isTag(spec) && spec.ChildByFieldName("body") != nil {
		out = append(out, b.tagDefinition(spec))
	}
	base := b.baseType(n)
	for _, d := range fieldChildren(n, "declarator") {
		info := b.declarator(base, d)
		if info.name == "" {
			continue
		}
		out = append(out, b.defineAlias(n, info.name, info.typ))
	}
	return out
}

func (b *builder) alias(n *sitter.Node) []*ast.Node {
	name := b.text(n.ChildByFieldName("name"))
	td := n.ChildByFieldName("type")
	if name == "" || td == nil {
		return nil
	}
	t := b.baseType(td)
	if d := td.ChildByFieldName("declarator"); d != nil {
		t = b.declarator(t, d).typ
	}
	return one(b.defineAlias(n, name, t))
}

func (b *builder) defineAlias(n *sitter.Node, name string, t ast.Type) *ast.Node {
	if strings.HasPrefix(t.Canonical, "(anonymous") {
		t.Canonical = b.qualified(name)
		if t.Enum != nil && t.Enum.Name == "" {
			t.Enum.Name = name
		}
	}
	entry := &typeEntry{kind: typeAlias, typ: ast.Type{Spelling: name, Canonical: t.Canonical, Enum: t.Enum}}
	if t.Enum != nil {
		entry.kind = typeEnum
	}
	b.scope.declareType(name, entry)
	if q := b.qualified(name); q != name {
		b.scope.root().declareType(q, entry)
	}
	return &ast.Node{Kind: ast.KindTypedef, Name: name, Begin: b.loc(n), End: b.endLoc(n), Type: &entry.typ}
}

type param struct {
	decl *ast.Decl
	node *ast.Node
}

// params converts a parameter_list. A lone unnamed void parameter means no
// parameters.
func (b *builder) params(list *sitter.Node) []param {
	var out []param
	for _, c := range namedChildren(list) {
		switch c.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		base := b.baseType(c)
		info := b.declarator(base, c.ChildByFieldName("declarator"))
		if info.fn != nil {
			// a parameter of function type is adjusted to a function pointer
			info.typ = b.functionPointer(info.typ, info.fn.ChildByFieldName("parameters"))
		}
		t := decay(info.typ)
		if info.name == "" && t.Spelling == "void" {
			continue
		}
		at := c
		if info.nameNode != nil {
			at = info.nameNode
		}
		decl := &ast.Decl{
			ID:    b.id(at, info.name),
			Kind:  ast.DeclParam,
			Name:  info.name,
			Type:  t,
			Scope: ast.ScopeParam,
			Loc:   b.loc(at),
		}
		node := &ast.Node{Kind: ast.KindParam, Name: info.name, Begin: b.loc(c), End: b.endLoc(c), Decl: decl}
		if def := c.ChildByFieldName("default_value"); def != nil {
			node.Sub = b.expr(def)
			node.Inner = one(node.Sub)
		}
		out = append(out, param{decl: decl, node: node})
	}
	return out
}

func (b *builder) function(n *sitter.Node) *ast.Node {
	ret := b.baseType(n)
	info := b.declarator(ret, n.ChildByFieldName("declarator"))
	if info.fn == nil {
		return nil
	}
	if n.ChildByFieldName("type") == nil {
		ret = ast.Type{Spelling: "void", Canonical: "void"}
	} else {
		ret = info.typ
	}

	at := n
	if info.nameNode != nil {
		at = info.nameNode
	}
	decl := &ast.Decl{
		ID:    b.id(at, info.qualified),
		Kind:  ast.DeclFunction,
		Name:  info.name,
		Type:  ret,
		Scope: ast.ScopeFile,
		InStd: b.inStd > 0,
		Loc:   b.loc(at),
	}
	if b.scope.inFunction() {
		decl.Scope = ast.ScopeLocal
	}
	if !strings.Contains(info.qualified, "::") {
		b.scope.declare(decl)
		if q := b.qualified(info.name); q != info.name {
			b.scope.root().decls[q] = decl
		}
	}

	fn := &ast.Node{
		Kind:       ast.KindFunction,
		Name:       info.name,
		Begin:      b.loc(n),
		End:        b.endLoc(n),
		Decl:       decl,
		ReturnType: &ret,
		TopLevel:   !b.scope.inFunction(),
	}

	outer := b.scope
	b.scope = newScope(outer, scopeFunction)
	defer func() { b.scope = outer }()

	for _, p := range b.params(info.fn.ChildByFieldName("parameters")) {
		fn.Params = append(fn.Params, p.decl)
		fn.Inner = append(fn.Inner, p.node)
		b.scope.declare(p.decl)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		fn.Body = b.stmt(body)
		fn.Inner = append(fn.Inner, fn.Body)
	}
	return fn
}

// declaration converts a declaration statement: variables, prototypes and
// any tag it defines.
func (b *builder) declaration(n *sitter.Node) []*ast.Node {
	var out []*ast.Node
	spec := n.ChildByFieldName("type")
	if spec != nil && isTag(spec) && spec.ChildByFieldName("body") != nil {
		out = append(out, b.tagDefinition(spec))
	}
	base := b.baseType(n)
	for _, d := range fieldChildren(n, "declarator") {
		info := b.declarator(base, d)
		if info.fn != nil && b.scope.inFunction() && isClassType(info.typ) {
			if args, ok := b.vexingArgs(info.fn); ok {
				info.ctor = b.construct(info.fn, info.typ.CanonicalOrSpelling(), args)
				info.fn = nil
			}
		}
		if info.fn != nil {
			out = append(out, b.prototype(n, info))
			continue
		}
		if info.name == "" {
			continue
		}
		out = append(out, b.variable(n, info))
	}
	return out
}

func (b *builder) prototype(n *sitter.Node, info declInfo) *ast.Node {
	ret := info.typ
	at := n
	if info.nameNode != nil {
		at = info.nameNode
	}
	decl := &ast.Decl{
		ID:    b.id(at, info.qualified),
		Kind:  ast.DeclFunction,
		Name:  info.name,
		Type:  ret,
		Scope: ast.ScopeFile,
		InStd: b.inStd > 0,
		Loc:   b.loc(at),
	}
	if b.scope.lookup(info.name) == nil {
		b.scope.declare(decl)
	}
	fn := &ast.Node{Kind: ast.KindFunction, Name: info.name, Begin: b.loc(n), End: b.endLoc(n), Decl: decl, ReturnType: &ret, TopLevel: !b.scope.inFunction()}
	for _, p := range b.params(info.fn.ChildByFieldName("parameters")) {
		fn.Params = append(fn.Params, p.decl)
		fn.Inner = append(fn.Inner, p.node)
	}
	return fn
}

func (b *builder) variable(n *sitter.Node, info declInfo) *ast.Node {
	decl := &ast.Decl{
		ID:    b.id(info.nameNode, info.qualified),
		Kind:  ast.DeclVar,
		Name:  info.name,
		Type:  info.typ,
		Scope: ast.ScopeFile,
		InStd: b.inStd > 0,
		Loc:   b.loc(info.nameNode),
	}
	if b.scope.inFunction() {
		decl.Scope = ast.ScopeLocal
	}
	node := &ast.Node{Kind: ast.KindVar, Name: info.name, Begin: b.loc(n), End: b.endLoc(n), Decl: decl}
	switch {
	case info.ctor != nil:
		decl.Init = info.ctor
	case info.init != nil:
		decl.Init = b.initializer(info.typ, info.init)
	}
	if decl.Init != nil {
		node.Sub = decl.Init
		node.Inner = one(decl.Init)
	}
	// declared after the initializer so "int x = x;" does not resolve to itself
	b.scope.declare(decl)
	if q := b.qualified(info.name); q != info.name && decl.Scope == ast.ScopeFile {
		b.scope.root().decls[q] = decl
	}
	if decl.Scope == ast.ScopeFile {
		b.globals = append(b.globals, decl)
	}
	return node
}

// initializer converts the value of an init_declarator for a variable of
// type t. Class objects get an explicit construct node the way a compiler
// would model them.
func (b *builder) initializer(t ast.Type, value *sitter.Node) *ast.Node {
	class := isClassType(t)
	switch value.Type() {
	case "argument_list":
		args := b.exprs(namedChildren(value))
		if class {
			return b.construct(value, t.CanonicalOrSpelling(), args)
		}
		if len(args) == 1 {
			return args[0]
		}
		return &ast.Node{Kind: ast.KindOther, Begin: b.loc(value), End: b.endLoc(value), Args: args, Inner: args}
	case "initializer_list":
		args := b.exprs(namedChildren(value))
		if class {
			return b.construct(value, t.CanonicalOrSpelling(), args)
		}
		return &ast.Node{Kind: ast.KindInitList, Begin: b.loc(value), End: b.endLoc(value), Args: args, Inner: args}
	}

	e := b.expr(value)
	if !class || e == nil {
		return e
	}
	if inner := ast.IgnoreParenImpCasts(e); inner != nil {
		switch inner.Kind {
		case ast.KindConstruct, ast.KindFunctionalCast:
			if ast.ClassName(inner.Name) == ast.ClassName(t.CanonicalOrSpelling()) || inner.Kind == ast.KindFunctionalCast {
				return e
			}
		}
	}
	return b.construct(value, t.CanonicalOrSpelling(), []*ast.Node{e})
}

// vexingArgs recovers the arguments of "T x(a, b);" when the grammar read
// it as a function declaration: every parameter must be a lone name that
// resolves to a variable in scope.
func (b *builder) vexingArgs(fn *sitter.Node) ([]*ast.Node, bool) {
	params := namedChildren(fn.ChildByFieldName("parameters"))
	if len(params) == 0 {
		return nil, false
	}
	args := make([]*ast.Node, 0, len(params))
	for _, p := range params {
		if p.Type() != "parameter_declaration" || p.ChildByFieldName("declarator") != nil {
			return nil, false
		}
		t := p.ChildByFieldName("type")
		if t == nil || t.Type() != "type_identifier" {
			return nil, false
		}
		name := b.text(t)
		d := b.scope.lookup(name)
		if !d.IsVariable() || b.scope.lookupType(name) != nil {
			return nil, false
		}
		args = append(args, b.reference(t, name))
	}
	return args, true
}

func (b *builder) construct(at *sitter.Node, class string, args []*ast.Node) *ast.Node {
	t := ast.Type{Spelling: class, Canonical: class}
	return &ast.Node{Kind: ast.KindConstruct, Name: class, Begin: b.loc(at), End: b.endLoc(at), Type: &t, Args: args, Inner: args}
}
