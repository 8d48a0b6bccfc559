package ast

// Kind discriminates the node variants of the resolved tree.
type Kind int

const (
	KindOther Kind = iota
	KindTranslationUnit
	KindFunction  // function or method; Decl describes it, Body is set for definitions
	KindVar       // variable declaration; Decl describes it, Sub is the initializer
	KindParam     // parameter declaration
	KindEnum      // enumeration declaration
	KindRecord    // class, struct or union
	KindNamespace // namespace or linkage block
	KindTemplate  // template pattern or instantiation; never visited
	KindTypedef

	KindCompound // block statement

	KindCall         // free function call; Name is the callee, Args the arguments
	KindOperatorCall // overloaded operator call; Operator is ">>" etc., Args the operands
	KindMemberCall   // method call; Name is the method, Sub the receiver expression
	KindConstruct    // constructor call; Name is the constructed class, Args the arguments
	KindDeclRef      // name reference; Ref is the referenced declaration
	KindMember       // member access; Name is the member, Sub the base
	KindUnary        // unary operator; Operator is "&", "*", "-" ..., Sub the operand

	KindParen
	KindImplicitCast
	KindCast // explicit C-style or named cast
	KindFunctionalCast
	KindBindTemporary
	KindMaterializeTemporary
	KindCleanups

	KindStringLiteral // Value is the decoded string
	KindCharLiteral   // Value is the decoded character
	KindInitList      // Args are the initializers
)

var kindNames = map[Kind]string{
	KindOther:                "Other",
	KindTranslationUnit:      "TranslationUnit",
	KindFunction:             "Function",
	KindVar:                  "Var",
	KindParam:                "Param",
	KindEnum:                 "Enum",
	KindRecord:               "Record",
	KindNamespace:            "Namespace",
	KindTemplate:             "Template",
	KindTypedef:              "Typedef",
	KindCompound:             "Compound",
	KindCall:                 "Call",
	KindOperatorCall:         "OperatorCall",
	KindMemberCall:           "MemberCall",
	KindConstruct:            "Construct",
	KindDeclRef:              "DeclRef",
	KindMember:               "Member",
	KindUnary:                "Unary",
	KindParen:                "Paren",
	KindImplicitCast:         "ImplicitCast",
	KindCast:                 "Cast",
	KindFunctionalCast:       "FunctionalCast",
	KindBindTemporary:        "BindTemporary",
	KindMaterializeTemporary: "MaterializeTemporary",
	KindCleanups:             "Cleanups",
	KindStringLiteral:        "StringLiteral",
	KindCharLiteral:          "CharLiteral",
	KindInitList:             "InitList",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// DeclKind classifies declarations referenced from the tree.
type DeclKind string

const (
	DeclVar        DeclKind = "var"
	DeclParam      DeclKind = "param"
	DeclFunction   DeclKind = "function"
	DeclEnum       DeclKind = "enum"
	DeclEnumerator DeclKind = "enumerator"
	DeclRecord     DeclKind = "record"
	DeclField      DeclKind = "field"
	DeclTypedef    DeclKind = "typedef"
)

// Scope says where a declaration lives.
type Scope string

const (
	ScopeFile   Scope = "file" // translation unit or namespace level
	ScopeLocal  Scope = "local"
	ScopeMember Scope = "member"
	ScopeParam  Scope = "param"
)

// Decl is a declared symbol. Identity is pointer identity; ID is the
// front-end's stable identifier for the same symbol.
type Decl struct {
	ID    string
	Kind  DeclKind
	Name  string
	Type  Type
	Scope Scope

	// InStd reports whether the declaration lives in namespace std
	// (including inline namespaces nested in it).
	InStd bool

	// Init is the initializer expression of a variable, if any.
	Init *Node

	Loc Location
}

// IsVariable reports whether d is a variable or parameter.
func (d *Decl) IsVariable() bool {
	return d != nil && (d.Kind == DeclVar || d.Kind == DeclParam)
}

// Node is one node of the resolved tree. Which fields are meaningful depends
// on Kind; Inner always lists every child in source order and is what Walk
// descends into.
type Node struct {
	Kind  Kind
	Begin Location
	End   Location

	// Implicit marks compiler-generated nodes; they are never visited.
	Implicit bool

	Type *Type
	Decl *Decl // declarations: the declared symbol
	Ref  *Decl // references: the referenced symbol

	Name     string
	Operator string
	Value    string

	Args []*Node
	Sub  *Node
	Body *Node

	// Params lists the parameter declarations of a function, in order.
	Params []*Decl

	// ReturnType is the declared return type of a function.
	ReturnType *Type

	// TopLevel marks a function that is not nested in another function.
	TopLevel bool

	// Lambda marks the call operator of a lambda's closure class.
	Lambda bool

	Inner []*Node
}

// HasBody reports whether a function node is a definition.
func (n *Node) HasBody() bool {
	return n != nil && n.Kind == KindFunction && n.Body != nil
}

// Arg returns the i-th argument or nil when absent.
func (n *Node) Arg(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Args) {
		return nil
	}
	return n.Args[i]
}

// IgnoreParenImpCasts strips parentheses, implicit casts and the
// temporary-materialization and cleanup wrappers the front-end inserts.
func IgnoreParenImpCasts(n *Node) *Node {
	for n != nil {
		switch n.Kind {
		case KindParen, KindImplicitCast, KindMaterializeTemporary, KindCleanups:
			if n.Sub == nil {
				return n
			}
			n = n.Sub
		default:
			return n
		}
	}
	return nil
}

// IgnoreParenCasts is IgnoreParenImpCasts plus explicit casts.
func IgnoreParenCasts(n *Node) *Node {
	for n != nil {
		switch n.Kind {
		case KindParen, KindImplicitCast, KindCast, KindMaterializeTemporary, KindCleanups:
			if n.Sub == nil {
				return n
			}
			n = n.Sub
		default:
			return n
		}
	}
	return nil
}

// TranslationUnit is one resolved source file plus what it includes.
type TranslationUnit struct {
	Path     string
	Language Language
	Root     *Node

	// Globals lists every file-scope variable declared anywhere in the
	// translation unit, in declaration order.
	Globals []*Decl

	// Files lists every file the front-end read to build the tree; the main
	// file comes first.
	Files []string
}
