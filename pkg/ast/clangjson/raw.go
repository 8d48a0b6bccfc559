package clangjson

import (
	"encoding/json"
	"strconv"
)

// rawLoc mirrors clang's JSON source location. File and line are omitted
// when they repeat the previously printed values.
type rawLoc struct {
	Offset       *int    `json:"offset"`
	File         string  `json:"file"`
	Line         int     `json:"line"`
	PresumedFile string  `json:"presumedFile"`
	PresumedLine int     `json:"presumedLine"`
	Col          int     `json:"col"`
	TokLen       int     `json:"tokLen"`
	IncludedFrom *rawRef `json:"includedFrom"`

	SpellingLoc  *rawLoc `json:"spellingLoc"`
	ExpansionLoc *rawLoc `json:"expansionLoc"`
	MacroArg     bool    `json:"isMacroArgExpansion"`
}

func (l *rawLoc) isMacro() bool {
	return l.SpellingLoc != nil || l.ExpansionLoc != nil
}

func (l *rawLoc) empty() bool {
	return l.Offset == nil && l.Col == 0 && l.Line == 0 && l.File == ""
}

type rawRef struct {
	File string `json:"file"`
}

type rawRange struct {
	Begin rawLoc `json:"begin"`
	End   rawLoc `json:"end"`
}

type rawType struct {
	QualType  string `json:"qualType"`
	Desugared string `json:"desugaredQualType"`
}

// rawDeclRef is the abbreviated declaration clang prints for references.
type rawDeclRef struct {
	ID   string   `json:"id"`
	Kind string   `json:"kind"`
	Name string   `json:"name"`
	Type *rawType `json:"type"`
}

type rawNode struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Loc        *rawLoc   `json:"loc"`
	Range      *rawRange `json:"range"`
	IsImplicit bool      `json:"isImplicit"`
	Name       string    `json:"name"`
	Type       *rawType  `json:"type"`

	Opcode    string          `json:"opcode"`
	Value     json.RawMessage `json:"value"`
	Init      string          `json:"init"`
	TagUsed   string          `json:"tagUsed"`
	IsArrow   bool            `json:"isArrow"`
	IsInline  bool            `json:"isInline"`
	CastKind  string          `json:"castKind"`
	StorageCl string          `json:"storageClass"`

	ReferencedDecl *rawDeclRef `json:"referencedDecl"`
	Decl           *rawDeclRef `json:"decl"`
	OwnedTagDecl   *rawDeclRef `json:"ownedTagDecl"`

	Inner []*rawNode `json:"inner"`
}

// qualType returns the written spelling of the node's type.
func (n *rawNode) qualType() string {
	if n.Type == nil {
		return ""
	}
	return n.Type.QualType
}

// stringValue decodes a value printed as a JSON string.
func (n *rawNode) stringValue() (string, bool) {
	var s string
	if err := json.Unmarshal(n.Value, &s); err != nil {
		return "", false
	}
	return s, true
}

// intValue decodes a value printed as a JSON number or numeric string.
func (n *rawNode) intValue() (int64, bool) {
	var v int64
	if err := json.Unmarshal(n.Value, &v); err == nil {
		return v, true
	}
	s, ok := n.stringValue()
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}
