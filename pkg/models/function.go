package models

import (
	"encoding/json"
	"fmt"
)

// CategoryUnknown is the category of a function no shape rule matched.
const CategoryUnknown = "unknown"

// Position is a 1-based (line, column) pair, serialized as [line, column].
type Position struct {
	Line   int
	Column int
}

// MarshalJSON encodes the position as a two-element array.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Line, p.Column})
}

// UnmarshalJSON decodes a two-element array.
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("position: want [line, column], got %d elements", len(pair))
	}
	p.Line, p.Column = pair[0], pair[1]
	return nil
}

// MarshalYAML encodes the position as a two-element sequence.
func (p Position) MarshalYAML() (any, error) {
	return []int{p.Line, p.Column}, nil
}

// String renders line:column.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Parameter is one declared parameter. Type is prefixed with
// "enumeration " when the parameter is enum-typed.
type Parameter struct {
	Type  string `json:"type" yaml:"type"`
	Title string `json:"title" yaml:"title"`
}

// EnumSelector lists the qualified enumerators a selector parameter accepts.
type EnumSelector struct {
	Var  string   `json:"var" yaml:"var"`
	Enum []string `json:"enum" yaml:"enum"`
}

// CandidateArgument lists file-scope variables whose type matches a selector
// parameter.
type CandidateArgument struct {
	Var   string   `json:"var" yaml:"var"`
	Names []string `json:"names" yaml:"names"`
}

// FunctionRecord describes one function definition of the analyzed file.
type FunctionRecord struct {
	Name               string              `json:"name" yaml:"name"`
	ReturnType         string              `json:"returnType" yaml:"returnType"`
	Parameters         []Parameter         `json:"parameters" yaml:"parameters"`
	StartPos           Position            `json:"startPos" yaml:"startPos"`
	EndPos             Position            `json:"endPos" yaml:"endPos"`
	Category           string              `json:"type" yaml:"type"`
	EnumSelectors      []EnumSelector      `json:"enumValues" yaml:"enumValues"`
	CandidateArguments []CandidateArgument `json:"argumentVariables" yaml:"argumentVariables"`
}

// NewFunctionRecord returns a record with empty, non-nil collections so it
// serializes with [] rather than null.
func NewFunctionRecord(name, returnType string) FunctionRecord {
	return FunctionRecord{
		Name:               name,
		ReturnType:         returnType,
		Parameters:         []Parameter{},
		Category:           CategoryUnknown,
		EnumSelectors:      []EnumSelector{},
		CandidateArguments: []CandidateArgument{},
	}
}

// FunctionsResult is the output of the funcs mode.
type FunctionsResult struct {
	Functions []FunctionRecord `json:"functions" yaml:"functions"`
}
