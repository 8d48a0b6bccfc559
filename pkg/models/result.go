package models

import (
	"fmt"
	"strings"
)

// Mode selects which record set an extraction produces.
type Mode string

const (
	ModeVariables Mode = "vars"
	ModeFunctions Mode = "funcs"
)

func (m Mode) String() string { return string(m) }

// ParseMode converts a flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vars", "variables":
		return ModeVariables, nil
	case "funcs", "functions":
		return ModeFunctions, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want vars or funcs)", s)
	}
}

// FileResult is the extraction result of one translation unit. Exactly one
// of the embedded results is set, depending on the mode.
type FileResult struct {
	File string `json:"file,omitempty"`
	*FunctionsResult
	*VariablesResult
}

// FailedFile records a translation unit the front-end could not build.
type FailedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// RunResult aggregates several translation units.
type RunResult struct {
	Files  []FileResult `json:"files"`
	Failed []FailedFile `json:"failed"`
}
