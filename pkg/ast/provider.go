package ast

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
)

// ErrUnsupportedLanguage is returned when parsing a file that is not C or C++.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// ErrIncompleteTree is returned when the front-end could only build a
// partial tree. Extraction must not run on such a tree.
var ErrIncompleteTree = errors.New("incomplete syntax tree")

// ErrFrontend is returned when the external front-end failed to run.
var ErrFrontend = errors.New("front-end failed")

// Language represents a source language accepted by the providers.
type Language string

const (
	LangC       Language = "c"
	LangCPP     Language = "cpp"
	LangUnknown Language = "unknown"
)

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c":
		return LangC
	case ".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hxx", ".hh", ".h", ".ipp":
		// .h is treated as C++: the C++ grammar accepts nearly all C headers
		// and harness code is C++.
		return LangCPP
	default:
		return LangUnknown
	}
}

// IsSource reports whether path is a translation unit candidate (not a header).
func IsSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".cpp", ".cc", ".cxx", ".c++":
		return true
	}
	return false
}

// Provider builds a resolved tree for one translation unit.
type Provider interface {
	// Name identifies the front-end ("treesitter", "clang").
	Name() string

	// Parse builds the tree for the translation unit rooted at path.
	Parse(ctx context.Context, path string) (*TranslationUnit, error)

	// Close releases provider resources.
	Close()
}
