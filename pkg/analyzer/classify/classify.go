// Package classify decides the semantic shape of a function from its
// parameter type spellings.
//
// The rules are textual: a leading (buffer, count) pair is an array, a
// leading (rows-of-buffers, count, count) triple is a matrix. Parameters after
// the matched prefix are selectors the harness generator has to choose values
// for.
package classify

import (
	"strings"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// Category names produced by the engine.
const (
	Array   = "array"
	Matrix  = "matrix"
	Text    = "text"
	Image   = "image"
	Unknown = "unknown"
)

// Rules parameterize the textual matching.
type Rules struct {
	// SizeTypes are the spellings accepted for a count parameter.
	SizeTypes []string
	// ImageMarkers are type names that mark a matrix of pixels.
	ImageMarkers []string
	// CharTypes are the element types that mark an array of characters.
	CharTypes []string
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		SizeTypes:    []string{"size_t", "std::size_t", "unsigned long"},
		ImageMarkers: []string{"RGBImage"},
		CharTypes:    []string{"char", "signed char", "unsigned char", "wchar_t", "char8_t", "char16_t", "char32_t"},
	}
}

// Result is the outcome of classifying one parameter list.
type Result struct {
	// Category is "unknown" or a space-joined subset of array, matrix,
	// text and image.
	Category string
	// Consumed is how many leading parameters the category accounts for.
	Consumed int
}

// Known reports whether a shape rule matched.
func (r Result) Known() bool {
	return r.Category != Unknown
}

// Classify applies the rules to a parameter type list. The slice is only
// read; callers keep their own parameter list intact.
func (r Rules) Classify(types []string) Result {
	if len(types) >= 3 && strings.Contains(types[0], "**") && r.isSize(types[1]) && r.isSize(types[2]) {
		parts := []string{Matrix}
		if r.hasImageMarker(ast.Pointee(types[0])) {
			parts = append(parts, Image)
		}
		return Result{Category: strings.Join(parts, " "), Consumed: 3}
	}

	if len(types) >= 2 && strings.Contains(types[0], "*") && r.isSize(types[1]) {
		parts := []string{Array}
		if r.isChar(ast.Pointee(types[0])) {
			parts = append(parts, Text)
		}
		return Result{Category: strings.Join(parts, " "), Consumed: 2}
	}

	return Result{Category: Unknown}
}

// Classify applies DefaultRules.
func Classify(types []string) Result {
	return DefaultRules().Classify(types)
}

func (r Rules) isSize(spelling string) bool {
	spelling = strings.TrimSpace(spelling)
	for _, s := range r.SizeTypes {
		if spelling == s {
			return true
		}
	}
	return false
}

func (r Rules) hasImageMarker(pointee string) bool {
	for _, marker := range r.ImageMarkers {
		if marker != "" && strings.Contains(pointee, marker) {
			return true
		}
	}
	return false
}

func (r Rules) isChar(pointee string) bool {
	if pointee == "" {
		return false
	}
	elem := ast.BaseTypeName(pointee)
	for _, c := range r.CharTypes {
		if elem == c {
			return true
		}
	}
	return false
}
