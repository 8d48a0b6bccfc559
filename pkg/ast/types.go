package ast

import (
	"fmt"
	"strings"
)

// EnumInfo describes an enumeration type.
type EnumInfo struct {
	Name        string
	Enumerators []string // declaration order
}

// QualifiedEnumerators returns every enumerator as EnumName::Enumerator.
func (e *EnumInfo) QualifiedEnumerators() []string {
	if e == nil {
		return nil
	}
	out := make([]string, len(e.Enumerators))
	for i, name := range e.Enumerators {
		out[i] = e.Name + "::" + name
	}
	return out
}

// Type is a resolved type with its as-written and canonical spellings.
type Type struct {
	// Spelling is the type as the front-end prints it with sugar kept
	// (typedef names, elaborated names), e.g. "size_t" or "const char *".
	Spelling string

	// Canonical is the desugared spelling, e.g. "unsigned long".
	Canonical string

	// Enum is set when the canonical type is an enumeration.
	Enum *EnumInfo
}

// IsEnum reports whether the type is an enumeration.
func (t *Type) IsEnum() bool {
	return t != nil && t.Enum != nil
}

// CanonicalOrSpelling returns the canonical spelling, falling back to the
// written one when the front-end could not desugar it.
func (t *Type) CanonicalOrSpelling() string {
	if t == nil {
		return ""
	}
	if t.Canonical != "" {
		return t.Canonical
	}
	return t.Spelling
}

var cvQualifiers = []string{"const", "volatile", "restrict", "__restrict", "__restrict__"}

// trimTrailingQualifiers removes cv-qualifiers written after the last
// declarator token ("char *const" -> "char *").
func trimTrailingQualifiers(s string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, q := range cvQualifiers {
			if strings.HasSuffix(s, q) {
				head := strings.TrimSpace(s[:len(s)-len(q)])
				if head != "" && (strings.HasSuffix(head, "*") || strings.HasSuffix(head, "&") || strings.HasSuffix(s[:len(s)-len(q)], " ")) {
					s = head
					changed = true
				}
			}
		}
	}
	return s
}

// trimLeadingQualifiers removes cv-qualifiers written before the base type.
func trimLeadingQualifiers(s string) string {
	s = strings.TrimSpace(s)
	for changed := true; changed; {
		changed = false
		for _, q := range cvQualifiers {
			if strings.HasPrefix(s, q+" ") {
				s = strings.TrimSpace(s[len(q)+1:])
				changed = true
			}
		}
	}
	return s
}

// Unqualified drops top-level cv-qualifiers from a spelling. Qualifiers that
// apply to a pointee are kept: "const char *" stays as is, "char *const"
// becomes "char *", "const int" becomes "int".
func Unqualified(spelling string) string {
	s := trimTrailingQualifiers(spelling)
	if strings.ContainsAny(s, "*&[(") {
		return s
	}
	return trimLeadingQualifiers(s)
}

// Pointee returns the spelling of the type one pointer level down, or "" if
// the spelling is not a pointer.
func Pointee(spelling string) string {
	s := trimTrailingQualifiers(spelling)
	if !strings.HasSuffix(s, "*") {
		return ""
	}
	return strings.TrimSpace(s[:len(s)-1])
}

// BaseTypeName strips qualifiers, elaborated keywords, pointers, references
// and array extents, leaving the bare named type ("const struct RGBImage **"
// -> "RGBImage", "std::vector<int> &" -> "std::vector<int>").
func BaseTypeName(spelling string) string {
	s := strings.TrimSpace(spelling)
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, " *&")
	s = trimTrailingQualifiers(s)
	s = strings.TrimRight(s, " *&")
	s = trimLeadingQualifiers(s)
	for _, kw := range []string{"struct ", "class ", "union ", "enum ", "typename "} {
		s = strings.TrimPrefix(s, kw)
	}
	return strings.TrimSpace(s)
}

// ClassName returns the unqualified record name of a spelling: namespaces,
// template arguments and qualifiers are dropped ("std::basic_string<char>"
// -> "basic_string").
func ClassName(spelling string) string {
	s := BaseTypeName(spelling)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}

// SpellingMode selects which spelling of a type is reported.
type SpellingMode string

const (
	SpellingCanonical SpellingMode = "canonical"
	SpellingWritten   SpellingMode = "written"
)

// ParseSpellingMode converts a setting to a SpellingMode; empty means
// canonical.
func ParseSpellingMode(s string) (SpellingMode, error) {
	switch SpellingMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SpellingCanonical:
		return SpellingCanonical, nil
	case SpellingWritten:
		return SpellingWritten, nil
	}
	return "", fmt.Errorf("unknown spelling %q (want canonical or written)", s)
}

// Render returns the spelling selected by mode.
func (t *Type) Render(mode SpellingMode) string {
	if t == nil {
		return ""
	}
	if mode == SpellingWritten {
		return t.Spelling
	}
	return t.CanonicalOrSpelling()
}
