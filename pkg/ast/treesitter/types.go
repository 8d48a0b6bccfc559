package treesitter

import (
	"strings"

	"github.com/panbanda/harnessprobe/pkg/ast"
)

// builtinTypedefs maps the standard integer typedefs to the canonical
// spelling clang reports for them on LP64 targets.
var builtinTypedefs = map[string]string{
	"size_t":    "unsigned long",
	"ssize_t":   "long",
	"ptrdiff_t": "long",
	"intptr_t":  "long",
	"uintptr_t": "unsigned long",
	"intmax_t":  "long",
	"uintmax_t": "unsigned long",
	"off_t":     "long",
	"int8_t":    "signed char",
	"uint8_t":   "unsigned char",
	"int16_t":   "short",
	"uint16_t":  "unsigned short",
	"int32_t":   "int",
	"uint32_t":  "unsigned int",
	"int64_t":   "long",
	"uint64_t":  "unsigned long",
	"wchar_t":   "wchar_t",
	"char16_t":  "char16_t",
	"char32_t":  "char32_t",
}

// stdClasses maps class names of namespace std to their canonical spelling.
var stdClasses = map[string]string{
	"string":        "std::basic_string<char>",
	"wstring":       "std::basic_string<wchar_t>",
	"string_view":   "std::basic_string_view<char>",
	"istream":       "std::basic_istream<char>",
	"ostream":       "std::basic_ostream<char>",
	"iostream":      "std::basic_iostream<char>",
	"ifstream":      "std::basic_ifstream<char>",
	"ofstream":      "std::basic_ofstream<char>",
	"fstream":       "std::basic_fstream<char>",
	"stringstream":  "std::basic_stringstream<char>",
	"istringstream": "std::basic_istringstream<char>",
	"ostringstream": "std::basic_ostringstream<char>",
	"wistream":      "std::basic_istream<wchar_t>",
	"wostream":      "std::basic_ostream<wchar_t>",
}

// stdTemplates are std class templates; a use names the class itself.
var stdTemplates = map[string]bool{
	"basic_string": true, "vector": true, "map": true, "unordered_map": true,
	"set": true, "unordered_set": true, "array": true, "deque": true, "list": true,
	"pair": true, "tuple": true, "unique_ptr": true, "shared_ptr": true, "optional": true,
	"function": true,
}

// stdObjects are the predeclared stream objects of <iostream>.
var stdObjects = map[string]string{
	"cin":  "istream",
	"cout": "ostream",
	"cerr": "ostream",
	"clog": "ostream",
	"wcin": "wistream",
}

// fundamental spellings are never class types.
var fundamental = map[string]bool{
	"void": true, "bool": true, "_Bool": true, "char": true, "signed char": true, "unsigned char": true,
	"wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
	"short": true, "unsigned short": true, "int": true, "unsigned int": true,
	"long": true, "unsigned long": true, "long long": true, "unsigned long long": true,
	"float": true, "double": true, "long double": true, "auto": true, "nullptr_t": true,
	"__int128": true, "unsigned __int128": true,
}

// sizedSpelling normalizes a sized type specifier ("unsigned long int",
// "short", "signed") to clang's spelling.
func sizedSpelling(words []string) string {
	var signed, unsigned bool
	longs, short := 0, false
	base := ""
	for _, w := range words {
		switch w {
		case "signed":
			signed = true
		case "unsigned":
			unsigned = true
		case "long":
			longs++
		case "short":
			short = true
		case "int":
		default:
			base = w
		}
	}

	var core string
	switch {
	case base == "char":
		core = "char"
		if signed {
			return "signed char"
		}
	case base == "double":
		if longs > 0 {
			return "long double"
		}
		return "double"
	case base != "":
		core = base
	case short:
		core = "short"
	case longs >= 2:
		core = "long long"
	case longs == 1:
		core = "long"
	default:
		core = "int"
	}
	if unsigned {
		return "unsigned " + core
	}
	return core
}

// pointerTo spells a pointer to t with optional qualifiers on the pointer.
func pointerTo(t ast.Type, quals []string) ast.Type {
	return ast.Type{
		Spelling:  addPointer(t.Spelling, quals),
		Canonical: addPointer(t.Canonical, quals),
	}
}

func addPointer(s string, quals []string) string {
	var out string
	switch {
	case strings.HasSuffix(s, "]"):
		i := strings.IndexByte(s, '[')
		out = strings.TrimSpace(s[:i]) + " (*)" + s[i:]
	case strings.HasSuffix(s, "*"):
		out = s + "*"
	default:
		out = s + " *"
	}
	if len(quals) > 0 {
		out += strings.Join(quals, " ")
	}
	return out
}

func referenceTo(t ast.Type, op string) ast.Type {
	add := func(s string) string {
		if strings.HasSuffix(s, "*") || strings.HasSuffix(s, "&") {
			return s + op
		}
		return s + " " + op
	}
	return ast.Type{Spelling: add(t.Spelling), Canonical: add(t.Canonical)}
}

func arrayOf(t ast.Type, size string) ast.Type {
	add := func(s string) string {
		if i := strings.IndexByte(s, '['); i >= 0 {
			return s[:i] + "[" + size + "]" + s[i:]
		}
		return s + "[" + size + "]"
	}
	return ast.Type{Spelling: add(t.Spelling), Canonical: add(t.Canonical), Enum: nil}
}

// decay adjusts a parameter type the way C does: the outermost array
// becomes a pointer.
func decay(t ast.Type) ast.Type {
	conv := func(s string) string {
		i := strings.IndexByte(s, '[')
		if i < 0 {
			return s
		}
		j := strings.IndexByte(s[i:], ']')
		if j < 0 {
			return s
		}
		head, rest := strings.TrimSpace(s[:i]), s[i+j+1:]
		if rest == "" {
			return addPointer(head, nil)
		}
		return head + " (*)" + rest
	}
	if !strings.Contains(t.Spelling, "[") {
		return t
	}
	return ast.Type{Spelling: conv(t.Spelling), Canonical: conv(t.Canonical)}
}

func qualify(t ast.Type, quals []string) ast.Type {
	if len(quals) == 0 {
		return t
	}
	prefix := strings.Join(quals, " ") + " "
	return ast.Type{Spelling: prefix + t.Spelling, Canonical: prefix + t.Canonical, Enum: t.Enum}
}

// isClassType reports whether a canonical spelling names a class object (not
// a pointer, reference, array, enum or fundamental type).
func isClassType(t ast.Type) bool {
	if t.Enum != nil {
		return false
	}
	s := strings.TrimSpace(t.CanonicalOrSpelling())
	if s == "" || strings.ContainsAny(s, "*&[(") {
		return false
	}
	for _, q := range []string{"const ", "volatile "} {
		s = strings.TrimPrefix(s, q)
	}
	if fundamental[s] || strings.HasPrefix(s, "enum ") {
		return false
	}
	return true
}

// normalizeName removes whitespace from a qualified or templated name.
func normalizeName(s string) string {
	var b strings.Builder
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			// keep one space between identifier characters ("unsigned int")
			if i+1 < len(s) && isIdent(prev) && isIdent(s[i+1]) {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteByte(c)
		prev = c
	}
	return strings.TrimPrefix(b.String(), "::")
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// lastComponent returns the part of a qualified name after the last "::".
func lastComponent(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}
