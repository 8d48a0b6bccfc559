package ast

import "fmt"

// Location is a presumed source position: for code produced by a macro it is
// the expansion site, not the spelling inside the macro definition.
type Location struct {
	File   string
	Line   int
	Column int
	Offset int

	// IncludedFrom is the file whose #include brought File in; empty for the
	// main file.
	IncludedFrom string

	// MainFile reports whether File is the file under analysis.
	MainFile bool

	// SystemHeader reports whether File is a system or library header.
	SystemHeader bool

	// Macro reports whether the position comes from a macro expansion, and
	// SystemMacro whether that macro was defined in a system header.
	Macro       bool
	SystemMacro bool

	Valid bool
}

// String renders the location as file:line:col.
func (l Location) String() string {
	if !l.Valid {
		return "<invalid>"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// BelongsToAnalyzedFile is the boundary filter shared by every analyzer.
//
// A position belongs to the analyzed file when it is not inside a system
// header, not inside a macro expansion coming from system code, and is
// written in the main file. Invalid positions carry no provenance and are
// accepted, matching the front-end's own behavior for synthesized nodes.
func BelongsToAnalyzedFile(loc Location) bool {
	if !loc.Valid {
		return true
	}
	if loc.SystemHeader || loc.SystemMacro {
		return false
	}
	return loc.MainFile
}
