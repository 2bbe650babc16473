// Package token holds source locations shared by the model-file parser, the
// expression lexer and diagnostics.
package token

import "fmt"

// Position represents a location in a model file.
type Position struct {
	File   string // model file path, empty for ad hoc expressions
	Line   int    // 1-based line number
	Column int    // 1-based column number, 0 when only the line is known
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String renders file:line[:col], omitting the parts that are unknown.
func (p Position) String() string {
	switch {
	case !p.IsValid():
		return p.File
	case p.Column > 0 && p.File != "":
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	case p.File != "":
		return fmt.Sprintf("%s:%d", p.File, p.Line)
	case p.Column > 0:
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("line %d", p.Line)
	}
}

// Shift returns p moved to a column inside the same line. It is used to map
// expression-relative columns back onto the declaration line.
func (p Position) Shift(col int) Position {
	if col <= 0 {
		return p
	}
	p.Column = col
	return p
}
