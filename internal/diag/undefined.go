package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/careweather/oneil/pkg/token"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reference is one use of an identifier that did not resolve.
type Reference struct {
	Name  string
	Param string
	Pos   token.Position
}

// Undefined batches every unresolved identifier of a model into a single
// IdentifierError. References are listed in source order.
func Undefined(model string, refs []Reference) *Error {
	sorted := append([]Reference(nil), refs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pos.Line < sorted[j].Pos.Line
	})

	lines := make([]string, 0, len(sorted))
	names := make([]string, 0, len(sorted))
	for _, r := range sorted {
		lines = append(lines, fmt.Sprintf("%s from %s (%s)", r.Name, r.Param, r.Pos))
		names = append(names, r.Name)
	}

	title := cases.Title(language.English).String(model)
	e := Newf(KindIdentifier, "%s has undefined arguments: %s", title, strings.Join(names, ", "))
	e.Pos = token.Position{File: model}
	for _, l := range lines {
		e.WithNote(l)
	}
	return e
}
