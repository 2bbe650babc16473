package expr

import "strings"

// QualifiedID names a parameter of the current model or of one of its
// sub-models. Path lists the sub-model symbols to walk, outermost first:
// "thrust.engine.stage" is parameter thrust of sub-model stage inside
// engine.
type QualifiedID struct {
	ID   string
	Path []string
}

// ParseQualifiedID splits a dotted reference.
func ParseQualifiedID(s string) QualifiedID {
	parts := strings.Split(s, ".")
	q := QualifiedID{ID: parts[0]}
	if len(parts) > 1 {
		q.Path = parts[1:]
	}
	return q
}

// IsLocal reports whether q names a parameter of the current model.
func (q QualifiedID) IsLocal() bool {
	return len(q.Path) == 0
}

// In qualifies q relative to a model reached through path from the current
// one.
func (q QualifiedID) In(path []string) QualifiedID {
	if len(path) == 0 {
		return q
	}
	out := QualifiedID{ID: q.ID, Path: make([]string, 0, len(path)+len(q.Path))}
	out.Path = append(append(out.Path, path...), q.Path...)
	return out
}

func (q QualifiedID) String() string {
	if q.IsLocal() {
		return q.ID
	}
	return q.ID + "." + strings.Join(q.Path, ".")
}
