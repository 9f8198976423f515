package engine

import "strings"

// RoutineReference identifies a callable database object. Schema is empty when
// the caller did not qualify the name, in which case the database's default
// schema applies.
type RoutineReference struct {
	Schema string
	Name   string
}

// ParseRoutine splits "[schema.]name" on the first dot. Any further dots stay
// attached to the name; three-part (server.schema.name) references are not
// supported.
func ParseRoutine(s string) RoutineReference {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "."); i >= 0 {
		return RoutineReference{Schema: s[:i], Name: s[i+1:]}
	}
	return RoutineReference{Name: s}
}

// Quoted renders the reference with every identifier bracket-quoted so that
// names are never interpreted as expressions. This is the only place caller
// text reaches statement text; values always go through driver binds.
func (r RoutineReference) Quoted() string {
	if r.Schema == "" {
		return QuoteIdentifier(r.Name)
	}
	return QuoteIdentifier(r.Schema) + "." + QuoteIdentifier(r.Name)
}

// QuoteIdentifier bracket-quotes one identifier, doubling any closing bracket.
func QuoteIdentifier(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}
