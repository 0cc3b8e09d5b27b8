package core

import "strings"

// IsVariable reports whether s denotes a pattern variable rather than a
// constant. By convention (kept from the teacher's match package) a
// variable is any string beginning with "?".
func IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// IsAnonymousVariable detects the wildcard variable "?", which matches
// anything and is never added to a binding environment.
func IsAnonymousVariable(s string) bool {
	return s == "?"
}

// IsFactBindingVariable detects a fact-binding variable, written
// "?$name". Its binding is the whole matched fact-id rather than one
// attribute's value.
func IsFactBindingVariable(s string) bool {
	return strings.HasPrefix(s, "?$")
}

// IsConstant reports the complement of IsVariable.
func IsConstant(s string) bool {
	return !IsVariable(s)
}

// Unquestion strips a leading "?" (or "?$"), if any.
func Unquestion(v string) string {
	if IsFactBindingVariable(v) {
		return v[2:]
	}
	if IsVariable(v) {
		return v[1:]
	}
	return v
}

// PathSegments splits a path-expression attribute name of the form
// "name__sub1__sub2" into its segments. An attribute name with no "__"
// is a single-segment path. The separator is chosen, as in the
// original rock/paper/scissors-style examples this specification's
// scenario is drawn from, so that ordinary attribute names (which may
// contain single underscores) are unaffected.
func PathSegments(attr string) []string {
	return strings.Split(attr, "__")
}

// JoinPath re-joins path segments into the on-the-wire attribute name.
func JoinPath(segments []string) string {
	return strings.Join(segments, "__")
}

// LookupPath navigates into a fact attribute value following the given
// path segments after the first (the first segment names the
// top-level attribute and has already been used to find start). Every
// segment but the last must resolve to a mapping; ok is false if the
// path does not resolve (a segment is missing, or a non-mapping value
// is indexed with segments remaining).
func LookupPath(start Value, segments []string) (Value, bool) {
	v := start
	for _, seg := range segments {
		m, is := IsMapping(v)
		if !is {
			return nil, false
		}
		next, have := m[seg]
		if !have {
			return nil, false
		}
		v = next
	}
	return v, true
}
