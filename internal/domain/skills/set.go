package skills

import "sort"

// Set is an unordered collection of canonical skill names.
type Set map[string]struct{}

// NewSet builds a Set from already-canonical names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Add inserts name.
func (s Set) Add(name string) { s[name] = struct{}{} }

// Intersect returns s ∩ other.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for n := range s {
		if other.Has(n) {
			out.Add(n)
		}
	}
	return out
}

// Difference returns s − other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for n := range s {
		if !other.Has(n) {
			out.Add(n)
		}
	}
	return out
}

// Sorted returns the members in lexical order. Never nil.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
