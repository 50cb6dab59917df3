package skills

import (
	"strings"
	"unicode"
)

// clean lowercases, trims, drops every rune except letters, digits,
// whitespace and "+#-.", and collapses whitespace runs.
func clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false
	for _, r := range strings.ToLower(raw) {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#', r == '-', r == '.':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize canonicalizes raw. Unknown skills pass through as their own
// canonical form in CategoryOther. Returns false when nothing survives cleaning.
func (r *Registry) Normalize(raw string) (CanonicalSkill, bool) {
	key := clean(raw)
	if key == "" {
		return CanonicalSkill{}, false
	}
	if rec, ok := r.lookup[key]; ok {
		return *rec, true
	}
	return CanonicalSkill{Name: key, Category: CategoryOther}, true
}

// NormalizeSet canonicalizes and deduplicates raws.
func (r *Registry) NormalizeSet(raws []string) Set {
	out := make(Set, len(raws))
	for _, raw := range raws {
		if cs, ok := r.Normalize(raw); ok {
			out.Add(cs.Name)
		}
	}
	return out
}

// Categorize groups canonical names by category. Only non-empty groups are returned.
func (r *Registry) Categorize(set Set) map[Category]Set {
	out := make(map[Category]Set)
	for name := range set {
		cat := CategoryOther
		if rec, ok := r.lookup[name]; ok {
			cat = rec.Category
		}
		if out[cat] == nil {
			out[cat] = make(Set)
		}
		out[cat].Add(name)
	}
	return out
}

// Normalize canonicalizes raw with the default registry.
func Normalize(raw string) (CanonicalSkill, bool) { return Default().Normalize(raw) }

// NormalizeSet canonicalizes raws with the default registry.
func NormalizeSet(raws []string) Set { return Default().NormalizeSet(raws) }

// Categorize groups set with the default registry.
func Categorize(set Set) map[Category]Set { return Default().Categorize(set) }
