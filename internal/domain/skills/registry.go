// Package skills canonicalizes raw skill strings so that candidate and
// posting skills can be compared.
package skills

import (
	"fmt"
	"sort"
	"sync"
)

// Category groups canonical skills for display.
type Category string

// Known categories.
const (
	CategoryFrontend Category = "frontend"
	CategoryBackend  Category = "backend"
	CategoryDatabase Category = "database"
	CategoryDevOps   Category = "devops"
	CategoryTesting  Category = "testing"
	CategoryTools    Category = "tools"
	CategoryDataML   Category = "data-ml"
	CategoryOther    Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFrontend, CategoryBackend, CategoryDatabase, CategoryDevOps,
	CategoryTesting, CategoryTools, CategoryDataML, CategoryOther,
}

func knownCategory(c Category) bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// Entry declares one canonical skill for NewRegistry.
type Entry struct {
	Name     string
	Category Category
	Aliases  []string
}

// CanonicalSkill is a normalized skill name with its fixed alias set.
type CanonicalSkill struct {
	Name     string
	Category Category
	aliases  []string
}

// Aliases returns a copy of the alias set in lexical order.
func (c CanonicalSkill) Aliases() []string {
	out := make([]string, len(c.aliases))
	copy(out, c.aliases)
	return out
}

// Registry is a load-once, read-only table of canonical skills.
type Registry struct {
	canon  map[string]*CanonicalSkill // canonical name -> record
	lookup map[string]*CanonicalSkill // canonical name or alias -> record
}

// NewRegistry validates entries and builds a Registry. Names and aliases are
// cleaned with the same rules applied to raw input.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		canon:  make(map[string]*CanonicalSkill, len(entries)),
		lookup: make(map[string]*CanonicalSkill, len(entries)*3),
	}

	for _, e := range entries {
		name := clean(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty canonical name %q", ErrInvalidRegistry, e.Name)
		}
		if _, dup := r.canon[name]; dup {
			return nil, fmt.Errorf("%w: duplicate canonical skill %q", ErrInvalidRegistry, name)
		}
		cat := e.Category
		if cat == "" {
			cat = CategoryOther
		}
		if !knownCategory(cat) {
			return nil, fmt.Errorf("%w: skill %q has unknown category %q", ErrInvalidRegistry, name, cat)
		}
		r.canon[name] = &CanonicalSkill{Name: name, Category: cat}
	}

	for _, e := range entries {
		rec := r.canon[clean(e.Name)]
		r.lookup[rec.Name] = rec
		seen := make(map[string]struct{}, len(e.Aliases))
		for _, raw := range e.Aliases {
			alias := clean(raw)
			if alias == "" || alias == rec.Name {
				continue
			}
			if _, ok := seen[alias]; ok {
				continue
			}
			if other, ok := r.canon[alias]; ok {
				return nil, fmt.Errorf("%w: alias %q of %q is itself canonical skill %q", ErrInvalidRegistry, alias, rec.Name, other.Name)
			}
			if owner, ok := r.lookup[alias]; ok && owner != rec {
				return nil, fmt.Errorf("%w: alias %q claimed by both %q and %q", ErrInvalidRegistry, alias, owner.Name, rec.Name)
			}
			seen[alias] = struct{}{}
			rec.aliases = append(rec.aliases, alias)
			r.lookup[alias] = rec
		}
		sort.Strings(rec.aliases)
	}
	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on invalid input.
func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// MergeAliases returns base extended with extra canonical -> aliases pairs.
// Aliases for an existing canonical are appended; unknown canonicals become
// new entries in CategoryOther.
func MergeAliases(base []Entry, extra map[string][]string) []Entry {
	out := make([]Entry, len(base))
	index := make(map[string]int, len(base))
	for i, e := range base {
		e.Aliases = append([]string(nil), e.Aliases...)
		out[i] = e
		index[clean(e.Name)] = i
	}

	names := make([]string, 0, len(extra))
	for n := range extra {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		if i, ok := index[clean(n)]; ok {
			out[i].Aliases = append(out[i].Aliases, extra[n]...)
			continue
		}
		index[clean(n)] = len(out)
		out = append(out, Entry{Name: n, Category: CategoryOther, Aliases: extra[n]})
	}
	return out
}

// Len returns the number of canonical skills.
func (r *Registry) Len() int { return len(r.canon) }

// Lookup returns the canonical record for an already-cleaned name or alias.
func (r *Registry) Lookup(key string) (CanonicalSkill, bool) {
	rec, ok := r.lookup[key]
	if !ok {
		return CanonicalSkill{}, false
	}
	return *rec, true
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry built from Builtin.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = MustNewRegistry(Builtin()...)
	})
	return defaultRegistry
}
