// Package completer defines the registry of language completers and the
// resolution pipeline that turns a user selection into the final set of
// completers to build and test.
package completer

import (
	"fmt"
	"sort"
	"strings"
)

// Spec describes a single completer: its canonical name, the aliases it
// answers to, the flags the builder needs to compile its native core, and
// the flags the test runner needs to skip its suites when it is not built.
type Spec struct {
	// Name is the canonical completer name (e.g. "cfamily").
	Name string `json:"name"`

	// Aliases are alternative names accepted on the command line.
	Aliases []string `json:"aliases,omitempty"`

	// BuildFlags are passed to the builder when this completer is selected.
	BuildFlags []string `json:"build_flags,omitempty"`

	// TestExcludeFlags are passed to the test runner when this completer is
	// NOT selected, so its suites are skipped.
	TestExcludeFlags []string `json:"test_exclude_flags,omitempty"`
}

// Registry is an immutable, ordered collection of completer specs with a
// case-insensitive lookup index over canonical names and aliases.
//
// The registry is built once at startup and never mutated afterwards; all
// accessors return copies, so a Registry is safe for concurrent use.
type Registry struct {
	specs []Spec
	// index maps lowercased name or alias to canonical name.
	index map[string]string
}

// New builds a registry from explicit specs plus simple names.
//
// Simple entries derive their flags from the name by convention:
// a "--<name>-completer" build flag and a "--ignore=tests/<name>" test
// exclusion. Explicit entries carry all fields directly.
//
// Construction validates that canonical names are unique and that no alias
// collides with another entry's name or alias (case-insensitive). An
// explicit entry and a simple entry sharing a name is a configuration
// error, reported like any other duplicate.
func New(explicit []Spec, simple []string) (*Registry, error) {
	specs := make([]Spec, 0, len(explicit)+len(simple))
	for _, s := range explicit {
		specs = append(specs, cloneSpec(s))
	}
	for _, name := range simple {
		specs = append(specs, Spec{
			Name:             name,
			BuildFlags:       []string{fmt.Sprintf("--%s-completer", name)},
			TestExcludeFlags: []string{fmt.Sprintf("--ignore=tests/%s", name)},
		})
	}

	index := make(map[string]string, len(specs)*2)
	for _, s := range specs {
		if s.Name == "" {
			return nil, fmt.Errorf("completer spec with empty name")
		}
		key := strings.ToLower(s.Name)
		if prev, ok := index[key]; ok {
			return nil, fmt.Errorf("completer %q conflicts with %q", s.Name, prev)
		}
		index[key] = s.Name

		for _, alias := range s.Aliases {
			aliasKey := strings.ToLower(alias)
			if prev, ok := index[aliasKey]; ok {
				return nil, fmt.Errorf("alias %q of completer %q conflicts with %q", alias, s.Name, prev)
			}
			index[aliasKey] = s.Name
		}
	}

	return &Registry{specs: specs, index: index}, nil
}

// Lookup resolves a name or alias to its canonical completer name.
// Matching is case-insensitive. Unknown names fail with ErrUnknownCompleter
// wrapped with the offending input and the valid names.
func (r *Registry) Lookup(nameOrAlias string) (string, error) {
	canonical, ok := r.index[strings.ToLower(nameOrAlias)]
	if !ok {
		return "", fmt.Errorf("%w: %q (valid completers: %s)",
			ErrUnknownCompleter, nameOrAlias, strings.Join(r.AllNames(), ", "))
	}
	return canonical, nil
}

// AllNames returns the canonical names in registration order.
func (r *Registry) AllNames() []string {
	names := make([]string, len(r.specs))
	for i, s := range r.specs {
		names[i] = s.Name
	}
	return names
}

// Get returns the spec for a canonical name.
func (r *Registry) Get(name string) (Spec, bool) {
	for _, s := range r.specs {
		if s.Name == name {
			return cloneSpec(s), true
		}
	}
	return Spec{}, false
}

// Specs returns all specs in registration order.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, len(r.specs))
	for i, s := range r.specs {
		specs[i] = cloneSpec(s)
	}
	return specs
}

// Len returns the number of registered completers.
func (r *Registry) Len() int {
	return len(r.specs)
}

// Order sorts the given canonical names into registration order and drops
// duplicates. Names not present in the registry are dropped as well.
func (r *Registry) Order(names []string) []string {
	position := make(map[string]int, len(r.specs))
	for i, s := range r.specs {
		position[s.Name] = i
	}

	seen := make(map[string]bool, len(names))
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := position[name]; !ok || seen[name] {
			continue
		}
		seen[name] = true
		ordered = append(ordered, name)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return position[ordered[i]] < position[ordered[j]]
	})
	return ordered
}

func cloneSpec(s Spec) Spec {
	return Spec{
		Name:             s.Name,
		Aliases:          append([]string(nil), s.Aliases...),
		BuildFlags:       append([]string(nil), s.BuildFlags...),
		TestExcludeFlags: append([]string(nil), s.TestExcludeFlags...),
	}
}
