package completer

import "fmt"

// SelectionMode controls how the raw selection names are applied to the
// registry defaults.
type SelectionMode int

const (
	// ModeDefault selects every registered completer.
	ModeDefault SelectionMode = iota

	// ModeIncludeOnly selects exactly the named completers.
	ModeIncludeOnly

	// ModeExcludeOnly selects everything except the named completers.
	ModeExcludeOnly
)

func (m SelectionMode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeIncludeOnly:
		return "include-only"
	case ModeExcludeOnly:
		return "exclude-only"
	default:
		return fmt.Sprintf("SelectionMode(%d)", int(m))
	}
}

// EnvOverride is the decoded state of the native-completer environment
// variable.
type EnvOverride int

const (
	// OverrideNone leaves the selection untouched (variable unset).
	OverrideNone EnvOverride = iota

	// OverrideEnable force-adds the native completer.
	OverrideEnable

	// OverrideDisable force-removes the native completer.
	OverrideDisable
)

// EnvOverrideFromValue decodes the environment variable state as returned
// by os.LookupEnv: unset means no override, "true" forces the native
// completer on, any other value forces it off.
func EnvOverrideFromValue(v string, ok bool) EnvOverride {
	switch {
	case !ok:
		return OverrideNone
	case v == "true":
		return OverrideEnable
	default:
		return OverrideDisable
	}
}

// Selection is the raw user selection before resolution. Names may be
// aliases and are validated against the registry during Resolve.
type Selection struct {
	Mode  SelectionMode
	Names []string
}

// SelectionFromLists builds a Selection from the include and exclude flag
// values. Supplying both is a configuration error (ErrConflictingSelection);
// supplying neither selects everything.
func SelectionFromLists(include, exclude []string) (Selection, error) {
	switch {
	case len(include) > 0 && len(exclude) > 0:
		return Selection{}, ErrConflictingSelection
	case len(include) > 0:
		return Selection{Mode: ModeIncludeOnly, Names: include}, nil
	case len(exclude) > 0:
		return Selection{Mode: ModeExcludeOnly, Names: exclude}, nil
	default:
		return Selection{Mode: ModeDefault}, nil
	}
}

// Resolve computes the final set of completers to build and test.
//
// The transforms apply strictly in order:
//
//  1. defaults: all registered completers, replaced by the include set or
//     reduced by the exclude set depending on the selection mode;
//  2. legacy flag: legacyDisableNative removes the native completer
//     (the deprecation warning is the caller's concern);
//  3. environment override: applied unconditionally last, so the
//     environment always wins over CLI-derived selection.
//
// Every raw selection name resolves through the registry; the first unknown
// name aborts resolution with ErrUnknownCompleter before any transform is
// applied. The result is deduplicated and in registry order.
func Resolve(reg *Registry, sel Selection, legacyDisableNative bool, env EnvOverride) ([]string, error) {
	named, err := resolveNames(reg, sel.Names)
	if err != nil {
		return nil, err
	}

	selected := make(map[string]bool, reg.Len())
	switch sel.Mode {
	case ModeIncludeOnly:
		for _, name := range named {
			selected[name] = true
		}
	case ModeExcludeOnly:
		for _, name := range reg.AllNames() {
			selected[name] = true
		}
		for _, name := range named {
			delete(selected, name)
		}
	default:
		for _, name := range reg.AllNames() {
			selected[name] = true
		}
	}

	if legacyDisableNative {
		delete(selected, NativeName)
	}

	switch env {
	case OverrideEnable:
		selected[NativeName] = true
	case OverrideDisable:
		delete(selected, NativeName)
	}

	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	return reg.Order(names), nil
}

// resolveNames maps raw names through the registry, failing fast on the
// first unknown one.
func resolveNames(reg *Registry, raw []string) ([]string, error) {
	resolved := make([]string, 0, len(raw))
	for _, name := range raw {
		canonical, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, canonical)
	}
	return resolved, nil
}
