package completer

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultRegistryOrder(t *testing.T) {
	reg := Default()

	want := []string{"cfamily", "cs", "javascript", "typescript", "python", "java", "clangd", "rust", "go"}
	if got := reg.AllNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllNames() = %v, want %v", got, want)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	reg := Default()

	tests := []struct {
		input string
		want  string
	}{
		{"cfamily", "cfamily"},
		{"CFAMILY", "cfamily"},
		{"Clang", "cfamily"},
		{"C++", "cfamily"},
		{"objc", "cfamily"},
		{"CS", "cs"},
		{"OmniSharp", "cs"},
		{"c#", "cs"},
		{"js", "javascript"},
		{"Tern", "javascript"},
		{"TS", "typescript"},
		{"jedi", "python"},
		{"JediHTTP", "python"},
		{"JDT", "java"},
		{"go", "go"},
		{"Rust", "rust"},
		{"clangd", "clangd"},
	}

	for _, tt := range tests {
		got, err := reg.Lookup(tt.input)
		if err != nil {
			t.Errorf("Lookup(%q) returned error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	reg := Default()

	for _, input := range []string{"", "fortran", "c--", "jss"} {
		_, err := reg.Lookup(input)
		if !errors.Is(err, ErrUnknownCompleter) {
			t.Errorf("Lookup(%q) error = %v, want ErrUnknownCompleter", input, err)
		}
	}

	_, err := reg.Lookup("fortran")
	if err == nil || !strings.Contains(err.Error(), "fortran") {
		t.Errorf("error %v does not name the unknown completer", err)
	}
}

func TestSimpleEntryDerivesFlags(t *testing.T) {
	reg, err := New(nil, []string{"rust"})
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}

	spec, ok := reg.Get("rust")
	if !ok {
		t.Fatal("Get(rust) not found")
	}
	if want := []string{"--rust-completer"}; !reflect.DeepEqual(spec.BuildFlags, want) {
		t.Errorf("BuildFlags = %v, want %v", spec.BuildFlags, want)
	}
	if want := []string{"--ignore=tests/rust"}; !reflect.DeepEqual(spec.TestExcludeFlags, want) {
		t.Errorf("TestExcludeFlags = %v, want %v", spec.TestExcludeFlags, want)
	}
}

func TestNewRejectsCollisions(t *testing.T) {
	tests := []struct {
		name     string
		explicit []Spec
		simple   []string
	}{
		{
			name:     "duplicate canonical name",
			explicit: []Spec{{Name: "rust"}},
			simple:   []string{"rust"},
		},
		{
			name:     "alias collides with canonical name",
			explicit: []Spec{{Name: "cfamily", Aliases: []string{"rust"}}},
			simple:   []string{"rust"},
		},
		{
			name: "alias collides with another alias",
			explicit: []Spec{
				{Name: "cfamily", Aliases: []string{"c"}},
				{Name: "cs", Aliases: []string{"C"}},
			},
		},
		{
			name:     "empty name",
			explicit: []Spec{{Name: ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.explicit, tt.simple); err == nil {
				t.Error("New() succeeded, want construction error")
			}
		})
	}
}

// Any permutation of the built-in completer set must construct a registry
// whose aliases each resolve to exactly one canonical name.
func TestRegistryInvariantsUnderPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		explicit := append([]Spec(nil), explicitSpecs...)
		simple := append([]string(nil), simpleNames...)
		rng.Shuffle(len(explicit), func(i, j int) { explicit[i], explicit[j] = explicit[j], explicit[i] })
		rng.Shuffle(len(simple), func(i, j int) { simple[i], simple[j] = simple[j], simple[i] })

		reg, err := New(explicit, simple)
		if err != nil {
			t.Fatalf("trial %d: New() returned error: %v", trial, err)
		}

		names := make(map[string]bool)
		for _, name := range reg.AllNames() {
			if names[name] {
				t.Fatalf("trial %d: duplicate canonical name %q", trial, name)
			}
			names[name] = true
		}

		for _, spec := range reg.Specs() {
			for _, alias := range spec.Aliases {
				canonical, err := reg.Lookup(alias)
				if err != nil {
					t.Fatalf("trial %d: alias %q does not resolve: %v", trial, alias, err)
				}
				if canonical != spec.Name {
					t.Fatalf("trial %d: alias %q resolves to %q, want %q", trial, alias, canonical, spec.Name)
				}
				if names[alias] && alias != spec.Name {
					t.Fatalf("trial %d: alias %q equals another canonical name", trial, alias)
				}
			}
		}
	}
}

func TestSpecsReturnsCopies(t *testing.T) {
	reg := Default()

	specs := reg.Specs()
	specs[0].BuildFlags[0] = "--mutated"
	names := reg.AllNames()
	names[0] = "mutated"

	fresh, _ := reg.Get("cfamily")
	if fresh.BuildFlags[0] != "--clang-completer" {
		t.Error("mutating a returned spec changed the registry")
	}
	if reg.AllNames()[0] != "cfamily" {
		t.Error("mutating a returned name slice changed the registry")
	}
}

func TestOrder(t *testing.T) {
	reg := Default()

	got := reg.Order([]string{"go", "cfamily", "go", "python", "not-registered"})
	want := []string{"cfamily", "python", "go"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Order() = %v, want %v", got, want)
	}
}
