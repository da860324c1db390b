package completer

// NativeName is the canonical name of the native-language completer.
// It is the only completer subject to the legacy disable flag and the
// environment override.
const NativeName = "cfamily"

// EnvUseNative is the environment variable that force-enables or
// force-disables the native-language completer. It is applied after every
// other selection transform, so it always wins.
const EnvUseNative = "POLYD_USE_CFAMILY_COMPLETER"

// explicitSpecs are the completers whose flags do not follow the simple
// naming convention. Declaration order is registry order.
var explicitSpecs = []Spec{
	{
		Name:             NativeName,
		Aliases:          []string{"c", "cpp", "c++", "objc", "clang"},
		BuildFlags:       []string{"--clang-completer"},
		TestExcludeFlags: []string{"--ignore=tests/clang"},
	},
	{
		Name:             "cs",
		Aliases:          []string{"omnisharp", "csharp", "c#"},
		BuildFlags:       []string{"--cs-completer"},
		TestExcludeFlags: []string{"--ignore=tests/cs"},
	},
	{
		Name:             "javascript",
		Aliases:          []string{"js", "tern"},
		BuildFlags:       []string{"--js-completer"},
		TestExcludeFlags: []string{"--ignore=tests/tern"},
	},
	{
		Name:       "typescript",
		Aliases:    []string{"ts"},
		BuildFlags: []string{"--ts-completer"},
		TestExcludeFlags: []string{
			"--ignore=tests/javascript",
			"--ignore=tests/typescript",
		},
	},
	{
		// Python completion is built into the daemon; nothing to build,
		// but its suites are still skippable.
		Name:             "python",
		Aliases:          []string{"jedi", "jedihttp"},
		TestExcludeFlags: []string{"--ignore=tests/python"},
	},
	{
		Name:             "java",
		Aliases:          []string{"jdt"},
		BuildFlags:       []string{"--java-completer"},
		TestExcludeFlags: []string{"--ignore=tests/java"},
	},
}

// simpleNames are the completers whose flags follow the naming convention.
var simpleNames = []string{"clangd", "rust", "go"}

// Default returns the built-in completer registry.
// Construction failure here is a programming error in the built-in data.
func Default() *Registry {
	reg, err := New(explicitSpecs, simpleNames)
	if err != nil {
		panic("invalid built-in completer registry: " + err.Error())
	}
	return reg
}
