// Package plan computes the argument vectors and environment overrides for
// the external build and test invocations. Planning is pure: nothing here
// touches the process table, so every plan is testable byte for byte.
package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/polydev/polyd/pkg/completer"
)

// Repository conventions the planner encodes.
const (
	// BuilderExecutable compiles the native completer cores.
	BuilderExecutable = "polyd-build"

	// RunnerExecutable runs the test suites.
	RunnerExecutable = "polyd-test"

	// DefaultTestRoot is scanned recursively when the caller supplies no
	// explicit test paths.
	DefaultTestRoot = "tests"

	// coverageFixtureExclude skips generated test fixtures that are not
	// source code under coverage measurement.
	coverageFixtureExclude = "--ignore=tests/python/testdata"

	// coverageTarget names the package measured for coverage.
	coverageTarget = "--cov=polyd"

	// nativeLibDir holds the shared libraries the native completer core
	// links against at runtime.
	nativeLibDir = "third_party/clang/lib"

	// EnvModulePath is the runtime module search path consumed by the
	// daemon's embedded interpreters.
	EnvModulePath = "POLYD_MODULE_PATH"

	// EnvNoRetry disables the test runner's flaky-test retries. The value
	// is passed through unmodified; retry policy belongs to the runner.
	EnvNoRetry = "POLYD_TEST_NO_RETRY"

	// EnvCoverage turns coverage on when set to "true", so CI can enable
	// it without touching the command line.
	EnvCoverage = "POLYD_COVERAGE"

	// valgrindSuppressions sits at the repository root.
	valgrindSuppressions = "valgrind.suppressions"
)

// modulePathDirs are the runtime module search path entries, relative to
// the repository root, in search order.
var modulePathDirs = []string{
	"third_party/jedi",
	"third_party/parso",
	"third_party/tern_runtime",
	filepath.Join("third_party", "generic_server", "out"),
}

// baseTestArgs precede every test runner invocation.
var baseTestArgs = []string{"-v", "--color=yes"}

// defaultValgrindSuites are the native suites exercised under valgrind when
// the caller supplies no explicit paths.
var defaultValgrindSuites = []string{"tests/bindings", "tests/clang"}

// Options carries the global flags that shape a plan.
type Options struct {
	// RootDir is the repository root the plans run in.
	RootDir string

	// Coverage enables coverage instrumentation for build and test.
	Coverage bool

	// Quiet suppresses builder progress output.
	Quiet bool

	// MSVC selects the Windows toolchain version (14, 15 or 16).
	MSVC int

	// NoRetry disables the test runner's flaky-test retries.
	NoRetry bool

	// ExtraArgs are passed through to the test runner in place of the
	// default scan root.
	ExtraArgs []string

	// GOOS overrides the target platform; empty means runtime.GOOS.
	// Plans differ per platform (msvc flag, library path variable).
	GOOS string

	// Getenv supplies existing environment values the plan extends
	// (EXTRA_CMAKE_ARGS, library path, module path). Nil means os.Getenv.
	Getenv func(string) string
}

func (o Options) goos() string {
	if o.GOOS != "" {
		return o.GOOS
	}
	return runtime.GOOS
}

func (o Options) getenv(key string) string {
	if o.Getenv != nil {
		return o.Getenv(key)
	}
	return os.Getenv(key)
}

// Command is a planned invocation: an argument vector, environment entries
// to merge over the parent environment, and the working directory.
type Command struct {
	Argv []string
	Env  []string
	Dir  string
}

// Name returns the executable the command invokes.
func (c Command) Name() string {
	if len(c.Argv) == 0 {
		return ""
	}
	return c.Argv[0]
}

// Build plans the builder invocation for the resolved completer set.
//
// Completer build flags follow registry order regardless of the order the
// resolved set arrived in, so identical selections always produce identical
// argument vectors.
func Build(reg *completer.Registry, resolved []string, opts Options) Command {
	argv := []string{BuilderExecutable, "--core-tests"}
	for _, name := range reg.Order(resolved) {
		spec, ok := reg.Get(name)
		if !ok {
			continue
		}
		argv = append(argv, spec.BuildFlags...)
	}
	if opts.goos() == "windows" && opts.MSVC != 0 {
		argv = append(argv, "--msvc", strconv.Itoa(opts.MSVC))
	}
	if opts.Coverage {
		argv = append(argv, "--enable-coverage", "--build-dir", ".build")
	}
	if opts.Quiet {
		argv = append(argv, "--quiet")
	}

	cmakeArgs := "-DUSE_DEV_FLAGS=ON"
	if existing := opts.getenv("EXTRA_CMAKE_ARGS"); existing != "" {
		cmakeArgs = existing + " " + cmakeArgs
	}

	return Command{
		Argv: argv,
		Env:  []string{"EXTRA_CMAKE_ARGS=" + cmakeArgs},
		Dir:  opts.RootDir,
	}
}

// Test plans the test runner invocation for the resolved completer set.
//
// Suites are excluded for every registered completer NOT in the resolved
// set: you skip tests for what you did not build.
func Test(reg *completer.Registry, resolved []string, opts Options) Command {
	argv := append([]string{RunnerExecutable}, baseTestArgs...)
	argv = append(argv, excludeFlags(reg, resolved)...)
	if opts.Coverage {
		argv = append(argv, coverageFixtureExclude, coverageTarget)
	}
	if len(opts.ExtraArgs) > 0 {
		argv = append(argv, opts.ExtraArgs...)
	} else {
		argv = append(argv, DefaultTestRoot)
	}

	env := runtimeEnv(opts)
	if opts.NoRetry {
		env = append(env, EnvNoRetry+"=1")
	}

	return Command{Argv: argv, Env: env, Dir: opts.RootDir}
}

// Valgrind plans the native suites under valgrind. Only the native-core
// suites run; everything else is meaningless under an interpreter-free
// memory checker.
func Valgrind(reg *completer.Registry, resolved []string, opts Options) Command {
	argv := []string{
		"valgrind",
		"--gen-suppressions=all",
		"--error-exitcode=1",
		"--leak-check=full",
		"--show-leak-kinds=definite,indirect",
		"--errors-for-leak-kinds=definite,indirect",
		"--suppressions=" + filepath.Join(opts.RootDir, valgrindSuppressions),
		RunnerExecutable,
	}
	argv = append(argv, baseTestArgs...)
	if len(opts.ExtraArgs) > 0 {
		argv = append(argv, opts.ExtraArgs...)
	} else {
		argv = append(argv, defaultValgrindSuites...)
	}
	argv = append(argv, "--skip=valgrind")

	env := runtimeEnv(opts)
	env = append(env, "MALLOC_CHECK_=2")

	return Command{Argv: argv, Env: env, Dir: opts.RootDir}
}

// ModulePath computes the runtime module search path for a repository
// root: the bundled third-party runtimes in search order, followed by any
// existing value.
func ModulePath(root, existing string) string {
	parts := make([]string, 0, len(modulePathDirs)+1)
	for _, dir := range modulePathDirs {
		parts = append(parts, filepath.Join(root, filepath.FromSlash(dir)))
	}
	if existing != "" {
		parts = append(parts, existing)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// excludeFlags returns the test-exclude flags for every registered
// completer not in the resolved set, in registry order.
func excludeFlags(reg *completer.Registry, resolved []string) []string {
	selected := make(map[string]bool, len(resolved))
	for _, name := range resolved {
		selected[name] = true
	}

	var flags []string
	for _, spec := range reg.Specs() {
		if selected[spec.Name] {
			continue
		}
		flags = append(flags, spec.TestExcludeFlags...)
	}
	return flags
}

// runtimeEnv returns the environment the test runner needs to locate the
// native core libraries and the bundled runtime modules.
func runtimeEnv(opts Options) []string {
	libDir := filepath.Join(opts.RootDir, filepath.FromSlash(nativeLibDir))

	var env []string
	if opts.goos() == "windows" {
		// Windows resolves shared libraries through PATH.
		env = append(env, prependPathList("PATH", libDir, opts.getenv("PATH")))
	} else {
		env = append(env, prependPathList("LD_LIBRARY_PATH", libDir, opts.getenv("LD_LIBRARY_PATH")))
	}
	env = append(env, fmt.Sprintf("%s=%s", EnvModulePath, ModulePath(opts.RootDir, opts.getenv(EnvModulePath))))
	return env
}

func prependPathList(key, dir, existing string) string {
	value := dir
	if existing != "" {
		value = dir + string(os.PathListSeparator) + existing
	}
	return key + "=" + value
}
