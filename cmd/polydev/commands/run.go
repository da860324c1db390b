package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polydev/polyd/internal/exepath"
	"github.com/polydev/polyd/internal/proc"
	"github.com/polydev/polyd/pkg/completer"
	"github.com/polydev/polyd/pkg/plan"
)

// fixtureDir holds the TypeScript language server used as a test fixture.
// It needs an npm install + compile before the suites can talk to it.
const fixtureDir = "third_party/generic_server"

var (
	runCompleters   []string
	runNoCompleters []string
	runNoCfamily    bool
	runSkipBuild    bool
	runCoverage     bool
	runNoRetry      bool
	runQuiet        bool
	runValgrind     bool
	runMSVC         int
	runNoLint       bool
	runDumpPath     bool
	runDir          string
)

var runCmd = &cobra.Command{
	Use:   "run [flags] [-- runner args]",
	Short: "Build the selected completers and run the test suites",
	Long: `Build the selected completers and run the test suites.

Which completers are exercised is resolved in a fixed order: the full
registry (or only --completers, or everything minus --no-completers),
then the deprecated --no-cfamily-completer flag, then the
POLYD_USE_CFAMILY_COMPLETER environment variable, which always wins.

Arguments after -- are handed to the test runner in place of the default
test root.

Examples:
  # Build everything and run the full suite
  polydev run

  # Only the Go and Python completers
  polydev run --completers go,python

  # Everything except the C-family completer
  polydev run --no-completers cfamily

  # Re-run a single suite without rebuilding
  polydev run --skip-build -- tests/go

  # Native suites under valgrind
  polydev run --valgrind`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSliceVar(&runCompleters, "completers", nil, "Only build and test these completers (names or aliases)")
	runCmd.Flags().StringSliceVar(&runNoCompleters, "no-completers", nil, "Build and test everything except these completers")
	runCmd.Flags().BoolVar(&runNoCfamily, "no-cfamily-completer", false, "Disable the C-family completer")
	runCmd.Flags().BoolVar(&runSkipBuild, "skip-build", false, "Skip the build step and only run tests")
	runCmd.Flags().BoolVar(&runCoverage, "coverage", false, "Enable coverage instrumentation (also POLYD_COVERAGE=true)")
	runCmd.Flags().BoolVar(&runNoRetry, "no-retry", false, "Disable flaky-test retries")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Suppress builder progress output")
	runCmd.Flags().BoolVar(&runValgrind, "valgrind", false, "Run the native suites under valgrind")
	runCmd.Flags().IntVar(&runMSVC, "msvc", 16, "MSVC toolchain version on Windows (14, 15 or 16)")
	runCmd.Flags().BoolVar(&runNoLint, "no-lint", false, "Skip the lint step")
	runCmd.Flags().BoolVar(&runDumpPath, "dump-path", false, "Print the computed module search path and exit")
	runCmd.Flags().StringVar(&runDir, "dir", "", "Repository root (default: current directory)")

	runCmd.MarkFlagsMutuallyExclusive("completers", "no-completers")
	_ = runCmd.Flags().MarkDeprecated("no-cfamily-completer", "use --no-completers=cfamily instead")
}

func runRun(cmd *cobra.Command, args []string) error {
	rootDir := runDir
	if rootDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to determine working directory: %w", err)
		}
		rootDir = wd
	}

	switch runMSVC {
	case 14, 15, 16:
	default:
		return fmt.Errorf("invalid --msvc version %d (valid: 14, 15, 16)", runMSVC)
	}

	registry := completer.Default()

	selection, err := completer.SelectionFromLists(runCompleters, runNoCompleters)
	if err != nil {
		return err
	}

	envOverride := completer.EnvOverrideFromValue(os.LookupEnv(completer.EnvUseNative))

	resolved, err := completer.Resolve(registry, selection, runNoCfamily, envOverride)
	if err != nil {
		return err
	}

	opts := plan.Options{
		RootDir:   rootDir,
		Coverage:  runCoverage || os.Getenv(plan.EnvCoverage) == "true",
		Quiet:     runQuiet,
		MSVC:      runMSVC,
		NoRetry:   runNoRetry,
		ExtraArgs: args,
	}

	if runDumpPath {
		fmt.Fprintln(cmd.OutOrStdout(), plan.ModulePath(rootDir, os.Getenv(plan.EnvModulePath)))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := proc.New()

	if !runNoLint {
		if err := runLint(ctx, runner, rootDir); err != nil {
			return err
		}
	}

	if !runSkipBuild {
		if err := runBuild(ctx, runner, registry, resolved, opts); err != nil {
			return err
		}
		if err := prepareFixture(ctx, runner, rootDir); err != nil {
			return err
		}
	}

	return runTests(ctx, runner, registry, resolved, opts)
}

// runLint runs golangci-lint when it is installed; a missing linter is
// only a notice, not a failure.
func runLint(ctx context.Context, runner *proc.Runner, rootDir string) error {
	lintPath := exepath.Find("golangci-lint")
	if lintPath == "" {
		fmt.Fprintln(os.Stderr, "golangci-lint not found, skipping lint step")
		return nil
	}

	return runner.Run(ctx, plan.Command{
		Argv: []string{lintPath, "run", "./..."},
		Dir:  rootDir,
	})
}

func runBuild(ctx context.Context, runner *proc.Runner, registry *completer.Registry, resolved []string, opts plan.Options) error {
	builderPath, err := exepath.Require(plan.BuilderExecutable,
		"install the polyd core toolchain and make sure it is on PATH")
	if err != nil {
		return err
	}

	buildPlan := plan.Build(registry, resolved, opts)
	buildPlan.Argv[0] = builderPath
	return runner.Run(ctx, buildPlan)
}

// prepareFixture installs and compiles the generic language server the
// integration suites spawn.
func prepareFixture(ctx context.Context, runner *proc.Runner, rootDir string) error {
	npmPath, err := exepath.Require("npm",
		"install Node.js to build the generic language server test fixture")
	if err != nil {
		return err
	}

	dir := filepath.Join(rootDir, filepath.FromSlash(fixtureDir))
	if err := runner.Run(ctx, plan.Command{Argv: []string{npmPath, "install"}, Dir: dir}); err != nil {
		return err
	}
	return runner.Run(ctx, plan.Command{Argv: []string{npmPath, "run", "compile"}, Dir: dir})
}

func runTests(ctx context.Context, runner *proc.Runner, registry *completer.Registry, resolved []string, opts plan.Options) error {
	if runValgrind {
		valgrindPath, err := exepath.Require("valgrind",
			"install valgrind to run the native suites under it")
		if err != nil {
			return err
		}

		testPlan := plan.Valgrind(registry, resolved, opts)
		testPlan.Argv[0] = valgrindPath
		return runner.Run(ctx, testPlan)
	}

	runnerPath, err := exepath.Require(plan.RunnerExecutable,
		"install the polyd core toolchain and make sure it is on PATH")
	if err != nil {
		return err
	}

	testPlan := plan.Test(registry, resolved, opts)
	testPlan.Argv[0] = runnerPath
	return runner.Run(ctx, testPlan)
}
