package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/polydev/polyd/pkg/plan"
)

// resetRunFlags restores the run command's package-level flag state
// between executions.
func resetRunFlags() {
	runCmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	runCompleters = nil
	runNoCompleters = nil
	runNoCfamily = false
	runSkipBuild = false
	runCoverage = false
	runNoRetry = false
	runQuiet = false
	runValgrind = false
	runMSVC = 16
	runNoLint = false
	runDumpPath = false
	runDir = ""
}

func executeRun(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetRunFlags()

	out := new(bytes.Buffer)
	cmd := GetRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"run"}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRunDumpPath(t *testing.T) {
	t.Setenv(plan.EnvModulePath, "")

	out, err := executeRun(t, "--dump-path", "--dir", "/repo")
	if err != nil {
		t.Fatalf("run --dump-path failed: %v", err)
	}

	want := plan.ModulePath("/repo", "")
	if got := strings.TrimSpace(out); got != want {
		t.Errorf("dump-path output = %q, want %q", got, want)
	}
}

func TestRunInvalidMSVC(t *testing.T) {
	_, err := executeRun(t, "--dump-path", "--dir", "/repo", "--msvc", "13")
	if err == nil {
		t.Fatal("expected error for --msvc 13")
	}
	if !strings.Contains(err.Error(), "invalid --msvc version") {
		t.Errorf("error = %v, want invalid msvc version message", err)
	}
}

func TestRunConflictingSelections(t *testing.T) {
	_, err := executeRun(t, "--completers", "go", "--no-completers", "python", "--dump-path")
	if err == nil {
		t.Fatal("expected error for conflicting completer selections")
	}
}

func TestRunUnknownCompleter(t *testing.T) {
	_, err := executeRun(t, "--completers", "cobol", "--dump-path", "--dir", "/repo")
	if err == nil {
		t.Fatal("expected error for unknown completer")
	}
	if !strings.Contains(err.Error(), "cobol") {
		t.Errorf("error = %v, want mention of the unknown name", err)
	}
}
