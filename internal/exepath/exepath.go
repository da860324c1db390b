// Package exepath locates executables on PATH with Windows-aware
// extension probing.
package exepath

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// winExecutableExts are probed in order when a Windows lookup names an
// executable without a runnable extension.
var winExecutableExts = []string{".exe", ".bat", ".cmd"}

// Find returns the path of the named executable, or "" when it cannot
// be found on PATH. On Windows a name without a runnable extension is
// probed with .exe, .bat and .cmd in that order. Names containing a
// path separator are checked directly instead of searched.
func Find(name string) string {
	if runtime.GOOS == "windows" && !hasRunnableExt(name) {
		for _, ext := range winExecutableExts {
			if path, err := exec.LookPath(name + ext); err == nil {
				return path
			}
		}
		return ""
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// Require returns the path of the named executable, or an error
// carrying the given install guidance when it cannot be found.
func Require(name, guidance string) (string, error) {
	path := Find(name)
	if path == "" {
		return "", fmt.Errorf("unable to find executable %q: %s", name, guidance)
	}
	return path, nil
}

func hasRunnableExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range winExecutableExts {
		if ext == e {
			return true
		}
	}
	return false
}
