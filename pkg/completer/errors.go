package completer

import "errors"

var (
	// ErrUnknownCompleter reports a selection naming no registered
	// completer or alias. Resolution fails on the first unknown name,
	// before any external process is planned or run.
	ErrUnknownCompleter = errors.New("unknown completer")

	// ErrConflictingSelection reports a selection that both includes
	// and excludes completers.
	ErrConflictingSelection = errors.New("cannot both include and exclude completers")
)
