package filetree

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/filetree/paths"
)

// Sentinel errors for tree operations. Use errors.Is to check.
var (
	ErrNotInitialized     = errors.New("tree not initialized")
	ErrAlreadyInitialized = errors.New("tree already initialized")
	ErrBadPath            = paths.ErrBadPath
	ErrConflictingPath    = errors.New("conflicting path")
	ErrNotADirectory      = errors.New("not a directory")
	ErrNotAFile           = errors.New("not a file")
	ErrAlreadyInTree      = errors.New("already in tree")
	ErrNoSuchPath         = errors.New("no such path")
	ErrMemory             = errors.New("out of node capacity")
)

// PathError records a failed tree operation and the path it was applied to
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError wraps err for op on path
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// Exit codes for the ft CLI
const (
	ExitCodeSuccess        = 0
	ExitCodeGeneralError   = 1
	ExitCodeUsageError     = 2
	ExitCodeNotInitialized = 3
	ExitCodeBadPath        = 4
	ExitCodeConflict       = 5
	ExitCodeNotFound       = 6
	ExitCodeWrongType      = 7
	ExitCodeMemory         = 8
	ExitCodeInvalidTree    = 9
	ExitCodeConfigError    = 10
)

// ErrInvalidTree is wrapped by checker violations
var ErrInvalidTree = errors.New("invalid tree")

// ErrConfig is wrapped by configuration and manifest loading failures
var ErrConfig = errors.New("invalid configuration")

// ErrUsage is wrapped by command line argument and flag errors
var ErrUsage = errors.New("usage error")

// ExitCodeForError maps an error to the exit code the CLI terminates with
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrNotInitialized), errors.Is(err, ErrAlreadyInitialized):
		return ExitCodeNotInitialized
	case errors.Is(err, ErrBadPath):
		return ExitCodeBadPath
	case errors.Is(err, ErrConflictingPath), errors.Is(err, ErrAlreadyInTree):
		return ExitCodeConflict
	case errors.Is(err, ErrNoSuchPath):
		return ExitCodeNotFound
	case errors.Is(err, ErrNotADirectory), errors.Is(err, ErrNotAFile):
		return ExitCodeWrongType
	case errors.Is(err, ErrMemory):
		return ExitCodeMemory
	case errors.Is(err, ErrInvalidTree):
		return ExitCodeInvalidTree
	case errors.Is(err, ErrConfig):
		return ExitCodeConfigError
	case errors.Is(err, ErrUsage):
		return ExitCodeUsageError
	default:
		return ExitCodeGeneralError
	}
}

// StatusLabel returns a short, bounded label for err suitable for metrics
func StatusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrBadPath):
		return "bad_path"
	case errors.Is(err, ErrConflictingPath):
		return "conflicting_path"
	case errors.Is(err, ErrAlreadyInTree):
		return "already_in_tree"
	case errors.Is(err, ErrNoSuchPath):
		return "no_such_path"
	case errors.Is(err, ErrNotADirectory):
		return "not_a_directory"
	case errors.Is(err, ErrNotAFile):
		return "not_a_file"
	case errors.Is(err, ErrMemory):
		return "memory"
	default:
		return "error"
	}
}
