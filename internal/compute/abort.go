package compute

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// Fatal error output and process exit, replaceable in tests.
var (
	abortOutput io.Writer = os.Stderr
	abortExit             = os.Exit
)

// Abort prints the caller's location and err, then exits with status 1.
// A nil err is ignored.
func Abort(err error) {
	if err == nil {
		return
	}
	abort(2, err)
}

// Must returns v, or aborts if err is non-nil.
func Must[T any](v T, err error) T {
	if err != nil {
		abort(2, err)
	}
	return v
}

func abort(skip int, err error) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file, line = "???", 0
	}
	fmt.Fprintf(abortOutput, "%s:%d / panic: %v\n", filepath.Base(file), line, err)
	abortExit(1)
}
