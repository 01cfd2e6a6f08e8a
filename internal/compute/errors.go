package compute

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoPlatforms indicates the ICD loader reported no platforms.
	ErrNoPlatforms = errors.New("no platforms available")

	// ErrNoDevices indicates the platform has no device of the requested type.
	ErrNoDevices = errors.New("no devices available")

	// ErrRankMismatch is returned when global and local sizes disagree on rank.
	ErrRankMismatch = errors.New("kernel local and global dimensions mismatch")

	// ErrInvalidRank is returned for a dispatch rank outside 1..3.
	ErrInvalidRank = errors.New("kernel dispatch rank must be 1, 2 or 3")

	// ErrInvalidWorkSize is returned for a work size dimension below 1.
	ErrInvalidWorkSize = errors.New("kernel work size dimensions must be positive")

	// ErrNoGlobalSize is returned when a kernel is run before its global size is set.
	ErrNoGlobalSize = errors.New("kernel global size is not set")

	// ErrAggregateArg rejects kernel argument payloads that are neither a
	// native word nor a memory handle.
	ErrAggregateArg = errors.New("structures in kernel args are not allowed")

	// ErrReleased is returned when a handle is used after Release.
	ErrReleased = errors.New("object already released")

	// ErrDriverUnavailable is returned by NewOpenCLDriver on builds without
	// the native bindings.
	ErrDriverUnavailable = errors.New("OpenCL support requires Linux with CGO enabled")
)

// BuildError is returned by CreateKernel when the program fails to compile.
// Log holds the full compiler output.
type BuildError struct {
	Log string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("clBuildProgram: %s", BuildProgramFailure)
}

// Unwrap exposes the underlying status so callers may match on it.
func (e *BuildError) Unwrap() error {
	return &StatusError{Op: "clBuildProgram", Status: BuildProgramFailure}
}
