// SPDX-License-Identifier: MPL-2.0

package pipeline

import "errors"

// ErrUncritical is the sentinel wrapped by every *UncriticalError.
var ErrUncritical = errors.New("uncritical pipeline exit")

// UncriticalError reports an expected early-exit condition: the project
// has no modules folder, or the pipeline was started outside a project
// root. The top-level runner logs these at info and exits 0, never 1.
type UncriticalError struct {
	Reason string
}

func (e *UncriticalError) Error() string { return e.Reason }

func (e *UncriticalError) Unwrap() error { return ErrUncritical }

// ExitCode maps a pipeline error to the process exit code the spec's
// error handling design assigns it: 0 for nil or an UncriticalError, 1
// for everything else (ManifestError, a fatal InstallerError,
// PlacementInvariantViolation, or any other unhandled error).
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrUncritical) {
		return 0
	}
	return 1
}
