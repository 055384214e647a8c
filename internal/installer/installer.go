// SPDX-License-Identifier: MPL-2.0

// Package installer is the external package-manager collaborator: given
// a target folder and a list of "name@\"range\"" identifiers, it shells
// out to a package manager binary to materialize each one into the
// target's node_modules. The default implementation never writes a
// manifest or a lockfile and never mutates the target's own package.json.
package installer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

// ErrInstaller is the sentinel wrapped by every *InstallerError.
var ErrInstaller = fmt.Errorf("installer error")

// InstallerError reports a failed installer invocation. ExitCode is nil
// when the process could not be run or reported no exit status (e.g. the
// binary was not found). Error-channel output with a zero exit produces
// no InstallerError at all; Install only logs it.
type InstallerError struct {
	Target   string
	ExitCode *int
	Err      error
}

func (e *InstallerError) Error() string {
	if e.ExitCode != nil {
		return fmt.Sprintf("installer: target %s exited %d: %v", e.Target, *e.ExitCode, e.Err)
	}
	return fmt.Sprintf("installer: target %s: %v", e.Target, e.Err)
}

func (e *InstallerError) Unwrap() error { return ErrInstaller }

// Installer materializes a set of dependency identifiers into a target
// folder's node_modules.
type Installer interface {
	Install(ctx context.Context, target string, identifiers []string) error
}

// Exec is the default os/exec-backed Installer. Binary defaults to "npm"
// and Args to {"install", "--no-save", "--no-package-lock"}; both are
// overridable so a monorepo can point at pnpm, yarn, or a vendored
// binary without changing the pipeline.
type Exec struct {
	Binary string
	Args   []string
	Logger *log.Logger
}

// NewExec returns an Exec installer with the default npm invocation.
func NewExec(logger *log.Logger) *Exec {
	return &Exec{
		Binary: "npm",
		Args:   []string{"install", "--no-save", "--no-package-lock"},
		Logger: logger,
	}
}

// Install runs the configured binary in target with identifiers appended
// as positional arguments. Stderr is collected until the process exits; a
// non-zero exit is fatal and carries that output as its error, while
// output on stderr without a non-zero exit is only logged as a warning,
// per §7's advisory-vs-fatal distinction.
func (e *Exec) Install(ctx context.Context, target string, identifiers []string) error {
	args := append(append([]string{}, e.Args...), identifiers...)
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Dir = target

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stderr.String()

	if err == nil {
		if output != "" && e.Logger != nil {
			e.Logger.Warn("installer reported output without a non-zero exit", "target", target, "output", output)
		}
		return nil
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return &InstallerError{Target: target, Err: err}
	}

	code := exitErr.ExitCode()
	return &InstallerError{Target: target, ExitCode: &code, Err: fmt.Errorf("%s", output)}
}
