// SPDX-License-Identifier: MPL-2.0

// Package posthook runs a module's scripts.postinstall command from
// within its own directory, using mvdan.cc/sh/v3's portable interpreter
// rather than assuming a POSIX shell binary is present on PATH.
package posthook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Result carries a postinstall command's outcome.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Run parses and executes command with workDir as its working directory.
// A command string that fails to parse is a Go-level error; a command
// that parses but exits non-zero is reported via Result.ExitCode, not an
// error, since a failing postinstall hook is the module author's concern
// and should not itself abort the pipeline.
func Run(ctx context.Context, workDir, command string) (Result, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "postinstall")
	if err != nil {
		return Result{}, fmt.Errorf("postinstall script syntax error: %w", err)
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.Dir(workDir),
		interp.Env(expand.ListEnviron(os.Environ()...)),
		interp.StdIO(nil, &stdout, &stderr),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create postinstall interpreter: %w", err)
	}

	result := Result{}
	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			result.ExitCode = int(exitStatus)
		} else {
			result.Stdout, result.Stderr = stdout.String(), stderr.String()
			return result, fmt.Errorf("postinstall execution failed: %w", err)
		}
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result, nil
}
