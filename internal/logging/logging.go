// SPDX-License-Identifier: MPL-2.0

// Package logging wraps github.com/charmbracelet/log, mapping the CLI's
// seven loglevel names onto the library's five Level values. "verbose"
// and "silly" have no library-native counterpart and are folded onto the
// nearest level the library supports (verbose -> Info, silly -> Debug),
// with the original name carried in each record as a "detail" field so
// the distinction survives in structured output.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Levels, in increasing verbosity, matching the CLI surface's --loglevel.
const (
	LevelCritical = "critical"
	LevelError    = "error"
	LevelWarn     = "warn"
	LevelInfo     = "info"
	LevelVerbose  = "verbose"
	LevelDebug    = "debug"
	LevelSilly    = "silly"
)

var libraryLevel = map[string]log.Level{
	LevelCritical: log.FatalLevel,
	LevelError:    log.ErrorLevel,
	LevelWarn:     log.WarnLevel,
	LevelInfo:     log.InfoLevel,
	LevelVerbose:  log.InfoLevel,
	LevelDebug:    log.DebugLevel,
	LevelSilly:    log.DebugLevel,
}

// detailLevel records, for levels the library folds onto a coarser one,
// the original CLI level name attached as a "detail" field.
var detailLevel = map[string]string{
	LevelVerbose: LevelVerbose,
	LevelSilly:   LevelSilly,
}

// New returns a logger prefixed "monohoist" at the given CLI level.
// An unrecognized level is an error, not a silent fallback, since a
// mistyped --loglevel flag should fail fast rather than run quietly at
// the wrong verbosity.
func New(cliLevel string) (*log.Logger, error) {
	lvl, ok := libraryLevel[strings.ToLower(cliLevel)]
	if !ok {
		return nil, fmt.Errorf("unrecognized loglevel %q", cliLevel)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "monohoist",
		Level:  lvl,
	})

	if detail, ok := detailLevel[strings.ToLower(cliLevel)]; ok {
		logger = logger.With("detail", detail)
	}

	return logger, nil
}

// ValidLevels lists every accepted --loglevel value, in increasing
// verbosity order, for CLI usage/help text.
func ValidLevels() []string {
	return []string{LevelCritical, LevelError, LevelWarn, LevelInfo, LevelVerbose, LevelDebug, LevelSilly}
}
