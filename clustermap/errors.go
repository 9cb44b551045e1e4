package clustermap

import (
	"fmt"

	"github.com/pojeda/infomap/errors"
)

// ParseError describes a single unparseable line in a cluster file. It wraps
// one of the loader sentinels from the errors package so callers can branch
// on the failure kind with errors.Is while still seeing the offending input.
type ParseError struct {
	File   string
	LineNr int
	Line   string
	Reason string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s: %q", e.LineNr, e.Reason, e.Line)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.File, e.LineNr, e.Reason, e.Line)
}

// Unwrap returns the wrapped sentinel
func (e *ParseError) Unwrap() error {
	return e.Err
}

// formatError builds a ParseError wrapping errors.ErrFileFormat
func formatError(file string, lineNr int, line, reason string) error {
	return &ParseError{File: file, LineNr: lineNr, Line: line, Reason: reason, Err: errors.ErrFileFormat}
}

// nameError builds a ParseError wrapping errors.ErrNameExtraction
func nameError(file string, lineNr int, line, reason string) error {
	return &ParseError{File: file, LineNr: lineNr, Line: line, Reason: reason, Err: errors.ErrNameExtraction}
}
