// Package errors provides the error taxonomy shared by all infomap packages.
//
// # Classification
//
// Errors fall into three classes that drive handling decisions:
//
//   - Transient: temporary failures (connectivity, timeouts) that callers may retry
//   - Invalid: bad input or configuration; retrying the same input cannot succeed
//   - Fatal: unrecoverable failures that should stop processing
//
// All cluster file parse failures are Invalid by construction: the three loader
// sentinels (ErrUnsupportedFormat, ErrFileFormat, ErrNameExtraction) classify as
// Invalid whether used bare or wrapped.
//
// # Wrapping
//
// Use the Wrap helpers to attach component/method/action context in the standard
// "component.method: action failed: %w" form:
//
//	if err := scanner.Err(); err != nil {
//	    return errors.Wrap(err, "ClusterMap", "ReadTree", "read input")
//	}
//
// WrapInvalid, WrapTransient, and WrapFatal additionally fix the classification
// so downstream code can branch on errors.IsInvalid / IsTransient / IsFatal
// without knowing the concrete cause.
//
// Sentinels survive wrapping; errors.Is(err, ErrFileFormat) works on wrapped
// chains, so tests and callers can assert on the precise failure kind.
package errors
