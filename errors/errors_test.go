package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"no connection", ErrNoConnection, true},
		{"publish failed", ErrPublishFailed, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"unsupported format", ErrUnsupportedFormat, false},
		{"file format", ErrFileFormat, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"unsupported format", ErrUnsupportedFormat, true},
		{"file format", ErrFileFormat, true},
		{"name extraction", ErrNameExtraction, true},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"connection lost", ErrConnectionLost, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
		{"wrapped file format", fmt.Errorf("line 3: %w", ErrFileFormat), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"parse error", ErrFileFormat, ErrorInvalid},
		{"connection error", ErrConnectionLost, ErrorTransient},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, ErrorFatal},
		{"unknown defaults transient", fmt.Errorf("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil returns nil", func(t *testing.T) {
		if Wrap(nil, "ClusterMap", "ReadTree", "parse") != nil {
			t.Error("expected nil for nil error")
		}
	})

	t.Run("wraps with context", func(t *testing.T) {
		base := errors.New("boom")
		err := Wrap(base, "ClusterMap", "ReadTree", "parse line")
		if !errors.Is(err, base) {
			t.Error("wrapped error should unwrap to base")
		}
		if !strings.Contains(err.Error(), "ClusterMap.ReadTree: parse line failed") {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})
}

func TestWrapClassified(t *testing.T) {
	base := ErrFileFormat

	t.Run("invalid", func(t *testing.T) {
		err := WrapInvalid(base, "ClusterMap", "ReadClu", "tokenize")
		if !IsInvalid(err) {
			t.Error("expected invalid classification")
		}
		if !errors.Is(err, ErrFileFormat) {
			t.Error("expected sentinel to survive wrapping")
		}
	})

	t.Run("transient", func(t *testing.T) {
		err := WrapTransient(errors.New("hiccup"), "Host", "publish", "send event")
		if !IsTransient(err) {
			t.Error("expected transient classification")
		}
	})

	t.Run("fatal", func(t *testing.T) {
		err := WrapFatal(errors.New("bad"), "Host", "Start", "allocate")
		if !IsFatal(err) {
			t.Error("expected fatal classification")
		}
	})

	t.Run("nil passthrough", func(t *testing.T) {
		if WrapInvalid(nil, "a", "b", "c") != nil {
			t.Error("expected nil")
		}
	})
}
