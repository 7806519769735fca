// Package errors provides annotated errors that carry slog attributes and the
// source location where they were created. It re-exports the stdlib helpers so
// callers only need one errors import.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
)

// annotatedError wraps an error with a message, slog attributes, and the
// program counter of the call site that created it.
type annotatedError struct {
	msg         string
	err         error
	annotations []slog.Attr
	pc          uintptr
}

// Error implements the error interface.
func (e *annotatedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap exposes the wrapped error for errors.Is and errors.As.
func (e *annotatedError) Unwrap() error {
	return e.err
}

// NewSentinel creates a root error without a wrapped cause. Use it for
// package-level sentinel errors that callers match with errors.Is.
func NewSentinel(msg string) error {
	return &annotatedError{
		msg: msg,
		pc:  callerPC(2), //nolint:mnd // skip runtime.Callers and NewSentinel.
	}
}

// Wrap annotates err with a message and optional slog attributes. The call
// site is recorded so that SlogError can point at the origin of the failure.
// Wrapping a nil error yields an error with only the message.
func Wrap(err error, msg string, annotations ...slog.Attr) error {
	return &annotatedError{
		msg:         msg,
		err:         err,
		annotations: annotations,
		pc:          callerPC(2), //nolint:mnd // skip runtime.Callers and Wrap.
	}
}

// DecoratePanic converts a recovered panic value into an error whose recorded
// source points at the statement that panicked rather than the recover site.
func DecoratePanic(recovered any) error {
	const maxStackDepth = 32
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	// The frame following runtime.gopanic is the one that panicked.
	var panicPC uintptr
	sawGopanic := false
	for {
		frame, more := frames.Next()
		if sawGopanic {
			panicPC = frame.PC
			break
		}
		if frame.Function == "runtime.gopanic" {
			sawGopanic = true
		}
		if !more {
			break
		}
	}

	return &annotatedError{
		msg: fmt.Sprintf("panic: %v", recovered),
		pc:  panicPC,
	}
}

// SlogError converts an error into a slog.Attr grouping the message, the
// source location of the outermost annotated error, and any annotations
// gathered along the unwrap chain.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Group("error", slog.String("message", "<nil>"))
	}

	attrs := []slog.Attr{slog.String("message", err.Error())}

	if source := sourceLocation(err); source != "" {
		attrs = append(attrs, slog.String("source", source))
	}

	if annotations := collectAnnotations(err); len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}

	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// sourceLocation resolves the recorded call site of the outermost annotated
// error in the chain.
func sourceLocation(err error) string {
	var annotated *annotatedError
	if !errors.As(err, &annotated) || annotated.pc == 0 {
		return ""
	}
	frames := runtime.CallersFrames([]uintptr{annotated.pc})
	frame, _ := frames.Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// collectAnnotations walks the unwrap chain and gathers attributes from every
// annotated error, outermost first.
func collectAnnotations(err error) []slog.Attr {
	var annotations []slog.Attr
	for err != nil {
		var annotated *annotatedError
		if !errors.As(err, &annotated) {
			break
		}
		annotations = append(annotations, annotated.annotations...)
		err = annotated.err
	}
	return annotations
}

// callerPC returns the program counter skip frames above the caller.
func callerPC(skip int) uintptr {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) == 0 {
		return 0
	}
	return pcs[0]
}

// Stack-free re-exports of the stdlib error helpers.

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join wraps the given errors into a single error.
func Join(errs ...error) error { return errors.Join(errs...) }
