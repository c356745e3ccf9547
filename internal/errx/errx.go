// Package errx provides small helpers for attaching context to sentinel
// errors while keeping them matchable with errors.Is.
package errx

import "fmt"

// Wrap chains a sentinel error and its underlying cause.
func Wrap(sentinel, cause error) error {
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// With appends formatted context to err. The format string is applied after
// the error text, so callers typically start it with ": " or " ".
func With(err error, format string, args ...any) error {
	return fmt.Errorf("%w"+format, append([]any{err}, args...)...)
}
