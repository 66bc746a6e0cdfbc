// Package result holds the tagged outcome returned by every dispatcher.
package result

import (
	"github.com/aditya-makadiya/sociofeed/pkg/errors"
)

// Result is either Ok(value) or Err(error)
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful payload
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure. A nil error is promoted to an unknown error so that
// an Err result can never be mistaken for Ok.
func Err[T any](err error) Result[T] {
	if err == nil {
		err = errors.New(errors.KindUnknown, errors.MsgUnexpected, nil)
	}
	return Result[T]{err: err}
}

// IsOk reports whether the result carries a value
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the payload; the zero value on Err
func (r Result[T]) Value() T {
	return r.value
}

// Error returns the failure; nil on Ok
func (r Result[T]) Error() error {
	return r.err
}

// Message returns the display message of the failure
func (r Result[T]) Message() string {
	return errors.Message(r.err)
}

// Unwrap returns value and error in Go's usual shape
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}
