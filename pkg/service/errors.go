package service

import (
	"github.com/pkg/errors"
)

// Kind classifies a service error so that transports can map it to a
// response without inspecting store-specific errors.
type Kind int

const (
	// KindInternal covers store and communication faults.
	KindInternal Kind = iota
	// KindInvalidArgument means the request was rejected before reaching
	// the store.
	KindInvalidArgument
	// KindNotFound means a single-item operation targeted a missing key.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

var (
	// ErrMissingKeyOrValue is returned when a write request lacks a key or a
	// value.
	ErrMissingKeyOrValue = errors.New("Key and value are required")

	// ErrNotFound is returned when the requested key does not exist.
	ErrNotFound = errors.New("Key not found")

	// ErrUnsupportedValue is returned for values that are neither strings
	// nor numbers.
	ErrUnsupportedValue = errors.New("invalid value type: expected a string or a number")
)

// Error is a classified service error.
type Error struct {
	Kind Kind
	// Key is the key the failed operation targeted, if any.
	Key string
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error so that errors.Cause reaches the
// original store error.
func (e *Error) Cause() error {
	return e.Err
}

// Message returns the text that is safe to return to a caller.
//
// For internal errors this is the innermost cause, which is the store's own
// error text.
func (e *Error) Message() string {
	if e.Kind == KindInternal {
		return errors.Cause(e.Err).Error()
	}
	return e.Err.Error()
}

func newError(kind Kind, key string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Key: key, Err: err}
}

// InvalidArgument returns a client input error with a formatted message.
func InvalidArgument(format string, args ...interface{}) error {
	return newError(KindInvalidArgument, "", errors.Errorf(format, args...))
}

// KindOf returns the classification of err.
//
// Errors that were not produced by this package are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
