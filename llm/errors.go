package llm

import "errors"

// The client classifies every failure as transient or fatal. Transient
// failures (network, rate limits, 5xx) are retried with backoff; fatal
// failures (auth, malformed requests) abort immediately.

// TransientError marks an error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks an error that retrying cannot fix.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError wraps err as non-retryable.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err should abort without retry.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
