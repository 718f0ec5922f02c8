package core

import "errors"

// Predefined errors returned by the sink.
var (
	// ErrClosed is returned by operations on a closed sink.
	ErrClosed = errors.New("sink is closed")
	// ErrNilDB is returned when WrapDB is given no database.
	ErrNilDB = errors.New("nil *sql.DB")
	// ErrNoStatement is returned when a record's operation produces nothing to execute.
	ErrNoStatement = errors.New("operation produces no statement")
)

// WrapError wraps an error with additional context message.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
