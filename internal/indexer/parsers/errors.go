package parsers

import (
	"errors"
	"fmt"
)

var (
	// ErrToolUnavailable indicates the external parser executable or script is missing.
	ErrToolUnavailable = errors.New("parser tool unavailable")

	// ErrParseFailure indicates the parser process failed or produced unreadable output.
	ErrParseFailure = errors.New("parser failure")

	// ErrSourceError indicates the parser understood the request but rejected the source.
	ErrSourceError = errors.New("source parse error")
)

// Error carries the file being parsed alongside a classified cause.
type Error struct {
	File   string
	Kind   error // one of ErrToolUnavailable, ErrParseFailure, ErrSourceError
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.File)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the error's category so callers can use errors.Is(err, ErrParseFailure).
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, file, detail string, err error) *Error {
	return &Error{File: file, Kind: kind, Detail: detail, Err: err}
}
