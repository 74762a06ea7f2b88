// Package apperr defines the error taxonomy every public operation returns.
// Internal errors are converted to one of these kinds at the operation
// boundary; nothing else leaks to callers.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// KindNotFound marks an unknown session, question, assessment, or
	// resource key. Caller mistake; never retried internally.
	KindNotFound Kind = iota + 1
	// KindValidation marks malformed input such as an empty answer set.
	KindValidation
	// KindCollaborator marks a failed or timed-out external provider call.
	// Retryable; the failing operation leaves internal state unchanged.
	KindCollaborator
	// KindParse marks malformed generation output for a single question.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindCollaborator:
		return "collaborator"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Message returns the human-readable part without the kind prefix.
func (e *Error) Message() string { return e.msg }

func NotFound(format string, args ...interface{}) *Error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func Collaborator(msg string, err error) *Error {
	return &Error{kind: KindCollaborator, msg: msg, err: err}
}

func Parse(msg string, err error) *Error {
	return &Error{kind: KindParse, msg: msg, err: err}
}

// KindOf reports the taxonomy kind of err, or 0 when err is not an apperr.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsCollaborator(err error) bool { return KindOf(err) == KindCollaborator }
