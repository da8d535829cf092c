package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can tell bad input apart from
// infrastructure trouble.
type ErrorKind string

const (
	InvalidArgument   ErrorKind = "invalid_argument"
	SourceUnavailable ErrorKind = "source_unavailable"
	QueryFailed       ErrorKind = "query_failed"
	ExportFailed      ErrorKind = "export_failed"
	PersistenceFailed ErrorKind = "persistence_failed"
)

// Error carries a kind and the operation that failed around the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an Error whose cause is formatted like fmt.Errorf.
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

var ErrEmptyTableName = &Error{Kind: InvalidArgument, Op: "execute", Err: errors.New("table name cannot be empty")}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// IsCallerError reports failures that retrying on a later cycle cannot fix.
func IsCallerError(err error) bool {
	return IsKind(err, InvalidArgument)
}
