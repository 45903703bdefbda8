package service

import (
	"errors"
	"fmt"

	"parkshare/storage"
)

// Kinds of failure. Match with errors.Is.
var (
	ErrNotFound                   = errors.New("not found")
	ErrForbidden                  = errors.New("forbidden")
	ErrInvalidTransition          = errors.New("invalid transition")
	ErrInvalidInput               = errors.New("invalid input")
	ErrDuplicateActiveReservation = errors.New("duplicate active reservation")
	ErrConflict                   = errors.New("conflict")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrUnavailable                = errors.New("storage unavailable")
)

type Error struct {
	Op     string
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// storageErr classifies a storage error. A conflict on a guarded update
// means another writer moved the record first.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return &Error{Op: op, Kind: ErrNotFound, Err: err}
	case errors.Is(err, storage.ErrConflict):
		return &Error{Op: op, Kind: ErrInvalidTransition, Err: err}
	default:
		return &Error{Op: op, Kind: ErrUnavailable, Err: err}
	}
}
