package storage

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a guarded update matched no row because the
	// record was not in the expected state.
	ErrConflict = errors.New("record state changed")
	// ErrUnavailable is returned when no backing store could be opened.
	ErrUnavailable = errors.New("storage unavailable")
)
