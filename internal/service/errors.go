package service

import (
	"errors"
	"fmt"
)

// The four error kinds that can cross the service boundary. The booking
// engine itself only produces ErrNotFound and ErrBadRequest: ownership
// mismatches on bookings deliberately surface as ErrNotFound so callers
// cannot probe for the existence of other users' bookings. ErrForbidden is
// raised only by item mutation, ErrConflict only by user email collisions.
var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Error carries a caller-facing message together with one of the kind
// sentinels, matched at the API boundary with errors.Is.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func notFound(format string, args ...any) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) error {
	return &Error{kind: ErrBadRequest, msg: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...any) error {
	return &Error{kind: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}

// validatePagination rejects the offset/limit combinations no listing
// operation accepts.
func validatePagination(from, size int) error {
	if from < 0 {
		return badRequest("invalid pagination parameter from=%d", from)
	}
	if size < 1 {
		return badRequest("invalid pagination parameter size=%d", size)
	}
	return nil
}
