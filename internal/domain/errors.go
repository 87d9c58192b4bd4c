package domain

import "errors"

// Error is a domain error with a stable code, used as the translation key
// "errors.<code>" by the adapters.
type Error struct {
	code string
	msg  string
}

func newError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Code returns the stable code of the error.
func (e *Error) Code() string { return e.code }

// Domain errors.
var (
	ErrNotAuthorized       = newError("not_authorized", "actor is not allowed to manage events")
	ErrInvalidDateRange    = newError("invalid_date_range", "invalid date range")
	ErrInvalidEvent        = newError("invalid_event", "invalid event")
	ErrEventNotFound       = newError("event_not_found", "event not found")
	ErrEventExists         = newError("event_exists", "event already tracked")
	ErrEventLocked         = newError("event_locked", "event is locked")
	ErrAnnouncementFailed  = newError("announcement_failed", "announcement could not be published")
	ErrSpaceCreationFailed = newError("space_creation_failed", "discussion channel could not be created")
)

// Code extracts the domain code from err, or "" when err is not (or does not
// wrap) a domain error.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return ""
}
