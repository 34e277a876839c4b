package catalog

// Error represents a domain error from catalog operations.
//
// These are business-logic outcomes (event not found, duplicate RSVP) as
// opposed to infrastructure failures. The engine translates Error codes into
// wire response strings.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ErrorCode represents the category of a catalog error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested event id doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrAlreadyRSVPed indicates the client is already on the event's guest
	// list. This is an idempotent outcome, not a failure.
	ErrAlreadyRSVPed

	// ErrNotRegistered indicates the acting client is not registered
	ErrNotRegistered

	// ErrAllocation indicates an event id could not be allocated
	ErrAllocation
)

var (
	errNotFound      = &Error{Code: ErrNotFound, Message: "event does not exist"}
	errAlreadyRSVPed = &Error{Code: ErrAlreadyRSVPed, Message: "RSVP already sent"}
	errNotRegistered = &Error{Code: ErrNotRegistered, Message: "client not registered"}
	errAllocation    = &Error{Code: ErrAllocation, Message: "cannot allocate new event"}
)

// CodeOf extracts the ErrorCode from err, or -1 if err is not a catalog
// Error.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return -1
}
