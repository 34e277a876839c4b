package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Wire response strings. These are the functional contract of the protocol
// and must not change shape.
const (
	RespSuccess       = "SUCCESS"
	ErrNotRegistered  = "ERROR: first command must be REGISTER."
	ErrIllegalCommand = "ERROR: illegal command."
	ErrEventNotExist  = "ERROR: event does not exist."
	ErrEventAlloc     = "ERROR: cannot allocate new event."
)

// RejectReason classifies why a request was rejected before execution.
type RejectReason int

const (
	ReasonCommandNotExist RejectReason = iota
	ReasonNotRegistered
	ReasonAlreadyRegistered
	ReasonMissingArguments
	ReasonInvalidArgument
)

// Rejection is a validation failure carrying enough context to render the
// wire error string.
type Rejection struct {
	Reason  RejectReason
	Command Command
	Arg     string
	Client  string
}

func (r *Rejection) Error() string {
	return r.Response()
}

// Response renders the rejection as the in-band error string sent to the
// client.
func (r *Rejection) Response() string {
	switch r.Reason {
	case ReasonNotRegistered:
		return ErrNotRegistered
	case ReasonAlreadyRegistered:
		return AlreadyRegisteredResponse(r.Client)
	case ReasonMissingArguments:
		return fmt.Sprintf("ERROR: missing arguments in command %s.", r.Command)
	case ReasonInvalidArgument:
		return fmt.Sprintf("ERROR: invalid argument %s in command %s.", r.Arg, r.Command)
	default:
		return ErrIllegalCommand
	}
}

// AlreadyRegisteredResponse names the client whose REGISTER conflicted.
func AlreadyRegisteredResponse(client string) string {
	return fmt.Sprintf("ERROR: the client %s was already registered.", client)
}

// EventCreatedResponse confirms a CREATE with the assigned id.
func EventCreatedResponse(id int) string {
	return fmt.Sprintf("Event id %d was created successfully.", id)
}

// AlreadySentResponse is the idempotent outcome of a repeated SEND_RSVP.
// It is a normal response, not an error.
func AlreadySentResponse(id int) string {
	return fmt.Sprintf("RSVP to event id %d was already sent.", id)
}

// FormatGuestList renders a guest list as a comma-joined string sorted
// case-insensitively by name. Sorting is a presentation concern applied
// here, not in stored order.
func FormatGuestList(guests []string) string {
	sorted := make([]string, len(guests))
	copy(sorted, guests)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i]) < strings.ToLower(sorted[j])
	})
	return strings.Join(sorted, ",")
}

// FormatEventLine renders one event as "id\ttitle\tdate\tdescription.".
func FormatEventLine(id int, title, date, description string) string {
	return fmt.Sprintf("%d\t%s\t%s\t%s.", id, title, date, description)
}
