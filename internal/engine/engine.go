// Package engine implements the server-side session and state engine: the
// single shared instance composing the client registry and the event
// catalog, and the command dispatch that validates and executes each request
// against that shared state.
package engine

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mariwald/rsvpd/internal/audit"
	"github.com/mariwald/rsvpd/internal/catalog"
	"github.com/mariwald/rsvpd/internal/protocol"
	"github.com/mariwald/rsvpd/internal/registry"
	"github.com/mariwald/rsvpd/pkg/metrics"
)

// topEventCount is the window size of GET_TOP_5.
const topEventCount = 5

// Engine executes validated commands against the shared registry and
// catalog. One Engine instance is constructed at startup and shared by every
// connection handler; it owns the registry and the catalog for the process
// lifetime.
//
// A client session is implicitly {Unregistered, Registered}, tracked via
// registry membership. A new connection from an already-registered name is
// the same client identity; there is no per-connection session object.
type Engine struct {
	clients *registry.ClientRegistry
	events  *catalog.EventCatalog
	audit   *audit.Sink
	metrics *metrics.CommandMetrics

	shutdownOnce sync.Once
	onExit       func()
}

// New constructs the engine with an empty registry and catalog.
// The audit sink is required; metrics may be nil.
func New(sink *audit.Sink, m *metrics.CommandMetrics) *Engine {
	clients := registry.New()
	return &Engine{
		clients: clients,
		events:  catalog.New(clients),
		audit:   sink,
		metrics: m,
	}
}

// OnExit registers the callback invoked when a client issues EXIT. The
// connection collaborator uses it to stop accepting and begin the drain.
func (e *Engine) OnExit(fn func()) {
	e.onExit = fn
}

// Handle executes one request line on behalf of client and returns the
// response string to write back.
//
// Dispatch: tokenize, classify, validate against current session state, then
// execute. Every operation re-checks registration at execution time, not
// only at validation time, to close the window between the two under
// concurrency. Exactly one audit line is emitted per accepted or rejected
// request.
func (e *Engine) Handle(client, line string) string {
	start := time.Now()

	tokens := protocol.Tokenize(line)
	if len(tokens) == 0 {
		e.audit.LogError("ILLEGAL", "empty request line.")
		e.metrics.ObserveRequest("ILLEGAL", false, time.Since(start))
		return protocol.ErrIllegalCommand
	}

	cmd := protocol.Classify(tokens[0])

	tokens, rej := protocol.Validate(cmd, tokens, e.clients.Exists(client))
	if rej != nil {
		rej.Client = client
		if rej.Reason == protocol.ReasonAlreadyRegistered {
			// Same audit line as the registry conflict in RegisterClient.
			e.audit.Log("ERROR: %s\t is already exists.", client)
		} else {
			e.audit.LogError(cmd.String(), rejectionDescription(rej))
		}
		e.metrics.ObserveRequest(cmd.String(), false, time.Since(start))
		return rej.Response()
	}

	var response string
	switch cmd {
	case protocol.CmdRegister:
		response = e.RegisterClient(client)
	case protocol.CmdCreate:
		response = e.CreateEvent(client, tokens[1], tokens[2], tokens[3])
	case protocol.CmdUnregister:
		response = e.UnregisterClient(client)
	case protocol.CmdSendRSVP:
		response = e.SendRSVP(client, mustAtoi(tokens[1]))
	case protocol.CmdGetRSVPList:
		response = e.RSVPList(client, mustAtoi(tokens[1]))
	case protocol.CmdGetTop5:
		response = e.Top5(client)
	case protocol.CmdExit:
		response = e.Exit()
	}

	accepted := !strings.HasPrefix(response, "ERROR:")
	e.metrics.ObserveRequest(cmd.String(), accepted, time.Since(start))
	return response
}

// RegisterClient inserts a new client identity. A conflicting name yields an
// in-band error response naming the client; it never terminates anything.
func (e *Engine) RegisterClient(client string) string {
	if err := e.clients.Register(client); err != nil {
		e.audit.Log("ERROR: %s\t is already exists.", client)
		return protocol.AlreadyRegisteredResponse(client)
	}

	e.audit.Log("%s\t was registered successfully.", client)
	e.metrics.SetRegisteredClients(e.clients.Len())
	return protocol.RespSuccess
}

// UnregisterClient removes the identity and cascades removal from every
// event's guest list. Events are never deleted by the cascade.
func (e *Engine) UnregisterClient(client string) string {
	if err := e.clients.Unregister(client); err != nil {
		return protocol.ErrNotRegistered
	}

	e.events.RemoveClientFromAllEvents(client)

	e.audit.Log("%s\t was unregistered successfully.", client)
	e.metrics.SetRegisteredClients(e.clients.Len())
	return protocol.RespSuccess
}

// CreateEvent allocates an id and stores the event. Id assignment and
// insertion are atomic from the caller's point of view; a failed create
// never leaves a partial event behind.
func (e *Engine) CreateEvent(client, title, date, description string) string {
	id, err := e.events.Create(client, title, date, description)
	if err != nil {
		switch catalog.CodeOf(err) {
		case catalog.ErrNotRegistered:
			return protocol.ErrNotRegistered
		default:
			e.audit.LogError("CREATE", "cannot allocate new event.")
			return protocol.ErrEventAlloc
		}
	}

	e.audit.Log("%s\t event id %d was assigned to the event with title %s.", client, id, title)
	e.metrics.SetEventCount(e.events.Len())
	return protocol.EventCreatedResponse(id)
}

// SendRSVP adds the client to the event's guest list. A repeated RSVP is a
// normal idempotent outcome, not an error.
func (e *Engine) SendRSVP(client string, eventID int) string {
	if !e.clients.Exists(client) {
		return protocol.ErrNotRegistered
	}

	switch err := e.events.AddGuest(eventID, client); catalog.CodeOf(err) {
	case catalog.ErrNotFound:
		e.audit.LogError("SEND_RSVP", "event does not exist.")
		return protocol.ErrEventNotExist
	case catalog.ErrAlreadyRSVPed:
		e.audit.Log("%s\t is RSVP to event with id %d.", client, eventID)
		return protocol.AlreadySentResponse(eventID)
	default:
		e.audit.Log("%s\t is RSVP to event with id %d.", client, eventID)
		return protocol.RespSuccess
	}
}

// RSVPList returns the event's guest list as a comma-joined string sorted
// case-insensitively. An empty guest list yields an empty response.
func (e *Engine) RSVPList(client string, eventID int) string {
	if !e.clients.Exists(client) {
		return protocol.ErrNotRegistered
	}

	guests, err := e.events.GuestList(eventID)
	if err != nil {
		e.audit.LogError("GET_RSVPS_LIST", "event does not exist.")
		return protocol.ErrEventNotExist
	}

	e.audit.Log("%s\t requests the RSVP'S list for event with id %d.", client, eventID)
	return protocol.FormatGuestList(guests)
}

// Top5 returns the most recently created events, one per line, in creation
// order. Creation-append order is normative, not numeric id.
func (e *Engine) Top5(client string) string {
	if !e.clients.Exists(client) {
		return protocol.ErrNotRegistered
	}

	recent := e.events.MostRecent(topEventCount)
	lines := make([]string, 0, len(recent))
	for _, ev := range recent {
		lines = append(lines, protocol.FormatEventLine(ev.ID, ev.Title, ev.Date, ev.Description))
	}

	e.audit.Log("%s\t requests the top 5 newest events.", client)
	return strings.Join(lines, "\n")
}

// Exit acknowledges the EXIT command and notifies the connection
// collaborator, which stops accepting, drains in-flight handlers, and then
// calls Shutdown.
func (e *Engine) Exit() string {
	e.audit.Log("EXIT command is typed: server is shutdown")
	if e.onExit != nil {
		e.onExit()
	}
	return protocol.RespSuccess
}

// Shutdown clears the registry and the catalog and releases the audit sink.
// The caller must have drained in-flight requests first. Safe to call more
// than once; only the first call takes effect.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.clients.Clear()
		e.events.Clear()
		e.audit.Close()
	})
}

// RegisteredClients reports the current registry size.
func (e *Engine) RegisteredClients() int {
	return e.clients.Len()
}

// EventCount reports the current catalog size.
func (e *Engine) EventCount() int {
	return e.events.Len()
}

// mustAtoi converts a digits-only token that already passed validation.
// Tokens long enough to overflow int parse to a huge value that simply
// misses the catalog.
func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func rejectionDescription(rej *protocol.Rejection) string {
	switch rej.Reason {
	case protocol.ReasonNotRegistered:
		return "first command must be REGISTER."
	case protocol.ReasonMissingArguments:
		return "missing arguments in command " + rej.Command.String() + "."
	case protocol.ReasonInvalidArgument:
		return "invalid argument " + rej.Arg + " in command " + rej.Command.String() + "."
	default:
		return "illegal command."
	}
}
