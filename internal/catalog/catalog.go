// Package catalog owns every event record and the RSVP relationships between
// clients and events.
//
// Event ids are assigned monotonically at creation time and never reused.
// "Most recent" is defined by creation-append order, not by numeric id, since
// allocation retries may skip values. Events are never deleted once created,
// even when their guest list empties; they persist until full shutdown.
package catalog

import (
	"sync"

	"github.com/mariwald/rsvpd/internal/registry"
)

// Event is a single event record. The metadata fields are immutable after
// creation; the guest collections are the only mutable state and are guarded
// by the owning catalog's lock.
type Event struct {
	ID          int
	Creator     string
	Title       string
	Date        string
	Description string

	// guestSet holds normalized names for O(1) membership checks;
	// guestOrder preserves insertion order for listing.
	guestSet   map[string]struct{}
	guestOrder []string
}

// Guests returns the guest names in RSVP insertion order. The returned slice
// is a copy owned by the caller.
func (e *Event) Guests() []string {
	out := make([]string, len(e.guestOrder))
	copy(out, e.guestOrder)
	return out
}

// registryView is the part of the client registry the catalog needs to
// enforce referential integrity on create.
type registryView interface {
	Exists(name string) bool
}

// EventCatalog assigns event ids and stores every event record.
//
// All operations are protected by a single read-write mutex. Reads take the
// same lock so no caller can observe an event present in the id map but not
// yet appended to the creation-order sequence.
type EventCatalog struct {
	mu sync.RWMutex

	// nextID is the next id to attempt; monotonic, only ever increases.
	nextID int

	// byID maps id to event record.
	byID map[int]*Event

	// ordered is the append-only creation-order sequence. It always contains
	// the same set of ids as byID; this sequence, not numeric id, defines
	// "most recent".
	ordered []*Event

	clients registryView
}

// New returns an empty catalog. Ids start at 1. The registry view is
// consulted on Create so an unregistered creator can never allocate an id.
func New(clients registryView) *EventCatalog {
	return &EventCatalog{
		nextID:  1,
		byID:    make(map[int]*Event),
		clients: clients,
	}
}

// Create allocates the next event id and stores a new record.
//
// Allocation attempts nextID; if that id is somehow taken (tolerated for a
// future replay/persistence path) it increments and retries once before
// giving up. Id assignment and catalog insertion are atomic from the
// caller's point of view: no partial event is ever visible.
func (c *EventCatalog) Create(creator, title, date, description string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.clients.Exists(creator) {
		return 0, errNotRegistered
	}

	id := c.nextID
	if _, taken := c.byID[id]; taken {
		c.nextID++
		id = c.nextID
		if _, taken := c.byID[id]; taken {
			return 0, errAllocation
		}
	}

	event := &Event{
		ID:          id,
		Creator:     registry.Normalize(creator),
		Title:       title,
		Date:        date,
		Description: description,
		guestSet:    make(map[string]struct{}),
	}

	c.byID[id] = event
	c.ordered = append(c.ordered, event)
	c.nextID++

	return id, nil
}

// Get returns the event with the given id.
func (c *EventCatalog) Get(id int) (*Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	event, ok := c.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return event, nil
}

// AddGuest adds the normalized client name to the event's guest list.
// A repeated RSVP returns ErrAlreadyRSVPed without mutation.
func (c *EventCatalog) AddGuest(id int, client string) error {
	guest := registry.Normalize(client)

	c.mu.Lock()
	defer c.mu.Unlock()

	event, ok := c.byID[id]
	if !ok {
		return errNotFound
	}

	if _, sent := event.guestSet[guest]; sent {
		return errAlreadyRSVPed
	}

	event.guestSet[guest] = struct{}{}
	event.guestOrder = append(event.guestOrder, guest)
	return nil
}

// RemoveGuest removes the normalized client name from one event's guest
// list, if present.
func (c *EventCatalog) RemoveGuest(id int, client string) error {
	guest := registry.Normalize(client)

	c.mu.Lock()
	defer c.mu.Unlock()

	event, ok := c.byID[id]
	if !ok {
		return errNotFound
	}

	event.removeGuest(guest)
	return nil
}

// RemoveClientFromAllEvents removes the normalized client from every event's
// guest list. Used on unregistration. Events are never deleted as a result,
// even if this empties their guest list.
func (c *EventCatalog) RemoveClientFromAllEvents(client string) {
	guest := registry.Normalize(client)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, event := range c.ordered {
		event.removeGuest(guest)
	}
}

// removeGuest mutates the event under the catalog lock.
func (e *Event) removeGuest(guest string) {
	if _, ok := e.guestSet[guest]; !ok {
		return
	}
	delete(e.guestSet, guest)
	for i, name := range e.guestOrder {
		if name == guest {
			e.guestOrder = append(e.guestOrder[:i], e.guestOrder[i+1:]...)
			break
		}
	}
}

// GuestList returns the event's guests in RSVP insertion order. Sorting for
// presentation happens at the response-formatting boundary, not here.
func (c *EventCatalog) GuestList(id int) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	event, ok := c.byID[id]
	if !ok {
		return nil, errNotFound
	}
	return event.Guests(), nil
}

// MostRecent returns up to n events in creation order, oldest to newest
// within the final window.
func (c *EventCatalog) MostRecent(n int) []*Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	start := 0
	if len(c.ordered) > n {
		start = len(c.ordered) - n
	}

	out := make([]*Event, len(c.ordered)-start)
	copy(out, c.ordered[start:])
	return out
}

// Len returns the number of events in the catalog.
func (c *EventCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.ordered)
}

// Clear removes every event. Used on server shutdown.
func (c *EventCatalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[int]*Event)
	c.ordered = nil
	c.nextID = 1
}
