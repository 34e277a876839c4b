// Package registry owns the set of registered client identities.
//
// Client names are case-insensitive: a single normalization function is used
// at every comparison and insertion site so the uniqueness invariant holds on
// all code paths. Registry membership is the sole "may this client act"
// predicate in the system.
package registry

import (
	"strings"
	"sync"
)

// Normalize canonicalizes a client name for comparison and storage.
// Every component that compares client names must go through this function.
func Normalize(name string) string {
	return strings.ToUpper(name)
}

// ClientRegistry is the set of registered client identities.
//
// All methods are safe for concurrent use. The lock is held only for the
// duration of the in-memory mutation, never across I/O.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]struct{}
}

// New returns an empty registry ready for use.
func New() *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]struct{}),
	}
}

// Register inserts the normalized name if absent.
// Returns ErrAlreadyExists without mutation when the name is taken.
func (r *ClientRegistry) Register(name string) error {
	key := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[key]; ok {
		return ErrAlreadyExists
	}
	r.clients[key] = struct{}{}
	return nil
}

// Unregister removes the normalized name if present.
// Returns ErrNotFound without mutation when the name is unknown.
func (r *ClientRegistry) Unregister(name string) error {
	key := Normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[key]; !ok {
		return ErrNotFound
	}
	delete(r.clients, key)
	return nil
}

// Exists reports whether the normalized name is registered.
func (r *ClientRegistry) Exists(name string) bool {
	key := Normalize(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.clients[key]
	return ok
}

// Len returns the number of registered clients.
func (r *ClientRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}

// Clear removes every entry. Used on server shutdown.
func (r *ClientRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients = make(map[string]struct{})
}
