package registry

import (
	"sort"
	"sync"
)

// Meta is the generic metadata record associated with a registered entity.
type Meta struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Active   bool              `json:"active"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Registry is a generic, thread-safe catalog of entities keyed by ID.
// Entries are immutable from the caller's point of view: Register stores a
// copy of the metadata and Get hands back a value, never a shared reference.
type Registry struct {
	entities map[string]Meta
	mu       sync.RWMutex
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[string]Meta),
	}
}

// Register adds or updates an entity in the registry.
func (r *Registry) Register(id string, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta.ID = id
	r.entities[id] = meta
}

// Get returns entity metadata for the given ID and whether it exists.
func (r *Registry) Get(id string) (Meta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	meta, ok := r.entities[id]
	return meta, ok
}

// IsRegistered checks if an entity ID is registered.
func (r *Registry) IsRegistered(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entities[id]
	return ok
}

// ListRegistered returns all registered entity IDs in sorted order.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the total number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// GetMetadata returns a specific metadata value for an entity.
func (r *Registry) GetMetadata(id, key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.entities[id]
	if !ok || meta.Metadata == nil {
		return "", false
	}
	value, found := meta.Metadata[key]
	return value, found
}
