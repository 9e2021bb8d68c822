// Package registry holds the canonical set of intersections. The set is
// fixed once the catalog has been loaded; after that only the metric and
// signal fields of existing entries change.
package registry

import (
	"sync"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/errors"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

type entry struct {
	mu sync.Mutex
	ix *traffic.Intersection
}

// Registry maps intersection IDs to their live state. Each intersection has
// its own lock so updates to different intersections run in parallel.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	now     func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source used for UpdatedAt.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Add inserts an intersection during catalog load.
func (r *Registry) Add(ix *traffic.Intersection) error {
	if ix == nil || ix.ID == "" {
		return errors.NewInvalidArgumentError("id", "intersection id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[ix.ID]; ok {
		return errors.NewAlreadyExistsError("intersection", ix.ID)
	}
	r.entries[ix.ID] = &entry{ix: ix.Clone()}
	r.order = append(r.order, ix.ID)
	return nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, errors.IntersectionNotFound(id)
	}
	return e, nil
}

// Update applies a reading to an existing intersection and recomputes its
// priority. Unknown IDs are rejected, never created.
func (r *Registry) Update(reading traffic.Reading) error {
	_, _, err := r.UpdateWithPrevious(reading)
	return err
}

// UpdateWithPrevious is Update that also returns the tier held before the
// reading was applied and a copy of the intersection taken under the same
// lock, so the copy carries exactly this reading.
func (r *Registry) UpdateWithPrevious(reading traffic.Reading) (traffic.Priority, *traffic.Intersection, error) {
	e, err := r.lookup(reading.IntersectionID)
	if err != nil {
		return "", nil, err
	}
	r.mu.RLock()
	now := r.now()
	r.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.ix.Priority
	e.ix.ApplyReading(reading, now)
	return prev, e.ix.Clone(), nil
}

// Get returns a deep copy of one intersection.
func (r *Registry) Get(id string) (*traffic.Intersection, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ix.Clone(), nil
}

// Apply runs fn against the live intersection while holding its lock.
// fn must not retain the pointer.
func (r *Registry) Apply(id string, fn func(ix *traffic.Intersection) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.ix)
}

// Exists reports whether id is in the catalog.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// IDs returns the intersection IDs in catalog order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Len returns the number of intersections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// All returns deep copies of every intersection in catalog order. Each
// snapshot is internally consistent; the set as a whole is not taken under
// one lock.
func (r *Registry) All() []*traffic.Intersection {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, r.entries[id])
	}
	r.mu.RUnlock()

	result := make([]*traffic.Intersection, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		result = append(result, e.ix.Clone())
		e.mu.Unlock()
	}
	return result
}

// Lookup returns a snapshot or nil, for callers that skip unknown IDs.
func (r *Registry) Lookup(id string) *traffic.Intersection {
	ix, err := r.Get(id)
	if err != nil {
		return nil
	}
	return ix
}
