package greenwave

import "sync"

// OffsetTable records the most recent offset assigned to each intersection.
type OffsetTable struct {
	mu      sync.RWMutex
	offsets map[string]int
}

// NewOffsetTable creates an empty table.
func NewOffsetTable() *OffsetTable {
	return &OffsetTable{offsets: make(map[string]int)}
}

// Set records an offset.
func (t *OffsetTable) Set(id string, offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.offsets[id] = offset
}

// Get returns the recorded offset for id.
func (t *OffsetTable) Get(id string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.offsets[id]
	return v, ok
}

// Snapshot returns a copy of all recorded offsets.
func (t *OffsetTable) Snapshot() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int, len(t.offsets))
	for k, v := range t.offsets {
		out[k] = v
	}
	return out
}
