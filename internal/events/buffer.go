package events

import "sync"

// RingBuffer holds the newest events in memory. Once full, each Add
// overwrites the oldest entry.
type RingBuffer struct {
	mu    sync.RWMutex
	slots []Event
	next  int
	count int
	total uint64
}

// NewRingBuffer creates a buffer holding at most size events.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{slots: make([]Event, size)}
}

// Add stores e, evicting the oldest event when full.
func (rb *RingBuffer) Add(e Event) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.next] = e
	rb.next = (rb.next + 1) % len(rb.slots)
	if rb.count < len(rb.slots) {
		rb.count++
	}
	rb.total++
}

// at returns the i-th buffered event counting from the oldest. Callers hold mu.
func (rb *RingBuffer) at(i int) Event {
	start := rb.next - rb.count
	if start < 0 {
		start += len(rb.slots)
	}
	return rb.slots[(start+i)%len(rb.slots)]
}

// Snapshot returns the buffered events in chronological order.
func (rb *RingBuffer) Snapshot() []Event {
	return rb.Last(0, nil)
}

// Last returns up to n of the newest events accepted by keep, oldest first.
// n <= 0 means no limit; a nil keep accepts everything.
func (rb *RingBuffer) Last(n int, keep func(Event) bool) []Event {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var picked []Event
	for i := rb.count - 1; i >= 0; i-- {
		if n > 0 && len(picked) == n {
			break
		}
		if e := rb.at(i); keep == nil || keep(e) {
			picked = append(picked, e)
		}
	}

	out := make([]Event, len(picked))
	for i, e := range picked {
		out[len(picked)-1-i] = e
	}
	return out
}

// Len returns the number of buffered events.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// TotalCount returns how many events were ever added, including evicted ones.
func (rb *RingBuffer) TotalCount() uint64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.total
}

// Clear empties the buffer and resets the total.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	clear(rb.slots)
	rb.next, rb.count, rb.total = 0, 0, 0
}
