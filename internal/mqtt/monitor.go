package mqtt

import (
	"sort"
	"sync"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/events"
)

// DefaultFeedTimeout is how long an intersection may go without a reading.
const DefaultFeedTimeout = 2 * time.Minute

// FeedState tracks one intersection's reading feed.
type FeedState struct {
	IntersectionID string
	LastSeen       time.Time
	Readings       uint64
	Stale          bool
}

// FeedMonitor flags intersections whose readings stop arriving.
type FeedMonitor struct {
	mu      sync.RWMutex
	feeds   map[string]*FeedState
	timeout time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewFeedMonitor tracks the given intersections. The clock starts now, so
// a feed that never reports goes stale after one timeout.
func NewFeedMonitor(intersectionIDs []string, timeout time.Duration) *FeedMonitor {
	if timeout <= 0 {
		timeout = DefaultFeedTimeout
	}
	m := &FeedMonitor{
		feeds:   make(map[string]*FeedState, len(intersectionIDs)),
		timeout: timeout,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	start := m.now()
	for _, id := range intersectionIDs {
		m.feeds[id] = &FeedState{IntersectionID: id, LastSeen: start}
	}
	return m
}

// Timeout returns how long a feed may stay silent.
func (m *FeedMonitor) Timeout() time.Duration {
	return m.timeout
}

// SetClock replaces the monitor's time source. Used for testing.
func (m *FeedMonitor) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	for _, f := range m.feeds {
		f.LastSeen = now()
	}
	m.mu.Unlock()
}

// Seen records a reading. A stale feed that reports again emits feed.restored.
func (m *FeedMonitor) Seen(intersectionID string) {
	m.mu.Lock()
	now := m.now()
	f, ok := m.feeds[intersectionID]
	if !ok {
		f = &FeedState{IntersectionID: intersectionID}
		m.feeds[intersectionID] = f
	}

	var restored map[string]interface{}
	if f.Stale {
		restored = map[string]interface{}{
			"intersection_id": intersectionID,
			"silent_sec":      now.Sub(f.LastSeen).Seconds(),
		}
	}
	f.LastSeen = now
	f.Readings++
	f.Stale = false
	m.mu.Unlock()

	// Subscribers may call back into the monitor.
	if restored != nil {
		events.Emit("info", "feed.restored", "", restored)
	}
}

// Start begins the background staleness check loop.
func (m *FeedMonitor) Start(checkInterval time.Duration) {
	m.wg.Add(1)
	go m.checkLoop(checkInterval)
}

// Stop stops the background check loop.
func (m *FeedMonitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *FeedMonitor) checkLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check marks feeds stale once they exceed the timeout and returns how many
// went stale on this pass.
func (m *FeedMonitor) Check() int {
	m.mu.Lock()
	now := m.now()
	var stale []map[string]interface{}
	for id, f := range m.feeds {
		if f.Stale || now.Sub(f.LastSeen) <= m.timeout {
			continue
		}
		f.Stale = true
		stale = append(stale, map[string]interface{}{
			"intersection_id": id,
			"last_seen":       f.LastSeen.Format(time.RFC3339),
			"timeout_sec":     m.timeout.Seconds(),
		})
	}
	m.mu.Unlock()

	for _, fields := range stale {
		events.Emit("warning", "feed.stale", "no readings within timeout", fields)
	}
	return len(stale)
}

// State returns a copy of one feed's state, or nil when untracked.
func (m *FeedMonitor) State(intersectionID string) *FeedState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if f, ok := m.feeds[intersectionID]; ok {
		cpy := *f
		return &cpy
	}
	return nil
}

// StaleFeeds returns the sorted IDs of feeds currently stale.
func (m *FeedMonitor) StaleFeeds() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, f := range m.feeds {
		if f.Stale {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
