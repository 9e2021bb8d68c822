package events

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Filter selects events whose name starts with one of its prefixes.
// An empty filter selects every event.
type Filter []string

// ParseFilter reads a comma-separated prefix list such as "conflict.,feed.stale".
func ParseFilter(raw string) Filter {
	var f Filter
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			f = append(f, p)
		}
	}
	return f
}

// Match reports whether the filter selects the event name.
func (f Filter) Match(name string) bool {
	if len(f) == 0 {
		return true
	}
	for _, p := range f {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Subscriber is a live event stream.
type Subscriber chan Event

var (
	subsMu  sync.RWMutex
	subs    = make(map[Subscriber]Filter)
	dropped atomic.Uint64
)

// Subscribe registers a stream for events selected by filter. The channel
// is buffered; a subscriber that falls behind misses events rather than
// stalling Emit.
func Subscribe(filter Filter) Subscriber {
	ch := make(Subscriber, 64)
	subsMu.Lock()
	subs[ch] = filter
	subsMu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Calling it for a
// subscriber already closed by CloseAllSubscribers is a no-op.
func Unsubscribe(sub Subscriber) {
	subsMu.Lock()
	defer subsMu.Unlock()
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub)
}

// CloseAllSubscribers closes every subscriber channel. Used on shutdown.
func CloseAllSubscribers() {
	subsMu.Lock()
	defer subsMu.Unlock()
	for sub := range subs {
		close(sub)
	}
	subs = make(map[Subscriber]Filter)
}

func broadcast(e Event) {
	subsMu.RLock()
	defer subsMu.RUnlock()

	for sub, filter := range subs {
		if !filter.Match(e.Name) {
			continue
		}
		select {
		case sub <- e:
		default:
			dropped.Add(1)
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func SubscriberCount() int {
	subsMu.RLock()
	defer subsMu.RUnlock()
	return len(subs)
}

// DroppedCount returns how many deliveries were skipped because a
// subscriber's buffer was full.
func DroppedCount() uint64 {
	return dropped.Load()
}

// RecentEvents returns up to n of the newest buffered events selected by
// filter, oldest first. n <= 0 returns every selected event.
func RecentEvents(n int, filter Filter) []Event {
	return buffer.Last(n, func(e Event) bool { return filter.Match(e.Name) })
}
