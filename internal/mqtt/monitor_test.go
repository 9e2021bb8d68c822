package mqtt

import (
	"testing"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/events"
)

func countEvents(name string) int {
	n := 0
	for _, e := range events.Snapshot() {
		if e.Name == name {
			n++
		}
	}
	return n
}

func TestFeedMonitor_MarksStaleAfterTimeout(t *testing.T) {
	events.Clear()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	m := NewFeedMonitor([]string{"INT_001", "INT_002"}, time.Minute)
	m.SetClock(func() time.Time { return now })

	now = now.Add(30 * time.Second)
	m.Seen("INT_001")

	now = now.Add(45 * time.Second)
	if marked := m.Check(); marked != 1 {
		t.Fatalf("expected only INT_002 stale, marked %d", marked)
	}
	if stale := m.StaleFeeds(); len(stale) != 1 || stale[0] != "INT_002" {
		t.Errorf("expected [INT_002] stale, got %v", stale)
	}
	if countEvents("feed.stale") != 1 {
		t.Errorf("expected one feed.stale event, got %d", countEvents("feed.stale"))
	}

	// Already stale feeds are not reported again.
	now = now.Add(time.Hour)
	m.Check()
	if countEvents("feed.stale") != 2 {
		t.Errorf("expected INT_001 to go stale once more, got %d events", countEvents("feed.stale"))
	}
}

func TestFeedMonitor_RestoredOnReading(t *testing.T) {
	events.Clear()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	m := NewFeedMonitor([]string{"INT_003"}, time.Minute)
	m.SetClock(func() time.Time { return now })

	now = now.Add(2 * time.Minute)
	m.Check()
	if st := m.State("INT_003"); st == nil || !st.Stale {
		t.Fatal("expected INT_003 stale")
	}

	m.Seen("INT_003")
	if st := m.State("INT_003"); st.Stale {
		t.Error("expected INT_003 restored")
	}
	if countEvents("feed.restored") != 1 {
		t.Errorf("expected one feed.restored event, got %d", countEvents("feed.restored"))
	}
}

func TestFeedMonitor_SubscriberCallsBackOnFeedEvents(t *testing.T) {
	events.Clear()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	ids := []string{"INT_001", "INT_002", "INT_003", "INT_004"}
	m := NewFeedMonitor(ids, time.Minute)
	m.SetClock(func() time.Time { return now })

	sub := events.Subscribe(events.ParseFilter("feed.stale"))
	defer events.Unsubscribe(sub)

	done := make(chan []string)
	go func() {
		var seen []string
		for e := range sub {
			id := e.Fields["intersection_id"].(string)
			// The feed is already marked by the time its event arrives.
			if st := m.State(id); st == nil || !st.Stale {
				t.Errorf("expected %s stale when its event arrives", id)
			}
			m.Seen(id)
			seen = append(seen, id)
			if len(seen) == len(ids) {
				break
			}
		}
		done <- seen
	}()

	now = now.Add(2 * time.Minute)
	if marked := m.Check(); marked != len(ids) {
		t.Fatalf("expected %d stale feeds, marked %d", len(ids), marked)
	}

	select {
	case seen := <-done:
		if len(seen) != len(ids) {
			t.Errorf("expected %d feed.stale events, got %v", len(ids), seen)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber blocked calling back into the monitor")
	}
	if countEvents("feed.restored") != len(ids) {
		t.Errorf("expected every feed restored, got %d", countEvents("feed.restored"))
	}
	if stale := m.StaleFeeds(); len(stale) != 0 {
		t.Errorf("expected no stale feeds, got %v", stale)
	}
}

func TestFeedMonitor_UntrackedIntersection(t *testing.T) {
	m := NewFeedMonitor(nil, 0)
	if m.State("INT_009") != nil {
		t.Error("expected nil state for untracked intersection")
	}

	m.Seen("INT_009")
	if st := m.State("INT_009"); st == nil || st.Readings != 1 {
		t.Errorf("expected INT_009 tracked after first reading, got %+v", st)
	}
}

func TestFeedMonitor_StartStop(t *testing.T) {
	m := NewFeedMonitor([]string{"INT_001"}, time.Hour)
	m.Start(10 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	m.Stop()

	if len(m.StaleFeeds()) != 0 {
		t.Error("expected no stale feeds within the timeout")
	}
}
