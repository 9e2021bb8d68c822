package events

import (
	"testing"
	"time"
)

func receive(t *testing.T, sub Subscriber) (Event, bool) {
	t.Helper()
	select {
	case e := <-sub:
		return e, true
	case <-time.After(100 * time.Millisecond):
		return Event{}, false
	}
}

func TestSubscriberLifecycle(t *testing.T) {
	CloseAllSubscribers()

	sub1 := Subscribe(nil)
	sub2 := Subscribe(Filter{"conflict."})
	sub3 := Subscribe(nil)
	if SubscriberCount() != 3 {
		t.Fatalf("expected 3 subscribers, got %d", SubscriberCount())
	}

	Unsubscribe(sub1)
	if _, ok := <-sub1; ok {
		t.Error("expected channel closed after Unsubscribe")
	}
	if SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", SubscriberCount())
	}

	CloseAllSubscribers()
	_, ok2 := <-sub2
	_, ok3 := <-sub3
	if ok2 || ok3 {
		t.Error("expected all channels closed")
	}
	if SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers, got %d", SubscriberCount())
	}

	// A handler unsubscribing after shutdown must not panic.
	Unsubscribe(sub2)
}

func TestBroadcastHonoursFilter(t *testing.T) {
	all := Subscribe(nil)
	defer Unsubscribe(all)
	conflicts := Subscribe(ParseFilter("conflict.,feed.stale"))
	defer Unsubscribe(conflicts)

	Emit("info", "timing.optimized", "", map[string]interface{}{"intersection_id": "INT_003"})
	Emit("warning", "conflict.detected", "", map[string]interface{}{"intersection_id": "INT_005"})

	for _, want := range []string{"timing.optimized", "conflict.detected"} {
		e, ok := receive(t, all)
		if !ok {
			t.Fatalf("unfiltered subscriber: timeout waiting for %s", want)
		}
		if e.Name != want {
			t.Errorf("unfiltered subscriber: expected %s, got %s", want, e.Name)
		}
	}

	e, ok := receive(t, conflicts)
	if !ok || e.Name != "conflict.detected" {
		t.Fatalf("filtered subscriber: expected conflict.detected, got %q (ok=%v)", e.Name, ok)
	}
	if e.Fields["intersection_id"] != "INT_005" {
		t.Errorf("expected INT_005, got %v", e.Fields["intersection_id"])
	}
	if _, ok := receive(t, conflicts); ok {
		t.Error("filtered subscriber received an unselected event")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	sub := Subscribe(nil)
	defer Unsubscribe(sub)

	before := DroppedCount()
	for i := 0; i < cap(sub)+5; i++ {
		Emit("info", "intersection.updated", "", nil)
	}
	if got := DroppedCount() - before; got != 5 {
		t.Errorf("expected 5 dropped deliveries, got %d", got)
	}
}

func TestRecentEvents(t *testing.T) {
	Clear()

	for i := 0; i < 10; i++ {
		name := "intersection.updated"
		if i%3 == 0 {
			name = "conflict.detected"
		}
		Emit("info", name, "", map[string]interface{}{"i": i})
	}

	recent := RecentEvents(5, nil)
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent events, got %d", len(recent))
	}
	if recent[0].Fields["i"] != 5 || recent[4].Fields["i"] != 9 {
		t.Errorf("expected i=5..9, got %v..%v", recent[0].Fields["i"], recent[4].Fields["i"])
	}

	if n := len(RecentEvents(100, nil)); n != 10 {
		t.Errorf("expected 10 events when requesting 100, got %d", n)
	}
	if n := len(RecentEvents(0, nil)); n != 10 {
		t.Errorf("expected all 10 events for n=0, got %d", n)
	}

	// i = 0, 3, 6, 9
	conflicts := RecentEvents(2, Filter{"conflict."})
	if len(conflicts) != 2 || conflicts[0].Fields["i"] != 6 || conflicts[1].Fields["i"] != 9 {
		t.Errorf("expected conflicts i=6,9, got %v", conflicts)
	}
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(" conflict. , ,plan.")
	if len(f) != 2 {
		t.Fatalf("expected 2 prefixes, got %v", f)
	}
	if !f.Match("plan.publish_failed") || f.Match("feed.stale") {
		t.Error("filter matched wrong names")
	}
	if !ParseFilter("").Match("anything") {
		t.Error("empty filter should match everything")
	}
}
