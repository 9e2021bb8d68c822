package coordinator

import (
	"testing"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

func TestRestoreFromStoreNilClient(t *testing.T) {
	state, count, err := RestoreFromStore(nil, 100)
	if err != nil {
		t.Errorf("expected no error with nil client, got %v", err)
	}
	if state != nil {
		t.Error("expected nil state with nil client")
	}
	if count != 0 {
		t.Errorf("expected 0 count with nil client, got %d", count)
	}
}

// rows mimics what Postgres hands back: JSON numbers decode as float64.
func restoreRows() []postgres.EventRow {
	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	return []postgres.EventRow{
		{Timestamp: base, Event: "intersection.updated", Fields: map[string]interface{}{
			"intersection_id": "INT_001", "queue_north": float64(5), "congestion_percent": float64(10), "aqi": float64(30),
		}},
		{Timestamp: base.Add(time.Minute), Event: "intersection.updated", Fields: map[string]interface{}{
			"intersection_id": "INT_001", "queue_north": float64(60), "queue_south": float64(12),
			"avg_speed_kmh": 18.5, "congestion_percent": 72.5, "aqi": float64(160),
		}},
		{Timestamp: base.Add(2 * time.Minute), Event: "timing.optimized", Fields: map[string]interface{}{
			"intersection_id": "INT_001", "cycle_time": float64(120),
			"green_north": float64(80), "red_north": float64(35),
			"green_south": float64(40), "red_south": float64(75),
			"green_east": float64(35), "red_east": float64(80),
			"green_west": float64(35), "red_west": float64(80),
		}},
		{Timestamp: base.Add(3 * time.Minute), Event: "greenwave.coordinated", Fields: map[string]interface{}{
			"corridor": "Main Corridor",
			"offsets":  map[string]interface{}{"INT_001": float64(0), "INT_003": float64(1), "INT_GONE": float64(3)},
		}},
		{Timestamp: base.Add(4 * time.Minute), Event: "intersection.updated", Fields: map[string]interface{}{
			"intersection_id": "INT_GONE", "congestion_percent": float64(50),
		}},
		{Timestamp: base.Add(5 * time.Minute), Event: "plan.published", Fields: map[string]interface{}{
			"plan_id": "x",
		}},
	}
}

func TestRestoreFromEvents(t *testing.T) {
	state := RestoreFromEvents(restoreRows())

	r, ok := state.Readings["INT_001"]
	if !ok {
		t.Fatal("expected restored reading for INT_001")
	}
	if r.Queues.North != 60 || r.Queues.South != 12 || r.AQI != 160 || r.Congestion != 72.5 || r.AvgSpeed != 18.5 {
		t.Errorf("expected latest reading to win, got %+v", r)
	}
	if state.Timings["INT_001"][traffic.North].GreenTime != 80 {
		t.Errorf("expected restored north green 80, got %+v", state.Timings["INT_001"][traffic.North])
	}
	if state.Offsets["INT_003"] != 1 {
		t.Errorf("expected offset 1 for INT_003, got %d", state.Offsets["INT_003"])
	}
}

func TestRestore_AppliesToRegistry(t *testing.T) {
	c := newTestCoordinator(t)

	touched := c.Restore(restoreRows())
	if touched != 2 {
		t.Errorf("expected INT_001 and INT_003 restored, got %d", touched)
	}

	ix, _ := c.Intersection("INT_001")
	if ix.Priority != traffic.PriorityCritical {
		t.Errorf("expected priority recomputed to critical, got %s", ix.Priority)
	}
	if ix.Signals[traffic.North].GreenTime != 80 || ix.Signals[traffic.North].RedTime != 35 {
		t.Errorf("expected restored north timing, got %d/%d", ix.Signals[traffic.North].GreenTime, ix.Signals[traffic.North].RedTime)
	}

	ix3, _ := c.Intersection("INT_003")
	if ix3.Signals[traffic.West].AdaptiveOffset != 1 {
		t.Errorf("expected restored offset on INT_003, got %d", ix3.Signals[traffic.West].AdaptiveOffset)
	}
	if c.HasIntersection("INT_GONE") {
		t.Error("restore must not create intersections")
	}
	if countEvents("intersection.updated") != 0 {
		t.Error("restore must not emit events")
	}
}
