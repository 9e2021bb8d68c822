package coordinator

import (
	"encoding/json"

	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// DefaultRestoreLimit is the default number of events to load for restore.
const DefaultRestoreLimit = 5000

// RestoredTiming is the last green/red split recorded for one approach.
type RestoredTiming struct {
	GreenTime int
	RedTime   int
	CycleTime int
}

// RestoredState is the registry state reconstructed from events.
type RestoredState struct {
	Readings map[string]traffic.Reading
	Timings  map[string]map[traffic.Direction]RestoredTiming
	Offsets  map[string]int
}

// RestoreFromStore loads recent events and folds them into a RestoredState.
// Returns nil if client is nil or there is nothing to restore.
func RestoreFromStore(client *postgres.Client, limit int) (*RestoredState, int, error) {
	if client == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = DefaultRestoreLimit
	}

	rows, err := client.Query(limit)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Query returns newest first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return RestoreFromEvents(rows), len(rows), nil
}

// RestoreFromEvents replays rows in chronological order. Later events for
// the same intersection replace earlier ones.
func RestoreFromEvents(rows []postgres.EventRow) *RestoredState {
	state := &RestoredState{
		Readings: make(map[string]traffic.Reading),
		Timings:  make(map[string]map[traffic.Direction]RestoredTiming),
		Offsets:  make(map[string]int),
	}

	for _, row := range rows {
		id, _ := row.Fields["intersection_id"].(string)

		switch row.Event {
		case "intersection.updated":
			if id == "" {
				continue
			}
			state.Readings[id] = traffic.Reading{
				IntersectionID: id,
				Queues: traffic.Queues{
					North: intField(row.Fields, "queue_north"),
					South: intField(row.Fields, "queue_south"),
					East:  intField(row.Fields, "queue_east"),
					West:  intField(row.Fields, "queue_west"),
				},
				AvgSpeed:   floatField(row.Fields, "avg_speed_kmh"),
				Congestion: floatField(row.Fields, "congestion_percent"),
				AQI:        intField(row.Fields, "aqi"),
			}

		case "timing.optimized":
			if id == "" {
				continue
			}
			cycle := intField(row.Fields, "cycle_time")
			timings := make(map[traffic.Direction]RestoredTiming, len(traffic.Directions))
			for _, d := range traffic.Directions {
				timings[d] = RestoredTiming{
					GreenTime: intField(row.Fields, "green_"+string(d)),
					RedTime:   intField(row.Fields, "red_"+string(d)),
					CycleTime: cycle,
				}
			}
			state.Timings[id] = timings

		case "greenwave.coordinated":
			for ixID, v := range offsetsField(row.Fields["offsets"]) {
				state.Offsets[ixID] = v
			}
		}
	}

	return state
}

// ApplyRestoredState writes restored state into the registry without
// emitting events. Intersections no longer in the catalog are skipped.
// Returns the number of intersections touched.
func (c *Coordinator) ApplyRestoredState(state *RestoredState) int {
	if state == nil {
		return 0
	}

	touched := make(map[string]struct{})
	for id, r := range state.Readings {
		if err := c.registry.Update(r); err == nil {
			touched[id] = struct{}{}
		}
	}
	for id, timings := range state.Timings {
		err := c.registry.Apply(id, func(ix *traffic.Intersection) error {
			for d, t := range timings {
				s, ok := ix.Signals[d]
				if !ok || t.GreenTime <= 0 {
					continue
				}
				s.GreenTime = t.GreenTime
				s.RedTime = t.RedTime
				if t.CycleTime > 0 {
					s.CycleTime = t.CycleTime
				}
			}
			return nil
		})
		if err == nil {
			touched[id] = struct{}{}
		}
	}
	for id, offset := range state.Offsets {
		err := c.registry.Apply(id, func(ix *traffic.Intersection) error {
			greenwave.Apply(ix, offset)
			return nil
		})
		if err == nil {
			c.offsets.Set(id, offset)
			touched[id] = struct{}{}
		}
	}
	return len(touched)
}

// Restore replays rows straight into the registry.
func (c *Coordinator) Restore(rows []postgres.EventRow) int {
	return c.ApplyRestoredState(RestoreFromEvents(rows))
}

// EmitStartupRestore emits the system.startup_restore event.
func EmitStartupRestore(replayed, intersections int) {
	events.Emit("info", "system.startup_restore", "", map[string]interface{}{
		"events":        replayed,
		"intersections": intersections,
	})
}

func floatField(fields map[string]interface{}, key string) float64 {
	switch v := fields[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

func intField(fields map[string]interface{}, key string) int {
	return int(floatField(fields, key))
}

func offsetsField(raw interface{}) map[string]int {
	out := make(map[string]int)
	switch m := raw.(type) {
	case map[string]interface{}:
		for k := range m {
			out[k] = intField(m, k)
		}
	case map[string]int:
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
