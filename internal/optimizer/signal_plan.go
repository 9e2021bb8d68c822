package optimizer

import (
	"time"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// PhaseWindow is one approach's green window inside the cycle.
type PhaseWindow struct {
	Direction   traffic.Direction `json:"direction"`
	StartSecond int               `json:"start_second"`
	GreenTime   int               `json:"green_duration"`
	EndSecond   int               `json:"end_second"`
}

// SignalPlan describes the current cycle of an intersection as a timeline.
type SignalPlan struct {
	IntersectionID   string                    `json:"intersection_id"`
	IntersectionName string                    `json:"intersection_name"`
	CycleTime        int                       `json:"total_cycle_time"`
	Timeline         []PhaseWindow             `json:"phase_timeline"`
	Offsets          map[traffic.Direction]int `json:"offsets"`
	EstimatedWait    map[traffic.Direction]int `json:"estimated_wait_seconds"`
	Priority         traffic.Priority          `json:"priority"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}

// BuildSignalPlan lays the current signal timings out in N, S, E, W order.
// Each window opens after the previous one's green, yellow and all-red.
func BuildSignalPlan(ix *traffic.Intersection, now time.Time) SignalPlan {
	plan := SignalPlan{
		IntersectionID:   ix.ID,
		IntersectionName: ix.Name,
		Offsets:          make(map[traffic.Direction]int, len(traffic.Directions)),
		EstimatedWait:    make(map[traffic.Direction]int, len(traffic.Directions)),
		Priority:         ix.Priority,
		GeneratedAt:      now,
	}

	start, cycleSum, n := 0, 0, 0
	for _, d := range traffic.Directions {
		s, ok := ix.Signals[d]
		if !ok || s == nil {
			continue
		}
		plan.Timeline = append(plan.Timeline, PhaseWindow{
			Direction:   d,
			StartSecond: start,
			GreenTime:   s.GreenTime,
			EndSecond:   start + s.GreenTime,
		})
		start += s.GreenTime + s.YellowTime + s.AllRedTime

		plan.Offsets[d] = s.AdaptiveOffset
		plan.EstimatedWait[d] = s.RedTime / 2
		cycleSum += s.CycleTime
		n++
	}
	if n > 0 {
		plan.CycleTime = cycleSum / n
	}
	return plan
}
