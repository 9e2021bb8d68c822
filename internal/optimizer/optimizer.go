package optimizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Share of total queue above which an approach is flagged high priority.
const highShare = 0.35

// Approach priority labels.
const (
	ApproachHigh   = "high"
	ApproachNormal = "normal"
)

// DirectionTiming is the allocation for one approach.
type DirectionTiming struct {
	Direction   traffic.Direction `json:"direction"`
	GreenTime   int               `json:"green_time"`
	RedTime     int               `json:"red_time"`
	YellowTime  int               `json:"yellow_time"`
	AllRedTime  int               `json:"all_red_time"`
	QueueLength int               `json:"queue_length"`
	Priority    string            `json:"priority"`
}

// TimingPlan is the result of optimizing one intersection.
type TimingPlan struct {
	PlanID                   string            `json:"plan_id"`
	IntersectionID           string            `json:"intersection_id"`
	Strategy                 Strategy          `json:"strategy"`
	CycleTime                int               `json:"cycle_time"`
	Timings                  []DirectionTiming `json:"timings"`
	EmissionReductionPercent float64           `json:"expected_emission_reduction_percent"`
	FlowImprovementPercent   float64           `json:"expected_flow_improvement_percent"`
	Urgency                  traffic.Priority  `json:"urgency"`
	CreatedAt                time.Time         `json:"created_at"`
}

// Timing returns the allocation for d.
func (p TimingPlan) Timing(d traffic.Direction) (DirectionTiming, bool) {
	for _, t := range p.Timings {
		if t.Direction == d {
			return t, true
		}
	}
	return DirectionTiming{}, false
}

// Compute derives a timing plan from an intersection snapshot. It does not
// modify ix.
func Compute(ix *traffic.Intersection, now time.Time) TimingPlan {
	strategy := SelectStrategy(ix.LocalAQI, ix.AvgCongestion)
	params := Params(strategy)

	total := max(1, ix.Queues.Total())

	timings := make([]DirectionTiming, 0, len(traffic.Directions))
	for _, d := range traffic.Directions {
		minGreen, maxGreen := traffic.DefaultMinGreen, traffic.DefaultMaxGreen
		if s, ok := ix.Signals[d]; ok && s != nil {
			minGreen, maxGreen = s.MinGreen, s.MaxGreen
		}

		queue := ix.Queues.Get(d)
		share := float64(queue) / float64(total)
		green := int(clamp(float64(params.BaseGreen)*(0.5+share), float64(minGreen), float64(maxGreen)))

		prio := ApproachNormal
		if share > highShare {
			prio = ApproachHigh
		}

		timings = append(timings, DirectionTiming{
			Direction:   d,
			GreenTime:   green,
			RedTime:     BaseCycle - green - YellowTime,
			YellowTime:  YellowTime,
			AllRedTime:  AllRedTime,
			QueueLength: queue,
			Priority:    prio,
		})
	}

	return TimingPlan{
		PlanID:                   uuid.NewString(),
		IntersectionID:           ix.ID,
		Strategy:                 strategy,
		CycleTime:                BaseCycle,
		Timings:                  timings,
		EmissionReductionPercent: params.EmissionReduction,
		FlowImprovementPercent:   params.FlowImprovement,
		Urgency:                  ix.Priority,
		CreatedAt:                now,
	}
}

// Apply writes the plan's green, red and cycle times onto the signals.
// Yellow and all-red on the signal records are left untouched.
func Apply(ix *traffic.Intersection, plan TimingPlan) {
	for _, t := range plan.Timings {
		s, ok := ix.Signals[t.Direction]
		if !ok || s == nil {
			continue
		}
		s.GreenTime = t.GreenTime
		s.RedTime = t.RedTime
		s.CycleTime = plan.CycleTime
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
