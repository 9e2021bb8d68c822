// Package network summarizes registry snapshots into network-wide and
// corridor-level statistics. It only reads.
package network

import (
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/AaronLay10/SentientSignals/internal/conflict"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Corridors with average congestion above this need optimization.
const corridorCongestionThreshold = 60.0

// IntersectionSummary is the per-intersection line of a status report.
type IntersectionSummary struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Congestion     float64          `json:"congestion"`
	AQI            int              `json:"aqi"`
	QueuedVehicles int              `json:"queued_vehicles"`
	Priority       traffic.Priority `json:"priority"`
	Conflicts      *int             `json:"conflicts,omitempty"`
}

// Status is the shape shared by network and corridor reports.
type Status struct {
	TotalIntersections  int                   `json:"total_intersections"`
	AvgCongestion       float64               `json:"avg_congestion"`
	AvgAQI              int                   `json:"avg_aqi"`
	TotalVehiclesQueued int                   `json:"total_vehicles_queued"`
	CriticalCount       int                   `json:"critical_intersections"`
	HighPriorityCount   int                   `json:"high_priority_intersections"`
	Intersections       []IntersectionSummary `json:"intersections_status"`
	Timestamp           time.Time             `json:"timestamp"`
}

// NetworkStatus covers every intersection in the registry.
type NetworkStatus struct {
	Status
	OptimizationMode string `json:"optimization_mode"`
}

// CorridorStatus covers the requested subset.
type CorridorStatus struct {
	Status
	RequestedIntersections int  `json:"requested_intersections"`
	ConflictsDetected      int  `json:"conflicts_detected"`
	OptimizationNeeded     bool `json:"optimization_needed"`
}

// Lookup resolves an intersection snapshot, returning nil when unknown.
type Lookup func(id string) *traffic.Intersection

// Network aggregates all snapshots. An empty input yields zero averages.
func Network(snapshots []*traffic.Intersection, mode string, now time.Time) NetworkStatus {
	return NetworkStatus{
		Status:           summarize(snapshots, nil, now),
		OptimizationMode: mode,
	}
}

// Corridor aggregates the requested IDs, skipping unknown ones, and runs
// conflict detection on each found intersection.
func Corridor(ids []string, lookup Lookup, now time.Time) CorridorStatus {
	found := lo.FilterMap(ids, func(id string, _ int) (*traffic.Intersection, bool) {
		ix := lookup(id)
		return ix, ix != nil
	})

	// One count per position, so a repeated ID is counted as often as it
	// appears in the other totals.
	conflicts := lo.Map(found, func(ix *traffic.Intersection, _ int) int {
		return len(conflict.Detect(ix))
	})

	st := CorridorStatus{
		Status:                 summarize(found, conflicts, now),
		RequestedIntersections: len(ids),
		ConflictsDetected:      lo.Sum(conflicts),
	}
	st.OptimizationNeeded = st.ConflictsDetected > 0 || st.AvgCongestion > corridorCongestionThreshold
	return st
}

func summarize(snapshots []*traffic.Intersection, conflicts []int, now time.Time) Status {
	st := Status{
		TotalIntersections: len(snapshots),
		Timestamp:          now,
	}

	st.Intersections = lo.Map(snapshots, func(ix *traffic.Intersection, i int) IntersectionSummary {
		s := IntersectionSummary{
			ID:             ix.ID,
			Name:           ix.Name,
			Congestion:     round1(ix.AvgCongestion),
			AQI:            ix.LocalAQI,
			QueuedVehicles: ix.Queues.Total(),
			Priority:       ix.Priority,
		}
		if conflicts != nil {
			n := conflicts[i]
			s.Conflicts = &n
		}
		return s
	})

	st.TotalVehiclesQueued = lo.SumBy(snapshots, func(ix *traffic.Intersection) int { return ix.Queues.Total() })
	st.CriticalCount = lo.CountBy(snapshots, func(ix *traffic.Intersection) bool {
		return ix.Priority == traffic.PriorityCritical
	})
	st.HighPriorityCount = lo.CountBy(snapshots, func(ix *traffic.Intersection) bool {
		return ix.Priority.AtLeast(traffic.PriorityHigh)
	})

	if n := len(snapshots); n > 0 {
		congestion := lo.SumBy(snapshots, func(ix *traffic.Intersection) float64 { return ix.AvgCongestion })
		aqi := lo.SumBy(snapshots, func(ix *traffic.Intersection) int { return ix.LocalAQI })
		st.AvgCongestion = round1(congestion / float64(n))
		st.AvgAQI = aqi / n
	}
	return st
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
