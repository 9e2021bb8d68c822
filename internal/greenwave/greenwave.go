// Package greenwave computes signal offsets along a corridor so a platoon
// travelling at the target speed meets successive greens.
package greenwave

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/AaronLay10/SentientSignals/internal/errors"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Corridor model constants.
const (
	// SpacingKm is the assumed distance between consecutive intersections.
	SpacingKm = 1.0

	// DefaultTargetSpeedKmh is the platoon speed callers fall back to.
	DefaultTargetSpeedKmh = 30.0

	stopsReductionPerIntersection     = 12.0
	emissionsReductionPerIntersection = 8.0
)

// StatusActive is the only status a freshly computed plan carries.
const StatusActive = "active"

// IntersectionOffset is the offset assigned to one intersection.
type IntersectionOffset struct {
	IntersectionID string `json:"intersection_id"`
	OffsetSeconds  int    `json:"offset_seconds"`
}

// Plan is a coordinated corridor.
type Plan struct {
	PlanID                    string               `json:"plan_id"`
	CorridorName              string               `json:"corridor_name"`
	IntersectionIDs           []string             `json:"intersection_ids"`
	Offsets                   []IntersectionOffset `json:"offsets"`
	TargetSpeedKmh            float64              `json:"target_speed_kmh"`
	DistanceBetweenKm         float64              `json:"distance_between_km"`
	TotalCorridorDistanceKm   float64              `json:"total_corridor_distance_km"`
	ExpectedTravelTimeMinutes float64              `json:"expected_travel_time_minutes"`
	StopsReducedPercent       float64              `json:"stops_reduced_percent"`
	EmissionsReducedPercent   float64              `json:"emissions_reduced_percent"`
	CoordinationStatus        string               `json:"coordination_status"`
	CreatedAt                 time.Time            `json:"created_at"`
}

// Offset returns the offset assigned to id.
func (p Plan) Offset(id string) (int, bool) {
	for _, o := range p.Offsets {
		if o.IntersectionID == id {
			return o.OffsetSeconds, true
		}
	}
	return 0, false
}

// Lookup resolves an intersection snapshot, returning nil when unknown.
type Lookup func(id string) *traffic.Intersection

// Compute builds a green-wave plan over ids. Offsets are indexed by position
// in ids, so skipping an unknown ID leaves a gap rather than shifting later
// intersections. Fewer than two known intersections is an error.
func Compute(ids []string, corridor string, targetSpeedKmh float64, lookup Lookup, now time.Time) (Plan, error) {
	if len(ids) < 2 {
		return Plan{}, errors.NewInvalidArgumentError("intersection_ids", "need at least 2 intersections")
	}
	if targetSpeedKmh <= 0 || math.IsNaN(targetSpeedKmh) || math.IsInf(targetSpeedKmh, 0) {
		return Plan{}, errors.NewInvalidArgumentError("target_speed_kmh", "target speed must be positive")
	}

	hopSeconds := (SpacingKm / targetSpeedKmh) * 3600 / 60

	plan := Plan{
		PlanID:            uuid.NewString(),
		CorridorName:      corridor,
		TargetSpeedKmh:    targetSpeedKmh,
		DistanceBetweenKm: SpacingKm,
		CreatedAt:         now,
	}

	var stops, emissions []float64
	for i, id := range ids {
		if lookup(id) == nil {
			continue
		}
		plan.IntersectionIDs = append(plan.IntersectionIDs, id)
		plan.Offsets = append(plan.Offsets, IntersectionOffset{
			IntersectionID: id,
			OffsetSeconds:  int(math.Floor(float64(i) * hopSeconds)),
		})
		stops = append(stops, stopsReductionPerIntersection)
		emissions = append(emissions, emissionsReductionPerIntersection)
	}

	found := len(plan.IntersectionIDs)
	if found < 2 {
		return Plan{}, errors.NewInvalidArgumentError("intersection_ids", "need at least 2 known intersections")
	}

	plan.TotalCorridorDistanceKm = SpacingKm * float64(found-1)
	plan.ExpectedTravelTimeMinutes = round1(plan.TotalCorridorDistanceKm / targetSpeedKmh * 60)
	plan.StopsReducedPercent = stat.Mean(stops, nil)
	plan.EmissionsReducedPercent = stat.Mean(emissions, nil)
	plan.CoordinationStatus = StatusActive
	return plan, nil
}

// Apply writes offset onto every signal of ix.
func Apply(ix *traffic.Intersection, offset int) {
	for _, s := range ix.Signals {
		if s != nil {
			s.AdaptiveOffset = offset
		}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
