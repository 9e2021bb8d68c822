package coordinator

import (
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Event field layouts. Restore reads the same keys back, so keep them flat.

func readingFields(ix *traffic.Intersection) map[string]interface{} {
	return map[string]interface{}{
		"intersection_id":    ix.ID,
		"queue_north":        ix.Queues.North,
		"queue_south":        ix.Queues.South,
		"queue_east":         ix.Queues.East,
		"queue_west":         ix.Queues.West,
		"avg_speed_kmh":      ix.AvgSpeed,
		"congestion_percent": ix.AvgCongestion,
		"aqi":                ix.LocalAQI,
		"priority":           string(ix.Priority),
	}
}

func timingFields(plan optimizer.TimingPlan) map[string]interface{} {
	fields := map[string]interface{}{
		"intersection_id": plan.IntersectionID,
		"plan_id":         plan.PlanID,
		"strategy":        string(plan.Strategy),
		"cycle_time":      plan.CycleTime,
		"urgency":         string(plan.Urgency),
	}
	for _, t := range plan.Timings {
		fields["green_"+string(t.Direction)] = t.GreenTime
		fields["red_"+string(t.Direction)] = t.RedTime
	}
	return fields
}

func greenWaveFields(plan greenwave.Plan) map[string]interface{} {
	offsets := make(map[string]interface{}, len(plan.Offsets))
	for _, o := range plan.Offsets {
		offsets[o.IntersectionID] = o.OffsetSeconds
	}
	return map[string]interface{}{
		"plan_id":               plan.PlanID,
		"corridor":              plan.CorridorName,
		"target_speed_kmh":      plan.TargetSpeedKmh,
		"offsets":               offsets,
		"expected_travel_time":  plan.ExpectedTravelTimeMinutes,
		"intersections_covered": len(plan.IntersectionIDs),
	}
}
