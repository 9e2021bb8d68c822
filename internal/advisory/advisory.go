// Package advisory turns an intersection's congestion and air quality into
// an adaptive speed-limit recommendation for its approach roads.
package advisory

import (
	"math"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// CongestionLevel buckets congestion percent.
type CongestionLevel string

const (
	FreeFlow CongestionLevel = "free_flow"
	Light    CongestionLevel = "light"
	Moderate CongestionLevel = "moderate"
	Heavy    CongestionLevel = "heavy"
	Severe   CongestionLevel = "severe"
)

// ClassifyCongestion maps a congestion percent to its level.
func ClassifyCongestion(pct float64) CongestionLevel {
	switch {
	case pct < 20:
		return FreeFlow
	case pct < 40:
		return Light
	case pct < 60:
		return Moderate
	case pct < 80:
		return Heavy
	default:
		return Severe
	}
}

// AQICategory is the health-risk band of an AQI value.
type AQICategory string

const (
	AQIGood               AQICategory = "good"
	AQISatisfactory       AQICategory = "satisfactory"
	AQIModeratelyPolluted AQICategory = "moderately_polluted"
	AQIPoor               AQICategory = "poor"
	AQIVeryPoor           AQICategory = "very_poor"
	AQISevere             AQICategory = "severe"
)

// ClassifyAQI maps an AQI value to its category. Bounds are inclusive.
func ClassifyAQI(aqi int) AQICategory {
	switch {
	case aqi <= 50:
		return AQIGood
	case aqi <= 100:
		return AQISatisfactory
	case aqi <= 150:
		return AQIModeratelyPolluted
	case aqi <= 200:
		return AQIPoor
	case aqi <= 300:
		return AQIVeryPoor
	default:
		return AQISevere
	}
}

// PollutionUrgency ranks how strongly air quality should drive speed limits.
func PollutionUrgency(aqi int) string {
	switch {
	case aqi > 200:
		return "severe"
	case aqi > 150:
		return "high"
	case aqi > 100:
		return "moderate"
	default:
		return "low"
	}
}

type speedRule struct {
	match     func(c float64, aqi int) bool
	factor    float64
	floorKmh  float64
	reduction float64
	rationale string
}

// First match wins. The final rule is the fallback.
var speedRules = []speedRule{
	{func(c float64, a int) bool { return c > 60 && a > 150 }, 0.60, 20, 25, "heavy congestion with high pollution"},
	{func(c float64, a int) bool { return c > 60 && a <= 100 }, 0.75, 25, 12, "heavy congestion"},
	{func(c float64, a int) bool { return c > 30 && c <= 60 && a > 150 }, 0.80, 30, 15, "moderate traffic with high pollution"},
	{func(c float64, a int) bool { return c <= 30 && a > 150 }, 0.85, 35, 10, "light traffic with high pollution"},
	{func(c float64, a int) bool { return c <= 20 && a <= 100 }, 1.00, 0, 0, "free flow with clean air"},
	{func(float64, int) bool { return true }, 0.90, 0, 5, "balanced conditions"},
}

// Recommendation is a speed-limit decision for one intersection.
type Recommendation struct {
	IntersectionID            string          `json:"intersection_id"`
	Roads                     []string        `json:"roads,omitempty"`
	CurrentSpeedKmh           float64         `json:"current_speed_kmh"`
	FreeFlowSpeedKmh          float64         `json:"free_flow_speed_kmh"`
	RecommendedSpeedKmh       float64         `json:"recommended_speed_kmh"`
	ChangePercent             float64         `json:"change_percentage"`
	ExpectedEmissionReduction float64         `json:"expected_emission_reduction"`
	ExpectedFlowImpact        float64         `json:"expected_flow_impact"`
	Rationale                 string          `json:"rationale"`
	TrafficLevel              CongestionLevel `json:"traffic_level"`
	AQICategory               AQICategory     `json:"aqi_category"`
	PollutionUrgency          string          `json:"pollution_level"`
}

// Recommend computes the speed recommendation from raw inputs.
func Recommend(congestion float64, aqi int, currentKmh, freeFlowKmh float64) Recommendation {
	rule := speedRules[len(speedRules)-1]
	for _, r := range speedRules {
		if r.match(congestion, aqi) {
			rule = r
			break
		}
	}

	recommended := math.Max(rule.floorKmh, freeFlowKmh*rule.factor)

	var change float64
	if currentKmh > 0 {
		change = (recommended - currentKmh) / currentKmh * 100
	}
	var flow float64
	if change < 0 {
		flow = -math.Min(math.Abs(change)*0.15, 15)
	}

	return Recommendation{
		CurrentSpeedKmh:           round1(currentKmh),
		FreeFlowSpeedKmh:          freeFlowKmh,
		RecommendedSpeedKmh:       round1(recommended),
		ChangePercent:             round1(change),
		ExpectedEmissionReduction: rule.reduction,
		ExpectedFlowImpact:        round1(flow),
		Rationale:                 rule.rationale,
		TrafficLevel:              ClassifyCongestion(congestion),
		AQICategory:               ClassifyAQI(aqi),
		PollutionUrgency:          PollutionUrgency(aqi),
	}
}

// ForIntersection recommends a speed for the roads served by ix.
func ForIntersection(ix *traffic.Intersection, freeFlowKmh float64) Recommendation {
	rec := Recommend(ix.AvgCongestion, ix.LocalAQI, ix.AvgSpeed, freeFlowKmh)
	rec.IntersectionID = ix.ID
	for _, d := range traffic.Directions {
		if s, ok := ix.Signals[d]; ok && s != nil {
			rec.Roads = append(rec.Roads, s.ConnectedRoads...)
		}
	}
	return rec
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
