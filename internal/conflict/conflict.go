// Package conflict checks an intersection snapshot against a fixed set of
// operational hazards. Rules are independent; one snapshot can trip several.
package conflict

import (
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Type names a conflict rule.
type Type string

const (
	QueueOverflow        Type = "queue_overflow"
	OpposingFlowsBlocked Type = "opposing_flows_blocked"
	HighCongestion       Type = "high_congestion"
	AirQualityEmergency  Type = "air_quality_emergency"
)

// Severity of a finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
)

// Thresholds.
const (
	QueueCapacity          = 100
	criticalOverflowQueue  = 150
	opposingQueueThreshold = 20
	congestionThreshold    = 70.0
	aqiEmergencyThreshold  = 200
)

// Finding is one detected conflict.
type Finding struct {
	Type           Type              `json:"type"`
	Severity       Severity          `json:"severity"`
	IntersectionID string            `json:"intersection_id"`
	Direction      traffic.Direction `json:"direction,omitempty"`
	QueueLength    int               `json:"queue_length,omitempty"`
	Capacity       int               `json:"capacity,omitempty"`
	Congestion     float64           `json:"congestion_percent,omitempty"`
	AQI            int               `json:"aqi,omitempty"`
	Remediation    string            `json:"remediation"`
}

type rule func(ix *traffic.Intersection) []Finding

var rules = []rule{
	queueOverflow,
	opposingFlows,
	highCongestion,
	airQualityEmergency,
}

// Detect evaluates every rule against ix. It never mutates ix and returns an
// empty, non-nil slice when nothing is wrong.
func Detect(ix *traffic.Intersection) []Finding {
	findings := make([]Finding, 0)
	for _, r := range rules {
		findings = append(findings, r(ix)...)
	}
	return findings
}

// HasCritical reports whether any finding is critical.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

func queueOverflow(ix *traffic.Intersection) []Finding {
	var out []Finding
	for _, d := range traffic.Directions {
		q := ix.Queues.Get(d)
		if q <= QueueCapacity {
			continue
		}
		sev := SeverityHigh
		if q > criticalOverflowQueue {
			sev = SeverityCritical
		}
		out = append(out, Finding{
			Type:           QueueOverflow,
			Severity:       sev,
			IntersectionID: ix.ID,
			Direction:      d,
			QueueLength:    q,
			Capacity:       QueueCapacity,
			Remediation:    "Increase green time for this direction",
		})
	}
	return out
}

func opposingFlows(ix *traffic.Intersection) []Finding {
	q := ix.Queues
	northSouth := q.North > opposingQueueThreshold && q.South > opposingQueueThreshold
	eastWest := q.East > opposingQueueThreshold && q.West > opposingQueueThreshold
	if !northSouth && !eastWest {
		return nil
	}
	return []Finding{{
		Type:           OpposingFlowsBlocked,
		Severity:       SeverityHigh,
		IntersectionID: ix.ID,
		Remediation:    "Distribute green time between opposing directions",
	}}
}

func highCongestion(ix *traffic.Intersection) []Finding {
	if ix.AvgCongestion <= congestionThreshold {
		return nil
	}
	return []Finding{{
		Type:           HighCongestion,
		Severity:       SeverityHigh,
		IntersectionID: ix.ID,
		Congestion:     ix.AvgCongestion,
		Remediation:    "Implement emission priority strategy",
	}}
}

func airQualityEmergency(ix *traffic.Intersection) []Finding {
	if ix.LocalAQI <= aqiEmergencyThreshold {
		return nil
	}
	return []Finding{{
		Type:           AirQualityEmergency,
		Severity:       SeverityCritical,
		IntersectionID: ix.ID,
		AQI:            ix.LocalAQI,
		Remediation:    "Switch to emission priority mode - maximize green time",
	}}
}
