package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// ReadingsTopic matches the per-intersection reading topics.
const ReadingsTopic = "signals/intersections/+/readings"

// ReadingPayload represents a v1 sensor reading message.
type ReadingPayload struct {
	Version        int          `json:"version"`
	IntersectionID string       `json:"intersection_id"`
	Queues         QueueLengths `json:"queues"`
	AvgSpeedKmh    float64      `json:"avg_speed_kmh"`
	Congestion     float64      `json:"congestion_percent"`
	AQI            int          `json:"aqi"`
}

// QueueLengths holds vehicles waiting per approach.
type QueueLengths struct {
	North int `json:"north"`
	South int `json:"south"`
	East  int `json:"east"`
	West  int `json:"west"`
}

// ParseReading parses and validates a reading payload from JSON bytes.
func ParseReading(data []byte) (*ReadingPayload, error) {
	var payload ReadingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid reading JSON: %w", err)
	}

	if payload.Version != 1 {
		return nil, fmt.Errorf("unsupported reading version: %d", payload.Version)
	}

	if payload.IntersectionID == "" {
		return nil, fmt.Errorf("intersection_id is required")
	}

	q := payload.Queues
	if q.North < 0 || q.South < 0 || q.East < 0 || q.West < 0 {
		return nil, fmt.Errorf("queues must be non-negative")
	}
	if payload.AvgSpeedKmh < 0 {
		return nil, fmt.Errorf("avg_speed_kmh must be non-negative")
	}
	if payload.Congestion < 0 {
		return nil, fmt.Errorf("congestion_percent must be non-negative")
	}
	if payload.AQI < 0 {
		return nil, fmt.Errorf("aqi must be non-negative")
	}

	return &payload, nil
}

// Reading converts the payload into the registry's reading type.
func (p *ReadingPayload) Reading() traffic.Reading {
	return traffic.Reading{
		IntersectionID: p.IntersectionID,
		Queues: traffic.Queues{
			North: p.Queues.North,
			South: p.Queues.South,
			East:  p.Queues.East,
			West:  p.Queues.West,
		},
		AvgSpeed:   p.AvgSpeedKmh,
		Congestion: p.Congestion,
		AQI:        p.AQI,
	}
}

// IntersectionFromTopic extracts the intersection ID from a readings topic.
func IntersectionFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "signals" || parts[1] != "intersections" || parts[3] != "readings" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// PlanTopic is where timing plans for one intersection are published.
func PlanTopic(intersectionID string) string {
	return "signals/intersections/" + intersectionID + "/plan"
}

// GreenWaveTopic is where green-wave plans for a corridor are published.
func GreenWaveTopic(corridor string) string {
	return "signals/corridors/" + Slug(corridor) + "/greenwave"
}

// Slug lowercases a corridor name and joins its words with dashes.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "unnamed"
	}
	return s
}
