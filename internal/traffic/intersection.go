// Package traffic holds the intersection and signal records shared by every
// coordination component, plus the priority classifier that derives an
// intersection's tier from its latest reading.
package traffic

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Direction is one approach of a four-way intersection.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the approaches in the order every plan reports them.
var Directions = [4]Direction{North, South, East, West}

// ParseDirection converts a case-insensitive name to a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Directions {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown direction: %q", s)
}

// Phase is the informational current phase of a signal.
type Phase string

const (
	PhaseRed    Phase = "red"
	PhaseYellow Phase = "yellow"
	PhaseGreen  Phase = "green"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Point returns the position as an orb point (lon, lat order).
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Queues holds vehicle queue lengths per approach.
type Queues struct {
	North int `json:"north" yaml:"north"`
	South int `json:"south" yaml:"south"`
	East  int `json:"east" yaml:"east"`
	West  int `json:"west" yaml:"west"`
}

// Get returns the queue length for one approach.
func (q Queues) Get(d Direction) int {
	switch d {
	case North:
		return q.North
	case South:
		return q.South
	case East:
		return q.East
	case West:
		return q.West
	}
	return 0
}

// Set assigns the queue length for one approach.
func (q *Queues) Set(d Direction, n int) {
	switch d {
	case North:
		q.North = n
	case South:
		q.South = n
	case East:
		q.East = n
	case West:
		q.West = n
	}
}

// Max returns the longest queue.
func (q Queues) Max() int {
	return max(q.North, q.South, q.East, q.West)
}

// Total returns the number of queued vehicles across all approaches.
func (q Queues) Total() int {
	return q.North + q.South + q.East + q.West
}

// Signal timing defaults.
const (
	DefaultCycleTime  = 120
	DefaultRedTime    = 60
	DefaultGreenTime  = 50
	DefaultYellowTime = 5
	DefaultAllRedTime = 5
	DefaultMinGreen   = 15
	DefaultMaxGreen   = 80
)

// Signal is the timing state of one approach. The optimizer targets
// green+red+yellow+all-red == cycle but the record does not enforce it.
type Signal struct {
	ID               string      `json:"signal_id"`
	IntersectionName string      `json:"intersection_name"`
	Coordinates      Coordinates `json:"coordinates"`

	CycleTime  int `json:"cycle_time"`
	RedTime    int `json:"red_time"`
	GreenTime  int `json:"green_time"`
	YellowTime int `json:"yellow_time"`
	AllRedTime int `json:"all_red_time"`

	CurrentPhase Phase `json:"current_phase"`

	MinGreen       int `json:"min_green"`
	MaxGreen       int `json:"max_green"`
	AdaptiveOffset int `json:"adaptive_offset"`

	ConnectedRoads []string `json:"connected_roads,omitempty"`
}

// NewSignal creates a signal with default timings.
func NewSignal(id, intersectionName string, coords Coordinates, roads []string) *Signal {
	return &Signal{
		ID:               id,
		IntersectionName: intersectionName,
		Coordinates:      coords,
		CycleTime:        DefaultCycleTime,
		RedTime:          DefaultRedTime,
		GreenTime:        DefaultGreenTime,
		YellowTime:       DefaultYellowTime,
		AllRedTime:       DefaultAllRedTime,
		CurrentPhase:     PhaseRed,
		MinGreen:         DefaultMinGreen,
		MaxGreen:         DefaultMaxGreen,
		ConnectedRoads:   append([]string{}, roads...),
	}
}

// Intersection is a four-way junction with its latest reading and signals.
type Intersection struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`

	Queues        Queues  `json:"queues"`
	AvgSpeed      float64 `json:"avg_speed_kmh"`
	AvgCongestion float64 `json:"avg_congestion_percent"`
	LocalAQI      int     `json:"local_aqi"`

	Priority Priority `json:"priority"`

	Signals map[Direction]*Signal `json:"signals"`

	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Reading is one pre-validated traffic and pollution sample.
type Reading struct {
	IntersectionID string  `json:"intersection_id" yaml:"intersection_id"`
	Queues         Queues  `json:"queues" yaml:"queues"`
	AvgSpeed       float64 `json:"avg_speed_kmh" yaml:"avg_speed_kmh"`
	Congestion     float64 `json:"congestion_percent" yaml:"congestion_percent"`
	AQI            int     `json:"aqi" yaml:"aqi"`
}

// NewIntersection creates an intersection with one default signal per
// approach. roads[i] labels the approach Directions[i]; missing entries are
// left empty.
func NewIntersection(id, name string, coords Coordinates, roads []string) *Intersection {
	ix := &Intersection{
		ID:            id,
		Name:          name,
		Coordinates:   coords,
		AvgSpeed:      30.0,
		AvgCongestion: 50.0,
		LocalAQI:      100,
		Priority:      PriorityNormal,
		Signals:       make(map[Direction]*Signal, len(Directions)),
	}
	for i, d := range Directions {
		var served []string
		if i < len(roads) && roads[i] != "" {
			served = []string{roads[i]}
		}
		ix.Signals[d] = NewSignal(SignalID(id, d), name, coords, served)
	}
	return ix
}

// SignalID returns the conventional ID of an approach's signal.
func SignalID(intersectionID string, d Direction) string {
	return intersectionID + "_" + strings.ToUpper(string(d))
}

// ApplyReading overwrites the metric fields and recomputes the priority tier.
func (ix *Intersection) ApplyReading(r Reading, at time.Time) {
	ix.Queues = r.Queues
	ix.AvgSpeed = r.AvgSpeed
	ix.AvgCongestion = r.Congestion
	ix.LocalAQI = r.AQI
	ix.Priority = ClassifyPriority(r.Congestion, r.AQI, r.Queues.Max())
	ix.UpdatedAt = at
}

// Clone returns a deep copy safe to hand outside the registry.
func (ix *Intersection) Clone() *Intersection {
	cpy := *ix
	cpy.Signals = make(map[Direction]*Signal, len(ix.Signals))
	for d, s := range ix.Signals {
		sc := *s
		sc.ConnectedRoads = append([]string{}, s.ConnectedRoads...)
		cpy.Signals[d] = &sc
	}
	return &cpy
}
