package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// Scenario is a batch of readings replayed through the CLI.
type Scenario struct {
	Version  int               `yaml:"version"`
	Name     string            `yaml:"name"`
	Readings []ScenarioReading `yaml:"readings"`
}

// ScenarioReading is one intersection's measurements.
type ScenarioReading struct {
	IntersectionID string         `yaml:"intersection_id"`
	Queues         map[string]int `yaml:"queues"`
	AvgSpeedKmh    float64        `yaml:"avg_speed_kmh"`
	Congestion     float64        `yaml:"congestion_percent"`
	AQI            int            `yaml:"aqi"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	if s.Version != 1 {
		return nil, fmt.Errorf("unsupported scenario version: %d", s.Version)
	}
	if _, err := s.TrafficReadings(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

// TrafficReadings converts the scenario into registry readings. Queue keys
// must be direction names.
func (s *Scenario) TrafficReadings() ([]traffic.Reading, error) {
	out := make([]traffic.Reading, 0, len(s.Readings))
	for i, r := range s.Readings {
		if r.IntersectionID == "" {
			return nil, fmt.Errorf("readings[%d]: intersection_id is required", i)
		}

		var q traffic.Queues
		for key, n := range r.Queues {
			d, err := traffic.ParseDirection(key)
			if err != nil {
				return nil, fmt.Errorf("readings[%d]: %w", i, err)
			}
			if n < 0 {
				return nil, fmt.Errorf("readings[%d]: negative queue for %s", i, key)
			}
			q.Set(d, n)
		}

		out = append(out, traffic.Reading{
			IntersectionID: r.IntersectionID,
			Queues:         q,
			AvgSpeed:       r.AvgSpeedKmh,
			Congestion:     r.Congestion,
			AQI:            r.AQI,
		})
	}
	return out, nil
}

// DefaultScenario is the morning-peak demo for the built-in catalog.
func DefaultScenario() *Scenario {
	return &Scenario{
		Version: 1,
		Name:    "morning peak",
		Readings: []ScenarioReading{
			{IntersectionID: "INT_001", Queues: map[string]int{"north": 45, "south": 30, "east": 25, "west": 35}, AvgSpeedKmh: 25, Congestion: 65.5, AQI: 120},
			{IntersectionID: "INT_002", Queues: map[string]int{"north": 20, "south": 25, "east": 40, "west": 30}, AvgSpeedKmh: 28, Congestion: 55, AQI: 95},
			{IntersectionID: "INT_003", Queues: map[string]int{"north": 35, "south": 35, "east": 20, "west": 25}, AvgSpeedKmh: 22, Congestion: 70, AQI: 180},
			{IntersectionID: "INT_004", Queues: map[string]int{"north": 15, "south": 20, "east": 30, "west": 25}, AvgSpeedKmh: 32, Congestion: 45, AQI: 85},
			{IntersectionID: "INT_005", Queues: map[string]int{"north": 50, "south": 45, "east": 55, "west": 40}, AvgSpeedKmh: 20, Congestion: 75, AQI: 150},
		},
	}
}
