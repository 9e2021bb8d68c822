package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AaronLay10/SentientSignals/internal/registry"
	"github.com/AaronLay10/SentientSignals/internal/roadnet"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// DefaultOptimizationMode is reported when the catalog does not set one.
const DefaultOptimizationMode = "balanced"

// Catalog is the intersection inventory for one city.
type Catalog struct {
	Version          int                `yaml:"version"`
	City             string             `yaml:"city"`
	OptimizationMode string             `yaml:"optimization_mode"`
	Intersections    []IntersectionSpec `yaml:"intersections"`
	Links            []roadnet.Link     `yaml:"links"`
	Corridors        []CorridorSpec     `yaml:"corridors"`
}

// IntersectionSpec declares one intersection. Roads are listed north,
// south, east, west.
type IntersectionSpec struct {
	ID    string   `yaml:"id"`
	Name  string   `yaml:"name"`
	Lat   float64  `yaml:"lat"`
	Lon   float64  `yaml:"lon"`
	Roads []string `yaml:"roads"`
}

// CorridorSpec names a preconfigured green-wave corridor.
type CorridorSpec struct {
	Name            string   `yaml:"name"`
	IntersectionIDs []string `yaml:"intersections"`
	TargetSpeedKmh  float64  `yaml:"target_speed_kmh"`
}

// Mode returns the optimization mode, defaulting to balanced.
func (c *Catalog) Mode() string {
	if c.OptimizationMode == "" {
		return DefaultOptimizationMode
	}
	return c.OptimizationMode
}

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cat, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(b []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return nil, err
	}

	if cat.Version != 1 {
		return nil, fmt.Errorf("unsupported catalog version: %d", cat.Version)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks IDs are present and unique and that links and corridors
// only reference declared intersections.
func (c *Catalog) Validate() error {
	if len(c.Intersections) == 0 {
		return fmt.Errorf("catalog has no intersections")
	}

	known := make(map[string]bool, len(c.Intersections))
	for i, ix := range c.Intersections {
		if ix.ID == "" {
			return fmt.Errorf("intersections[%d]: id is required", i)
		}
		if known[ix.ID] {
			return fmt.Errorf("intersections[%d]: duplicate id %s", i, ix.ID)
		}
		if len(ix.Roads) > len(traffic.Directions) {
			return fmt.Errorf("intersection %s: at most %d roads", ix.ID, len(traffic.Directions))
		}
		known[ix.ID] = true
	}

	for i, l := range c.Links {
		if !known[l.From] || !known[l.To] {
			return fmt.Errorf("links[%d]: unknown intersection in %s-%s", i, l.From, l.To)
		}
	}

	for _, cor := range c.Corridors {
		for _, id := range cor.IntersectionIDs {
			if !known[id] {
				return fmt.Errorf("corridor %q: unknown intersection %s", cor.Name, id)
			}
		}
	}
	return nil
}

// BuildRegistry creates a registry holding every catalog intersection with
// default signal state.
func (c *Catalog) BuildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	for _, spec := range c.Intersections {
		coords := traffic.Coordinates{Lat: spec.Lat, Lon: spec.Lon}
		if err := reg.Add(traffic.NewIntersection(spec.ID, spec.Name, coords, spec.Roads)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuildRoadNetwork returns the road graph, or nil when the catalog has no links.
func (c *Catalog) BuildRoadNetwork() (*roadnet.Graph, error) {
	if len(c.Links) == 0 {
		return nil, nil
	}
	nodes := make([]roadnet.Node, 0, len(c.Intersections))
	for _, spec := range c.Intersections {
		coords := traffic.Coordinates{Lat: spec.Lat, Lon: spec.Lon}
		nodes = append(nodes, roadnet.Node{ID: spec.ID, Location: coords.Point()})
	}
	return roadnet.New(nodes, c.Links)
}

// Corridor returns the named corridor.
func (c *Catalog) Corridor(name string) (CorridorSpec, bool) {
	for _, cor := range c.Corridors {
		if cor.Name == name {
			return cor, true
		}
	}
	return CorridorSpec{}, false
}
