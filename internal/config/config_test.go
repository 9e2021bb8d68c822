package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()

	if cat.City != "Bengaluru" {
		t.Errorf("expected Bengaluru, got %q", cat.City)
	}
	if len(cat.Intersections) != 5 {
		t.Fatalf("expected 5 intersections, got %d", len(cat.Intersections))
	}
	if cat.Mode() != "balanced" {
		t.Errorf("expected balanced mode, got %q", cat.Mode())
	}
	if _, ok := cat.Corridor("Main Corridor (MG Road)"); !ok {
		t.Error("expected main corridor in default catalog")
	}
}

func TestDefaultCatalog_MatchesConfigsDir(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("..", "..", "configs", "bengaluru.yaml"))
	if err != nil {
		t.Skipf("configs dir not available: %v", err)
	}
	if string(b) != string(defaultCatalogYAML) {
		t.Error("configs/bengaluru.yaml drifted from the built-in catalog")
	}
}

func TestBuildRegistry(t *testing.T) {
	reg, err := DefaultCatalog().BuildRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.Len() != 5 {
		t.Errorf("expected 5 intersections, got %d", reg.Len())
	}

	ix, err := reg.Get("INT_001")
	if err != nil {
		t.Fatalf("get INT_001: %v", err)
	}
	if ix.Coordinates.Lat != 13.0351 {
		t.Errorf("expected lat 13.0351, got %v", ix.Coordinates.Lat)
	}
	if got := ix.Signals[traffic.North].ConnectedRoads; len(got) == 0 || got[0] != "MG Road" {
		t.Errorf("expected north approach on MG Road, got %v", got)
	}
}

func TestBuildRoadNetwork(t *testing.T) {
	g, err := DefaultCatalog().BuildRoadNetwork()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g == nil {
		t.Fatal("expected road network from catalog links")
	}

	route, err := g.Route("INT_004", "INT_001")
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	want := []string{"INT_004", "INT_003", "INT_001"}
	if strings.Join(route.IntersectionIDs, ",") != strings.Join(want, ",") {
		t.Errorf("expected route %v, got %v", want, route.IntersectionIDs)
	}
}

func TestBuildRoadNetwork_NoLinks(t *testing.T) {
	cat := &Catalog{Version: 1, Intersections: []IntersectionSpec{{ID: "A"}}}
	g, err := cat.BuildRoadNetwork()
	if err != nil || g != nil {
		t.Errorf("expected nil graph without links, got %v, %v", g, err)
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad version", "version: 2\nintersections: [{id: A}]", "unsupported catalog version"},
		{"no intersections", "version: 1", "no intersections"},
		{"missing id", "version: 1\nintersections: [{name: Nameless}]", "id is required"},
		{"duplicate id", "version: 1\nintersections: [{id: A}, {id: A}]", "duplicate id"},
		{"too many roads", "version: 1\nintersections: [{id: A, roads: [a, b, c, d, e]}]", "at most 4 roads"},
		{"dangling link", "version: 1\nintersections: [{id: A}]\nlinks: [{from: A, to: B}]", "unknown intersection"},
		{"dangling corridor", "version: 1\nintersections: [{id: A}]\ncorridors: [{name: X, intersections: [A, Z]}]", "unknown intersection Z"},
		{"bad yaml", "version: [", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city.yaml")
	content := `version: 1
city: Testville
intersections:
  - {id: X1, name: First, lat: 1, lon: 2}
  - {id: X2, name: Second, lat: 1, lon: 2.01}
links:
  - {from: X1, to: X2}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat.City != "Testville" || len(cat.Links) != 1 {
		t.Errorf("unexpected catalog %+v", cat)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScenario(t *testing.T) {
	readings, err := DefaultScenario().TrafficReadings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(readings) != 5 {
		t.Fatalf("expected 5 readings, got %d", len(readings))
	}
	if readings[4].Queues.East != 55 || readings[4].AQI != 150 {
		t.Errorf("unexpected INT_005 reading %+v", readings[4])
	}
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		return p
	}

	good := write("good.yaml", `version: 1
readings:
  - intersection_id: INT_002
    queues: {North: 120}
    congestion_percent: 40
    aqi: 80
`)
	s, err := LoadScenario(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readings, _ := s.TrafficReadings()
	if readings[0].Queues.North != 120 {
		t.Errorf("expected north queue 120, got %d", readings[0].Queues.North)
	}

	for name, content := range map[string]string{
		"bad_direction.yaml": "version: 1\nreadings: [{intersection_id: A, queues: {up: 3}}]",
		"negative.yaml":      "version: 1\nreadings: [{intersection_id: A, queues: {south: -3}}]",
		"no_id.yaml":         "version: 1\nreadings: [{aqi: 3}]",
		"version.yaml":       "version: 3",
	} {
		if _, err := LoadScenario(write(name, content)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
