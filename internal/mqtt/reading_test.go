package mqtt

import (
	"testing"

	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "valid v1 reading",
			json: `{
				"version": 1,
				"intersection_id": "INT_001",
				"queues": {"north": 35, "south": 25, "east": 20, "west": 28},
				"avg_speed_kmh": 22.5,
				"congestion_percent": 53,
				"aqi": 120
			}`,
			wantErr: false,
		},
		{
			name:    "unsupported version",
			json:    `{"version": 2, "intersection_id": "INT_001"}`,
			wantErr: true,
		},
		{
			name:    "missing intersection id",
			json:    `{"version": 1, "queues": {"north": 1}}`,
			wantErr: true,
		},
		{
			name:    "negative queue",
			json:    `{"version": 1, "intersection_id": "INT_001", "queues": {"east": -3}}`,
			wantErr: true,
		},
		{
			name:    "negative speed",
			json:    `{"version": 1, "intersection_id": "INT_001", "avg_speed_kmh": -1}`,
			wantErr: true,
		},
		{
			name:    "negative congestion",
			json:    `{"version": 1, "intersection_id": "INT_001", "congestion_percent": -0.5}`,
			wantErr: true,
		},
		{
			name:    "negative aqi",
			json:    `{"version": 1, "intersection_id": "INT_001", "aqi": -10}`,
			wantErr: true,
		},
		{
			name:    "congestion above 100 is accepted",
			json:    `{"version": 1, "intersection_id": "INT_001", "congestion_percent": 140}`,
			wantErr: false,
		},
		{
			name:    "invalid JSON",
			json:    `{not valid json}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseReading([]byte(tt.json))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseReading() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReadingPayload_Reading(t *testing.T) {
	p, err := ParseReading([]byte(`{
		"version": 1,
		"intersection_id": "INT_001",
		"queues": {"north": 35, "south": 25, "east": 20, "west": 28},
		"avg_speed_kmh": 22.5,
		"congestion_percent": 53,
		"aqi": 120
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := p.Reading()
	want := traffic.Queues{North: 35, South: 25, East: 20, West: 28}
	if r.Queues != want {
		t.Errorf("expected queues %+v, got %+v", want, r.Queues)
	}
	if r.IntersectionID != "INT_001" || r.AvgSpeed != 22.5 || r.Congestion != 53 || r.AQI != 120 {
		t.Errorf("unexpected reading %+v", r)
	}
}

func TestIntersectionFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		wantID string
		wantOK bool
	}{
		{"signals/intersections/INT_004/readings", "INT_004", true},
		{"signals/intersections//readings", "", false},
		{"signals/intersections/INT_004/plan", "", false},
		{"devices/INT_004/readings", "", false},
		{"signals/intersections/INT_004/readings/extra", "", false},
	}

	for _, tt := range tests {
		id, ok := IntersectionFromTopic(tt.topic)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("IntersectionFromTopic(%q) = %q, %v; want %q, %v", tt.topic, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestTopics(t *testing.T) {
	if got := PlanTopic("INT_002"); got != "signals/intersections/INT_002/plan" {
		t.Errorf("unexpected plan topic %q", got)
	}
	if got := GreenWaveTopic("Main Corridor"); got != "signals/corridors/main-corridor/greenwave" {
		t.Errorf("unexpected green wave topic %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Main Corridor":         "main-corridor",
		"  Outer Ring Road  ":   "outer-ring-road",
		"MG Road / Brigade Rd.": "mg-road-brigade-rd",
		"***":                   "unnamed",
		"":                      "unnamed",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
