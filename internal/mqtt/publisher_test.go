package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
)

func TestPlanPublisher_TimingPlan(t *testing.T) {
	mock := NewMockMQTTClient()
	p := NewPlanPublisher(mock)

	plan := optimizer.TimingPlan{PlanID: "p-1", IntersectionID: "INT_002", CycleTime: 120}
	if err := p.PublishTimingPlan(plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, ok := mock.published["signals/intersections/INT_002/plan"]
	if !ok {
		t.Fatal("expected plan on the intersection plan topic")
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["plan_id"] != "p-1" {
		t.Errorf("expected plan_id p-1, got %v", decoded["plan_id"])
	}
}

func TestPlanPublisher_GreenWave(t *testing.T) {
	mock := NewMockMQTTClient()
	p := NewPlanPublisher(mock)

	plan := greenwave.Plan{PlanID: "gw-1", CorridorName: "Main Corridor"}
	if err := p.PublishGreenWave(plan); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := mock.published["signals/corridors/main-corridor/greenwave"]; !ok {
		t.Error("expected plan on the corridor topic")
	}
}

func TestPlanPublisher_NotConnected(t *testing.T) {
	mock := NewMockMQTTClient()
	mock.connected = false
	p := NewPlanPublisher(mock)

	err := p.PublishTimingPlan(optimizer.TimingPlan{IntersectionID: "INT_001"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if len(mock.published) != 0 {
		t.Error("nothing should be published while disconnected")
	}
}

func TestPlanPublisher_PublishError(t *testing.T) {
	mock := NewMockMQTTClient()
	mock.publishErr = &TimeoutError{Op: "publish", Topic: "x"}
	p := NewPlanPublisher(mock)

	err := p.PublishGreenWave(greenwave.Plan{CorridorName: "Ring"})
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Errorf("expected TimeoutError, got %v", err)
	}
}
