package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
)

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt not connected")

// PlanPublisher sends computed plans to the actuation layer.
type PlanPublisher struct {
	client Publisher
}

// NewPlanPublisher creates a publisher over client.
func NewPlanPublisher(client Publisher) *PlanPublisher {
	return &PlanPublisher{client: client}
}

// PublishTimingPlan publishes plan on the intersection's plan topic.
func (p *PlanPublisher) PublishTimingPlan(plan optimizer.TimingPlan) error {
	return p.publish(PlanTopic(plan.IntersectionID), plan)
}

// PublishGreenWave publishes plan on the corridor's green-wave topic.
func (p *PlanPublisher) PublishGreenWave(plan greenwave.Plan) error {
	return p.publish(GreenWaveTopic(plan.CorridorName), plan)
}

func (p *PlanPublisher) publish(topic string, v interface{}) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	return p.client.Publish(topic, payload)
}
