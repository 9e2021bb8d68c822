package mqtt

import (
	"fmt"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// ReadingSink receives validated readings.
type ReadingSink interface {
	Ingest(r traffic.Reading) error
}

// ReadingSubscriber turns reading messages into registry updates.
// Subscriptions are tracked so a reconnect can resubscribe once per topic.
type ReadingSubscriber struct {
	mu         sync.RWMutex
	client     Subscriber
	sink       ReadingSink
	monitor    *FeedMonitor
	subscribed map[string]bool
}

// NewReadingSubscriber creates a subscriber feeding sink.
func NewReadingSubscriber(client Subscriber, sink ReadingSink) *ReadingSubscriber {
	return &ReadingSubscriber{
		client:     client,
		sink:       sink,
		subscribed: make(map[string]bool),
	}
}

// SetMonitor attaches a feed monitor that is told about every accepted reading.
func (s *ReadingSubscriber) SetMonitor(m *FeedMonitor) {
	s.mu.Lock()
	s.monitor = m
	s.mu.Unlock()
}

// Subscribe subscribes to topic if not already subscribed.
func (s *ReadingSubscriber) Subscribe(topic string) error {
	s.mu.Lock()
	if s.subscribed[topic] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	handler := func(_ paho.Client, msg paho.Message) {
		_ = s.HandleMessage(msg.Topic(), msg.Payload())
	}
	if err := s.client.Subscribe(topic, handler); err != nil {
		return err
	}

	s.mu.Lock()
	s.subscribed[topic] = true
	s.mu.Unlock()
	return nil
}

// SubscribeReadings subscribes to the wildcard readings topic.
func (s *ReadingSubscriber) SubscribeReadings() error {
	if err := s.Subscribe(ReadingsTopic); err != nil {
		events.Emit("error", "system.error", "failed to subscribe to readings", map[string]interface{}{
			"topic": ReadingsTopic,
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// HandleMessage parses one reading and forwards it to the sink. Rejected
// readings emit reading.rejected and return the reason.
func (s *ReadingSubscriber) HandleMessage(topic string, payload []byte) error {
	reading, err := ParseReading(payload)
	if err != nil {
		return reject(topic, "", err)
	}

	if id, ok := IntersectionFromTopic(topic); ok && id != reading.IntersectionID {
		return reject(topic, reading.IntersectionID, fmt.Errorf("topic is for %s", id))
	}

	if err := s.sink.Ingest(reading.Reading()); err != nil {
		return reject(topic, reading.IntersectionID, err)
	}

	s.mu.RLock()
	m := s.monitor
	s.mu.RUnlock()
	if m != nil {
		m.Seen(reading.IntersectionID)
	}
	return nil
}

func reject(topic, intersectionID string, err error) error {
	events.Emit("warning", "reading.rejected", err.Error(), map[string]interface{}{
		"topic":           topic,
		"intersection_id": intersectionID,
	})
	return err
}

// IsSubscribed returns true if the topic is already subscribed.
func (s *ReadingSubscriber) IsSubscribed(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed[topic]
}

// SubscribedTopics returns a list of all subscribed topics.
func (s *ReadingSubscriber) SubscribedTopics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, 0, len(s.subscribed))
	for topic := range s.subscribed {
		topics = append(topics, topic)
	}
	return topics
}

// ClearSubscriptions clears the subscription tracking.
// Call this on disconnect to allow re-subscription on reconnect.
func (s *ReadingSubscriber) ClearSubscriptions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = make(map[string]bool)
}
