// Package coordinator is the facade the service layer drives. It runs the
// core computations against the registry, records each decision as an
// event, and hands finished plans to the store and the actuation layer.
package coordinator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/AaronLay10/SentientSignals/internal/advisory"
	"github.com/AaronLay10/SentientSignals/internal/conflict"
	"github.com/AaronLay10/SentientSignals/internal/errors"
	"github.com/AaronLay10/SentientSignals/internal/events"
	"github.com/AaronLay10/SentientSignals/internal/greenwave"
	"github.com/AaronLay10/SentientSignals/internal/network"
	"github.com/AaronLay10/SentientSignals/internal/optimizer"
	"github.com/AaronLay10/SentientSignals/internal/registry"
	"github.com/AaronLay10/SentientSignals/internal/roadnet"
	"github.com/AaronLay10/SentientSignals/internal/storage/postgres"
	"github.com/AaronLay10/SentientSignals/internal/traffic"
)

// DefaultOptimizationMode is reported in network status until changed.
const DefaultOptimizationMode = "balanced"

// sideEffectTimeout bounds plan persistence and publishing.
const sideEffectTimeout = 5 * time.Second

// PlanPublisher delivers plans to the actuation layer.
// This allows for testing with mock implementations.
type PlanPublisher interface {
	PublishTimingPlan(plan optimizer.TimingPlan) error
	PublishGreenWave(plan greenwave.Plan) error
}

// PlanStore persists computed plans.
type PlanStore interface {
	SavePlan(ctx context.Context, kind, planID, subject, label string, createdAt time.Time, plan interface{}) error
}

// AlertFunc raises a critical-conflict operator alert. The finding type is
// carried in details as conflict_type. api.SendConflictAlert satisfies it.
type AlertFunc func(severity, message string, details map[string]interface{})

// Coordinator owns the registry for one city.
type Coordinator struct {
	registry *registry.Registry
	offsets  *greenwave.OffsetTable

	mu        sync.RWMutex
	roads     *roadnet.Graph
	publisher PlanPublisher
	store     PlanStore
	alert     AlertFunc
	mode      string
	now       func() time.Time
	workers   int
}

// New creates a coordinator over an already loaded registry.
func New(reg *registry.Registry) *Coordinator {
	return &Coordinator{
		registry: reg,
		offsets:  greenwave.NewOffsetTable(),
		mode:     DefaultOptimizationMode,
		now:      time.Now,
		workers:  8,
	}
}

// SetPublisher sets the actuation-layer publisher.
func (c *Coordinator) SetPublisher(p PlanPublisher) {
	c.mu.Lock()
	c.publisher = p
	c.mu.Unlock()
}

// SetPlanStore sets the plan store.
func (c *Coordinator) SetPlanStore(s PlanStore) {
	c.mu.Lock()
	c.store = s
	c.mu.Unlock()
}

// SetAlertFunc sets the hook used for critical conflicts.
func (c *Coordinator) SetAlertFunc(fn AlertFunc) {
	c.mu.Lock()
	c.alert = fn
	c.mu.Unlock()
}

// SetRoadNetwork sets the graph used by PlanCorridor.
func (c *Coordinator) SetRoadNetwork(g *roadnet.Graph) {
	c.mu.Lock()
	c.roads = g
	c.mu.Unlock()
}

// SetOptimizationMode sets the label reported in network status.
func (c *Coordinator) SetOptimizationMode(mode string) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

// SetClock overrides the time source for plans and reports.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	c.registry.SetClock(now)
}

// SetIngestWorkers bounds the parallelism of ApplyReadings.
func (c *Coordinator) SetIngestWorkers(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	c.workers = n
	c.mu.Unlock()
}

// Registry exposes the underlying registry.
func (c *Coordinator) Registry() *registry.Registry {
	return c.registry
}

// HasIntersection reports whether id is in the catalog.
func (c *Coordinator) HasIntersection(id string) bool {
	return c.registry.Exists(id)
}

func (c *Coordinator) clock() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now()
}

// UpdateIntersection records a new reading for an existing intersection.
func (c *Coordinator) UpdateIntersection(id string, queues traffic.Queues, avgSpeed, congestion float64, aqi int) error {
	return c.Ingest(traffic.Reading{
		IntersectionID: id,
		Queues:         queues,
		AvgSpeed:       avgSpeed,
		Congestion:     congestion,
		AQI:            aqi,
	})
}

// Ingest applies one reading and emits the resulting events.
func (c *Coordinator) Ingest(r traffic.Reading) error {
	prev, ix, err := c.registry.UpdateWithPrevious(r)
	if err != nil {
		return err
	}

	events.Emit("info", "intersection.updated", "", readingFields(ix))
	if prev != ix.Priority {
		events.Emit("info", "intersection.priority_changed", "", map[string]interface{}{
			"intersection_id": ix.ID,
			"from":            string(prev),
			"to":              string(ix.Priority),
		})
	}
	return nil
}

// OptimizeSignalTiming computes a timing plan and makes it the intersection's
// signal state in one step.
func (c *Coordinator) OptimizeSignalTiming(ctx context.Context, id string) (optimizer.TimingPlan, error) {
	var plan optimizer.TimingPlan
	now := c.clock()
	err := c.registry.Apply(id, func(ix *traffic.Intersection) error {
		plan = optimizer.Compute(ix, now)
		optimizer.Apply(ix, plan)
		return nil
	})
	if err != nil {
		return optimizer.TimingPlan{}, err
	}

	events.Emit("info", "timing.optimized", "", timingFields(plan))
	c.deliverTiming(ctx, plan)
	return plan, nil
}

// CoordinateGreenWave computes corridor offsets and writes them onto every
// signal of each found intersection.
func (c *Coordinator) CoordinateGreenWave(ctx context.Context, ids []string, corridor string, targetSpeedKmh float64) (greenwave.Plan, error) {
	plan, err := greenwave.Compute(ids, corridor, targetSpeedKmh, c.registry.Lookup, c.clock())
	if err != nil {
		return greenwave.Plan{}, err
	}

	for _, o := range plan.Offsets {
		offset := o.OffsetSeconds
		if err := c.registry.Apply(o.IntersectionID, func(ix *traffic.Intersection) error {
			greenwave.Apply(ix, offset)
			return nil
		}); err != nil {
			return greenwave.Plan{}, err
		}
		c.offsets.Set(o.IntersectionID, offset)
	}

	events.Emit("info", "greenwave.coordinated", "", greenWaveFields(plan))
	c.deliverGreenWave(ctx, plan)
	return plan, nil
}

// CoordinateRoute orders a corridor by shortest road path and coordinates it.
func (c *Coordinator) CoordinateRoute(ctx context.Context, from, to, corridor string, targetSpeedKmh float64) (greenwave.Plan, roadnet.Route, error) {
	route, err := c.PlanCorridor(from, to)
	if err != nil {
		return greenwave.Plan{}, roadnet.Route{}, err
	}
	plan, err := c.CoordinateGreenWave(ctx, route.IntersectionIDs, corridor, targetSpeedKmh)
	return plan, route, err
}

// PlanCorridor returns the shortest road path between two intersections.
func (c *Coordinator) PlanCorridor(from, to string) (roadnet.Route, error) {
	c.mu.RLock()
	g := c.roads
	c.mu.RUnlock()
	if g == nil {
		return roadnet.Route{}, errors.NewInvalidArgumentError("links", "no road network configured")
	}
	return g.Route(from, to)
}

// DetectConflicts evaluates the conflict rules for one intersection.
func (c *Coordinator) DetectConflicts(id string) ([]conflict.Finding, error) {
	ix, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}
	findings := conflict.Detect(ix)
	c.reportConflicts(ix, findings)
	return findings, nil
}

// GetCorridorStatus summarizes the requested intersections; unknown IDs are
// skipped.
func (c *Coordinator) GetCorridorStatus(ids []string) network.CorridorStatus {
	return network.Corridor(ids, c.registry.Lookup, c.clock())
}

// GetNetworkStatus summarizes every intersection.
func (c *Coordinator) GetNetworkStatus() network.NetworkStatus {
	c.mu.RLock()
	mode := c.mode
	c.mu.RUnlock()
	return network.Network(c.registry.All(), mode, c.clock())
}

// Intersection returns a snapshot of one intersection.
func (c *Coordinator) Intersection(id string) (*traffic.Intersection, error) {
	return c.registry.Get(id)
}

// GenerateSignalPlan lays out the current cycle of one intersection.
func (c *Coordinator) GenerateSignalPlan(id string) (optimizer.SignalPlan, error) {
	ix, err := c.registry.Get(id)
	if err != nil {
		return optimizer.SignalPlan{}, err
	}
	return optimizer.BuildSignalPlan(ix, c.clock()), nil
}

// SpeedAdvisory recommends a speed limit for the roads around one intersection.
func (c *Coordinator) SpeedAdvisory(id string, freeFlowKmh float64) (advisory.Recommendation, error) {
	if freeFlowKmh <= 0 {
		return advisory.Recommendation{}, errors.NewInvalidArgumentError("free_flow_kmh", "free-flow speed must be positive")
	}
	ix, err := c.registry.Get(id)
	if err != nil {
		return advisory.Recommendation{}, err
	}
	return advisory.ForIntersection(ix, freeFlowKmh), nil
}

// Offsets returns the latest green-wave offset per intersection.
func (c *Coordinator) Offsets() map[string]int {
	return c.offsets.Snapshot()
}

func (c *Coordinator) reportConflicts(ix *traffic.Intersection, findings []conflict.Finding) {
	if len(findings) == 0 {
		return
	}

	types := make([]string, 0, len(findings))
	for _, f := range findings {
		types = append(types, string(f.Type))
	}
	level := "warn"
	if conflict.HasCritical(findings) {
		level = "error"
	}
	events.Emit(level, "conflict.detected", "", map[string]interface{}{
		"intersection_id": ix.ID,
		"count":           len(findings),
		"types":           types,
	})

	c.mu.RLock()
	alert := c.alert
	c.mu.RUnlock()
	if alert == nil || !conflict.HasCritical(findings) {
		return
	}
	for _, f := range findings {
		if f.Severity != conflict.SeverityCritical {
			continue
		}
		alert(string(f.Severity), f.Remediation, map[string]interface{}{
			"conflict_type":     string(f.Type),
			"intersection_id":   ix.ID,
			"intersection_name": ix.Name,
			"direction":         string(f.Direction),
			"queue_length":      f.QueueLength,
			"aqi":               f.AQI,
		})
	}
}

func (c *Coordinator) deliverTiming(ctx context.Context, plan optimizer.TimingPlan) {
	c.mu.RLock()
	store, pub := c.store, c.publisher
	c.mu.RUnlock()

	if store != nil {
		sctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := store.SavePlan(sctx, postgres.KindTiming, plan.PlanID, plan.IntersectionID, string(plan.Strategy), plan.CreatedAt, plan); err != nil {
			log.Printf("coordinator: save timing plan %s: %v", plan.PlanID, err)
		}
		cancel()
	}
	if pub != nil {
		c.reportPublish(pub.PublishTimingPlan(plan), "timing", plan.PlanID, plan.IntersectionID)
	}
}

func (c *Coordinator) deliverGreenWave(ctx context.Context, plan greenwave.Plan) {
	c.mu.RLock()
	store, pub := c.store, c.publisher
	c.mu.RUnlock()

	if store != nil {
		sctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		if err := store.SavePlan(sctx, postgres.KindGreenWave, plan.PlanID, plan.CorridorName, plan.CoordinationStatus, plan.CreatedAt, plan); err != nil {
			log.Printf("coordinator: save green wave %s: %v", plan.PlanID, err)
		}
		cancel()
	}
	if pub != nil {
		c.reportPublish(pub.PublishGreenWave(plan), "greenwave", plan.PlanID, plan.CorridorName)
	}
}

func (c *Coordinator) reportPublish(err error, kind, planID, subject string) {
	fields := map[string]interface{}{
		"kind":    kind,
		"plan_id": planID,
		"subject": subject,
	}
	if err != nil {
		fields["error"] = err.Error()
		events.Emit("error", "plan.publish_failed", err.Error(), fields)
		return
	}
	events.Emit("info", "plan.published", "", fields)
}
