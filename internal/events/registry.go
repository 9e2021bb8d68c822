package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// intersection
	"intersection.updated":          {},
	"intersection.priority_changed": {},

	// timing
	"timing.optimized": {},

	// corridor
	"greenwave.coordinated": {},

	// conflict
	"conflict.detected": {},

	// feed
	"reading.rejected": {},
	"feed.stale":       {},
	"feed.restored":    {},

	// actuation
	"plan.published":      {},
	"plan.publish_failed": {},

	// system
	"system.startup":         {},
	"system.startup_restore": {},
	"system.shutdown":        {},
	"system.error":           {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
