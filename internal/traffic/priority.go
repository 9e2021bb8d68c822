package traffic

// Priority is an intersection's need for intervention.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Rank orders tiers from low (0) to critical (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether p is as urgent as other.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

type priorityRule struct {
	tier  Priority
	match func(congestion float64, aqi, maxQueue int) bool
}

// Evaluated top-down, first match wins. Reordering changes results.
var priorityRules = []priorityRule{
	{PriorityCritical, func(c float64, aqi, q int) bool { return c > 70 || aqi > 150 || q > 50 }},
	{PriorityHigh, func(c float64, aqi, q int) bool { return c > 50 || aqi > 100 || q > 30 }},
	{PriorityNormal, func(c float64, aqi, _ int) bool { return c > 30 || aqi > 50 }},
}

// ClassifyPriority maps the latest congestion, AQI and longest queue to a tier.
func ClassifyPriority(congestion float64, aqi, maxQueue int) Priority {
	for _, rule := range priorityRules {
		if rule.match(congestion, aqi, maxQueue) {
			return rule.tier
		}
	}
	return PriorityLow
}
