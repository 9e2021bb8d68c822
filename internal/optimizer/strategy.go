// Package optimizer allocates green and red time across the four approaches
// of an intersection and picks the strategy label that drives the split.
//
// Computing a plan and applying it are separate steps so a caller can hold
// the intersection lock across both:
//
//	plan := optimizer.Compute(ix, time.Now())
//	optimizer.Apply(ix, plan)
package optimizer

// Strategy labels the timing policy chosen for an intersection.
type Strategy string

const (
	EmissionPriority Strategy = "emission_priority"
	FlowPriority     Strategy = "flow_priority"
	Balanced         Strategy = "balanced"
)

// BaseCycle is the cycle length every strategy allocates against.
const BaseCycle = 120

// Fixed clearance intervals reported with each approach.
const (
	YellowTime = 5
	AllRedTime = 3
)

// StrategyParams are the tuning values attached to a strategy.
type StrategyParams struct {
	BaseGreen         int
	EmissionReduction float64
	FlowImprovement   float64
}

var strategyParams = map[Strategy]StrategyParams{
	EmissionPriority: {BaseGreen: 70, EmissionReduction: 18, FlowImprovement: -5},
	FlowPriority:     {BaseGreen: 60, EmissionReduction: 5, FlowImprovement: 15},
	Balanced:         {BaseGreen: 50, EmissionReduction: 10, FlowImprovement: 8},
}

// Params returns the tuning values for s. Unknown strategies fall back to
// balanced.
func Params(s Strategy) StrategyParams {
	if p, ok := strategyParams[s]; ok {
		return p
	}
	return strategyParams[Balanced]
}

type strategyRule struct {
	match    func(aqi int, congestion float64) bool
	strategy Strategy
}

// First match wins.
var strategyRules = []strategyRule{
	{func(aqi int, c float64) bool { return aqi > 150 && c > 60 }, EmissionPriority},
	{func(_ int, c float64) bool { return c > 60 }, FlowPriority},
	{func(aqi int, _ float64) bool { return aqi > 100 }, EmissionPriority},
}

// SelectStrategy picks the timing policy for the given air quality and
// congestion.
func SelectStrategy(aqi int, congestion float64) Strategy {
	for _, rule := range strategyRules {
		if rule.match(aqi, congestion) {
			return rule.strategy
		}
	}
	return Balanced
}
