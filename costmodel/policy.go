// Package costmodel implements the step-cost aggregation policy and the
// risk policy shared by both Environment variants.
package costmodel

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StepCostPolicy combines the per-cell cost list traversed by a move into a
// single scalar.
type StepCostPolicy int

const (
	// Minimum takes the smallest per-cell cost traversed.
	Minimum StepCostPolicy = iota
	// Maximum takes the largest per-cell cost traversed.
	Maximum
	// Average takes the arithmetic mean of the per-cell costs traversed.
	Average
)

// Combine applies the policy to a non-empty slice of per-cell costs.
// On an empty slice Minimum and Maximum panic and Average returns NaN, so
// callers verify at least one shared cell exists first
// (areNeighbors/lookupCells).
func (p StepCostPolicy) Combine(costs []float64) float64 {
	switch p {
	case Minimum:
		return floats.Min(costs)
	case Maximum:
		return floats.Max(costs)
	case Average:
		return stat.Mean(costs, nil)
	default:
		return math.Inf(1)
	}
}

// RiskPolicy maps a cost magnitude to either admissible or infinite, with
// progressively stricter thresholds.
type RiskPolicy int

const (
	// Ignorance never rejects a leg regardless of cost magnitude.
	Ignorance RiskPolicy = iota
	// Safety rejects legs whose cost exceeds SafetyThreshold.
	Safety
	// Avoidance rejects legs whose cost exceeds the (lower) AvoidanceThreshold.
	Avoidance
)

// RiskEvaluator pairs a RiskPolicy with the thresholds it enforces.
type RiskEvaluator struct {
	Policy             RiskPolicy
	SafetyThreshold    float64
	AvoidanceThreshold float64
}

// DefaultRiskEvaluator returns an evaluator with reasonable default
// thresholds (Avoidance stricter than Safety).
func DefaultRiskEvaluator(policy RiskPolicy) RiskEvaluator {
	return RiskEvaluator{Policy: policy, SafetyThreshold: 100, AvoidanceThreshold: 50}
}

// Evaluate returns cost unchanged if it is admissible under the policy, or
// +Inf if the policy judges it an infinite risk.
func (r RiskEvaluator) Evaluate(cost float64) float64 {
	switch r.Policy {
	case Safety:
		if cost > r.SafetyThreshold {
			return math.Inf(1)
		}
	case Avoidance:
		if cost > r.AvoidanceThreshold {
			return math.Inf(1)
		}
	case Ignorance:
		// never rejects
	}
	return cost
}
