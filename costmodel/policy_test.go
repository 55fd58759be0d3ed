package costmodel

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestStepCostPolicyCombine(t *testing.T) {
	costs := []float64{1, 5, 3}
	test.That(t, Minimum.Combine(costs), test.ShouldEqual, 1)
	test.That(t, Maximum.Combine(costs), test.ShouldEqual, 5)
	test.That(t, Average.Combine(costs), test.ShouldEqual, 3)
}

func TestRiskEvaluatorIgnorance(t *testing.T) {
	r := DefaultRiskEvaluator(Ignorance)
	test.That(t, r.Evaluate(100000), test.ShouldEqual, 100000.0)
}

func TestRiskEvaluatorAvoidance(t *testing.T) {
	r := DefaultRiskEvaluator(Avoidance)
	r.AvoidanceThreshold = 50
	test.That(t, math.IsInf(r.Evaluate(51), 1), test.ShouldBeTrue)
	test.That(t, r.Evaluate(49), test.ShouldEqual, 49.0)
}

func TestRiskEvaluatorSafetyLessStrictThanAvoidance(t *testing.T) {
	safety := DefaultRiskEvaluator(Safety)
	avoidance := DefaultRiskEvaluator(Avoidance)
	test.That(t, safety.SafetyThreshold, test.ShouldBeGreaterThan, avoidance.AvoidanceThreshold)
}
