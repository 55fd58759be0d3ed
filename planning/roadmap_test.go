package planning

import (
	"math"
	"testing"
	"time"

	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testRoadmap() *PlanningRoadmap {
	bounds := geometry.NewBox(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	return NewPlanningRoadmap(bounds, 42, costmodel.Average, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

func TestPlanningRoadmapSampleWithinBounds(t *testing.T) {
	rm := testRoadmap()
	for i := 0; i < 50; i++ {
		pos := rm.SampleRandomPosition()
		test.That(t, rm.Contains(pos), test.ShouldBeTrue)
	}
}

func TestPlanningRoadmapFindNearest(t *testing.T) {
	rm := testRoadmap()
	rm.Pool().Add(geo.FromECEF(r3.Vector{X: 10}))
	far := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 90}))
	_ = far

	nearest := rm.FindNearest(geo.FromECEF(r3.Vector{X: 12}))
	test.That(t, nearest, test.ShouldNotBeNil)
	test.That(t, nearest.ID, test.ShouldEqual, WaypointID(0))
}

func TestPlanningRoadmapCheckConflict(t *testing.T) {
	rm := testRoadmap()
	now := time.Unix(500, 0)
	err := rm.Embed(Obstacle{
		ID:    "block",
		Box:   geometry.NewBox(r3.Vector{}, r3.Vector{X: 5, Y: 5, Z: 5}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  10,
	})
	test.That(t, err, test.ShouldBeNil)

	through := rm.CheckConflict(geo.FromECEF(r3.Vector{X: -20}), geo.FromECEF(r3.Vector{X: 20}), now)
	test.That(t, through, test.ShouldBeTrue)

	clear := rm.CheckConflict(geo.FromECEF(r3.Vector{X: -20, Y: 50}), geo.FromECEF(r3.Vector{X: 20, Y: 50}), now)
	test.That(t, clear, test.ShouldBeFalse)

	expired := rm.CheckConflict(geo.FromECEF(r3.Vector{X: -20}), geo.FromECEF(r3.Vector{X: 20}), now.Add(time.Hour))
	test.That(t, expired, test.ShouldBeFalse)
}

func TestPlanningRoadmapStepCostInfOnConflict(t *testing.T) {
	rm := testRoadmap()
	now := time.Unix(0, 0)
	err := rm.Embed(Obstacle{
		ID:    "block",
		Box:   geometry.NewBox(r3.Vector{}, r3.Vector{X: 5, Y: 5, Z: 5}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  10,
	})
	test.That(t, err, test.ShouldBeNil)

	cost := rm.StepCost(geo.FromECEF(r3.Vector{X: -20}), geo.FromECEF(r3.Vector{X: 20}), now)
	test.That(t, math.IsInf(cost, 1), test.ShouldBeTrue)
}

func TestPlanningRoadmapAddEdgeLinksNeighbors(t *testing.T) {
	rm := testRoadmap()
	a := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 0}))
	b := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 10}))
	rm.AddEdge(Edge{From: a.ID, To: b.ID, Cost: 1, Checked: true, Valid: true})

	test.That(t, a.HasNeighbor(b.ID), test.ShouldBeTrue)
	test.That(t, b.HasNeighbor(a.ID), test.ShouldBeTrue)
	test.That(t, len(rm.Edges()), test.ShouldEqual, 1)
}
