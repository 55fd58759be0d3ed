package prm

import (
	"context"
	"testing"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/planning"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testRoadmap() *planning.PlanningRoadmap {
	bounds := geometry.NewBox(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	return planning.NewPlanningRoadmap(bounds, 7, costmodel.Maximum, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

// buildChainRoadmap hand-builds a 4-node chain A-B-C-D (bypassing the
// planner's own random Grow) so planOverRoadmap's Dijkstra search can be
// exercised deterministically.
func buildChainRoadmap(rm *planning.PlanningRoadmap) (a, b, c, d *planning.Waypoint) {
	a = rm.Pool().Add(geo.FromECEF(r3.Vector{X: 0}))
	b = rm.Pool().Add(geo.FromECEF(r3.Vector{X: 10}))
	c = rm.Pool().Add(geo.FromECEF(r3.Vector{X: 20}))
	d = rm.Pool().Add(geo.FromECEF(r3.Vector{X: 30}))
	rm.AddEdge(planning.Edge{From: a.ID, To: b.ID, Cost: 1, Checked: true, Valid: true})
	rm.AddEdge(planning.Edge{From: b.ID, To: c.ID, Cost: 1, Checked: true, Valid: true})
	rm.AddEdge(planning.Edge{From: c.ID, To: d.ID, Cost: 1, Checked: true, Valid: true})
	return
}

func TestBasicPRMPlanOverRoadmapFindsChainedPath(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	a, _, _, d := buildChainRoadmap(rm)

	planner := NewBasicPRM(rm, craft, Config{Samples: 0, KNearest: 0})
	traj, err := planner.planOverRoadmap(context.Background(), a.Position, d.Position, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
	test.That(t, len(traj.Waypoints), test.ShouldEqual, 4)
	test.That(t, traj.Waypoints[0].ID, test.ShouldEqual, a.ID)
	test.That(t, traj.Waypoints[3].ID, test.ShouldEqual, d.ID)
}

func TestLazyPRMRejectsBlockedEdgeAtQueryTime(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	a, b, _, _ := buildChainRoadmap(rm)

	now := time.Unix(100, 0)
	test.That(t, rm.Embed(planning.Obstacle{
		ID:    "blocker",
		Box:   geometry.NewBox(r3.Vector{X: 5}, r3.Vector{X: 2, Y: 2, Z: 2}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  10,
	}), test.ShouldBeNil)

	planner := NewLazyPRM(rm, craft, Config{Samples: 0, KNearest: 0})
	_, ok := planner.edgeCost(a.ID, b.ID, now)
	test.That(t, ok, test.ShouldBeFalse)
}

func TestBasicPRMNoRouteWithoutConnectivity(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	isolated := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 0}))
	other := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 90}))

	planner := NewBasicPRM(rm, craft, Config{Samples: 0, KNearest: 0})
	_, err := planner.planOverRoadmap(context.Background(), isolated.Position, other.Position, time.Unix(0, 0))
	test.That(t, err, test.ShouldNotBeNil)
}
