package rrt

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
	return planning.NewPlanningRoadmap(bounds, 3, costmodel.Maximum, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

func openConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = 4000
	cfg.StepSize = 15
	cfg.GoalTolerance = 5
	cfg.GoalBias = 0.1
	return cfg
}

func TestRRTFindsRouteInOpenSpace(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewRRT(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	traj, err := planner.PlanRoute(context.Background(), start, goal, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
	test.That(t, len(traj.Waypoints), test.ShouldBeGreaterThan, 1)
}

func TestRRTStarFindsRouteInOpenSpace(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewRRTStar(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	traj, err := planner.PlanRoute(context.Background(), start, goal, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
}

func TestHRRTFindsRouteInOpenSpace(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewHRRT(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	traj, err := planner.PlanRoute(context.Background(), start, goal, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
}

func TestARRTImprovesOverDeadline(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewARRT(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	var improvements int
	traj, err := planner.PlanUntil(context.Background(), start, goal, time.Unix(0, 0), time.Time{}, func(planning.Trajectory) {
		improvements++
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
	test.That(t, improvements, test.ShouldBeGreaterThan, 0)
}

func TestDRRTPropagatesCorrectionOnObstacle(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewDRRT(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	traj, err := planner.PlanRoute(context.Background(), start, goal, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)

	var revised bool
	planner.AddRevisionListener(planning.PlanRevisionFunc(func(previous, next planning.Trajectory, reason string) {
		revised = true
	}))

	mid := traj.Waypoints[len(traj.Waypoints)/2]
	now := time.Unix(0, 0)
	test.That(t, env.Embed(planning.Obstacle{
		ID:    "new-hazard",
		Box:   geometry.NewBox(mid.Position.ToECEF(), r3.Vector{X: 8, Y: 8, Z: 8}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  1000,
	}), test.ShouldBeNil)
	env.SetTime(now)

	corrected, changed, err := planner.PropagateCorrections(context.Background(), traj)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, revised, test.ShouldBeTrue)
	test.That(t, len(corrected.Waypoints), test.ShouldBeGreaterThan, 0)
}

func TestADRRTPropagatesCorrectionOnObstacle(t *testing.T) {
	env := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewADRRT(env, craft, openConfig())

	start := geo.FromECEF(r3.Vector{X: -80, Y: -80, Z: -80})
	goal := geo.FromECEF(r3.Vector{X: 80, Y: 80, Z: 80})

	traj, err := planner.PlanRoute(context.Background(), start, goal, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)

	mid := traj.Waypoints[len(traj.Waypoints)/2]
	now := time.Unix(0, 0)
	test.That(t, env.Embed(planning.Obstacle{
		ID:    "new-hazard",
		Box:   geometry.NewBox(mid.Position.ToECEF(), r3.Vector{X: 8, Y: 8, Z: 8}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  1000,
	}), test.ShouldBeNil)
	env.SetTime(now)

	_, changed, err := planner.PropagateCorrections(context.Background(), traj)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changed, test.ShouldBeTrue)
}
