package faprm

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
	return planning.NewPlanningRoadmap(bounds, 11, costmodel.Maximum, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

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

// buildLongChainRoadmap lays out n waypoints 10 units apart along X, each
// linked only to its immediate neighbor, so a search has exactly one route.
func buildLongChainRoadmap(rm *planning.PlanningRoadmap, n int) []*planning.Waypoint {
	wps := make([]*planning.Waypoint, n)
	for i := 0; i < n; i++ {
		wps[i] = rm.Pool().Add(geo.FromECEF(r3.Vector{X: float64(i) * 10}))
	}
	for i := 0; i < n-1; i++ {
		rm.AddEdge(planning.Edge{From: wps[i].ID, To: wps[i+1].ID, Cost: 1, Checked: true, Valid: true})
	}
	return wps
}

func TestFAPRMSearchFindsChainedPath(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	a, _, _, d := buildChainRoadmap(rm)

	cfg := DefaultConfig()
	planner := NewFAPRM(rm, craft, cfg)
	planner.computeDensities()

	traj, err := planner.search(context.Background(), a.Position, d.Position, time.Unix(0, 0), constBeta(cfg.FinalBeta))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Complete, test.ShouldBeTrue)
	test.That(t, len(traj.Waypoints), test.ShouldEqual, 4)
}

func TestFAItemKeyPrefersSparserNeighborhoodAtZeroBeta(t *testing.T) {
	sparse := &faItem{wp: &planning.Waypoint{G: 5, H: 5, Density: 1, Beta: 0}}
	dense := &faItem{wp: &planning.Waypoint{G: 5, H: 5, Density: 20, Beta: 0}}
	test.That(t, sparse.key(), test.ShouldBeLessThan, dense.key())
}

func TestFAQueueLessTieBreaksTowardHigherH(t *testing.T) {
	// equal density and beta=0 drive the key to 1/density regardless of H,
	// isolating the tiebreak rule.
	q := faQueue{
		{wp: &planning.Waypoint{Density: 4, Beta: 0, H: 10}},
		{wp: &planning.Waypoint{Density: 4, Beta: 0, H: 2}},
	}
	test.That(t, q.Less(0, 1), test.ShouldBeTrue)
	test.That(t, q.Less(1, 0), test.ShouldBeFalse)
}

func TestFAPRMPlanUntilEmitsNonIncreasingCost(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	wps := buildLongChainRoadmap(rm, 6)

	cfg := DefaultConfig()
	cfg.StepBeta = 0.25
	planner := NewFAPRM(rm, craft, cfg)
	planner.grown = true
	planner.computeDensities()

	var costs []float64
	final, err := planner.PlanUntil(context.Background(), wps[0].Position, wps[5].Position, time.Unix(0, 0), time.Time{},
		func(tr planning.Trajectory) { costs = append(costs, tr.Cost) })
	test.That(t, err, test.ShouldBeNil)
	test.That(t, final.Complete, test.ShouldBeTrue)
	test.That(t, len(costs), test.ShouldBeGreaterThan, 1)
	for i := 1; i < len(costs); i++ {
		test.That(t, costs[i], test.ShouldBeLessThanOrEqualTo, costs[i-1]+1e-9)
	}
}

func TestFADPRMPropagateCorrectionsReroutesAroundObstacle(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	a, b, c, d := buildChainRoadmap(rm)
	// give the search an alternative path around b so a correction can
	// succeed once a->b is blocked.
	alt := rm.Pool().Add(geo.FromECEF(r3.Vector{X: 5, Y: 20}))
	rm.AddEdge(planning.Edge{From: a.ID, To: alt.ID, Cost: 1, Checked: true, Valid: true})
	rm.AddEdge(planning.Edge{From: alt.ID, To: c.ID, Cost: 1, Checked: true, Valid: true})

	planner := NewFADPRM(rm, craft, DefaultConfig())
	planner.grown = true // roadmap is hand-built; PropagateCorrections still grows around the blocked leg

	traj := planning.Trajectory{
		Waypoints: []*planning.Waypoint{a, b, c, d},
		Cost:      3,
		Complete:  true,
	}

	now := time.Unix(0, 0)
	test.That(t, rm.Embed(planning.Obstacle{
		ID:    "blocker",
		Box:   geometry.NewBox(r3.Vector{X: 5}, r3.Vector{X: 3, Y: 3, Z: 3}),
		Start: now.Add(-time.Minute),
		End:   now.Add(time.Minute),
		Cost:  1000,
	}), test.ShouldBeNil)
	rm.SetTime(now)

	var revised bool
	planner.AddRevisionListener(planning.PlanRevisionFunc(func(previous, next planning.Trajectory, reason string) {
		revised = true
	}))

	corrected, changed, err := planner.PropagateCorrections(context.Background(), traj)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, revised, test.ShouldBeTrue)
	test.That(t, len(corrected.Waypoints), test.ShouldBeGreaterThan, 0)
}

func TestRADPRMBetaFromRiskStaysWithinBetaBounds(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	a, b, _, _ := buildChainRoadmap(rm)
	b.Parent = a.ID

	cfg := DefaultConfig()
	cfg.InitialBeta, cfg.FinalBeta = 0, 1
	planner := NewRADPRM(rm, craft, cfg, 100)
	betaFunc := planner.betaFromRisk(time.Unix(0, 0))
	beta := betaFunc(b)
	test.That(t, beta, test.ShouldBeLessThanOrEqualTo, planner.cfg.FinalBeta)
	test.That(t, beta, test.ShouldBeGreaterThanOrEqualTo, planner.cfg.InitialBeta)
}

func TestOFADPRMAdvanceRecordsPosition(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	planner := NewOFADPRM(rm, craft, DefaultConfig(), 0)

	test.That(t, planner.LookaheadWaypoints(), test.ShouldEqual, 3)

	pos := geo.FromECEF(r3.Vector{X: 1})
	now := time.Unix(42, 0)
	test.That(t, planner.Advance(pos, now), test.ShouldBeNil)
	test.That(t, planner.current.Equal(pos), test.ShouldBeTrue)
}

func TestOFADPRMAdvanceShiftsStartAndLocksPastWaypoints(t *testing.T) {
	rm := testRoadmap()
	craft := aircraft.NewCruiseModel(250)
	wps := buildLongChainRoadmap(rm, 10)

	planner := NewOFADPRM(rm, craft, DefaultConfig(), 3)
	planner.grown = true

	traj, err := planner.PlanRoute(context.Background(), wps[0].Position, wps[9].Position, time.Unix(0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(traj.Waypoints), test.ShouldBeGreaterThan, 5)

	test.That(t, planner.Advance(wps[2].Position, time.Unix(1, 0)), test.ShouldBeNil)

	start := planner.GetStart()
	test.That(t, start, test.ShouldNotBeNil)
	test.That(t, start.Position.Equal(wps[5].Position), test.ShouldBeTrue)

	for i := 0; i < 5; i++ {
		test.That(t, planner.locked[wps[i].ID], test.ShouldBeTrue)
	}
	test.That(t, planner.locked[wps[5].ID], test.ShouldBeFalse)
}
