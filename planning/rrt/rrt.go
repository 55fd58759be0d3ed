// Package rrt implements the tree-based sampling planner family: RRT,
// HRRT (goal-bias-adaptive hybrid RRT), ARRT (anytime RRT), RRTStar
// (asymptotically optimal rewiring variant), DRRT (dynamic/replanning RRT),
// and ADRRT (anytime + dynamic RRT). Every variant grows a single tree
// rooted at the start position by repeated sample/extend steps, following
// the constrainedExtend control flow of a bidirectional RRT planner
// generalized here to a single-tree, environment-driven extend. No
// path-smoothing pass is applied to the returned trajectories.
package rrt

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
	"github.com/pkg/errors"
)

// ErrNoRoute is returned when the tree fails to reach the goal within
// MaxIterations samples.
var ErrNoRoute = errors.New("rrt: no route found within iteration budget")

// Config controls tree growth shared by every variant in this package.
type Config struct {
	// MaxIterations bounds how many samples a single PlanRoute call draws
	// before giving up.
	MaxIterations int
	// StepSize is the maximum distance a single extend step advances the
	// tree towards a sample.
	StepSize float64
	// GoalBias is the probability [0,1] that a given iteration samples the
	// goal directly instead of a uniform random position.
	GoalBias float64
	// GoalTolerance is the distance within which a tree node is considered
	// to have reached the goal.
	GoalTolerance float64
	// RewireRadius bounds the neighborhood RRTStar/ADRRT consider when
	// rewiring after each extension.
	RewireRadius float64
}

// DefaultConfig returns reasonable defaults for a roadmap-scale search.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 2000,
		StepSize:      10,
		GoalBias:      0.05,
		GoalTolerance: 1e-3,
		RewireRadius:  20,
	}
}

// tree is the shared single-rooted RRT tree state: a waypoint pool plus the
// sampling source used to grow it.
type tree struct {
	pool *planning.Pool
	rng  *rand.Rand
}

func newTree(seed int64) *tree {
	return &tree{pool: planning.NewPool(), rng: rand.New(rand.NewSource(seed))}
}

// sample draws either the goal (with probability goalBias) or a uniform
// point within bounds.
func (t *tree) sample(env planning.Environment, goal geo.Position, goalBias float64) geo.Position {
	if t.rng.Float64() < goalBias {
		return goal
	}
	if rm, ok := env.(*planning.PlanningRoadmap); ok {
		return rm.SampleRandomPosition()
	}
	// Fall back to perturbing the goal when the environment offers no
	// native continuous sampler (e.g. a discretized PlanningGrid).
	jitter := func() float64 { return (t.rng.Float64()*2 - 1) * 50 }
	return geo.NewPosition(goal.LatDegrees+jitter(), goal.LonDegrees+jitter(), goal.ElevationM)
}

// nearest returns the tree node closest to pos.
func (t *tree) nearest(pos geo.Position) *planning.Waypoint {
	var best *planning.Waypoint
	bestDist := math.Inf(1)
	for _, w := range t.pool.All() {
		d := pos.Distance3D(w.Position)
		if d < bestDist {
			bestDist = d
			best = w
		}
	}
	return best
}

// near returns every tree node within radius of pos.
func (t *tree) near(pos geo.Position, radius float64) []*planning.Waypoint {
	var out []*planning.Waypoint
	for _, w := range t.pool.All() {
		if pos.Distance3D(w.Position) <= radius {
			out = append(out, w)
		}
	}
	return out
}

// steer advances from 'from' towards 'to' by at most stepSize, returning the
// resulting position.
func steer(from, to geo.Position, stepSize float64) geo.Position {
	dist := from.Distance3D(to)
	if dist <= stepSize {
		return to
	}
	return geo.Interpolate(from, to, stepSize/dist)
}

// extend attempts to grow the tree one step from its nearest node towards
// sample, subject to aircraft feasibility and environment step cost, and
// returns the newly added waypoint (nil if the extension was rejected).
func extend(t *tree, env planning.Environment, craft aircraft.Capabilities, sample geo.Position, cfg Config, at time.Time) *planning.Waypoint {
	near := t.nearest(sample)
	if near == nil {
		return nil
	}
	candidate := steer(near.Position, sample, cfg.StepSize)
	if !env.Contains(candidate) {
		return nil
	}
	leg := aircraft.Leg{From: near.Position, To: candidate}
	if !craft.IsFeasible(leg) {
		return nil
	}
	eta, err := craft.EstimatedTime(leg, near.ETO)
	if err != nil {
		return nil
	}
	cost := env.StepCost(near.Position, candidate, eta)
	if math.IsInf(cost, 1) {
		return nil
	}
	w := t.pool.Add(candidate)
	w.Parent = near.ID
	w.G = near.G + cost
	w.ETO = eta
	near.AddNeighbor(w.ID)
	w.AddNeighbor(near.ID)
	return w
}

// RRT is the plain single-tree Rapidly-exploring Random Tree planner.
type RRT struct {
	planning.AbstractPlanner
	Config
	Seed int64
}

// NewRRT returns an RRT over env/craft with cfg.
func NewRRT(env planning.Environment, craft aircraft.Capabilities, cfg Config) *RRT {
	return &RRT{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.rrt.rrt"),
		Config:          cfg,
		Seed:            1,
	}
}

// PlanRoute grows a tree from start, sampling towards goal with GoalBias
// probability, until the tree reaches GoalTolerance of goal or
// MaxIterations is exhausted.
func (p *RRT) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	t := newTree(p.Seed)
	root := t.pool.Add(start)
	root.G = 0
	root.ETO = departure

	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		sample := t.sample(p.Env, goal, p.GoalBias)
		w := extend(t, p.Env, p.Craft, sample, p.Config, departure)
		if w == nil {
			continue
		}
		if w.Position.Distance3D(goal) <= p.GoalTolerance {
			path := planning.ReconstructPath(t.pool, w.ID)
			return planning.Trajectory{Waypoints: path, Cost: w.G, Complete: true, ComputedAt: time.Now()}, nil
		}
	}
	return planning.Trajectory{}, ErrNoRoute
}
