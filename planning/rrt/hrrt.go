package rrt

import (
	"context"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// HRRT is a hybrid RRT that adapts its goal bias at runtime: it starts at
// Config.GoalBias and increases it after a run of consecutive extension
// failures (to pull the tree back towards progress), resetting to the
// configured bias after every successful extension. This trades RRT's
// fixed exploration/exploitation ratio for one that reacts to how hard the
// environment is making progress.
type HRRT struct {
	planning.AbstractPlanner
	Config
	Seed int64

	// MaxGoalBias caps how far the adaptive bias is allowed to climb.
	MaxGoalBias float64
	// BiasGrowth is added to the current bias after each run of StallLimit
	// consecutive failed extensions.
	BiasGrowth float64
	// StallLimit is how many consecutive failures trigger bias growth.
	StallLimit int
}

// NewHRRT returns an HRRT over env/craft with cfg.
func NewHRRT(env planning.Environment, craft aircraft.Capabilities, cfg Config) *HRRT {
	return &HRRT{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.rrt.hrrt"),
		Config:          cfg,
		Seed:            1,
		MaxGoalBias:     0.8,
		BiasGrowth:      0.05,
		StallLimit:      10,
	}
}

// PlanRoute grows a tree from start with an adaptive goal bias, as
// described on HRRT.
func (p *HRRT) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	t := newTree(p.Seed)
	root := t.pool.Add(start)
	root.G = 0
	root.ETO = departure

	bias := p.GoalBias
	stall := 0

	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		sample := t.sample(p.Env, goal, bias)
		w := extend(t, p.Env, p.Craft, sample, p.Config, departure)
		if w == nil {
			stall++
			if stall >= p.StallLimit {
				bias += p.BiasGrowth
				if bias > p.MaxGoalBias {
					bias = p.MaxGoalBias
				}
				stall = 0
			}
			continue
		}
		stall = 0
		bias = p.GoalBias

		if w.Position.Distance3D(goal) <= p.GoalTolerance {
			path := planning.ReconstructPath(t.pool, w.ID)
			return planning.Trajectory{Waypoints: path, Cost: w.G, Complete: true, ComputedAt: time.Now()}, nil
		}
	}
	return planning.Trajectory{}, ErrNoRoute
}
