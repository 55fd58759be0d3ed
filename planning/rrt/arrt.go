package rrt

import (
	"context"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// ARRT is the anytime RRT variant: it keeps growing and rewiring a single
// RRT* tree past the first time it reaches the goal, publishing each
// strictly cheaper path to onImprovement, until Deadline elapses or
// MaxIterations is exhausted.
type ARRT struct {
	planning.AbstractPlanner
	Config
	Seed int64
}

// NewARRT returns an ARRT over env/craft with cfg.
func NewARRT(env planning.Environment, craft aircraft.Capabilities, cfg Config) *ARRT {
	return &ARRT{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.rrt.arrt"),
		Config:          cfg,
		Seed:            1,
	}
}

// PlanRoute runs PlanUntil with no deadline (MaxIterations is the only
// bound), satisfying the plain Plan interface.
func (p *ARRT) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	return p.PlanUntil(ctx, start, goal, departure, time.Time{}, nil)
}

// PlanUntil grows and rewires a single tree, invoking onImprovement every
// time a strictly cheaper path to goal is found, until deadline (if
// non-zero) elapses, MaxIterations is exhausted, or ctx is cancelled.
func (p *ARRT) PlanUntil(ctx context.Context, start, goal geo.Position, departure time.Time, deadline time.Time, onImprovement func(planning.Trajectory)) (planning.Trajectory, error) {
	t := newTree(p.Seed)
	root := t.pool.Add(start)
	root.G = 0
	root.ETO = departure

	star := &RRTStar{AbstractPlanner: p.AbstractPlanner, Config: p.Config, Seed: p.Seed}

	var best *planning.Waypoint

	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		sample := t.sample(p.Env, goal, p.GoalBias)
		w := star.extendAndRewire(t, sample, departure)
		if w == nil {
			continue
		}
		if w.Position.Distance3D(goal) <= p.GoalTolerance {
			if best == nil || w.G < best.G {
				best = w
				if onImprovement != nil {
					path := planning.ReconstructPath(t.pool, best.ID)
					onImprovement(planning.Trajectory{Waypoints: path, Cost: best.G, Complete: true, ComputedAt: time.Now()})
				}
			}
		}
	}

	if best == nil {
		return planning.Trajectory{}, ErrNoRoute
	}
	path := planning.ReconstructPath(t.pool, best.ID)
	return planning.Trajectory{Waypoints: path, Cost: best.G, Complete: true, ComputedAt: time.Now()}, nil
}
