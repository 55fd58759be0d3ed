package rrt

import (
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// DRRT is the dynamic RRT variant: when PropagateCorrections detects that an
// obstacle has invalidated a leg of a previously returned trajectory, it
// keeps the trajectory up to the last still-valid waypoint and grows a new
// tree from there to the goal, rather than replanning from the start.
type DRRT struct {
	planning.AbstractPlanner
	Config
	Seed int64

	tree      *tree
	listeners []planning.PlanRevisionListener
}

// NewDRRT returns a DRRT over env/craft with cfg.
func NewDRRT(env planning.Environment, craft aircraft.Capabilities, cfg Config) *DRRT {
	return &DRRT{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.rrt.drrt"),
		Config:          cfg,
		Seed:            1,
	}
}

// PlanRoute grows a fresh tree from start to goal. PropagateCorrections
// calls it again from the last valid waypoint, replacing the stored tree.
func (p *DRRT) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	p.tree = newTree(p.Seed)
	root := p.tree.pool.Add(start)
	root.G = 0
	root.ETO = departure

	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		sample := p.tree.sample(p.Env, goal, p.GoalBias)
		w := extend(p.tree, p.Env, p.Craft, sample, p.Config, departure)
		if w == nil {
			continue
		}
		if w.Position.Distance3D(goal) <= p.GoalTolerance {
			path := planning.ReconstructPath(p.tree.pool, w.ID)
			return planning.Trajectory{Waypoints: path, Cost: w.G, Complete: true, ComputedAt: time.Now()}, nil
		}
	}
	return planning.Trajectory{}, ErrNoRoute
}

// AddRevisionListener registers l to be notified of future corrections.
func (p *DRRT) AddRevisionListener(l planning.PlanRevisionListener) {
	p.listeners = append(p.listeners, l)
}

// PropagateCorrections walks trajectory leg by leg against the current
// environment; on the first leg that is now in conflict, it regrows the
// tree from the last valid waypoint to the original goal and notifies every
// registered listener of the revision.
func (p *DRRT) PropagateCorrections(ctx context.Context, trajectory planning.Trajectory) (planning.Trajectory, bool, error) {
	if len(trajectory.Waypoints) < 2 {
		return trajectory, false, nil
	}
	at := p.Env.Now()

	for i := 0; i < len(trajectory.Waypoints)-1; i++ {
		from := trajectory.Waypoints[i]
		to := trajectory.Waypoints[i+1]
		cost := p.Env.StepCost(from.Position, to.Position, at)
		if !math.IsInf(cost, 1) {
			continue
		}

		goal := trajectory.Waypoints[len(trajectory.Waypoints)-1].Position
		revised, err := p.PlanRoute(ctx, from.Position, goal, from.ETO)
		if err != nil {
			return trajectory, false, err
		}
		stitched := planning.Trajectory{
			Waypoints:  append(append([]*planning.Waypoint{}, trajectory.Waypoints[:i+1]...), revised.Waypoints[1:]...),
			Cost:       trajectory.Waypoints[i].G + revised.Cost,
			Complete:   true,
			ComputedAt: time.Now(),
		}
		for _, l := range p.listeners {
			l.OnPlanRevised(trajectory, stitched, "leg invalidated by environment change")
		}
		return stitched, true, nil
	}

	return trajectory, false, nil
}
