package rrt

import (
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// ADRRT combines ARRT's continued-improvement anytime behavior with DRRT's
// obstacle-triggered replanning: it remembers the goal of its last PlanUntil
// call and, when PropagateCorrections finds an invalidated leg, runs a fresh
// ARRT search from the last valid waypoint with a 200 ms deadline. No tree
// is kept between calls.
type ADRRT struct {
	planning.AbstractPlanner
	Config
	Seed int64

	arrt      *ARRT
	lastGoal  geo.Position
	lastTree  *tree
	listeners []planning.PlanRevisionListener
}

// NewADRRT returns an ADRRT over env/craft with cfg.
func NewADRRT(env planning.Environment, craft aircraft.Capabilities, cfg Config) *ADRRT {
	a := NewARRT(env, craft, cfg)
	return &ADRRT{
		AbstractPlanner: a.AbstractPlanner,
		Config:          cfg,
		Seed:            1,
		arrt:            a,
	}
}

// PlanRoute delegates to PlanUntil with no deadline.
func (p *ADRRT) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	return p.PlanUntil(ctx, start, goal, departure, time.Time{}, nil)
}

// PlanUntil runs ARRT's anytime improvement loop and remembers the goal so
// later PropagateCorrections calls know what to replan towards.
func (p *ADRRT) PlanUntil(ctx context.Context, start, goal geo.Position, departure time.Time, deadline time.Time, onImprovement func(planning.Trajectory)) (planning.Trajectory, error) {
	p.lastGoal = goal
	traj, err := p.arrt.PlanUntil(ctx, start, goal, departure, deadline, onImprovement)
	return traj, err
}

// AddRevisionListener registers l to be notified of future corrections.
func (p *ADRRT) AddRevisionListener(l planning.PlanRevisionListener) {
	p.listeners = append(p.listeners, l)
}

// PropagateCorrections mirrors DRRT's leg-by-leg validity scan, but repairs
// using ARRT's anytime growth (bounded by a short deadline) rather than a
// single-pass RRT extension, so a correction can itself be improved upon if
// time remains.
func (p *ADRRT) PropagateCorrections(ctx context.Context, trajectory planning.Trajectory) (planning.Trajectory, bool, error) {
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

		deadline := time.Now().Add(200 * time.Millisecond)
		revised, err := p.arrt.PlanUntil(ctx, from.Position, p.lastGoal, from.ETO, deadline, nil)
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
