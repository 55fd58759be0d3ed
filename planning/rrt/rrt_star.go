package rrt

import (
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// RRTStar grows an RRT tree and rewires each new node's neighborhood
// (within Config.RewireRadius) to keep the tree's path costs asymptotically
// optimal, per the standard RRT* rewiring rule: after connecting a new node
// through its cheapest nearby parent, every other nearby node is re-parented
// through the new node if that strictly lowers its own cost.
type RRTStar struct {
	planning.AbstractPlanner
	Config
	Seed int64
}

// NewRRTStar returns an RRTStar over env/craft with cfg.
func NewRRTStar(env planning.Environment, craft aircraft.Capabilities, cfg Config) *RRTStar {
	return &RRTStar{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.rrt.rrt_star"),
		Config:          cfg,
		Seed:            1,
	}
}

// PlanRoute grows and rewires a tree from start until it reaches goal or
// MaxIterations is exhausted, returning the best path found.
func (p *RRTStar) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	t := newTree(p.Seed)
	root := t.pool.Add(start)
	root.G = 0
	root.ETO = departure

	var best *planning.Waypoint

	for i := 0; i < p.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		sample := t.sample(p.Env, goal, p.GoalBias)
		w := p.extendAndRewire(t, sample, departure)
		if w == nil {
			continue
		}
		if w.Position.Distance3D(goal) <= p.GoalTolerance {
			if best == nil || w.G < best.G {
				best = w
			}
		}
	}

	if best == nil {
		return planning.Trajectory{}, ErrNoRoute
	}
	path := planning.ReconstructPath(t.pool, best.ID)
	return planning.Trajectory{Waypoints: path, Cost: best.G, Complete: true, ComputedAt: time.Now()}, nil
}

// extendAndRewire performs one RRT* iteration: connect `sample` through the
// cheapest feasible parent among its nearby tree nodes, then try rewiring
// those same neighbors through the new node.
func (p *RRTStar) extendAndRewire(t *tree, sample geo.Position, at time.Time) *planning.Waypoint {
	near := t.nearest(sample)
	if near == nil {
		return nil
	}
	candidate := steer(near.Position, sample, p.StepSize)
	if !p.Env.Contains(candidate) {
		return nil
	}

	neighbors := t.near(candidate, p.RewireRadius)
	if len(neighbors) == 0 {
		neighbors = []*planning.Waypoint{near}
	}

	var bestParent *planning.Waypoint
	bestCost := math.Inf(1)
	var bestETA time.Time
	for _, n := range neighbors {
		leg := aircraft.Leg{From: n.Position, To: candidate}
		if !p.Craft.IsFeasible(leg) {
			continue
		}
		eta, err := p.Craft.EstimatedTime(leg, n.ETO)
		if err != nil {
			continue
		}
		step := p.Env.StepCost(n.Position, candidate, eta)
		if math.IsInf(step, 1) {
			continue
		}
		total := n.G + step
		if total < bestCost {
			bestCost = total
			bestParent = n
			bestETA = eta
		}
	}
	if bestParent == nil {
		return nil
	}

	w := t.pool.Add(candidate)
	w.Parent = bestParent.ID
	w.G = bestCost
	w.ETO = bestETA
	bestParent.AddNeighbor(w.ID)
	w.AddNeighbor(bestParent.ID)

	for _, n := range neighbors {
		if n.ID == bestParent.ID {
			continue
		}
		leg := aircraft.Leg{From: w.Position, To: n.Position}
		if !p.Craft.IsFeasible(leg) {
			continue
		}
		eta, err := p.Craft.EstimatedTime(leg, w.ETO)
		if err != nil {
			continue
		}
		step := p.Env.StepCost(w.Position, n.Position, eta)
		if math.IsInf(step, 1) {
			continue
		}
		if w.G+step < n.G {
			n.RemoveNeighbor(n.Parent)
			if oldParent := t.pool.Get(n.Parent); oldParent != nil {
				oldParent.RemoveNeighbor(n.ID)
			}
			n.Parent = w.ID
			n.G = w.G + step
			n.ETO = eta
			w.AddNeighbor(n.ID)
			n.AddNeighbor(w.ID)
		}
	}

	return w
}
