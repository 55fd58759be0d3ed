package search

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// ThetaStar is ForwardAStar with an any-angle relaxation step: before
// accepting the best edge into a neighbor, it also tries shortcutting
// directly from the current node's parent, when that parent has an
// unobstructed line of sight to the neighbor. Per Nash & Koenig's
// published Theta* semantics, the shortcut is only taken when that line of
// sight actually holds — a parent with no direct path to the neighbor is
// skipped and the plain edge is kept.
type ThetaStar struct {
	planning.AbstractPlanner
	GoalTolerance float64
}

// NewThetaStar returns a ThetaStar over env/craft.
func NewThetaStar(env planning.Environment, craft aircraft.Capabilities) *ThetaStar {
	return &ThetaStar{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.search.theta_star"),
		GoalTolerance:   1e-3,
	}
}

// PlanRoute runs Theta* from start to goal, departing at departure.
func (p *ThetaStar) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	pool := planning.NewPool()
	index := newPositionIndex()

	startWp := index.getOrCreate(pool, start)
	startWp.G = 0
	startWp.H = p.Env.Distance(start, goal)
	startWp.ETO = departure
	startWp.Parent = startWp.ID // Theta*'s root is its own parent candidate

	open := &openQueue{}
	heap.Init(open)
	items := make(map[planning.WaypointID]*openItem)
	pushOpen := func(w *planning.Waypoint) {
		if it, ok := items[w.ID]; ok {
			heap.Fix(open, it.index)
			return
		}
		it := &openItem{wp: w}
		items[w.ID] = it
		heap.Push(open, it)
	}
	pushOpen(startWp)

	closed := make(map[planning.WaypointID]bool)

	for open.Len() > 0 {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}

		cur := heap.Pop(open).(*openItem).wp
		delete(items, cur.ID)
		if closed[cur.ID] {
			continue
		}
		closed[cur.ID] = true

		if cur.Position.Distance3D(goal) <= p.GoalTolerance || cur.Position.Equal(goal) {
			path := planning.ReconstructPath(pool, cur.ID)
			return trajectoryFromPath(path, true), nil
		}

		parent := pool.Get(cur.Parent)
		if parent == nil {
			parent = cur
		}

		for _, npos := range p.Env.Neighbors(cur.Position) {
			if !p.Env.Contains(npos) {
				continue
			}
			leg := aircraft.Leg{From: cur.Position, To: npos}
			if !p.Craft.IsFeasible(leg) {
				continue
			}

			neighbor := index.getOrCreate(pool, npos)
			if closed[neighbor.ID] {
				continue
			}

			// path 2: shortcut through cur's parent, taken only when the
			// parent has an unobstructed line of sight to the neighbor.
			if shortcutETA, shortcutCost, ok := p.lineOfSight(parent, npos); ok {
				tentative := parent.G + shortcutCost
				if tentative < neighbor.G {
					neighbor.Parent = parent.ID
					neighbor.G = tentative
					neighbor.H = p.Env.Distance(npos, goal)
					neighbor.ETO = shortcutETA
					pushOpen(neighbor)
					continue
				}
			}

			eta, err := p.Craft.EstimatedTime(leg, cur.ETO)
			if err != nil {
				continue
			}
			stepCost := p.Env.StepCost(cur.Position, npos, eta)
			if math.IsInf(stepCost, 1) {
				continue
			}
			tentativeG := cur.G + stepCost
			if tentativeG < neighbor.G {
				neighbor.Parent = cur.ID
				neighbor.G = tentativeG
				neighbor.H = p.Env.Distance(npos, goal)
				neighbor.ETO = eta
				pushOpen(neighbor)
			}
		}
	}

	return planning.Trajectory{}, ErrNoRoute
}

// lineOfSight reports whether parent has an unobstructed straight path to
// target, returning the resulting ETA and step cost when it does.
func (p *ThetaStar) lineOfSight(parent *planning.Waypoint, target geo.Position) (time.Time, float64, bool) {
	leg := aircraft.Leg{From: parent.Position, To: target}
	if !p.Craft.IsFeasible(leg) {
		return time.Time{}, 0, false
	}
	eta, err := p.Craft.EstimatedTime(leg, parent.ETO)
	if err != nil {
		return time.Time{}, 0, false
	}
	cost := p.Env.StepCost(parent.Position, target, eta)
	if cost < 0 {
		return time.Time{}, 0, false
	}
	// A finite step cost is the planner's definition of line of sight; the
	// cost is infinite when an obstacle blocks the shortcut, when the risk
	// policy rejects it, or, on a PlanningGrid, when target's cell is not
	// adjacent to parent's.
	if math.IsInf(cost, 1) {
		return time.Time{}, 0, false
	}
	return eta, cost, true
}
