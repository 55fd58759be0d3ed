// Package search implements the grid-based forward-search planners:
// ForwardAStar, ThetaStar, and the anytime ARAStar.
package search

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/planning"
	"github.com/pkg/errors"

	"github.com/aeroplan/flightplan/geo"
)

// ErrNoRoute is returned when the open set empties without reaching the
// goal.
var ErrNoRoute = errors.New("no route found")

// openItem is a heap entry wrapping a waypoint with its position in the
// heap's backing slice, so that a priority decrease can call heap.Fix
// instead of pushing a stale duplicate (Design Notes: "priority queue with
// mutable keys → wrap nodes in a heap with decrease_key or re-insert +
// stale-entry filtering").
type openItem struct {
	wp    *planning.Waypoint
	index int
}

type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool { return q[i].wp.F() < q[j].wp.F() }
func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *openQueue) Push(x any) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// ForwardAStar is a plain grid-based A* planner over a planning.Environment,
// using Environment.Distance as an admissible heuristic to the goal and
// Environment.StepCost (already risk-evaluated) as edge cost.
type ForwardAStar struct {
	planning.AbstractPlanner

	// GoalTolerance is the distance, in the same units as
	// Environment.Distance, within which a visited waypoint is treated as
	// having reached the goal.
	GoalTolerance float64
}

// NewForwardAStar returns a ForwardAStar over env/craft.
func NewForwardAStar(env planning.Environment, craft aircraft.Capabilities) *ForwardAStar {
	return &ForwardAStar{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.search.forward_astar"),
		GoalTolerance:   1e-3,
	}
}

// PlanRoute runs A* from start to goal, departing at departure.
func (p *ForwardAStar) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	pool := planning.NewPool()
	index := newPositionIndex()

	startWp := index.getOrCreate(pool, start)
	startWp.G = 0
	startWp.H = p.Env.Distance(start, goal)
	startWp.ETO = departure

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

		for _, npos := range p.Env.Neighbors(cur.Position) {
			if !p.Env.Contains(npos) {
				continue
			}
			leg := aircraft.Leg{From: cur.Position, To: npos}
			if !p.Craft.IsFeasible(leg) {
				continue
			}
			eta, err := p.Craft.EstimatedTime(leg, cur.ETO)
			if err != nil {
				continue
			}
			stepCost := p.Env.StepCost(cur.Position, npos, eta)
			if math.IsInf(stepCost, 1) {
				continue
			}
			neighbor := index.getOrCreate(pool, npos)
			if closed[neighbor.ID] {
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

// trajectoryFromPath converts a reconstructed waypoint chain into a
// Trajectory, summing each leg's already-applied G delta as the overall
// cost.
func trajectoryFromPath(path []*planning.Waypoint, complete bool) planning.Trajectory {
	var cost float64
	if len(path) > 0 {
		cost = path[len(path)-1].G
	}
	return planning.Trajectory{
		Waypoints:  path,
		Cost:       cost,
		Complete:   complete,
		ComputedAt: time.Now(),
	}
}

// positionIndex deduplicates waypoints by position within one PlanRoute
// call so that the same grid cell center is never allocated twice. The key
// is the exact geo.Position value; no rounding or tolerance is applied.
type positionIndex struct {
	byKey map[geo.Position]planning.WaypointID
}

func newPositionIndex() *positionIndex {
	return &positionIndex{byKey: make(map[geo.Position]planning.WaypointID)}
}

func (idx *positionIndex) getOrCreate(pool *planning.Pool, pos geo.Position) *planning.Waypoint {
	if id, ok := idx.byKey[pos]; ok {
		return pool.Get(id)
	}
	w := pool.Add(pos)
	idx.byKey[pos] = w.ID
	return w
}
