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

// weightedItem is ARAStar's heap entry: it orders by g + w*h rather than
// plain F(), since the inflation weight changes between passes.
type weightedItem struct {
	wp    *planning.Waypoint
	w     float64
	index int
}

func (it *weightedItem) key() float64 { return it.wp.G + it.w*it.wp.H }

type weightedQueue []*weightedItem

func (q weightedQueue) Len() int            { return len(q) }
func (q weightedQueue) Less(i, j int) bool  { return q[i].key() < q[j].key() }
func (q weightedQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *weightedQueue) Push(x any) {
	item := x.(*weightedItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *weightedQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// ARAStar is Anytime Repairing A*: it finds a first, heavily-inflated-
// heuristic solution quickly, then repeatedly lowers the inflation factor
// and repairs the existing search tree instead of restarting, publishing
// each improved Trajectory via onImprovement until the weight reaches 1
// (provably optimal) or the deadline passes.
type ARAStar struct {
	planning.AbstractPlanner
	GoalTolerance float64

	// InitialWeight is the starting heuristic inflation factor (epsilon).
	InitialWeight float64
	// WeightStep is subtracted from the current weight after each
	// improvement pass.
	WeightStep float64
	// MinWeight is the floor weight; 1.0 makes the final pass optimal.
	MinWeight float64
}

// NewARAStar returns an ARAStar over env/craft with a conventional
// 2.5 -> 1.0 step-0.5 inflation schedule.
func NewARAStar(env planning.Environment, craft aircraft.Capabilities) *ARAStar {
	return &ARAStar{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, "planning.search.ara_star"),
		GoalTolerance:   1e-3,
		InitialWeight:   2.5,
		WeightStep:      0.5,
		MinWeight:       1.0,
	}
}

// PlanRoute runs ARAStar to completion (weight 1.0) and returns only the
// final trajectory, satisfying the plain Plan interface.
func (p *ARAStar) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	return p.PlanUntil(ctx, start, goal, departure, time.Time{}, nil)
}

// PlanUntil runs successive ARA* improvement passes until the weight
// bottoms out at MinWeight, the deadline (if non-zero) elapses, or ctx is
// cancelled, invoking onImprovement (if non-nil) after each pass that
// reaches the goal.
func (p *ARAStar) PlanUntil(ctx context.Context, start, goal geo.Position, departure time.Time, deadline time.Time, onImprovement func(planning.Trajectory)) (planning.Trajectory, error) {
	pool := planning.NewPool()
	index := newPositionIndex()

	startWp := index.getOrCreate(pool, start)
	startWp.G = 0
	startWp.H = p.Env.Distance(start, goal)
	startWp.ETO = departure

	weight := p.InitialWeight
	if weight < p.MinWeight {
		weight = p.MinWeight
	}

	open := &weightedQueue{}
	heap.Init(open)
	items := make(map[planning.WaypointID]*weightedItem)
	var incons []*planning.Waypoint

	pushOpen := func(w *planning.Waypoint) {
		if it, ok := items[w.ID]; ok {
			heap.Fix(open, it.index)
			return
		}
		it := &weightedItem{wp: w, w: weight}
		items[w.ID] = it
		heap.Push(open, it)
	}
	pushOpen(startWp)

	var best planning.Trajectory
	var goalID planning.WaypointID = planning.NoWaypoint

	improvePass := func() error {
		closed := make(map[planning.WaypointID]bool)
		for _, it := range *open {
			it.w = weight
		}
		heap.Init(open)
		for _, w := range incons {
			pushOpen(w)
		}
		incons = nil

		for open.Len() > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return nil
			}

			cur := heap.Pop(open).(*weightedItem).wp
			delete(items, cur.ID)
			if closed[cur.ID] {
				continue
			}
			closed[cur.ID] = true

			if cur.Position.Distance3D(goal) <= p.GoalTolerance || cur.Position.Equal(goal) {
				goalID = cur.ID
				return nil
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
				tentativeG := cur.G + stepCost
				if tentativeG < neighbor.G {
					neighbor.Parent = cur.ID
					neighbor.G = tentativeG
					neighbor.H = p.Env.Distance(npos, goal)
					neighbor.ETO = eta
					if closed[neighbor.ID] {
						incons = append(incons, neighbor)
					} else {
						pushOpen(neighbor)
					}
				}
			}
		}
		return nil
	}

	for {
		if err := improvePass(); err != nil {
			return planning.Trajectory{}, err
		}
		if goalID != planning.NoWaypoint {
			path := planning.ReconstructPath(pool, goalID)
			best = trajectoryFromPath(path, weight <= p.MinWeight)
			if onImprovement != nil {
				onImprovement(best)
			}
		}
		if weight <= p.MinWeight {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		weight -= p.WeightStep
		if weight < p.MinWeight {
			weight = p.MinWeight
		}
		// the next pass resumes from the open list plus whatever is left in
		// incons; with no goal reached yet, stop instead.
		if goalID == planning.NoWaypoint {
			break
		}
	}

	if goalID == planning.NoWaypoint {
		return planning.Trajectory{}, ErrNoRoute
	}
	return best, nil
}
