// Package prm implements the sampling-based roadmap planner family:
// BasicPRM (eager collision checking at construction time), LazyPRM
// (collision checking deferred to query time), and RigidPRM (BasicPRM with
// a fixed, pre-seeded sample set rather than per-query resampling).
package prm

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
	"github.com/pkg/errors"
)

// ErrNoRoute is returned when the roadmap has no connected path between
// start and goal.
var ErrNoRoute = errors.New("no route found in roadmap")

// Config controls roadmap construction shared by all three PRM variants.
type Config struct {
	// Samples is how many random waypoints to add to the roadmap per
	// PlanRoute call (BasicPRM/LazyPRM) or were pre-seeded once
	// (RigidPRM, which ignores this field after Seed has been called).
	Samples int
	// KNearest is how many nearest existing waypoints each new sample
	// attempts to connect to.
	KNearest int
}

// DefaultConfig returns reasonable defaults for a modestly sized roadmap.
func DefaultConfig() Config {
	return Config{Samples: 200, KNearest: 8}
}

// basePRM holds the roadmap-building logic shared by BasicPRM, LazyPRM, and
// RigidPRM; the three exported types differ only in when edges are
// collision-checked and whether Grow runs on every PlanRoute call.
type basePRM struct {
	planning.AbstractPlanner
	cfg Config
	rm  *planning.PlanningRoadmap

	// lazy defers edge collision checking from Grow time to query time.
	lazy bool
}

func newBasePRM(env *planning.PlanningRoadmap, craft aircraft.Capabilities, name string, cfg Config, lazy bool) basePRM {
	return basePRM{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, name),
		cfg:             cfg,
		rm:              env,
		lazy:            lazy,
	}
}

// Grow samples cfg.Samples random positions and connects each to its
// KNearest existing neighbors, subject to feasibility and (unless lazy)
// immediate collision checking.
func (b *basePRM) Grow(at time.Time) {
	for i := 0; i < b.cfg.Samples; i++ {
		pos := b.rm.SampleRandomPosition()
		if b.rm.CheckPointConflict(pos, at) {
			continue
		}
		w := b.rm.Pool().Add(pos)
		for _, n := range b.rm.FindKNearest(pos, b.cfg.KNearest) {
			if n.ID == w.ID {
				continue
			}
			leg := aircraft.Leg{From: n.Position, To: w.Position}
			if !b.Craft.IsFeasible(leg) {
				continue
			}
			checked := !b.lazy
			valid := true
			if checked {
				valid = !b.rm.CheckConflict(n.Position, w.Position, at)
			}
			if checked && !valid {
				continue
			}
			cost := b.Env.StepCost(n.Position, w.Position, at)
			b.rm.AddEdge(planning.Edge{From: w.ID, To: n.ID, Cost: cost, Checked: checked, Valid: valid})
		}
	}
}

// planOverRoadmap runs Dijkstra (A* with a zero heuristic, since a roadmap
// has no admissible geometric shortcut beyond its own edges) from the
// waypoint nearest start to the one nearest goal, lazily collision-checking
// unchecked edges as they are relaxed when b.lazy is set.
func (b *basePRM) planOverRoadmap(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	startWp := b.rm.FindNearest(start)
	goalWp := b.rm.FindNearest(goal)
	if startWp == nil || goalWp == nil {
		return planning.Trajectory{}, ErrNoRoute
	}

	g := make(map[planning.WaypointID]float64)
	parent := make(map[planning.WaypointID]planning.WaypointID)
	g[startWp.ID] = 0

	open := &dijkstraQueue{}
	heap.Init(open)
	heap.Push(open, &dijkstraItem{id: startWp.ID, g: 0})
	visited := make(map[planning.WaypointID]bool)

	for open.Len() > 0 {
		select {
		case <-ctx.Done():
			return planning.Trajectory{}, ctx.Err()
		default:
		}

		cur := heap.Pop(open).(*dijkstraItem)
		if visited[cur.id] {
			continue
		}
		visited[cur.id] = true

		if cur.id == goalWp.ID {
			return b.reconstruct(parent, startWp.ID, goalWp.ID, g[goalWp.ID]), nil
		}

		wp := b.rm.Pool().Get(cur.id)
		if wp == nil {
			continue
		}
		for _, nid := range wp.Neighbors {
			edgeCost, ok := b.edgeCost(wp.ID, nid, departure)
			if !ok {
				continue
			}
			tentative := g[cur.id] + edgeCost
			if existing, seen := g[nid]; !seen || tentative < existing {
				g[nid] = tentative
				parent[nid] = cur.id
				heap.Push(open, &dijkstraItem{id: nid, g: tentative})
			}
		}
	}

	return planning.Trajectory{}, ErrNoRoute
}

// edgeCost returns the traversal cost between two linked waypoints, lazily
// validating the edge's collision status for LazyPRM roadmaps.
func (b *basePRM) edgeCost(from, to planning.WaypointID, at time.Time) (float64, bool) {
	fromWp := b.rm.Pool().Get(from)
	toWp := b.rm.Pool().Get(to)
	if fromWp == nil || toWp == nil {
		return 0, false
	}
	if b.lazy && b.rm.CheckConflict(fromWp.Position, toWp.Position, at) {
		return 0, false
	}
	cost := b.Env.StepCost(fromWp.Position, toWp.Position, at)
	if math.IsInf(cost, 1) {
		return 0, false
	}
	return cost, true
}

func (b *basePRM) reconstruct(parent map[planning.WaypointID]planning.WaypointID, start, goal planning.WaypointID, cost float64) planning.Trajectory {
	var ids []planning.WaypointID
	cur := goal
	for {
		ids = append(ids, cur)
		if cur == start {
			break
		}
		p, ok := parent[cur]
		if !ok {
			break
		}
		cur = p
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	waypoints := make([]*planning.Waypoint, 0, len(ids))
	for _, id := range ids {
		if w := b.rm.Pool().Get(id); w != nil {
			waypoints = append(waypoints, w)
		}
	}
	return planning.Trajectory{Waypoints: waypoints, Cost: cost, Complete: true, ComputedAt: time.Now()}
}

type dijkstraItem struct {
	id planning.WaypointID
	g  float64
}

type dijkstraQueue []*dijkstraItem

func (q dijkstraQueue) Len() int            { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool  { return q[i].g < q[j].g }
func (q dijkstraQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *dijkstraQueue) Push(x any)         { *q = append(*q, x.(*dijkstraItem)) }
func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// BasicPRM grows a fresh roadmap and collision-checks every candidate edge
// immediately, at construction time.
type BasicPRM struct {
	basePRM
}

// NewBasicPRM returns a BasicPRM over rm/craft with cfg controlling
// per-query sample count and connectivity.
func NewBasicPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config) *BasicPRM {
	return &BasicPRM{basePRM: newBasePRM(rm, craft, "planning.prm.basic", cfg, false)}
}

// PlanRoute grows the roadmap by cfg.Samples new eagerly-checked samples,
// then searches it for a path from start to goal.
func (p *BasicPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	p.rm.Pool().Add(start)
	p.rm.Pool().Add(goal)
	p.Grow(departure)
	return p.planOverRoadmap(ctx, start, goal, departure)
}

// LazyPRM grows a roadmap without collision-checking edges at construction
// time, deferring that check to query time so that a single roadmap can
// serve many queries whose validity depends on a time-varying environment.
type LazyPRM struct {
	basePRM
}

// NewLazyPRM returns a LazyPRM over rm/craft.
func NewLazyPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config) *LazyPRM {
	return &LazyPRM{basePRM: newBasePRM(rm, craft, "planning.prm.lazy", cfg, true)}
}

// PlanRoute grows the roadmap (without collision-checking the new edges),
// then searches it, validating each candidate edge only as it is relaxed.
func (p *LazyPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	p.rm.Pool().Add(start)
	p.rm.Pool().Add(goal)
	p.Grow(departure)
	return p.planOverRoadmap(ctx, start, goal, departure)
}

// RigidPRM reuses a single pre-seeded roadmap across every query instead of
// resampling per call, trading query-time sample diversity for roadmap
// reuse and query latency.
type RigidPRM struct {
	basePRM
	seeded bool
}

// NewRigidPRM returns a RigidPRM over rm/craft.
func NewRigidPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config) *RigidPRM {
	return &RigidPRM{basePRM: newBasePRM(rm, craft, "planning.prm.rigid", cfg, false)}
}

// Seed grows the roadmap once; subsequent PlanRoute calls reuse it as-is.
func (p *RigidPRM) Seed(at time.Time) {
	p.Grow(at)
	p.seeded = true
}

// PlanRoute seeds the roadmap on first use, then searches the fixed
// roadmap for every subsequent call.
func (p *RigidPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	if !p.seeded {
		p.Seed(departure)
	}
	p.rm.Pool().Add(start)
	p.rm.Pool().Add(goal)
	return p.planOverRoadmap(ctx, start, goal, departure)
}
