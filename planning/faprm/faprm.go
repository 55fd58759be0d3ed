// Package faprm implements the density-adaptive PRM family: FAPRM (a
// roadmap search whose priority key inflates the heuristic by local sample
// density, moving fast through sparse regions and carefully through dense
// ones), FADPRM (FAPRM plus dynamic replanning on obstacle change), OFADPRM
// (FADPRM plus online look-ahead as the aircraft advances), and RADPRM (a
// risk-adaptive variant whose inflation tracks proximity to the
// environment's risk thresholds instead of sample density).
package faprm

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/planning"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrNoRoute is returned when the roadmap search cannot reach the goal.
var ErrNoRoute = errors.New("faprm: no route found in roadmap")

// Config controls roadmap construction and the density/beta schedule
// shared by every variant in this package.
type Config struct {
	Samples  int
	KNearest int
	// DensityRadius is the radius within which a waypoint's neighbor count
	// determines its Density field.
	DensityRadius float64

	// InitialBeta/FinalBeta/StepBeta drive the anytime inflation schedule:
	// beta starts at InitialBeta and is raised by StepBeta each improvement
	// pass until it reaches FinalBeta, at which point the family behaves
	// like plain weighted best-first search over f(w).
	InitialBeta, FinalBeta, StepBeta float64

	// Lambda weights how strongly edge cost is blended with desirability;
	// 0 disables the blend entirely.
	Lambda float64
	// DesirabilityZones are intersected against every sampled edge to
	// derive its desirability (see planning.EdgeDesirability).
	DesirabilityZones []planning.DesirabilityZone
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Samples:       200,
		KNearest:      8,
		DensityRadius: 15,
		InitialBeta:   0,
		FinalBeta:     1,
		StepBeta:      0.1,
		Lambda:        0.3,
	}
}

// faItem is the priority-queue entry implementing the density-adaptive
// priority key: key(w) = (1-beta)/max(density,1) + beta*f(w), where
// f(w) = (g(w)+h(w))/2. beta is a single scalar propagated to every
// waypoint each search/improvement pass (FAPRM/FADPRM/OFADPRM), or
// per-waypoint risk-derived (RADPRM); density only ever comes from
// Waypoint.Density. Ties are broken toward the larger h, preferring the
// node further (heuristically) from the goal so the search fans outward
// rather than re-converging on a single corridor.
type faItem struct {
	wp    *planning.Waypoint
	index int
}

func (it *faItem) key() float64 {
	w := it.wp
	density := float64(w.Density)
	if density < 1 {
		density = 1
	}
	f := (w.G + w.H) / 2
	return (1-w.Beta)/density + w.Beta*f
}

type faQueue []*faItem

func (q faQueue) Len() int { return len(q) }
func (q faQueue) Less(i, j int) bool {
	ki, kj := q[i].key(), q[j].key()
	if ki != kj {
		return ki < kj
	}
	return q[i].wp.H > q[j].wp.H
}
func (q faQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *faQueue) Push(x any) {
	item := x.(*faItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *faQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// base holds the roadmap-building and density-weighted search logic shared
// by every variant in this package.
type base struct {
	planning.AbstractPlanner
	cfg Config
	rm  *planning.PlanningRoadmap

	// locked holds waypoint ids that the online variant (OFADPRM) has
	// committed past: search never expands across them, since doing so
	// would re-plan a leg the aircraft has already flown.
	locked map[planning.WaypointID]bool
}

func newBase(env *planning.PlanningRoadmap, craft aircraft.Capabilities, name string, cfg Config) base {
	return base{
		AbstractPlanner: planning.NewAbstractPlanner(env, craft, name),
		cfg:             cfg,
		rm:              env,
	}
}

// constBeta returns a betaFunc that assigns every waypoint the same scalar,
// matching the spec's model of a single beta propagated across the whole
// roadmap each anytime pass (as opposed to RADPRM's per-waypoint risk beta).
func constBeta(beta float64) func(*planning.Waypoint) float64 {
	return func(*planning.Waypoint) float64 { return beta }
}

// edgeCost returns the risk-evaluated step cost from "from" to "to", blended
// with the mean desirability of any DesirabilityZone the straight segment
// between them intersects. With no configured zones desirability is the
// neutral 0.5, so the cost is scaled by 1+Lambda*0.5 (1.15 with
// DefaultConfig's Lambda of 0.3).
func (b *base) edgeCost(from, to geo.Position, at time.Time) (cost, desirability float64) {
	raw := b.Env.StepCost(from, to, at)
	if math.IsInf(raw, 1) {
		return raw, 0.5
	}
	seg := geometry.Segment{A: from.ToECEF(), B: to.ToECEF()}
	desirability = planning.EdgeDesirability(seg, b.cfg.DesirabilityZones)
	return planning.BlendEdgeCost(raw, desirability, b.cfg.Lambda), desirability
}

// grow samples cfg.Samples random positions, connects each to its KNearest
// neighbors (collision-checked immediately, as in BasicPRM), and computes
// each new node's Density.
func (b *base) grow(at time.Time) {
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
			if b.rm.CheckConflict(n.Position, w.Position, at) {
				continue
			}
			cost, desirability := b.edgeCost(n.Position, w.Position, at)
			b.rm.AddEdge(planning.Edge{
				From: w.ID, To: n.ID, Cost: cost,
				Desirability: desirability, Lambda: b.cfg.Lambda,
				Checked: true, Valid: true,
			})
		}
	}
	b.computeDensities()
}

// computeDensities counts, for every waypoint in the pool, how many other
// waypoints lie within DensityRadius, storing the result in Waypoint.Density.
// The O(n^2) pairwise scan is split across goroutines by row, since each
// row only ever writes its own waypoint's Density field.
func (b *base) computeDensities() {
	all := b.rm.Pool().All()

	var g errgroup.Group
	for _, w := range all {
		w := w
		g.Go(func() error {
			count := 0
			for _, other := range all {
				if other.ID == w.ID {
					continue
				}
				if w.Position.Distance3D(other.Position) <= b.cfg.DensityRadius {
					count++
				}
			}
			w.Density = count
			return nil
		})
	}
	_ = g.Wait()
}

// search runs a density-weighted best-first search from the waypoint
// nearest start to the one nearest goal. betaFunc assigns each expanded
// node's Beta before it is pushed: FAPRM/FADPRM/OFADPRM pass a single scalar
// via constBeta (the anytime pass currently in progress), while RADPRM
// varies beta per-waypoint by risk proximity.
func (b *base) search(ctx context.Context, start, goal geo.Position, departure time.Time, betaFunc func(*planning.Waypoint) float64) (planning.Trajectory, error) {
	startWp := b.rm.FindNearest(start)
	goalWp := b.rm.FindNearest(goal)
	if startWp == nil || goalWp == nil {
		return planning.Trajectory{}, ErrNoRoute
	}

	// Each call searches the roadmap fresh: a roadmap reused across
	// multiple corrections (FADPRM/OFADPRM) must not carry over G values
	// from a previous start.
	for _, w := range b.rm.Pool().All() {
		w.G = math.Inf(1)
		w.Parent = planning.NoWaypoint
	}

	startWp.G = 0
	startWp.H = b.Env.Distance(start, goal)
	startWp.Beta = betaFunc(startWp)

	open := &faQueue{}
	heap.Init(open)
	items := make(map[planning.WaypointID]*faItem)
	pushOpen := func(w *planning.Waypoint) {
		if it, ok := items[w.ID]; ok {
			heap.Fix(open, it.index)
			return
		}
		it := &faItem{wp: w}
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

		cur := heap.Pop(open).(*faItem).wp
		delete(items, cur.ID)
		if closed[cur.ID] {
			continue
		}
		closed[cur.ID] = true

		if cur.ID == goalWp.ID {
			path := planning.ReconstructPath(b.rm.Pool(), cur.ID)
			return planning.Trajectory{Waypoints: path, Cost: cur.G, Complete: true, ComputedAt: time.Now()}, nil
		}

		for _, nid := range cur.Neighbors {
			if b.locked[nid] {
				continue
			}
			neighbor := b.rm.Pool().Get(nid)
			if neighbor == nil || closed[neighbor.ID] {
				continue
			}
			if b.rm.CheckConflict(cur.Position, neighbor.Position, departure) {
				continue
			}
			stepCost, _ := b.edgeCost(cur.Position, neighbor.Position, departure)
			if math.IsInf(stepCost, 1) {
				continue
			}
			// plain additive relaxation: cur.G + stepCost compared directly
			// against neighbor.G. An earlier draft considered
			// 1/(1+cost+cur.G) > neighbor.G, but that conflates a utility
			// score with a cost and was dropped in favor of this
			// comparison, consistent with every other planner family here.
			tentative := cur.G + stepCost
			if tentative < neighbor.G {
				neighbor.Parent = cur.ID
				neighbor.G = tentative
				neighbor.H = b.Env.Distance(neighbor.Position, goal)
				neighbor.Beta = betaFunc(neighbor)
				pushOpen(neighbor)
			}
		}
	}

	return planning.Trajectory{}, ErrNoRoute
}
