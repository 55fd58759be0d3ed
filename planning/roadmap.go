package planning

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/interval"
	"github.com/golang/geo/r3"
)

// PlanningRoadmap is the continuous Environment used by the sampling-based
// planner families (prm, rrt, faprm): a bounding Box sampled directly in
// R3, with obstacles tracked as a flat list rather than binned into a grid
// Its own waypoint/edge lists let a
// roadmap planner reuse the environment itself as roadmap storage across
// repeated queries.
type PlanningRoadmap struct {
	mu sync.RWMutex

	bounds geometry.Box
	rng    *rand.Rand

	stepPolicy costmodel.StepCostPolicy
	risk       costmodel.RiskEvaluator

	obstacles map[string]Obstacle
	costs     *interval.Tree

	pool  *Pool
	edges []Edge

	now time.Time
}

// NewPlanningRoadmap returns a PlanningRoadmap bounded by bounds, sampling
// with the given deterministic seed (0 selects an arbitrary but reproducible
// source suitable for tests).
func NewPlanningRoadmap(bounds geometry.Box, seed int64, stepPolicy costmodel.StepCostPolicy, risk costmodel.RiskEvaluator) *PlanningRoadmap {
	return &PlanningRoadmap{
		bounds:     bounds,
		rng:        rand.New(rand.NewSource(seed)),
		stepPolicy: stepPolicy,
		risk:       risk,
		obstacles:  make(map[string]Obstacle),
		costs:      interval.New(),
		pool:       NewPool(),
	}
}

// Pool returns the roadmap's waypoint arena, shared across planner passes so
// BasicPRM/LazyPRM/RigidPRM can incrementally grow one roadmap.
func (rm *PlanningRoadmap) Pool() *Pool { return rm.pool }

// Edges returns the roadmap's current edge list.
func (rm *PlanningRoadmap) Edges() []Edge {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return append([]Edge(nil), rm.edges...)
}

// AddEdge appends e to the roadmap and links both endpoints' Neighbors.
func (rm *PlanningRoadmap) AddEdge(e Edge) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.edges = append(rm.edges, e)
	if from := rm.pool.Get(e.From); from != nil {
		from.AddNeighbor(e.To)
	}
	if to := rm.pool.Get(e.To); to != nil {
		to.AddNeighbor(e.From)
	}
}

// SampleRandomPosition draws a uniformly random point within bounds.
func (rm *PlanningRoadmap) SampleRandomPosition() geo.Position {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	u := func(h float64) float64 { return (rm.rng.Float64()*2 - 1) * h }
	local := r3.Vector{
		X: u(rm.bounds.HalfExtents.X),
		Y: u(rm.bounds.HalfExtents.Y),
		Z: u(rm.bounds.HalfExtents.Z),
	}
	world := rm.bounds.Center.
		Add(rm.bounds.Axes[0].Mul(local.X)).
		Add(rm.bounds.Axes[1].Mul(local.Y)).
		Add(rm.bounds.Axes[2].Mul(local.Z))
	return fromVector(world)
}

// CheckConflict reports whether the straight segment a->b at time at
// intersects any currently-active obstacle.
func (rm *PlanningRoadmap) CheckConflict(a, b geo.Position, at time.Time) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.checkConflictLocked(a, b, at)
}

// checkConflictLocked is CheckConflict's body, callable from methods that
// already hold rm.mu for reading.
func (rm *PlanningRoadmap) checkConflictLocked(a, b geo.Position, at time.Time) bool {
	seg := geometry.Segment{A: toVector(a), B: toVector(b)}
	for _, o := range rm.obstacles {
		if !o.Active(at) {
			continue
		}
		if seg.IntersectsBox(o.Box) {
			return true
		}
	}
	return false
}

// CheckPointConflict reports whether pos itself lies within any
// currently-active obstacle, used for single-sample validity checks.
func (rm *PlanningRoadmap) CheckPointConflict(pos geo.Position, at time.Time) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	p := toVector(pos)
	for _, o := range rm.obstacles {
		if !o.Active(at) {
			continue
		}
		if o.Box.Contains(p) {
			return true
		}
	}
	return false
}

// SortNearest returns the waypoints in the pool sorted by ascending distance
// to pos.
func (rm *PlanningRoadmap) SortNearest(pos geo.Position) []*Waypoint {
	all := append([]*Waypoint(nil), rm.pool.All()...)
	sort.Slice(all, func(i, j int) bool {
		return pos.Distance3D(all[i].Position) < pos.Distance3D(all[j].Position)
	})
	return all
}

// FindNearest returns the single closest waypoint to pos, or nil if the
// pool is empty.
func (rm *PlanningRoadmap) FindNearest(pos geo.Position) *Waypoint {
	var best *Waypoint
	bestDist := math.Inf(1)
	for _, w := range rm.pool.All() {
		d := pos.Distance3D(w.Position)
		if d < bestDist {
			bestDist = d
			best = w
		}
	}
	return best
}

// FindKNearest returns up to k closest waypoints to pos, ascending by
// distance.
func (rm *PlanningRoadmap) FindKNearest(pos geo.Position, k int) []*Waypoint {
	sorted := rm.SortNearest(pos)
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[:k]
}

// AddCostInterval folds ci into the roadmap's flat interval tree; because
// the roadmap is continuous rather than binned, the region parameter is
// ignored, and StepCost evaluates time overlap only.
func (rm *PlanningRoadmap) AddCostInterval(region geometry.Box, ci CostIntervalSpec) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	cost := interval.NewCostInterval(ci.Start, ci.End, ci.Cost)
	cost.Weight = ci.Weight
	rm.costs.Add(cost)
	return nil
}

// RemoveCostInterval removes id from the roadmap's interval tree.
func (rm *PlanningRoadmap) RemoveCostInterval(id string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.costs.Remove(id)
}

// Embed adds o to the roadmap's obstacle set and its cost interval to the
// shared interval tree.
func (rm *PlanningRoadmap) Embed(o Obstacle) error {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.obstacles[o.ID] = o
	ci := interval.NewCostInterval(o.Start, o.End, o.Cost)
	ci.ID = o.ID
	if o.End.IsZero() {
		ci.End = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	rm.costs.Add(ci)
	return nil
}

// Unembed removes a previously embedded obstacle by id.
func (rm *PlanningRoadmap) Unembed(id string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.obstacles[id]; !ok {
		return false
	}
	delete(rm.obstacles, id)
	rm.costs.Remove(id)
	return true
}

// UnembedAll clears every embedded obstacle.
func (rm *PlanningRoadmap) UnembedAll() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	for id := range rm.obstacles {
		rm.costs.Remove(id)
	}
	rm.obstacles = make(map[string]Obstacle)
}

// Distance returns the 3D Euclidean distance between two positions.
func (rm *PlanningRoadmap) Distance(a, b geo.Position) float64 {
	return a.Distance3D(b)
}

// NormalizedDistance divides Distance by the roadmap bounds' longest edge.
func (rm *PlanningRoadmap) NormalizedDistance(a, b geo.Position) float64 {
	edge := rm.bounds.LongestEdge()
	if edge == 0 {
		return rm.Distance(a, b)
	}
	return rm.Distance(a, b) / edge
}

// StepCost returns the risk-evaluated time-overlap cost of moving from a to
// b at the given time. Because the roadmap does not bin cost by region, the
// combine policy degenerates to a single aggregate value.
func (rm *PlanningRoadmap) StepCost(a, b geo.Position, at time.Time) float64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	cost := rm.costs.AggregateCost(at, at, false)
	if rm.checkConflictLocked(a, b, at) {
		return math.Inf(1)
	}
	return rm.risk.Evaluate(rm.stepPolicy.Combine([]float64{cost}))
}

// Neighbors returns the current roadmap's waypoint positions within range
// of pos, approximated here as every waypoint already linked to pos's
// nearest waypoint.
func (rm *PlanningRoadmap) Neighbors(pos geo.Position) []geo.Position {
	w := rm.FindNearest(pos)
	if w == nil {
		return nil
	}
	var out []geo.Position
	for _, id := range w.Neighbors {
		if n := rm.pool.Get(id); n != nil {
			out = append(out, n.Position)
		}
	}
	return out
}

// AreNeighbors reports whether a and b correspond to directly linked
// waypoints in the roadmap.
func (rm *PlanningRoadmap) AreNeighbors(a, b geo.Position) bool {
	wa := rm.FindNearest(a)
	wb := rm.FindNearest(b)
	if wa == nil || wb == nil {
		return false
	}
	return wa.HasNeighbor(wb.ID)
}

// Contains reports whether pos lies within the roadmap's sampling bounds.
func (rm *PlanningRoadmap) Contains(pos geo.Position) bool {
	return rm.bounds.Contains(toVector(pos))
}

// SetTime records the environment's current time.
func (rm *PlanningRoadmap) SetTime(t time.Time) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.now = t
}

// Now returns the environment's current time.
func (rm *PlanningRoadmap) Now() time.Time {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.now
}
