package planning

import (
	"math"
	"sync"
	"time"

	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/interval"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// PlanningGrid is the discretized Environment: a hierarchical CubicGrid of
// cells, each carrying its own cost-interval tree so that overlapping
// obstacles accumulate cost rather than replace it.
type PlanningGrid struct {
	mu sync.RWMutex

	grid *geometry.CubicGrid
	root geometry.Box

	stepPolicy costmodel.StepCostPolicy
	risk       costmodel.RiskEvaluator

	cellIntervals map[*geometry.Cell]*interval.Tree
	obstacleCells map[string][]*geometry.Cell
	obstacles     map[string]Obstacle

	now time.Time
}

// NewPlanningGrid subdivides root into an r x s x t cell grid.
func NewPlanningGrid(root geometry.Box, r, s, t int, stepPolicy costmodel.StepCostPolicy, risk costmodel.RiskEvaluator) *PlanningGrid {
	return &PlanningGrid{
		grid:          geometry.NewCubicGrid(root, r, s, t),
		root:          root,
		stepPolicy:    stepPolicy,
		risk:          risk,
		cellIntervals: make(map[*geometry.Cell]*interval.Tree),
		obstacleCells: make(map[string][]*geometry.Cell),
		obstacles:     make(map[string]Obstacle),
	}
}

func (g *PlanningGrid) cellTree(c *geometry.Cell) *interval.Tree {
	t, ok := g.cellIntervals[c]
	if !ok {
		t = interval.New()
		g.cellIntervals[c] = t
	}
	return t
}

func toVector(p geo.Position) r3.Vector {
	return p.ToECEF()
}

func fromVector(v r3.Vector) geo.Position {
	return geo.FromECEF(v)
}

// AddCostInterval folds ci into every cell overlapping region.
func (g *PlanningGrid) AddCostInterval(region geometry.Box, ci CostIntervalSpec) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := ""
	for _, c := range g.cellsOverlapping(region) {
		cost := interval.NewCostInterval(ci.Start, ci.End, ci.Cost)
		if id == "" {
			id = cost.ID
		} else {
			cost.ID = id
		}
		cost.Weight = ci.Weight
		g.cellTree(c).Add(cost)
	}
	return nil
}

// RemoveCostInterval removes id from every cell's interval tree.
func (g *PlanningGrid) RemoveCostInterval(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	found := false
	for _, t := range g.cellIntervals {
		if t.Remove(id) {
			found = true
		}
	}
	return found
}

func (g *PlanningGrid) cellsOverlapping(region geometry.Box) []*geometry.Cell {
	return lo.Filter(g.grid.Cells(), func(c *geometry.Cell, _ int) bool {
		return c.Box.IntersectsBox(region)
	})
}

// Embed inserts o's cost interval into every grid cell its box overlaps.
func (g *PlanningGrid) Embed(o Obstacle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.obstacles[o.ID]; exists {
		return errors.Errorf("obstacle %q already embedded", o.ID)
	}
	cells := g.cellsOverlapping(o.Box)
	ci := interval.NewCostInterval(o.Start, o.End, o.Cost)
	ci.ID = o.ID
	if o.End.IsZero() {
		ci.End = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}
	for _, c := range cells {
		g.cellTree(c).Add(ci)
	}
	g.obstacleCells[o.ID] = cells
	g.obstacles[o.ID] = o
	return nil
}

// Unembed removes a previously embedded obstacle by id.
func (g *PlanningGrid) Unembed(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	cells, ok := g.obstacleCells[id]
	if !ok {
		return false
	}
	for _, c := range cells {
		g.cellTree(c).Remove(id)
	}
	delete(g.obstacleCells, id)
	delete(g.obstacles, id)
	return true
}

// UnembedAll removes every embedded obstacle.
func (g *PlanningGrid) UnembedAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.cellIntervals {
		for id := range g.obstacles {
			t.Remove(id)
		}
	}
	g.obstacleCells = make(map[string][]*geometry.Cell)
	g.obstacles = make(map[string]Obstacle)
}

// Distance returns the 3D Euclidean distance between two positions.
func (g *PlanningGrid) Distance(a, b geo.Position) float64 {
	return a.Distance3D(b)
}

// NormalizedDistance divides Distance by the root volume's longest edge.
func (g *PlanningGrid) NormalizedDistance(a, b geo.Position) float64 {
	edge := g.root.LongestEdge()
	if edge == 0 {
		return g.Distance(a, b)
	}
	return g.Distance(a, b) / edge
}

// sharedCells returns the cells a step from a to b passes through: cells
// that contain both points (possible at a shared sub-grid boundary), or
// else the pair of face-adjacent leaf cells each point occupies.
func (g *PlanningGrid) sharedCells(a, b r3.Vector) []*geometry.Cell {
	cellsA := g.grid.LookupCells(a)
	cellsB := g.grid.LookupCells(b)

	seen := make(map[*geometry.Cell]struct{}, 2)
	var shared []*geometry.Cell
	add := func(c *geometry.Cell) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			shared = append(shared, c)
		}
	}

	for _, ca := range cellsA {
		for _, cb := range cellsB {
			if ca == cb {
				add(ca)
			}
		}
	}
	if len(shared) > 0 {
		return shared
	}

	for _, ca := range cellsA {
		add(ca)
	}
	for _, cb := range cellsB {
		add(cb)
	}
	return shared
}

func (g *PlanningGrid) areNeighborsLocked(a, b geo.Position) bool {
	la := g.grid.LookupLeaf(toVector(a))
	lb := g.grid.LookupLeaf(toVector(b))
	if la == nil || lb == nil {
		return false
	}
	if la == lb {
		return true
	}
	return g.grid.AreNeighbors(la, lb)
}

// StepCost requires p and q to be neighboring positions; each shared cell's
// cost is 1 plus its unique active cost-interval contributions, combined
// via the grid's StepCostPolicy and then passed through the RiskEvaluator.
func (g *PlanningGrid) StepCost(a, b geo.Position, at time.Time) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.areNeighborsLocked(a, b) {
		return math.Inf(1)
	}

	cells := g.sharedCells(toVector(a), toVector(b))
	if len(cells) == 0 {
		return math.Inf(1)
	}

	costs := make([]float64, 0, len(cells))
	for _, c := range cells {
		cost := 1.0
		if tree, ok := g.cellIntervals[c]; ok {
			cost += tree.AggregateCost(at, at, false)
		}
		costs = append(costs, cost)
	}
	return g.risk.Evaluate(g.stepPolicy.Combine(costs))
}

// Neighbors returns the centers of the (up to 6) axis-adjacent cells to
// pos's containing leaf cell.
func (g *PlanningGrid) Neighbors(pos geo.Position) []geo.Position {
	g.mu.RLock()
	defer g.mu.RUnlock()
	leaf := g.grid.LookupLeaf(toVector(pos))
	if leaf == nil {
		return nil
	}
	var out []geo.Position
	for _, n := range g.grid.Neighbors(leaf) {
		out = append(out, fromVector(n.Box.Center))
	}
	return out
}

// AreNeighbors reports whether a's and b's containing leaf cells are
// adjacent (or identical).
func (g *PlanningGrid) AreNeighbors(a, b geo.Position) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.areNeighborsLocked(a, b)
}

// Contains reports whether pos lies within the grid's root volume.
func (g *PlanningGrid) Contains(pos geo.Position) bool {
	return g.root.Contains(toVector(pos))
}

// SetTime records the environment's current time.
func (g *PlanningGrid) SetTime(t time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = t
}

// Now returns the environment's current time.
func (g *PlanningGrid) Now() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.now
}
