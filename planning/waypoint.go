// Package planning implements the shared Environment abstraction, the
// Waypoint/Edge graph representation, and the AbstractPlanner that every
// concrete planner family (search, prm, rrt, faprm) builds on.
package planning

import (
	"math"
	"time"

	"github.com/aeroplan/flightplan/geo"
)

// WaypointID is an arena handle into a planner's waypoint pool. Representing
// parent/neighbor links as ids rather than pointers avoids reference cycles
// in the parent DAG and makes the anytime backup/restore of §4.9 a plain
// slice copy (Design Notes: "cyclic parent/neighbor object graphs → arena +
// integer handles").
type WaypointID int

// NoWaypoint is the sentinel for "no parent"/"unset" waypoint references.
const NoWaypoint WaypointID = -1

// Waypoint is a time-stamped 3D position node in a plan or roadmap. Not
// every planner family uses every field: tree-based planners (RRT family)
// use Parent and record tree links in Neighbors, roadmap-based planners
// populate Neighbors, and the FAPRM family populates Beta/Density.
type Waypoint struct {
	ID       WaypointID
	Position geo.Position
	ETO      time.Time

	Parent WaypointID

	G              float64 // accumulated cost from start; +Inf means unreached
	H              float64 // heuristic to goal
	Cost           float64 // planner-specific objective, may differ from G
	DistanceToGoal float64
	TTG            time.Duration
	DTG            float64

	Density int     // FAPRM: neighbor count within maxDistance
	Beta    float64 // FAPRM: current inflation weight
	Search  int64   // last search id this waypoint was touched in; no planner sets it

	Neighbors []WaypointID // roadmap edges, or tree links for tree-based planners
	Corner    bool         // marks a waypoint a shortcutting pass must keep; no planner sets or reads it
}

// NewWaypoint returns a Waypoint at position with G/H initialized to +Inf/0
// and no parent, ready for insertion into a planner's pool.
func NewWaypoint(id WaypointID, pos geo.Position) *Waypoint {
	return &Waypoint{
		ID:       id,
		Position: pos,
		Parent:   NoWaypoint,
		G:        math.Inf(1),
		H:        0,
	}
}

// F returns the A*-family priority g + h.
func (w *Waypoint) F() float64 {
	return w.G + w.H
}

// HasNeighbor reports whether id is already present in w.Neighbors.
func (w *Waypoint) HasNeighbor(id WaypointID) bool {
	for _, n := range w.Neighbors {
		if n == id {
			return true
		}
	}
	return false
}

// AddNeighbor appends id to w.Neighbors if not already present.
func (w *Waypoint) AddNeighbor(id WaypointID) {
	if !w.HasNeighbor(id) {
		w.Neighbors = append(w.Neighbors, id)
	}
}

// RemoveNeighbor deletes id from w.Neighbors if present.
func (w *Waypoint) RemoveNeighbor(id WaypointID) {
	for i, n := range w.Neighbors {
		if n == id {
			w.Neighbors = append(w.Neighbors[:i], w.Neighbors[i+1:]...)
			return
		}
	}
}

// Pool is the arena owning a planner's waypoints for the lifetime of a plan
// call (and, for anytime planners, across passes — cleared only on the next
// fresh query).
type Pool struct {
	waypoints []*Waypoint
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{}
}

// Add inserts a new waypoint at pos and returns its id.
func (p *Pool) Add(pos geo.Position) *Waypoint {
	w := NewWaypoint(WaypointID(len(p.waypoints)), pos)
	p.waypoints = append(p.waypoints, w)
	return w
}

// Get returns the waypoint for id, or nil if out of range.
func (p *Pool) Get(id WaypointID) *Waypoint {
	if id == NoWaypoint || int(id) >= len(p.waypoints) || id < 0 {
		return nil
	}
	return p.waypoints[id]
}

// All returns every waypoint currently in the pool.
func (p *Pool) All() []*Waypoint {
	return p.waypoints
}

// Len returns the number of waypoints in the pool.
func (p *Pool) Len() int {
	return len(p.waypoints)
}

// Reset clears the pool, per the Lifecycle rule that waypoints are cleared
// on the next fresh query (as opposed to an anytime pass, which reuses the
// pool).
func (p *Pool) Reset() {
	p.waypoints = nil
}

// Clone returns a deep copy of the pool, suitable for the anytime backup
// described for anytime planners: the previous waypoint pool is backed up
// so that a rejected improvement pass can be restored. Parent/
// Neighbor ids remain valid against the clone since they are plain integers.
func (p *Pool) Clone() *Pool {
	out := &Pool{waypoints: make([]*Waypoint, len(p.waypoints))}
	for i, w := range p.waypoints {
		cp := *w
		cp.Neighbors = append([]WaypointID(nil), w.Neighbors...)
		out.waypoints[i] = &cp
	}
	return out
}

// Restore replaces this pool's contents with other's, implementing the
// "restore swaps arena pointers atomically" guidance of the Design Notes.
func (p *Pool) Restore(other *Pool) {
	p.waypoints = other.waypoints
}

// ReconstructPath walks Parent links from goal back to the root, returning
// waypoints in start-to-goal order. Ties among otherwise-equal parents are
// broken by first-in-list order because Parent always names exactly one
// predecessor.
func ReconstructPath(pool *Pool, goal WaypointID) []*Waypoint {
	var out []*Waypoint
	cur := goal
	seen := make(map[WaypointID]bool)
	for cur != NoWaypoint {
		if seen[cur] {
			break // defensive: parent DAG should never cycle
		}
		seen[cur] = true
		w := pool.Get(cur)
		if w == nil {
			break
		}
		out = append(out, w)
		cur = w.Parent
	}
	// reverse into start->goal order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
