package planning

import (
	"time"

	"github.com/aeroplan/flightplan/geometry"
	"gonum.org/v1/gonum/stat"
)

// Edge is a directed connection between two waypoints in a roadmap-based
// planner (BasicPRM/LazyPRM/RigidPRM, FAPRM family). Tree-based planners
// (RRT family) and pure search planners (ForwardAStar/ThetaStar/ARAStar)
// track connectivity only through Waypoint.Parent and do not allocate Edges.
type Edge struct {
	From, To WaypointID

	// Cost is the step cost of traversing this edge, already passed through
	// the owning Environment's StepCostPolicy and RiskEvaluator, and (for
	// callers that populate DesirabilityZones) blended with Desirability by
	// Lambda via BlendEdgeCost.
	Cost float64

	// Desirability is the mean Desirability of every DesirabilityZone this
	// edge's segment intersects, or 0.5 if it crosses none. See
	// EdgeDesirability.
	Desirability float64

	// Lambda is the weight given to (1-Desirability) when Cost was blended;
	// 0 means Cost is the unmodified step cost.
	Lambda float64

	// Checked is false for LazyPRM edges whose collision status has not yet
	// been verified; BasicPRM and RigidPRM always set it true at
	// construction time.
	Checked bool

	// Valid is meaningful only once Checked is true: it records whether the
	// edge survived collision checking.
	Valid bool

	ETD, ETA time.Time
}

// Reverse returns the edge with From/To swapped, used when a roadmap is
// queried in both directions from a shared undirected adjacency list.
func (e Edge) Reverse() Edge {
	e.From, e.To = e.To, e.From
	return e
}

// EdgeDesirability intersects seg with zones and returns the mean
// Desirability of every zone it overlaps, or 0.5 (neutral) if it overlaps
// none.
func EdgeDesirability(seg geometry.Segment, zones []DesirabilityZone) float64 {
	var hits []float64
	for _, z := range zones {
		if seg.IntersectsBox(z.Box) {
			hits = append(hits, z.Desirability)
		}
	}
	if len(hits) == 0 {
		return 0.5
	}
	return stat.Mean(hits, nil)
}

// BlendEdgeCost inflates stepCost by (1-desirability), weighted by lambda:
// lambda=0 leaves stepCost untouched, lambda=1 with a fully undesirable
// edge (desirability=0) doubles it.
func BlendEdgeCost(stepCost, desirability, lambda float64) float64 {
	return stepCost * (1 + lambda*(1-desirability))
}
