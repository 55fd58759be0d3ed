package planning

import (
	"time"

	"github.com/aeroplan/flightplan/geometry"
)

// Obstacle is a time-bounded hazard volume embedded into an Environment.
// Obstacle.Box is the volume's oriented bounding box; all intersection
// tests against grid cells and sampled path segments go through it.
type Obstacle struct {
	ID  string
	Box geometry.Box

	// Start/End bound the obstacle's validity window. A zero End means the
	// obstacle never expires.
	Start, End time.Time

	// Cost is the flat cost this obstacle contributes, while active, to any
	// cell or sample it intersects, summed by the owning Environment's
	// CostInterval tree.
	Cost float64
}

// Active reports whether the obstacle is in effect at the given time.
func (o Obstacle) Active(at time.Time) bool {
	if at.Before(o.Start) {
		return false
	}
	if o.End.IsZero() {
		return true
	}
	return at.Before(o.End) || at.Equal(o.End)
}

// DesirabilityZone is a caller-supplied region expressing a preference
// (rather than a hard cost) for routing through it: edges whose segment
// intersects one or more zones blend their step cost with how desirable
// the crossed zones are.
type DesirabilityZone struct {
	Box geometry.Box

	// Desirability is in [0,1], 1 being maximally preferred.
	Desirability float64
}
