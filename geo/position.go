// Package geo provides the Position type and the geodesic/Cartesian math
// the rest of the planning engine is built on.
package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	geo "github.com/kellydunn/golang-geo"
)

// EarthRadiusMeters is the mean radius of the reference ellipsoid used for
// great-circle distance and Cartesian conversion. The engine does not model
// oblateness; callers needing higher fidelity should convert through their
// own globe and feed Positions in ECEF-consistent units.
const EarthRadiusMeters = 6371008.8

// PrecisionEpsilon is the spatial tolerance under which two Positions are
// considered the same graph node.
const PrecisionEpsilon = 1e-6

// Position is a (latitude, longitude, elevation) triple on a reference
// ellipsoid ("globe"), convertible to a 3D Cartesian point for geometric math.
type Position struct {
	LatDegrees float64
	LonDegrees float64
	ElevationM float64
}

// NewPosition constructs a Position from degrees and meters above the
// reference ellipsoid.
func NewPosition(latDegrees, lonDegrees, elevationM float64) Position {
	return Position{LatDegrees: latDegrees, LonDegrees: lonDegrees, ElevationM: elevationM}
}

// LatLng returns the s2.LatLng representation of the horizontal component.
func (p Position) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.LatDegrees, p.LonDegrees)
}

// ToECEF converts the position to an earth-centered Cartesian point, the
// representation every geometry primitive operates on.
func (p Position) ToECEF() r3.Vector {
	ll := p.LatLng()
	r := EarthRadiusMeters + p.ElevationM
	cosLat := math.Cos(ll.Lat.Radians())
	return r3.Vector{
		X: r * cosLat * math.Cos(ll.Lng.Radians()),
		Y: r * cosLat * math.Sin(ll.Lng.Radians()),
		Z: r * math.Sin(ll.Lat.Radians()),
	}
}

// FromECEF reconstructs a Position from an earth-centered Cartesian point.
// It is the inverse of ToECEF up to the ellipsoid-radius approximation noted
// above.
func FromECEF(v r3.Vector) Position {
	r := v.Norm()
	if r == 0 {
		return Position{ElevationM: -EarthRadiusMeters}
	}
	lat := math.Asin(v.Z / r)
	lon := math.Atan2(v.Y, v.X)
	return Position{
		LatDegrees: lat * 180 / math.Pi,
		LonDegrees: lon * 180 / math.Pi,
		ElevationM: r - EarthRadiusMeters,
	}
}

// GreatCircleDistance returns the horizontal great-circle distance between
// two positions in meters, ignoring elevation (terrain is not followed, per
// straight-line distance between the two environment implementations).
func (p Position) GreatCircleDistance(other Position) float64 {
	a := geo.NewPoint(p.LatDegrees, p.LonDegrees)
	b := geo.NewPoint(other.LatDegrees, other.LonDegrees)
	return a.GreatCircleDistance(b) * 1000
}

// Distance3D returns the straight-line 3D Cartesian distance between two
// positions, accounting for elevation, as used by the sampling Environment's
// leg-cost and collision geometry.
func (p Position) Distance3D(other Position) float64 {
	return p.ToECEF().Sub(other.ToECEF()).Norm()
}

// Equal reports whether two positions are the same graph node under the
// fixed PrecisionEpsilon tolerance: equality is by value, not identity.
func (p Position) Equal(other Position) bool {
	return p.Distance3D(other) < PrecisionEpsilon
}

// Interpolate returns the position a fraction t of the way from p to other
// along a straight Cartesian line (used for Theta*/RRT extension steps and
// FAPRM's goal-biased sampling).
func Interpolate(p, other Position, t float64) Position {
	pv, ov := p.ToECEF(), other.ToECEF()
	return FromECEF(pv.Add(ov.Sub(pv).Mul(t)))
}

// Bearing returns the initial bearing in degrees from p to other, useful for
// debugging/rendering handoff (the engine itself never needs bearing for
// cost computation).
func (p Position) Bearing(other Position) float64 {
	a := geo.NewPoint(p.LatDegrees, p.LonDegrees)
	b := geo.NewPoint(other.LatDegrees, other.LonDegrees)
	return a.BearingTo(b)
}
