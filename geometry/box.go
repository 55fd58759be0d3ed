// Package geometry implements the oriented-box, cube-grid, and segment
// intersection primitives shared by both Environment variants.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Box is an oriented rectangular volume described by a center, a set of
// orthonormal axes, and a half-extent along each axis. An axis-aligned box
// uses the standard basis for Axes.
type Box struct {
	Center      r3.Vector
	Axes        [3]r3.Vector
	HalfExtents r3.Vector
}

// NewBox returns an axis-aligned Box.
func NewBox(center, halfExtents r3.Vector) Box {
	return Box{
		Center:      center,
		Axes:        [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}},
		HalfExtents: halfExtents,
	}
}

// NewOrientedBox returns a Box whose local frame is given by axes, which
// must be orthonormal.
func NewOrientedBox(center r3.Vector, axes [3]r3.Vector, halfExtents r3.Vector) Box {
	return Box{Center: center, Axes: axes, HalfExtents: halfExtents}
}

// Corners returns the 8 corner points of the box.
func (b Box) Corners() []r3.Vector {
	out := make([]r3.Vector, 0, 8)
	signs := []float64{-1, 1}
	for _, sx := range signs {
		for _, sy := range signs {
			for _, sz := range signs {
				offset := b.Axes[0].Mul(sx * b.HalfExtents.X).
					Add(b.Axes[1].Mul(sy * b.HalfExtents.Y)).
					Add(b.Axes[2].Mul(sz * b.HalfExtents.Z))
				out = append(out, b.Center.Add(offset))
			}
		}
	}
	return out
}

// localCoords projects a world point into the box's local axis frame.
func (b Box) localCoords(p r3.Vector) r3.Vector {
	d := p.Sub(b.Center)
	return r3.Vector{
		X: d.Dot(b.Axes[0]),
		Y: d.Dot(b.Axes[1]),
		Z: d.Dot(b.Axes[2]),
	}
}

// Contains reports whether p lies within the box (inclusive of the boundary).
func (b Box) Contains(p r3.Vector) bool {
	l := b.localCoords(p)
	return math.Abs(l.X) <= b.HalfExtents.X &&
		math.Abs(l.Y) <= b.HalfExtents.Y &&
		math.Abs(l.Z) <= b.HalfExtents.Z
}

// LongestEdge returns the longest full-edge length of the box, used as the
// normalizer for Environment.normalizedDistance.
func (b Box) LongestEdge() float64 {
	return 2 * math.Max(b.HalfExtents.X, math.Max(b.HalfExtents.Y, b.HalfExtents.Z))
}

// Volume returns the box's volume.
func (b Box) Volume() float64 {
	return 8 * b.HalfExtents.X * b.HalfExtents.Y * b.HalfExtents.Z
}

// NewCube returns an axis-aligned cube (equal half-extents) centered at
// center with the given side length.
func NewCube(center r3.Vector, side float64) Box {
	return NewBox(center, r3.Vector{X: side / 2, Y: side / 2, Z: side / 2})
}

// IntersectsBox reports whether two (possibly oriented) boxes overlap, via
// the separating-axis theorem tested against each box's own three axes plus
// the nine cross products of axis pairs.
func (b Box) IntersectsBox(other Box) bool {
	axes := make([]r3.Vector, 0, 15)
	axes = append(axes, b.Axes[:]...)
	axes = append(axes, other.Axes[:]...)
	for _, a := range b.Axes {
		for _, c := range other.Axes {
			cross := a.Cross(c)
			if cross.Norm() > 1e-9 {
				axes = append(axes, cross.Normalize())
			}
		}
	}

	d := other.Center.Sub(b.Center)
	bExtents := [3]float64{b.HalfExtents.X, b.HalfExtents.Y, b.HalfExtents.Z}
	oExtents := [3]float64{other.HalfExtents.X, other.HalfExtents.Y, other.HalfExtents.Z}

	for _, axis := range axes {
		n := axis.Norm()
		if n < 1e-9 {
			continue
		}
		axis = axis.Mul(1 / n)

		var bRadius, oRadius float64
		for i, bAxis := range b.Axes {
			bRadius += math.Abs(bAxis.Dot(axis)) * bExtents[i]
		}
		for i, oAxis := range other.Axes {
			oRadius += math.Abs(oAxis.Dot(axis)) * oExtents[i]
		}
		dist := math.Abs(d.Dot(axis))
		if dist > bRadius+oRadius {
			return false
		}
	}
	return true
}

// Segment is a 3D line segment between two endpoints.
type Segment struct {
	A, B r3.Vector
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.B.Sub(s.A).Norm()
}

// PointAt returns the point a fraction t (0..1) of the way along the segment.
func (s Segment) PointAt(t float64) r3.Vector {
	return s.A.Add(s.B.Sub(s.A).Mul(t))
}

// IntersectsBox reports whether the segment intersects the (possibly
// oriented) box, by clipping the segment against the box's three slabs in
// the box's local frame.
func (s Segment) IntersectsBox(b Box) bool {
	// Work in the box's local frame, where it is axis-aligned, and clip the
	// segment against the resulting slab using the standard slab test.
	a := b.localCoords(s.A)
	d := b.localCoords(s.B).Sub(a)

	tMin, tMax := 0.0, 1.0
	extents := [3]float64{b.HalfExtents.X, b.HalfExtents.Y, b.HalfExtents.Z}
	comps := [3]float64{a.X, a.Y, a.Z}
	dirs := [3]float64{d.X, d.Y, d.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(dirs[i]) < 1e-12 {
			if math.Abs(comps[i]) > extents[i] {
				return false
			}
			continue
		}
		t1 := (-extents[i] - comps[i]) / dirs[i]
		t2 := (extents[i] - comps[i]) / dirs[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// Sphere is a ball obstacle.
type Sphere struct {
	Center r3.Vector
	Radius float64
}

// IntersectsBox reports whether the sphere intersects the box, via
// closest-point-on-box-to-sphere-center distance.
func (sp Sphere) IntersectsBox(b Box) bool {
	l := b.localCoords(sp.Center)
	clamp := func(v, lim float64) float64 {
		if v > lim {
			return lim
		}
		if v < -lim {
			return -lim
		}
		return v
	}
	closest := r3.Vector{
		X: clamp(l.X, b.HalfExtents.X),
		Y: clamp(l.Y, b.HalfExtents.Y),
		Z: clamp(l.Z, b.HalfExtents.Z),
	}
	return l.Sub(closest).Norm() <= sp.Radius
}

// Cylinder is a capped circular cylinder obstacle, axis-aligned along Axis
// (a unit vector) through Center, with the given Radius and half-length
// HalfHeight along Axis.
type Cylinder struct {
	Center    r3.Vector
	Axis      r3.Vector
	Radius    float64
	HalfHeight float64
}

// IntersectsBox reports whether the cylinder intersects the box, using the
// offset from the box point closest to the cylinder's center: its component
// perpendicular to Axis must be within Radius, and its component along Axis
// within HalfHeight plus the box's longest edge. This is an approximation
// suited to obstacle embedding at grid-cell granularity, not an exact
// cylinder-box test.
func (c Cylinder) IntersectsBox(b Box) bool {
	axis := c.Axis.Normalize()
	l := b.localCoords(c.Center)
	axisLocal := r3.Vector{X: axis.Dot(b.Axes[0]), Y: axis.Dot(b.Axes[1]), Z: axis.Dot(b.Axes[2])}

	clamp := func(v, lim float64) float64 {
		if v > lim {
			return lim
		}
		if v < -lim {
			return -lim
		}
		return v
	}
	closest := r3.Vector{
		X: clamp(l.X, b.HalfExtents.X),
		Y: clamp(l.Y, b.HalfExtents.Y),
		Z: clamp(l.Z, b.HalfExtents.Z),
	}
	d := l.Sub(closest)
	alongAxis := d.Dot(axisLocal)
	radial := d.Sub(axisLocal.Mul(alongAxis))
	return radial.Norm() <= c.Radius && math.Abs(alongAxis) <= c.HalfHeight+b.LongestEdge()
}
