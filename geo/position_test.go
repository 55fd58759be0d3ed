package geo

import (
	"testing"

	"go.viam.com/test"
)

func TestECEFRoundTrip(t *testing.T) {
	p := NewPosition(37.7749, -122.4194, 120)
	back := FromECEF(p.ToECEF())
	test.That(t, back.LatDegrees, test.ShouldAlmostEqual, p.LatDegrees, 1e-6)
	test.That(t, back.LonDegrees, test.ShouldAlmostEqual, p.LonDegrees, 1e-6)
	test.That(t, back.ElevationM, test.ShouldAlmostEqual, p.ElevationM, 1e-3)
}

func TestEqualUsesPrecisionEpsilon(t *testing.T) {
	a := NewPosition(10, 10, 100)
	b := NewPosition(10, 10, 100.0000001)
	test.That(t, a.Equal(b), test.ShouldBeTrue)

	c := NewPosition(10, 10, 150)
	test.That(t, a.Equal(c), test.ShouldBeFalse)
}

func TestGreatCircleDistanceIsPositiveAndSymmetric(t *testing.T) {
	a := NewPosition(0, 0, 0)
	b := NewPosition(0, 1, 0)
	d1 := a.GreatCircleDistance(b)
	d2 := b.GreatCircleDistance(a)
	test.That(t, d1, test.ShouldBeGreaterThan, 0)
	test.That(t, d1, test.ShouldAlmostEqual, d2, 1.0)
}

func TestInterpolateMidpoint(t *testing.T) {
	a := NewPosition(0, 0, 0)
	b := NewPosition(0, 0, 1000)
	mid := Interpolate(a, b, 0.5)
	test.That(t, mid.ElevationM, test.ShouldAlmostEqual, 500, 1.0)
}
