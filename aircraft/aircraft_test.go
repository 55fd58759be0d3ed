package aircraft

import (
	"testing"
	"time"

	"github.com/aeroplan/flightplan/geo"
	"go.viam.com/test"
)

func TestCruiseModelEstimatedTime(t *testing.T) {
	c := NewCruiseModel(100)
	leg := Leg{
		From: geo.NewPosition(0, 0, 0),
		To:   geo.NewPosition(0, 0, 1000),
	}
	start := time.Unix(0, 0)
	eta, err := c.EstimatedTime(leg, start)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eta.Sub(start), test.ShouldEqual, 10*time.Second)
}

func TestCruiseModelIsFeasibleRejectsShortLegs(t *testing.T) {
	c := NewCruiseModel(100)
	c.MinLegMeters = 10
	short := Leg{From: geo.NewPosition(0, 0, 0), To: geo.NewPosition(0, 0, 1)}
	long := Leg{From: geo.NewPosition(0, 0, 0), To: geo.NewPosition(0, 0, 100)}
	test.That(t, c.IsFeasible(short), test.ShouldBeFalse)
	test.That(t, c.IsFeasible(long), test.ShouldBeTrue)
}

func TestCruiseModelSeparationRadiusMeters(t *testing.T) {
	c := NewCruiseModel(100)
	test.That(t, c.SeparationRadiusMeters(), test.ShouldEqual, 50.0)
}
