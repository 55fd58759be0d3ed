// Package aircraft defines the AircraftCapabilities boundary the planning
// engine plans against. The real performance model is an external
// collaborator; this package provides only the interface and a
// simple reference implementation for tests and the demo CLI.
package aircraft

import (
	"time"

	"github.com/aeroplan/flightplan/geo"
)

// Leg is a single straight-line segment the aircraft is asked to fly.
type Leg struct {
	From, To geo.Position
}

// Capabilities yields travel duration and feasibility for a leg, standing
// in for a full aircraft performance model.
type Capabilities interface {
	// EstimatedTime returns the aircraft's estimated time of arrival at
	// leg.To given it departs leg.From at start.
	EstimatedTime(leg Leg, start time.Time) (time.Time, error)

	// IsFeasible reports whether the aircraft can fly the leg at all
	// (e.g. within turn-rate/climb-rate/speed envelope), independent of
	// environment cost. Infeasible legs are skipped by every planner, never
	// treated as fatal; an infeasible leg is simply skipped.
	IsFeasible(leg Leg) bool

	// SeparationRadiusMeters is the minimum clearance the aircraft must
	// maintain from obstacle volumes, used by sampling-environment
	// collision checks.
	SeparationRadiusMeters() float64
}

// CruiseModel is a reference Capabilities implementation: constant
// ground speed, a maximum turn angle per leg (approximated via a minimum
// leg length rather than true turn-rate integration), and a fixed
// separation radius.
type CruiseModel struct {
	SpeedMetersPerSecond float64
	MinLegMeters         float64
	SeparationMeters     float64
}

// NewCruiseModel returns a CruiseModel with the given cruise speed and a
// conservative default minimum leg length and separation radius.
func NewCruiseModel(speedMetersPerSecond float64) CruiseModel {
	return CruiseModel{
		SpeedMetersPerSecond: speedMetersPerSecond,
		MinLegMeters:         1,
		SeparationMeters:     50,
	}
}

// EstimatedTime returns start plus the leg's 3D distance divided by cruise
// speed.
func (c CruiseModel) EstimatedTime(leg Leg, start time.Time) (time.Time, error) {
	dist := leg.From.Distance3D(leg.To)
	seconds := dist / c.SpeedMetersPerSecond
	return start.Add(time.Duration(seconds * float64(time.Second))), nil
}

// IsFeasible rejects degenerate legs shorter than MinLegMeters; every other
// leg is considered flyable by this simplified model.
func (c CruiseModel) IsFeasible(leg Leg) bool {
	return leg.From.Distance3D(leg.To) >= c.MinLegMeters
}

// SeparationRadiusMeters returns the configured separation radius.
func (c CruiseModel) SeparationRadiusMeters() float64 {
	return c.SeparationMeters
}
