// Package config loads planner-property overrides from a flat
// key/value map (as would arrive from a flight-plan request's JSON body)
// into a typed PlannerOptions struct, applying defaults for anything the
// caller's map leaves unset.
package config

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// PlannerOptions mirrors the tunable fields scattered across the search,
// prm, rrt, and faprm package Config types. session.Build decodes the
// relevant subset out of this struct when constructing a named planner.
type PlannerOptions struct {
	// GoalTolerance is the distance, in meters, within which a waypoint is
	// considered to have reached the goal.
	GoalTolerance float64 `mapstructure:"goal_tolerance"`

	// Samples/KNearest size a PRM or FAPRM family roadmap.
	Samples  int `mapstructure:"samples"`
	KNearest int `mapstructure:"k_nearest"`

	// MaxIterations/StepSize/GoalBias/RewireRadius tune an RRT family
	// planner.
	MaxIterations int     `mapstructure:"max_iterations"`
	StepSize      float64 `mapstructure:"step_size"`
	GoalBias      float64 `mapstructure:"goal_bias"`
	RewireRadius  float64 `mapstructure:"rewire_radius"`

	// InitialWeight/WeightStep/MinWeight schedule ARA*'s inflation.
	InitialWeight float64 `mapstructure:"initial_weight"`
	WeightStep    float64 `mapstructure:"weight_step"`
	MinWeight     float64 `mapstructure:"min_weight"`

	// DensityRadius/InitialBeta/FinalBeta/StepBeta tune the FAPRM family's
	// anytime heuristic-inflation schedule. RiskThreshold is RADPRM-only.
	DensityRadius float64 `mapstructure:"density_radius"`
	InitialBeta   float64 `mapstructure:"initial_beta"`
	FinalBeta     float64 `mapstructure:"final_beta"`
	StepBeta      float64 `mapstructure:"step_beta"`
	RiskThreshold float64 `mapstructure:"risk_threshold"`

	// Lambda weights the FAPRM family's edge-desirability cost blend.
	Lambda float64 `mapstructure:"lambda"`

	// Seed fixes a planner's random source for reproducible runs.
	Seed int64 `mapstructure:"seed"`

	// Timeout bounds an anytime planner's PlanUntil call.
	Timeout time.Duration `mapstructure:"timeout"`
}

// Defaults returns a PlannerOptions populated with the same constants the
// search/prm/rrt/faprm packages fall back to when constructed with their
// own DefaultConfig helpers, so that a caller's override map only needs to
// name the fields it actually wants to change.
func Defaults() PlannerOptions {
	return PlannerOptions{
		GoalTolerance: 1e-3,
		Samples:       200,
		KNearest:      8,
		MaxIterations: 2000,
		StepSize:      10,
		GoalBias:      0.05,
		RewireRadius:  20,
		InitialWeight: 2.5,
		WeightStep:    0.5,
		MinWeight:     1.0,
		DensityRadius: 15,
		InitialBeta:   0,
		FinalBeta:     1,
		StepBeta:      0.1,
		RiskThreshold: 0,
		Lambda:        0.3,
		Seed:          1,
		Timeout:       0,
	}
}

// Decode overlays the flat key/value map raw onto Defaults(), returning the
// merged PlannerOptions. Unknown keys in raw are ignored rather than
// rejected, since callers commonly pass a superset map shared across
// several planner families.
func Decode(raw map[string]interface{}) (PlannerOptions, error) {
	opt := Defaults()
	if raw == nil {
		return opt, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &opt,
	})
	if err != nil {
		return PlannerOptions{}, errors.Wrap(err, "building planner options decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return PlannerOptions{}, errors.Wrap(err, "decoding planner options")
	}
	return opt, nil
}
