// Package session builds a named planner from a flat option map, mirroring
// the request-time "pick an algorithm by name, configure it from a
// key/value map" pattern used to stand up a motion planner for a single
// move request.
package session

import (
	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/config"
	"github.com/aeroplan/flightplan/planning"
	"github.com/aeroplan/flightplan/planning/faprm"
	"github.com/aeroplan/flightplan/planning/prm"
	"github.com/aeroplan/flightplan/planning/rrt"
	"github.com/aeroplan/flightplan/planning/search"
	"github.com/pkg/errors"
)

// Algorithm names recognized by Build. These are the strings a flight-plan
// request's "planning_alg" field is expected to carry.
const (
	AlgForwardAStar = "astar"
	AlgThetaStar    = "theta_star"
	AlgARAStar      = "ara_star"
	AlgBasicPRM     = "basic_prm"
	AlgLazyPRM      = "lazy_prm"
	AlgRigidPRM     = "rigid_prm"
	AlgRRT          = "rrt"
	AlgHRRT         = "hrrt"
	AlgARRT         = "arrt"
	AlgRRTStar      = "rrt_star"
	AlgDRRT         = "drrt"
	AlgADRRT        = "adrrt"
	AlgFAPRM        = "faprm"
	AlgFADPRM       = "fadprm"
	AlgOFADPRM      = "ofadprm"
	AlgRADPRM       = "radprm"
)

// DefaultAlgorithm is used when a request names no algorithm at all.
const DefaultAlgorithm = AlgForwardAStar

// Build constructs the named planner over env/craft, configured from opt.
// Roadmap-family planners (the PRM and FAPRM families) require env to be a
// *planning.PlanningRoadmap; passing a different Environment implementation
// (for example a PlanningGrid) for one of those names returns an error
// rather than panicking on a failed type assertion.
func Build(name string, env planning.Environment, craft aircraft.Capabilities, opt config.PlannerOptions) (planning.Plan, error) {
	switch name {
	case "":
		return Build(DefaultAlgorithm, env, craft, opt)

	case AlgForwardAStar:
		p := search.NewForwardAStar(env, craft)
		p.GoalTolerance = opt.GoalTolerance
		return p, nil

	case AlgThetaStar:
		p := search.NewThetaStar(env, craft)
		p.GoalTolerance = opt.GoalTolerance
		return p, nil

	case AlgARAStar:
		p := search.NewARAStar(env, craft)
		p.GoalTolerance = opt.GoalTolerance
		p.InitialWeight = opt.InitialWeight
		p.WeightStep = opt.WeightStep
		p.MinWeight = opt.MinWeight
		return p, nil

	case AlgBasicPRM, AlgLazyPRM, AlgRigidPRM:
		rm, err := asRoadmap(name, env)
		if err != nil {
			return nil, err
		}
		cfg := prm.Config{Samples: opt.Samples, KNearest: opt.KNearest}
		switch name {
		case AlgBasicPRM:
			return prm.NewBasicPRM(rm, craft, cfg), nil
		case AlgLazyPRM:
			return prm.NewLazyPRM(rm, craft, cfg), nil
		default:
			return prm.NewRigidPRM(rm, craft, cfg), nil
		}

	case AlgRRT, AlgHRRT, AlgARRT, AlgRRTStar, AlgDRRT, AlgADRRT:
		cfg := rrt.Config{
			MaxIterations: opt.MaxIterations,
			StepSize:      opt.StepSize,
			GoalBias:      opt.GoalBias,
			GoalTolerance: opt.GoalTolerance,
			RewireRadius:  opt.RewireRadius,
		}
		switch name {
		case AlgRRT:
			return rrt.NewRRT(env, craft, cfg), nil
		case AlgHRRT:
			return rrt.NewHRRT(env, craft, cfg), nil
		case AlgARRT:
			return rrt.NewARRT(env, craft, cfg), nil
		case AlgRRTStar:
			return rrt.NewRRTStar(env, craft, cfg), nil
		case AlgDRRT:
			return rrt.NewDRRT(env, craft, cfg), nil
		default:
			return rrt.NewADRRT(env, craft, cfg), nil
		}

	case AlgFAPRM, AlgFADPRM, AlgOFADPRM, AlgRADPRM:
		rm, err := asRoadmap(name, env)
		if err != nil {
			return nil, err
		}
		cfg := faprm.Config{
			Samples:       opt.Samples,
			KNearest:      opt.KNearest,
			DensityRadius: opt.DensityRadius,
			InitialBeta:   opt.InitialBeta,
			FinalBeta:     opt.FinalBeta,
			StepBeta:      opt.StepBeta,
			Lambda:        opt.Lambda,
		}
		switch name {
		case AlgFAPRM:
			return faprm.NewFAPRM(rm, craft, cfg), nil
		case AlgFADPRM:
			return faprm.NewFADPRM(rm, craft, cfg), nil
		case AlgOFADPRM:
			return faprm.NewOFADPRM(rm, craft, cfg, 0), nil
		default:
			return faprm.NewRADPRM(rm, craft, cfg, opt.RiskThreshold), nil
		}

	default:
		return nil, errors.Errorf("session: unrecognized planning algorithm %q", name)
	}
}

// asRoadmap type-asserts env to *planning.PlanningRoadmap, reporting which
// algorithm required it on failure.
func asRoadmap(name string, env planning.Environment) (*planning.PlanningRoadmap, error) {
	rm, ok := env.(*planning.PlanningRoadmap)
	if !ok {
		return nil, errors.Errorf("session: algorithm %q requires a *planning.PlanningRoadmap environment", name)
	}
	return rm, nil
}
