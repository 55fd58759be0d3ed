// Command planroute is a small demo CLI: it builds an Environment, asks
// session.Build for a named planner, runs one PlanRoute call between two
// positions, and prints the resulting trajectory.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/config"
	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/logging"
	"github.com/aeroplan/flightplan/planning"
	"github.com/aeroplan/flightplan/session"
	"github.com/golang/geo/r3"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
)

func main() {
	app := &cli.App{
		Name:  "planroute",
		Usage: "plan a route between two positions with a named planning algorithm",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "alg", Value: session.DefaultAlgorithm, Usage: "planning algorithm name"},
			&cli.Float64Flag{Name: "from-lat", Required: true},
			&cli.Float64Flag{Name: "from-lon", Required: true},
			&cli.Float64Flag{Name: "from-elev", Value: 0},
			&cli.Float64Flag{Name: "to-lat", Required: true},
			&cli.Float64Flag{Name: "to-lon", Required: true},
			&cli.Float64Flag{Name: "to-elev", Value: 0},
			&cli.Float64Flag{Name: "speed-mps", Value: 220, Usage: "cruise speed in meters/second"},
			&cli.Float64Flag{Name: "bounds-meters", Value: 500000, Usage: "half-extent of the planning volume, in meters, centered on the start position"},
			&cli.BoolFlag{Name: "roadmap", Usage: "use a sampled PlanningRoadmap instead of a discretized PlanningGrid (required for the prm/faprm algorithm families)"},
			&cli.IntFlag{Name: "grid-resolution", Value: 8, Usage: "cells per axis when --roadmap is not set"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed for roadmap sampling"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "deadline for the plan call"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// validateFlags collects every malformed flag at once (rather than
// stopping at the first) so a caller sees the whole list of fixes needed in
// one run.
func validateFlags(c *cli.Context) error {
	var err error
	if lat := c.Float64("from-lat"); lat < -90 || lat > 90 {
		err = multierr.Append(err, fmt.Errorf("--from-lat must be within [-90, 90], got %v", lat))
	}
	if lat := c.Float64("to-lat"); lat < -90 || lat > 90 {
		err = multierr.Append(err, fmt.Errorf("--to-lat must be within [-90, 90], got %v", lat))
	}
	if lon := c.Float64("from-lon"); lon < -180 || lon > 180 {
		err = multierr.Append(err, fmt.Errorf("--from-lon must be within [-180, 180], got %v", lon))
	}
	if lon := c.Float64("to-lon"); lon < -180 || lon > 180 {
		err = multierr.Append(err, fmt.Errorf("--to-lon must be within [-180, 180], got %v", lon))
	}
	if c.Float64("speed-mps") <= 0 {
		err = multierr.Append(err, fmt.Errorf("--speed-mps must be positive"))
	}
	if c.Float64("bounds-meters") <= 0 {
		err = multierr.Append(err, fmt.Errorf("--bounds-meters must be positive"))
	}
	if !c.Bool("roadmap") && c.Int("grid-resolution") <= 0 {
		err = multierr.Append(err, fmt.Errorf("--grid-resolution must be positive"))
	}
	return err
}

func run(c *cli.Context) error {
	if err := validateFlags(c); err != nil {
		return err
	}

	logger := logging.New("planroute")

	from := geo.NewPosition(c.Float64("from-lat"), c.Float64("from-lon"), c.Float64("from-elev"))
	to := geo.NewPosition(c.Float64("to-lat"), c.Float64("to-lon"), c.Float64("to-elev"))

	half := c.Float64("bounds-meters")
	center := from.ToECEF()
	root := geometry.NewBox(center, r3.Vector{X: half, Y: half, Z: half})

	stepPolicy := costmodel.Maximum
	risk := costmodel.DefaultRiskEvaluator(costmodel.Safety)

	var env planning.Environment
	if c.Bool("roadmap") {
		env = planning.NewPlanningRoadmap(root, c.Int64("seed"), stepPolicy, risk)
	} else {
		res := c.Int("grid-resolution")
		env = planning.NewPlanningGrid(root, res, res, res, stepPolicy, risk)
	}

	craft := aircraft.NewCruiseModel(c.Float64("speed-mps"))
	opt := config.Defaults()

	planner, err := session.Build(c.String("alg"), env, craft, opt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	departure := time.Now()
	traj, err := planner.PlanRoute(ctx, from, to, departure)
	if err != nil {
		return err
	}

	logger.Infof("planned %d waypoints, cost %.2f", len(traj.Waypoints), traj.Cost)
	for i, wp := range traj.Waypoints {
		fmt.Printf("%3d  lat=%.6f lon=%.6f elev=%.1f\n", i, wp.Position.LatDegrees, wp.Position.LonDegrees, wp.Position.ElevationM)
	}
	return nil
}
