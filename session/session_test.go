package session

import (
	"testing"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/config"
	"github.com/aeroplan/flightplan/costmodel"
	"github.com/aeroplan/flightplan/geometry"
	"github.com/aeroplan/flightplan/planning"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testGrid() *planning.PlanningGrid {
	root := geometry.NewBox(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	return planning.NewPlanningGrid(root, 4, 4, 4, costmodel.Maximum, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

func testRoadmap() *planning.PlanningRoadmap {
	bounds := geometry.NewBox(r3.Vector{}, r3.Vector{X: 100, Y: 100, Z: 100})
	return planning.NewPlanningRoadmap(bounds, 7, costmodel.Maximum, costmodel.DefaultRiskEvaluator(costmodel.Ignorance))
}

func TestBuildDefaultsToForwardAStar(t *testing.T) {
	craft := aircraft.NewCruiseModel(250)
	p, err := Build("", testGrid(), craft, config.Defaults())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldNotBeNil)
}

func TestBuildEachSearchAlgorithm(t *testing.T) {
	craft := aircraft.NewCruiseModel(250)
	for _, name := range []string{AlgForwardAStar, AlgThetaStar, AlgARAStar} {
		p, err := Build(name, testGrid(), craft, config.Defaults())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldNotBeNil)
	}
}

func TestBuildEachRRTAlgorithm(t *testing.T) {
	craft := aircraft.NewCruiseModel(250)
	for _, name := range []string{AlgRRT, AlgHRRT, AlgARRT, AlgRRTStar, AlgDRRT, AlgADRRT} {
		p, err := Build(name, testGrid(), craft, config.Defaults())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldNotBeNil)
	}
}

func TestBuildRoadmapFamiliesRequireRoadmap(t *testing.T) {
	craft := aircraft.NewCruiseModel(250)
	for _, name := range []string{AlgBasicPRM, AlgLazyPRM, AlgRigidPRM, AlgFAPRM, AlgFADPRM, AlgOFADPRM, AlgRADPRM} {
		_, err := Build(name, testGrid(), craft, config.Defaults())
		test.That(t, err, test.ShouldNotBeNil)

		p, err := Build(name, testRoadmap(), craft, config.Defaults())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p, test.ShouldNotBeNil)
	}
}

func TestBuildUnknownAlgorithm(t *testing.T) {
	craft := aircraft.NewCruiseModel(250)
	_, err := Build("not-an-algorithm", testGrid(), craft, config.Defaults())
	test.That(t, err, test.ShouldNotBeNil)
}
