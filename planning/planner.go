package planning

import (
	"sync"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/logging"
	"go.uber.org/atomic"
)

// AbstractPlanner holds the fields every concrete planner needs, following
// a composition-over-inheritance convention: concrete planners
// embed AbstractPlanner by value and add only the state particular to their
// search strategy, rather than subclassing a deep planner hierarchy.
type AbstractPlanner struct {
	Env     Environment
	Craft   aircraft.Capabilities
	Logger  logging.Logger

	mu        sync.Mutex
	listeners []PlanRevisionListener
	searchGen atomic.Int64
}

// NewAbstractPlanner returns an AbstractPlanner wired to env and craft,
// logging under name.
func NewAbstractPlanner(env Environment, craft aircraft.Capabilities, name string) AbstractPlanner {
	return AbstractPlanner{
		Env:    env,
		Craft:  craft,
		Logger: logging.New(name),
	}
}

// AddRevisionListener registers l to be notified of future plan revisions.
func (a *AbstractPlanner) AddRevisionListener(l PlanRevisionListener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, l)
}

// notifyRevision invokes every registered listener with the given before/
// after trajectories. Never called concurrently with itself per planner
// instance, since each planner serializes its own PropagateCorrections
// calls.
func (a *AbstractPlanner) notifyRevision(previous, revised Trajectory, reason string) {
	a.mu.Lock()
	listeners := append([]PlanRevisionListener(nil), a.listeners...)
	a.mu.Unlock()
	for _, l := range listeners {
		l.OnPlanRevised(previous, revised, reason)
	}
}

// nextSearch returns a fresh monotonically increasing search generation id.
// No planner in this module calls it; each search builds its own pool
// instead.
func (a *AbstractPlanner) nextSearch() int64 {
	return a.searchGen.Inc()
}
