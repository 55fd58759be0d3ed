package faprm

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aeroplan/flightplan/aircraft"
	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/planning"
)

// FAPRM grows a roadmap once (lazily, on first PlanRoute call) and searches
// it anytime-style: beta starts low, favoring sparsely-connected waypoints
// so the first pass explores broadly and fast, then rises pass over pass
// toward cfg.FinalBeta, where the priority key collapses onto plain
// cost-based best-first search and the roadmap's cheapest path wins out.
type FAPRM struct {
	base
	grown bool
}

// NewFAPRM returns a FAPRM over rm/craft with cfg.
func NewFAPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config) *FAPRM {
	return &FAPRM{base: newBase(rm, craft, "planning.faprm.faprm", cfg)}
}

// PlanRoute runs PlanUntil to completion (beta reaches FinalBeta) and
// returns only the final trajectory, satisfying the plain Plan interface.
func (p *FAPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	return p.PlanUntil(ctx, start, goal, departure, time.Time{}, nil)
}

// PlanUntil runs the anytime beta-inflation cycle: starting from
// cfg.InitialBeta, each pass searches the roadmap with that beta propagated
// to every waypoint touched, publishes the resulting trajectory via
// onImprovement, then raises beta by cfg.StepBeta and searches again,
// stopping once beta reaches cfg.FinalBeta, the deadline elapses, or ctx is
// cancelled. The waypoint pool is backed up before each pass so that a pass
// which fails to reach the goal can be rolled back to the last good one.
func (p *FAPRM) PlanUntil(ctx context.Context, start, goal geo.Position, departure time.Time, deadline time.Time, onImprovement func(planning.Trajectory)) (planning.Trajectory, error) {
	if !p.grown {
		p.rm.Pool().Add(start)
		p.rm.Pool().Add(goal)
		p.grow(departure)
		p.grown = true
	}

	beta := p.cfg.InitialBeta
	var best planning.Trajectory
	found := false

	for {
		select {
		case <-ctx.Done():
			if found {
				return best, nil
			}
			return planning.Trajectory{}, ctx.Err()
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		backup := p.rm.Pool().Clone()
		trajectory, err := p.search(ctx, start, goal, departure, constBeta(beta))
		if err != nil {
			p.rm.Pool().Restore(backup)
			if found {
				break
			}
			return planning.Trajectory{}, err
		}
		best = trajectory
		found = true
		if onImprovement != nil {
			onImprovement(best)
		}

		if beta >= p.cfg.FinalBeta || p.cfg.StepBeta <= 0 {
			break
		}
		beta += p.cfg.StepBeta
		if beta > p.cfg.FinalBeta {
			beta = p.cfg.FinalBeta
		}
	}

	if !found {
		return planning.Trajectory{}, ErrNoRoute
	}
	return best, nil
}

// FADPRM is FAPRM plus dynamic replanning: when an environment change
// invalidates part of a previously returned trajectory, it re-searches the
// same roadmap (which may itself need regrowing if the invalidated region
// left it disconnected) from the last valid waypoint.
type FADPRM struct {
	*FAPRM
	listeners []planning.PlanRevisionListener
}

// NewFADPRM returns a FADPRM over rm/craft with cfg.
func NewFADPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config) *FADPRM {
	return &FADPRM{FAPRM: NewFAPRM(rm, craft, cfg)}
}

// AddRevisionListener registers l to be notified of future corrections.
func (p *FADPRM) AddRevisionListener(l planning.PlanRevisionListener) {
	p.listeners = append(p.listeners, l)
}

// PropagateCorrections re-validates trajectory leg by leg against the
// current environment and, on the first invalidated leg, regrows the
// roadmap and re-searches from that point to the original goal.
func (p *FADPRM) PropagateCorrections(ctx context.Context, trajectory planning.Trajectory) (planning.Trajectory, bool, error) {
	if len(trajectory.Waypoints) < 2 {
		return trajectory, false, nil
	}
	at := p.Env.Now()

	for i := 0; i < len(trajectory.Waypoints)-1; i++ {
		from := trajectory.Waypoints[i]
		to := trajectory.Waypoints[i+1]
		cost := p.Env.StepCost(from.Position, to.Position, at)
		if !math.IsInf(cost, 1) {
			continue
		}

		goal := trajectory.Waypoints[len(trajectory.Waypoints)-1].Position
		p.grow(at)
		revised, err := p.search(ctx, from.Position, goal, at, constBeta(p.cfg.FinalBeta))
		if err != nil {
			return trajectory, false, err
		}
		stitched := planning.Trajectory{
			Waypoints:  append(append([]*planning.Waypoint{}, trajectory.Waypoints[:i+1]...), revised.Waypoints[1:]...),
			Cost:       trajectory.Waypoints[i].G + revised.Cost,
			Complete:   true,
			ComputedAt: time.Now(),
		}
		for _, l := range p.listeners {
			l.OnPlanRevised(trajectory, stitched, "leg invalidated by environment change")
		}
		return stitched, true, nil
	}

	return trajectory, false, nil
}

// OFADPRM adds online look-ahead to FADPRM: as the aircraft advances along
// its trajectory, Advance shifts which prefix of waypoints is considered
// committed (locked out of future expansions) and reseeds the search from a
// fresh start reconnected to the roadmap ahead of the aircraft.
type OFADPRM struct {
	*FADPRM
	lookahead int

	mu        sync.Mutex
	current   geo.Position
	currentAt time.Time
	plan      planning.Trajectory
	committed int
	start     *planning.Waypoint

	// AdvanceTolerance is the distance within which the aircraft's current
	// position is considered to have reached a given plan waypoint. Zero
	// selects a conservative default.
	AdvanceTolerance float64
}

// NewOFADPRM returns an OFADPRM over rm/craft with cfg and the given
// look-ahead window (number of committed waypoints ahead of the aircraft).
func NewOFADPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config, lookahead int) *OFADPRM {
	return &OFADPRM{FADPRM: NewFADPRM(rm, craft, cfg), lookahead: lookahead}
}

// PlanRoute plans through the embedded FADPRM and records the result as the
// trajectory future Advance calls shift the start of.
func (p *OFADPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	trajectory, err := p.FADPRM.PlanRoute(ctx, start, goal, departure)
	if err != nil {
		return trajectory, err
	}
	p.mu.Lock()
	p.plan = trajectory
	p.committed = 0
	if len(trajectory.Waypoints) > 0 {
		p.start = trajectory.Waypoints[0]
	}
	p.mu.Unlock()
	return trajectory, nil
}

func (p *OFADPRM) advanceTolerance() float64 {
	if p.AdvanceTolerance > 0 {
		return p.AdvanceTolerance
	}
	return 1e-3
}

// Advance records the aircraft's current position and time and, once the
// aircraft is within AdvanceTolerance of plan waypoint i (at or after the
// committed index) and waypoint i+LookaheadWaypoints() exists, calls
// updateStart to make that lookahead waypoint the new search root. If the
// aircraft is near no such plan waypoint, the root is left unchanged.
func (p *OFADPRM) Advance(currentPosition geo.Position, currentTime time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = currentPosition
	p.currentAt = currentTime
	p.Env.SetTime(currentTime)

	if len(p.plan.Waypoints) == 0 {
		return nil
	}

	passed := -1
	for i := p.committed; i < len(p.plan.Waypoints); i++ {
		if p.plan.Waypoints[i].Position.Distance3D(currentPosition) <= p.advanceTolerance() {
			passed = i
		}
	}
	if passed < 0 {
		return nil
	}

	ordinal := passed + p.LookaheadWaypoints()
	if ordinal >= len(p.plan.Waypoints) {
		return nil
	}

	target := p.plan.Waypoints[ordinal]
	if err := p.updateStart(target, ordinal); err != nil {
		return err
	}
	p.committed = ordinal
	p.start = target
	return nil
}

// updateStart resets every pool waypoint's G to +Inf and Parent to none,
// makes target the new search root (G=0), reconnects it to its KNearest
// nearest neighbors, and locks every waypoint before ordinal in the
// previous plan out of future expansions, implementing the spec's "never
// cross a waypoint with ordinal below the committed index" rule.
func (p *OFADPRM) updateStart(target *planning.Waypoint, ordinal int) error {
	pool := p.rm.Pool()
	for _, w := range pool.All() {
		w.G = math.Inf(1)
		w.Parent = planning.NoWaypoint
	}
	target.G = 0

	for _, n := range p.rm.FindKNearest(target.Position, p.cfg.KNearest) {
		if n.ID == target.ID {
			continue
		}
		if p.rm.CheckConflict(target.Position, n.Position, p.currentAt) {
			continue
		}
		cost, desirability := p.edgeCost(target.Position, n.Position, p.currentAt)
		if math.IsInf(cost, 1) {
			continue
		}
		p.rm.AddEdge(planning.Edge{
			From: target.ID, To: n.ID, Cost: cost,
			Desirability: desirability, Lambda: p.cfg.Lambda,
			Checked: true, Valid: true,
		})
	}

	if p.locked == nil {
		p.locked = make(map[planning.WaypointID]bool)
	}
	for i := 0; i < ordinal && i < len(p.plan.Waypoints); i++ {
		p.locked[p.plan.Waypoints[i].ID] = true
	}
	return nil
}

// GetStart returns the waypoint the planner is currently using as its
// search root: the most recent Advance-triggered lookahead target, or the
// original plan start before any Advance call.
func (p *OFADPRM) GetStart() *planning.Waypoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.start
}

// LookaheadWaypoints returns how many waypoints ahead of the aircraft's
// current position remain committed.
func (p *OFADPRM) LookaheadWaypoints() int {
	if p.lookahead <= 0 {
		return 3
	}
	return p.lookahead
}

// RADPRM is FAPRM with a risk-adaptive inflation schedule instead of a
// density-adaptive one: beta falls from cfg.FinalBeta towards
// cfg.InitialBeta as the cost of a waypoint's incoming edge approaches the
// risk threshold, so near hazardous regions the key leans on density
// rather than the heuristic, and in unencumbered regions it follows the
// heuristic.
type RADPRM struct {
	base
	grown     bool
	threshold float64
}

// NewRADPRM returns a RADPRM over rm/craft with cfg. threshold is the cost
// magnitude at which beta reaches cfg.InitialBeta (maximal caution); costs
// at or near zero get cfg.FinalBeta.
func NewRADPRM(rm *planning.PlanningRoadmap, craft aircraft.Capabilities, cfg Config, threshold float64) *RADPRM {
	return &RADPRM{base: newBase(rm, craft, "planning.faprm.radprm", cfg), threshold: threshold}
}

// PlanRoute grows the roadmap on first use, then runs the risk-weighted
// search from start to goal.
func (p *RADPRM) PlanRoute(ctx context.Context, start, goal geo.Position, departure time.Time) (planning.Trajectory, error) {
	if !p.grown {
		p.rm.Pool().Add(start)
		p.rm.Pool().Add(goal)
		p.grow(departure)
		p.grown = true
	}
	return p.search(ctx, start, goal, departure, p.betaFromRisk(departure))
}

// betaFromRisk returns a per-waypoint beta function that inflates the
// heuristic according to how close the waypoint's incoming step cost is to
// threshold, using the same InitialBeta/FinalBeta bounds as the anytime
// density schedule.
func (p *RADPRM) betaFromRisk(at time.Time) func(*planning.Waypoint) float64 {
	return func(w *planning.Waypoint) float64 {
		if p.threshold <= 0 {
			return p.cfg.InitialBeta
		}
		parent := p.rm.Pool().Get(w.Parent)
		if parent == nil {
			return p.cfg.FinalBeta
		}
		cost, _ := p.edgeCost(parent.Position, w.Position, at)
		if math.IsInf(cost, 1) {
			return p.cfg.InitialBeta
		}
		frac := cost / p.threshold
		if frac > 1 {
			frac = 1
		}
		return p.cfg.FinalBeta - frac*(p.cfg.FinalBeta-p.cfg.InitialBeta)
	}
}
