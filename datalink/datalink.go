// Package datalink connects the planning engine to an aircraft's live
// position feed and uplink channel: it polls an AircraftLink on a schedule,
// fans out each received Track to subscribers (the online planners'
// Advance calls, a telemetry recorder, and so on), and forwards completed
// trajectories back to the aircraft.
package datalink

import (
	"context"
	"sync"
	"time"

	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/logging"
	"github.com/aeroplan/flightplan/planning"
	"github.com/benbjohnson/clock"
	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
)

// Track is a single position report from an aircraft.
type Track struct {
	AircraftID string
	Position   geo.Position
	ReportedAt time.Time
}

// AircraftLink is the narrow boundary between the planning engine and
// whatever transport (radio, ADS-B feed, simulator) actually talks to the
// aircraft. A real implementation lives outside this module; tests and the
// demo CLI supply their own.
type AircraftLink interface {
	// FetchTrack returns the aircraft's most recent position report.
	FetchTrack(ctx context.Context) (Track, error)
	// UploadFlightPath sends a completed trajectory to the aircraft.
	UploadFlightPath(ctx context.Context, trajectory planning.Trajectory) error
}

// Poller periodically fetches an AircraftLink's track and republishes it to
// any subscribers, using a dedicated single-goroutine scheduled executor
// (gocron.Scheduler) rather than a raw time.Ticker so that job lifecycle
// (pause/resume/shutdown) is managed uniformly. clock.Clock is injected so
// tests can advance time deterministically instead of sleeping.
type Poller struct {
	link     AircraftLink
	interval time.Duration
	logger   logging.Logger
	clock    clock.Clock

	mu          sync.Mutex
	sched       gocron.Scheduler
	job         gocron.Job
	running     bool
	subscribers map[int]chan Track
	nextSubID   int
	lastTrack   Track
}

// NewPoller returns a Poller fetching from link every interval.
func NewPoller(link AircraftLink, interval time.Duration, logger logging.Logger) (*Poller, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.Wrap(err, "creating datalink scheduler")
	}
	return &Poller{
		link:        link,
		interval:    interval,
		logger:      logger,
		clock:       clock.New(),
		sched:       sched,
		subscribers: make(map[int]chan Track),
	}, nil
}

// SetClock overrides the poller's clock, used by tests to inject a mock
// clock before StartMonitoring.
func (p *Poller) SetClock(c clock.Clock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = c
}

// StartMonitoring begins the scheduled poll job. Calling it twice without an
// intervening StopMonitoring is a no-op.
func (p *Poller) StartMonitoring(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	job, err := p.sched.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() { p.poll(ctx) }),
	)
	if err != nil {
		return errors.Wrap(err, "scheduling datalink poll job")
	}
	p.job = job
	p.sched.Start()
	p.running = true
	return nil
}

// StopMonitoring shuts down the scheduler, closing every subscriber channel.
func (p *Poller) StopMonitoring() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	if err := p.sched.Shutdown(); err != nil {
		return errors.Wrap(err, "shutting down datalink scheduler")
	}
	for id, ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, id)
	}
	p.running = false
	return nil
}

// poll fetches one track from the link and republishes it to subscribers.
// It runs on the scheduler's own goroutine; delivery to each subscriber
// happens on its own panic-capturing goroutine so a blocked or misbehaving
// subscriber cannot stall the poll loop.
func (p *Poller) poll(ctx context.Context) {
	track, err := p.link.FetchTrack(ctx)
	if err != nil {
		p.logger.CWarnf(ctx, "datalink poll failed: %v", err)
		return
	}
	track.ReportedAt = p.clock.Now()

	p.mu.Lock()
	p.lastTrack = track
	subs := make([]chan Track, 0, len(p.subscribers))
	for _, ch := range p.subscribers {
		subs = append(subs, ch)
	}
	p.mu.Unlock()

	for _, ch := range subs {
		ch := ch
		panicCapturingGo(p.logger, func() {
			select {
			case ch <- track:
			case <-ctx.Done():
			}
		})
	}
}

// SubscribeTrack registers a channel to receive every future polled Track.
// The returned function unsubscribes and closes the channel; callers must
// call it exactly once when done listening.
func (p *Poller) SubscribeTrack() (<-chan Track, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan Track, 1)
	p.subscribers[id] = ch

	unsubscribe := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if existing, ok := p.subscribers[id]; ok {
			close(existing)
			delete(p.subscribers, id)
		}
	}
	return ch, unsubscribe
}

// LastTrack returns the most recently polled Track and whether any poll has
// succeeded yet.
func (p *Poller) LastTrack() (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastTrack.AircraftID == "" {
		return Track{}, false
	}
	return p.lastTrack, true
}

// UploadFlightPath forwards trajectory to the aircraft over the underlying
// link.
func (p *Poller) UploadFlightPath(ctx context.Context, trajectory planning.Trajectory) error {
	if err := p.link.UploadFlightPath(ctx, trajectory); err != nil {
		return errors.Wrap(err, "uploading flight path")
	}
	return nil
}
