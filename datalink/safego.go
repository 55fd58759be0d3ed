package datalink

import (
	"github.com/aeroplan/flightplan/logging"
)

// panicCapturingGo launches f in its own goroutine and logs (rather than
// crashing the process) if f panics. Poller uses it for the track-delivery
// goroutine spawned on every scheduled poll tick, since one subscriber's
// misbehaving handler should never take down the poller.
func panicCapturingGo(logger logging.Logger, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("recovered panic in datalink goroutine: %v", r)
			}
		}()
		f()
	}()
}
