package datalink

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aeroplan/flightplan/geo"
	"github.com/aeroplan/flightplan/logging"
	"github.com/aeroplan/flightplan/planning"
	"go.viam.com/test"
)

type fakeLink struct {
	fetches        int64
	uploadedCount  int64
	fetchPosition  geo.Position
	uploadErr      error
}

func (f *fakeLink) FetchTrack(ctx context.Context) (Track, error) {
	atomic.AddInt64(&f.fetches, 1)
	return Track{AircraftID: "N1", Position: f.fetchPosition}, nil
}

func (f *fakeLink) UploadFlightPath(ctx context.Context, trajectory planning.Trajectory) error {
	atomic.AddInt64(&f.uploadedCount, 1)
	return f.uploadErr
}

func TestPollerDeliversTrackToSubscriber(t *testing.T) {
	link := &fakeLink{fetchPosition: geo.NewPosition(1, 2, 3)}
	poller, err := NewPoller(link, 5*time.Millisecond, logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)

	ch, unsubscribe := poller.SubscribeTrack()
	defer unsubscribe()

	ctx := context.Background()
	test.That(t, poller.StartMonitoring(ctx), test.ShouldBeNil)
	defer poller.StopMonitoring()

	select {
	case track := <-ch:
		test.That(t, track.AircraftID, test.ShouldEqual, "N1")
		test.That(t, track.Position.Equal(link.fetchPosition), test.ShouldBeTrue)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for polled track")
	}
}

func TestPollerStartMonitoringTwiceIsNoop(t *testing.T) {
	link := &fakeLink{}
	poller, err := NewPoller(link, time.Second, logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	test.That(t, poller.StartMonitoring(ctx), test.ShouldBeNil)
	test.That(t, poller.StartMonitoring(ctx), test.ShouldBeNil)
	test.That(t, poller.StopMonitoring(), test.ShouldBeNil)
}

func TestPollerStopClosesSubscriberChannels(t *testing.T) {
	link := &fakeLink{}
	poller, err := NewPoller(link, time.Second, logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)

	ch, _ := poller.SubscribeTrack()
	ctx := context.Background()
	test.That(t, poller.StartMonitoring(ctx), test.ShouldBeNil)
	test.That(t, poller.StopMonitoring(), test.ShouldBeNil)

	_, ok := <-ch
	test.That(t, ok, test.ShouldBeFalse)
}

func TestPollerUploadFlightPath(t *testing.T) {
	link := &fakeLink{}
	poller, err := NewPoller(link, time.Second, logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)

	traj := planning.Trajectory{Complete: true}
	test.That(t, poller.UploadFlightPath(context.Background(), traj), test.ShouldBeNil)
	test.That(t, atomic.LoadInt64(&link.uploadedCount), test.ShouldEqual, 1)
}

func TestPollerLastTrackBeforeAnyPoll(t *testing.T) {
	link := &fakeLink{}
	poller, err := NewPoller(link, time.Second, logging.NewTestLogger())
	test.That(t, err, test.ShouldBeNil)

	_, ok := poller.LastTrack()
	test.That(t, ok, test.ShouldBeFalse)
}
