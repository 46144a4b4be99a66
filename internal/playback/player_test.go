package playback

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/vibesync/internal/actuator"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

type harness struct {
	player *Player
	clock  *ManualClock
	rec    *actuator.Recorder
	cancel context.CancelFunc
	done   chan struct{}
}

func newHarness(t *testing.T, accept bool, watch func(Session)) *harness {
	t.Helper()
	clock := NewManualClock(epoch)
	rec := actuator.NewRecorder(accept)
	p := NewPlayer(NewMachine(rec, Logger.NewNop(), nil), clock, Logger.NewNop(), nil, 16)
	if watch != nil {
		p.Watch(watch)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{player: p, clock: clock, rec: rec, cancel: cancel, done: make(chan struct{})}
	go func() {
		_ = p.Run(ctx)
		close(h.done)
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

// session doubles as a barrier: it is answered only after every event queued
// before it has been applied.
func (h *harness) session(t *testing.T) Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := h.player.Session(ctx)
	require.NoError(t, err)
	return s
}

func TestPlayer_SimpleAutoResetsAtDeadline(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Simple{DurationMs: 10000})
	s := h.session(t)
	require.Equal(t, StatusActive, s.Status)
	require.Equal(t, LabelContinuous, s.Label)
	require.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(9999 * time.Millisecond)
	require.Equal(t, StatusActive, h.session(t).Status)

	h.clock.Advance(time.Millisecond)
	s = h.session(t)
	require.Equal(t, StatusIdle, s.Status)
	require.Empty(t, s.Label)
	require.Equal(t, 0, h.clock.Pending())
}

func TestPlayer_SupersedingCommandOwnsTheReset(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Simple{DurationMs: 10000})
	h.session(t)
	h.clock.Advance(5 * time.Second)

	h.player.Handle(protocol.Pattern{IntervalsMs: []int{3000, 1000, 3000}})
	s := h.session(t)
	require.Equal(t, LabelCustomPattern, s.Label)
	require.Equal(t, epoch.Add(12*time.Second), *s.ExpectedEnd)
	require.Equal(t, 1, h.clock.Pending())

	// the first session's deadline passes without effect
	h.clock.Advance(5 * time.Second)
	s = h.session(t)
	require.Equal(t, StatusActive, s.Status)
	require.Equal(t, uint64(2), s.Generation)

	h.clock.Advance(2 * time.Second)
	require.Equal(t, StatusIdle, h.session(t).Status)
}

func TestPlayer_PatternRunsForItsTotal(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Pattern{IntervalsMs: []int{500, 200, 500, 200, 500}, Label: "wave"})
	s := h.session(t)
	require.Equal(t, "wave", s.Label)
	require.Equal(t, epoch.Add(1900*time.Millisecond), *s.ExpectedEnd)

	h.clock.Advance(1899 * time.Millisecond)
	require.Equal(t, StatusActive, h.session(t).Status)

	h.clock.Advance(time.Millisecond)
	require.Equal(t, StatusIdle, h.session(t).Status)
}

func TestPlayer_StopCancelsTimer(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Simple{DurationMs: 10000})
	h.player.Handle(protocol.Stop{})
	s := h.session(t)

	require.Equal(t, StatusIdle, s.Status)
	require.Equal(t, 0, h.clock.Pending())
	require.Equal(t, [][]int{{0}, {10000}, {0}}, h.rec.Calls())
}

func TestPlayer_RejectedActuationArmsNoTimer(t *testing.T) {
	h := newHarness(t, false, nil)

	h.player.Handle(protocol.Pattern{IntervalsMs: []int{200, 100}})
	s := h.session(t)

	require.Equal(t, StatusIdle, s.Status)
	require.Equal(t, uint64(1), s.Generation)
	require.Equal(t, 0, h.clock.Pending())
}

func TestPlayer_IgnoresInvalidCommands(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Pattern{IntervalsMs: []int{}})
	h.player.Handle(nil)
	s := h.session(t)

	require.Equal(t, StatusIdle, s.Status)
	require.Zero(t, s.Generation)
	require.Empty(t, h.rec.Calls())
}

func TestPlayer_OversizedDurationsNeverStick(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Simple{DurationMs: 9300000000000})
	h.player.Handle(protocol.Pattern{IntervalsMs: []int{math.MaxInt, 1}})
	s := h.session(t)
	require.Equal(t, StatusIdle, s.Status)
	require.Zero(t, s.Generation)
	require.Empty(t, h.rec.Calls())

	// the longest accepted command still resets on time
	h.player.Handle(protocol.Simple{DurationMs: protocol.MaxDurationMs})
	s = h.session(t)
	require.Equal(t, StatusActive, s.Status)
	require.Equal(t, epoch.Add(24*time.Hour), *s.ExpectedEnd)
	require.Equal(t, 1, h.clock.Pending())

	h.clock.Advance(24 * time.Hour)
	require.Equal(t, StatusIdle, h.session(t).Status)
}

func TestPlayer_WatchersSeeEveryChange(t *testing.T) {
	seen := make(chan Session, 16)
	h := newHarness(t, true, func(s Session) { seen <- s })

	h.player.Handle(protocol.Simple{DurationMs: 1000})
	h.session(t)
	h.clock.Advance(time.Second)
	h.session(t)

	var statuses []Status
	for len(seen) > 0 {
		statuses = append(statuses, (<-seen).Status)
	}
	require.Equal(t, []Status{StatusIdle, StatusActive, StatusIdle}, statuses)
}

func TestPlayer_ShutdownHaltsActuator(t *testing.T) {
	h := newHarness(t, true, nil)

	h.player.Handle(protocol.Simple{DurationMs: 10000})
	h.session(t)
	h.stop()

	calls := h.rec.Calls()
	require.Equal(t, []int{0}, calls[len(calls)-1])

	_, err := h.player.Session(context.Background())
	require.ErrorIs(t, err, ErrStopped)
	require.NotPanics(t, func() { h.player.Handle(protocol.Stop{}) })
}
