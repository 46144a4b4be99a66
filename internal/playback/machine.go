// Package playback owns one endpoint's actuation state: it turns inbound
// commands into timed sessions, cancels superseded ones and resets to idle
// when a session runs out.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/xpanvictor/vibesync/internal/actuator"
	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
)

const (
	LabelContinuous    = "Continuous"
	LabelCustomPattern = "Custom Pattern"
)

const (
	eventPlay   = "play"
	eventStop   = "stop"
	eventExpire = "expire"
)

// Session is a snapshot of the playback state. Label and ExpectedEnd are
// only set while Active.
type Session struct {
	Status      Status     `json:"status"`
	Label       string     `json:"label,omitempty"`
	ExpectedEnd *time.Time `json:"expected_end,omitempty"`
	Generation  uint64     `json:"generation"`
}

func (s Session) Active() bool {
	return s.Status == StatusActive
}

// Outcome describes what Apply did. ResetAfter is zero when no auto-reset
// timer should be armed.
type Outcome struct {
	Generation uint64
	Started    bool
	ResetAfter time.Duration
}

// Machine is the synchronous core. It is not safe for concurrent use; Player
// serialises access to it.
type Machine struct {
	fsm     *fsm.FSM
	act     actuator.Actuator
	logger  *Logger.Logger
	metrics *metrics.Metrics

	label      string
	end        time.Time
	generation uint64
}

func NewMachine(act actuator.Actuator, logger *Logger.Logger, m *metrics.Metrics) *Machine {
	mc := &Machine{
		act:     act,
		logger:  logger,
		metrics: m,
	}
	mc.fsm = fsm.NewFSM(
		string(StatusIdle),
		fsm.Events{
			{Name: eventPlay, Src: []string{string(StatusIdle), string(StatusActive)}, Dst: string(StatusActive)},
			{Name: eventStop, Src: []string{string(StatusIdle), string(StatusActive)}, Dst: string(StatusIdle)},
			{Name: eventExpire, Src: []string{string(StatusActive)}, Dst: string(StatusIdle)},
		},
		fsm.Callbacks{
			"enter_" + string(StatusIdle): func(_ context.Context, _ *fsm.Event) {
				mc.label = ""
				mc.end = time.Time{}
			},
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debugf("playback %s: %s -> %s", e.Event, e.Src, e.Dst)
			},
		},
	)
	return mc
}

// Apply handles an accepted command at time now. Every valid command bumps
// the generation and restarts actuation from scratch, repeats included.
func (m *Machine) Apply(cmd protocol.Command, now time.Time) (Outcome, error) {
	if cmd == nil {
		return Outcome{}, fmt.Errorf("%w: nil command", protocol.ErrInvalidCommand)
	}
	if err := cmd.Validate(); err != nil {
		return Outcome{}, err
	}

	m.generation++
	out := Outcome{Generation: m.generation}
	actuator.Halt(m.act)

	switch c := cmd.(type) {
	case protocol.Stop:
		m.fire(eventStop)
	case protocol.Simple:
		out = m.start(out, []int{c.DurationMs}, LabelContinuous, c.Duration(), now)
	case protocol.Pattern:
		label := c.Label
		if label == "" {
			label = LabelCustomPattern
		}
		out = m.start(out, c.IntervalsMs, label, c.Total(), now)
	}
	return out, nil
}

func (m *Machine) start(out Outcome, intervals []int, label string, total time.Duration, now time.Time) Outcome {
	if !m.act.Actuate(intervals) {
		m.logger.Warnf("actuator refused %q, staying idle", label)
		m.metrics.IncActuatorRejections()
		m.fire(eventStop)
		return out
	}

	m.fire(eventPlay)
	m.label = label
	m.end = now.Add(total)
	out.Started = true
	out.ResetAfter = total
	return out
}

// Expire is the auto-reset for generation. It only acts when generation is
// still current; stale timers are no-ops.
func (m *Machine) Expire(generation uint64) bool {
	if generation != m.generation || !m.fsm.Is(string(StatusActive)) {
		return false
	}
	m.fire(eventExpire)
	return true
}

// Shutdown stops the actuator and returns to idle without a new generation.
func (m *Machine) Shutdown() {
	actuator.Halt(m.act)
	m.fire(eventStop)
}

func (m *Machine) Session() Session {
	s := Session{
		Status:     Status(m.fsm.Current()),
		Label:      m.label,
		Generation: m.generation,
	}
	if !m.end.IsZero() {
		end := m.end
		s.ExpectedEnd = &end
	}
	return s
}

func (m *Machine) fire(event string) {
	err := m.fsm.Event(context.Background(), event)
	if err == nil {
		return
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}
	m.logger.Warnf("playback event %s rejected in state %s: %v", event, m.fsm.Current(), err)
}

// StatusLine is the human readable form shown to users.
func (s Session) StatusLine() string {
	if s.Active() {
		return "Receiving: " + s.Label
	}
	return "Ready to send & receive"
}
