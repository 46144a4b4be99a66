package playback

import (
	"context"
	"errors"
	"sync"

	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

var ErrStopped = errors.New("playback: player stopped")

// Player runs a Machine on a single goroutine. Commands, timer expiries and
// snapshot queries share one FIFO queue, so they are applied strictly in
// arrival order and never race each other.
type Player struct {
	machine *Machine
	clock   Clock
	logger  *Logger.Logger
	metrics *metrics.Metrics

	events chan event
	done   chan struct{}
	once   sync.Once

	watchMu  sync.RWMutex
	watchers []func(Session)

	timer Timer
}

type event interface{}

type commandEvent struct {
	cmd protocol.Command
}

type expiredEvent struct {
	generation uint64
}

type queryEvent struct {
	reply chan Session
}

func NewPlayer(machine *Machine, clock Clock, logger *Logger.Logger, m *metrics.Metrics, queueSize int) *Player {
	if clock == nil {
		clock = RealClock()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Player{
		machine: machine,
		clock:   clock,
		logger:  logger,
		metrics: m,
		events:  make(chan event, queueSize),
		done:    make(chan struct{}),
	}
}

// Handle queues cmd. It has the channel.Handler signature so the player can
// be subscribed directly. Commands queued after Run returns are dropped.
func (p *Player) Handle(cmd protocol.Command) {
	if !p.enqueue(commandEvent{cmd: cmd}) {
		p.logger.Debugf("player stopped, dropping %s", protocol.Describe(cmd))
	}
}

// Watch registers fn to be called after every state change. fn runs on the
// player goroutine and must not block or call back into the player.
func (p *Player) Watch(fn func(Session)) {
	p.watchMu.Lock()
	defer p.watchMu.Unlock()
	p.watchers = append(p.watchers, fn)
}

// Session returns the state after every event queued before the call.
func (p *Player) Session(ctx context.Context) (Session, error) {
	reply := make(chan Session, 1)
	select {
	case p.events <- queryEvent{reply: reply}:
	case <-p.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-p.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Run processes events until ctx is cancelled, then halts the actuator.
func (p *Player) Run(ctx context.Context) error {
	defer p.once.Do(func() { close(p.done) })
	p.publish()

	for {
		select {
		case <-ctx.Done():
			p.stopTimer()
			p.machine.Shutdown()
			p.publish()
			return nil
		case ev := <-p.events:
			p.dispatch(ev)
		}
	}
}

func (p *Player) dispatch(ev event) {
	switch e := ev.(type) {
	case commandEvent:
		out, err := p.machine.Apply(e.cmd, p.clock.Now())
		if err != nil {
			p.logger.Warnf("ignoring command: %v", err)
			return
		}
		p.stopTimer()
		if out.ResetAfter > 0 {
			gen := out.Generation
			p.timer = p.clock.AfterFunc(out.ResetAfter, func() {
				p.enqueue(expiredEvent{generation: gen})
			})
		}
		p.logger.Debugf("applied %s (generation %d, started=%t)", protocol.Describe(e.cmd), out.Generation, out.Started)
		p.publish()
	case expiredEvent:
		if p.machine.Expire(e.generation) {
			p.timer = nil
			p.publish()
			return
		}
		p.logger.Debugf("stale reset for generation %d ignored", e.generation)
	case queryEvent:
		e.reply <- p.machine.Session()
	}
}

func (p *Player) enqueue(ev event) bool {
	select {
	case <-p.done:
		return false
	default:
	}
	select {
	case p.events <- ev:
		return true
	case <-p.done:
		return false
	}
}

func (p *Player) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Player) publish() {
	s := p.machine.Session()
	p.metrics.SetSession(s.Active(), s.Generation)

	p.watchMu.RLock()
	defer p.watchMu.RUnlock()
	for _, fn := range p.watchers {
		fn(s)
	}
}
