// Package actuator is the contract between the playback state machine and
// whatever physically vibrates.
package actuator

import (
	"sync"

	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// Actuator drives vibration hardware. Actuate is fire-and-forget: it reports
// whether the request was accepted, not when it finishes. A single interval
// is one continuous buzz; longer slices alternate actuate/pause starting
// with actuate. Any capping of long durations is up to the implementation.
type Actuator interface {
	Actuate(intervalsMs []int) bool
}

// StopSignal is the universal "stop now" request.
var StopSignal = []int{0}

// Halt cancels whatever is currently playing.
func Halt(a Actuator) bool {
	return a.Actuate(StopSignal)
}

// IsStop reports whether intervals is the stop request.
func IsStop(intervalsMs []int) bool {
	return len(intervalsMs) == 1 && intervalsMs[0] == 0
}

// Func adapts a plain function to Actuator.
type Func func(intervalsMs []int) bool

func (f Func) Actuate(intervalsMs []int) bool { return f(intervalsMs) }

// LogActuator accepts everything and only logs. Used by headless endpoints.
type LogActuator struct {
	logger *Logger.Logger
}

func NewLogActuator(logger *Logger.Logger) *LogActuator {
	return &LogActuator{logger: logger}
}

func (l *LogActuator) Actuate(intervalsMs []int) bool {
	if IsStop(intervalsMs) {
		l.logger.Debugf("actuator: stop")
		return true
	}
	l.logger.Infof("actuator: vibrate %v", intervalsMs)
	return true
}

// Recorder keeps every request, handy for tests and debugging endpoints.
type Recorder struct {
	mu     sync.Mutex
	calls  [][]int
	Accept bool
}

func NewRecorder(accept bool) *Recorder {
	return &Recorder{Accept: accept}
}

func (r *Recorder) Actuate(intervalsMs []int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]int(nil), intervalsMs...))
	if IsStop(intervalsMs) {
		return true
	}
	return r.Accept
}

func (r *Recorder) SetAccept(accept bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Accept = accept
}

func (r *Recorder) Calls() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]int, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
