// Package protocol defines the haptic command exchanged between paired
// endpoints and its JSON wire form.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindSimple  Kind = "SIMPLE"
	KindPattern Kind = "PATTERN"
	KindStop    Kind = "STOP"
)

// MaxDurationMs bounds a single command, a SIMPLE duration or the sum of a
// PATTERN, to one day.
const MaxDurationMs = 24 * 60 * 60 * 1000

var (
	ErrInvalidCommand = errors.New("protocol: invalid command")
	ErrMalformed      = errors.New("protocol: malformed payload")
	ErrUnknownType    = errors.New("protocol: unknown command type")
)

// Command is one of Simple, Pattern or Stop. The set is closed.
type Command interface {
	Kind() Kind
	Validate() error
	isCommand()
}

// Simple buzzes continuously for DurationMs.
type Simple struct {
	DurationMs int
}

func (Simple) Kind() Kind { return KindSimple }
func (Simple) isCommand() {}

func (s Simple) Validate() error {
	if s.DurationMs <= 0 {
		return fmt.Errorf("%w: simple duration must be positive, got %d", ErrInvalidCommand, s.DurationMs)
	}
	if s.DurationMs > MaxDurationMs {
		return fmt.Errorf("%w: simple duration %dms exceeds %dms", ErrInvalidCommand, s.DurationMs, MaxDurationMs)
	}
	return nil
}

func (s Simple) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// Pattern alternates actuate/pause intervals, starting with actuate.
// Label is descriptive only.
type Pattern struct {
	IntervalsMs []int
	Label       string
}

func (Pattern) Kind() Kind { return KindPattern }
func (Pattern) isCommand() {}

func (p Pattern) Validate() error {
	if len(p.IntervalsMs) == 0 {
		return fmt.Errorf("%w: pattern needs at least one interval", ErrInvalidCommand)
	}
	remaining := MaxDurationMs
	for i, ms := range p.IntervalsMs {
		if ms <= 0 {
			return fmt.Errorf("%w: pattern interval %d is %d", ErrInvalidCommand, i, ms)
		}
		if ms > remaining {
			return fmt.Errorf("%w: pattern runs longer than %dms", ErrInvalidCommand, MaxDurationMs)
		}
		remaining -= ms
	}
	return nil
}

// Total is the sum of all intervals. It is only meaningful for a pattern
// that passed Validate.
func (p Pattern) Total() time.Duration {
	var sum int
	for _, ms := range p.IntervalsMs {
		sum += ms
	}
	return time.Duration(sum) * time.Millisecond
}

// FallbackPattern is sent when a pattern could not be generated.
// DefaultPattern is the static generator's answer.
func FallbackPattern() []int { return []int{100, 100, 100, 100, 100, 100} }

func DefaultPattern() []int { return []int{1000, 200, 1000, 200, 1000} }

// Stop cancels any in-progress actuation.
type Stop struct{}

func (Stop) Kind() Kind      { return KindStop }
func (Stop) isCommand()      {}
func (Stop) Validate() error { return nil }

func NewSimple(d time.Duration) (Simple, error) {
	s := Simple{DurationMs: int(d / time.Millisecond)}
	return s, s.Validate()
}

// NewPattern copies intervals so the caller can't mutate a queued command.
func NewPattern(intervalsMs []int, label string) (Pattern, error) {
	p := Pattern{IntervalsMs: append([]int(nil), intervalsMs...), Label: label}
	return p, p.Validate()
}

// Describe renders a command for logs.
func Describe(cmd Command) string {
	switch c := cmd.(type) {
	case Simple:
		return fmt.Sprintf("SIMPLE(%dms)", c.DurationMs)
	case Pattern:
		return fmt.Sprintf("PATTERN(%d intervals, %s, %q)", len(c.IntervalsMs), c.Total(), c.Label)
	case Stop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}
