// Package controller is the sending half of an endpoint: presets, the hold
// gesture and generated patterns, all published on the command channel.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xpanvictor/vibesync/internal/generator"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

var ErrEmptyPrompt = errors.New("controller: prompt is empty")

// Sender is satisfied by *channel.Channel.
type Sender interface {
	Send(cmd protocol.Command)
}

type Options struct {
	PresetPulse time.Duration
	HoldCeiling time.Duration
}

type Controller struct {
	sender    Sender
	generator generator.Generator
	opts      Options
	logger    *Logger.Logger

	mu      sync.Mutex
	holding bool
}

func New(sender Sender, gen generator.Generator, opts Options, logger *Logger.Logger) *Controller {
	return &Controller{
		sender:    sender,
		generator: gen,
		opts:      opts,
		logger:    logger,
	}
}

// Preset sends the configured preset pulse.
func (c *Controller) Preset() (string, error) {
	return c.Pulse(c.opts.PresetPulse)
}

// Pulse sends a continuous buzz of d and returns the feedback notice.
func (c *Controller) Pulse(d time.Duration) (string, error) {
	cmd, err := protocol.NewSimple(d)
	if err != nil {
		return "", err
	}
	c.sender.Send(cmd)
	return fmt.Sprintf("Sent %ss Vibrate", strconv.FormatFloat(d.Seconds(), 'f', -1, 64)), nil
}

func (c *Controller) Stop() string {
	c.sender.Send(protocol.Stop{})
	return "Sent Stop"
}

// HoldStart sends a long pulse capped at the hold ceiling. A second press
// while already held does nothing and reports false.
func (c *Controller) HoldStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holding {
		return false
	}
	cmd, err := protocol.NewSimple(c.opts.HoldCeiling)
	if err != nil {
		c.logger.Errorf("hold ceiling %s is not a valid pulse: %v", c.opts.HoldCeiling, err)
		return false
	}
	c.holding = true
	c.sender.Send(cmd)
	return true
}

// HoldEnd sends Stop if a hold is in progress.
func (c *Controller) HoldEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.holding {
		return false
	}
	c.holding = false
	c.sender.Send(protocol.Stop{})
	return true
}

func (c *Controller) Holding() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holding
}

// SendPrompt generates a pattern for prompt and sends it named after the
// prompt. Generation failures still send the fallback pattern.
func (c *Controller) SendPrompt(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	cmd, err := protocol.NewPattern(c.generator.Generate(ctx, prompt), prompt)
	if err != nil {
		c.logger.Warnf("generator returned an unusable pattern for %q: %v", prompt, err)
		cmd = protocol.Pattern{IntervalsMs: protocol.FallbackPattern(), Label: prompt}
	}
	c.sender.Send(cmd)
	return `Sent "` + prompt + `"`, nil
}

// SendPattern sends caller-supplied intervals.
func (c *Controller) SendPattern(intervalsMs []int, name string) (string, error) {
	cmd, err := protocol.NewPattern(intervalsMs, strings.TrimSpace(name))
	if err != nil {
		return "", err
	}
	c.sender.Send(cmd)
	if cmd.Label == "" {
		return "Sent Custom Pattern", nil
	}
	return `Sent "` + cmd.Label + `"`, nil
}
