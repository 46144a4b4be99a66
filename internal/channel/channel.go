// Package channel is the command channel: it marshals protocol commands onto
// a named pub/sub channel and hands valid inbound commands to one handler.
package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

type Handler func(protocol.Command)

type Options struct {
	Name           string
	OutboxBytes    int
	PublishTimeout time.Duration
	DrainTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.OutboxBytes <= 0 {
		o.OutboxBytes = 64 * 1024
	}
	if o.PublishTimeout <= 0 {
		o.PublishTimeout = 2 * time.Second
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = time.Second
	}
	return o
}

// Channel is owned by one endpoint; open it at startup and Close it at
// shutdown. Send never blocks and never reports delivery failures.
type Channel struct {
	opts    Options
	broker  pubsub.Broker
	logger  *Logger.Logger
	metrics *metrics.Metrics

	box  *outbox
	wake chan struct{}

	mu         sync.Mutex
	handler    Handler
	handlerSeq uint64

	sub       pubsub.Subscription
	ctx       context.Context
	cancel    context.CancelFunc
	publishWg sync.WaitGroup
	receiveWg sync.WaitGroup
	closeOnce sync.Once
}

// Open subscribes to opts.Name right away, so the endpoint also observes the
// commands it sends itself.
func Open(ctx context.Context, broker pubsub.Broker, opts Options, logger *Logger.Logger, m *metrics.Metrics) (*Channel, error) {
	if opts.Name == "" {
		return nil, errors.New("channel name is required")
	}
	opts = opts.withDefaults()

	sub, err := broker.Subscribe(ctx, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", opts.Name, err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		opts:    opts,
		broker:  broker,
		logger:  logger,
		metrics: m,
		box:     newOutbox(opts.OutboxBytes),
		wake:    make(chan struct{}, 1),
		sub:     sub,
		ctx:     cctx,
		cancel:  cancel,
	}

	c.publishWg.Add(1)
	go c.publishLoop()
	c.receiveWg.Add(1)
	go c.receiveLoop()

	logger.Infof("command channel %q open", opts.Name)
	return c, nil
}

func (c *Channel) Name() string {
	return c.opts.Name
}

// Send enqueues cmd for every subscriber on the channel.
func (c *Channel) Send(cmd protocol.Command) {
	if c.ctx.Err() != nil {
		c.logger.Debugf("channel closed, dropping %s", protocol.Describe(cmd))
		return
	}

	frame, err := protocol.Encode(cmd)
	if err != nil {
		c.logger.Warnf("refusing to send invalid command: %v", err)
		c.metrics.IncDropped("invalid_outbound")
		return
	}

	evicted, err := c.box.enqueue(frame)
	if err != nil {
		c.logger.Warnf("outbox rejected %s: %v", protocol.Describe(cmd), err)
		c.metrics.IncDropped("outbox")
		return
	}
	if evicted > 0 {
		c.logger.Warnf("outbox full, evicted %d older commands", evicted)
		c.metrics.AddOutboxEvictions(evicted)
	}
	c.metrics.IncSent(string(cmd.Kind()))

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Subscription detaches its handler on Cancel. Cancelling a handle whose
// handler was already replaced does nothing.
type Subscription struct {
	c    *Channel
	id   uint64
	once sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.c.mu.Lock()
		defer s.c.mu.Unlock()
		if s.c.handlerSeq == s.id {
			s.c.handler = nil
		}
	})
}

// Subscribe installs h as the only handler, replacing any previous one.
func (c *Channel) Subscribe(h Handler) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlerSeq++
	c.handler = h
	return &Subscription{c: c, id: c.handlerSeq}
}

func (c *Channel) currentHandler() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

func (c *Channel) receiveLoop() {
	defer c.receiveWg.Done()
	for payload := range c.sub.Messages() {
		c.deliver(payload)
	}
}

func (c *Channel) deliver(payload []byte) {
	cmd, err := protocol.Decode(payload)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, protocol.ErrUnknownType) {
			reason = "unknown_type"
		}
		c.logger.Debugf("dropping inbound payload: %v", err)
		c.metrics.IncDropped(reason)
		return
	}

	h := c.currentHandler()
	if h == nil {
		c.metrics.IncDropped("no_handler")
		return
	}
	c.metrics.IncReceived(string(cmd.Kind()))
	h(cmd)
}

func (c *Channel) publishLoop() {
	defer c.publishWg.Done()
	for {
		select {
		case <-c.ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), c.opts.DrainTimeout)
			c.flush(drainCtx)
			cancel()
			return
		case <-c.wake:
			c.flush(c.ctx)
		}
	}
}

// flush publishes queued frames in order until the outbox is empty.
func (c *Channel) flush(ctx context.Context) {
	for ctx.Err() == nil {
		frame, ok := c.box.dequeue()
		if !ok {
			return
		}
		pctx, cancel := context.WithTimeout(ctx, c.opts.PublishTimeout)
		err := c.broker.Publish(pctx, c.opts.Name, frame)
		cancel()
		if err != nil {
			c.logger.Warnf("publish on %q failed: %v", c.opts.Name, err)
			c.metrics.IncPublishFailures()
		}
	}
}

// Close flushes what is still queued (bounded by DrainTimeout), then stops
// receiving. It does not close the broker.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.publishWg.Wait()
		err = c.sub.Close()
		c.receiveWg.Wait()
		c.logger.Infof("command channel %q closed", c.opts.Name)
	})
	return err
}
