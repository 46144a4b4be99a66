// Package memory is an in-process broker, the equivalent of two browser tabs
// sharing a BroadcastChannel. Useful for single-host pairing and tests.
package memory

import (
	"context"
	"sync"

	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

const defaultBuffer = 32

type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	closed bool
}

func New() *Broker {
	return NewWithBuffer(defaultBuffer)
}

func NewWithBuffer(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Broker{
		subs:   make(map[string]map[*subscription]struct{}),
		buffer: buffer,
	}
}

// Publish hands payload to every subscriber of channel. A slow subscriber
// applies backpressure to the publisher rather than losing messages.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return pubsub.ErrClosed
	}

	for sub := range b.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, pubsub.ErrClosed
	}

	sub := &subscription{
		broker:  b,
		channel: channel,
		ch:      make(chan []byte, b.buffer),
		done:    make(chan struct{}),
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*subscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub, nil
}

func (b *Broker) Close() error {
	b.mu.RLock()
	all := make([]*subscription, 0)
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range all {
		sub.Close()
	}

	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

type subscription struct {
	broker  *Broker
	channel string
	ch      chan []byte
	done    chan struct{}
	once    sync.Once
}

func (s *subscription) Messages() <-chan []byte {
	return s.ch
}

// Close unblocks any publisher waiting on this subscription before taking
// the write lock, so it never deadlocks against Publish.
func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.broker.mu.Lock()
		delete(s.broker.subs[s.channel], s)
		if len(s.broker.subs[s.channel]) == 0 {
			delete(s.broker.subs, s.channel)
		}
		s.broker.mu.Unlock()
		close(s.ch)
	})
	return nil
}

var _ pubsub.Broker = (*Broker)(nil)
