// Package pubsub is the broadcast primitive endpoints share: every payload
// published on a named channel reaches every subscription on that channel,
// the publisher's own included.
package pubsub

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("pubsub: closed")

type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}

// Subscription delivers raw payloads until closed. Payloads from a single
// publisher arrive in publish order.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}
