// Package redisbroker carries the command channel over Redis PUBLISH/SUBSCRIBE,
// which gives per-publisher ordering and fan-out to every subscribed endpoint.
package redisbroker

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

type Broker struct {
	client *redis.Client
	logger *Logger.Logger
}

func New(cfg config.RedisConfig, logger *Logger.Logger) (*Broker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Pass,
		DB:       cfg.DB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Broker{client: client, logger: logger}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.client.WithContext(ctx).Publish(channel, payload).Err()
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	ps := b.client.Subscribe(channel)
	// wait for the subscribe confirmation so nothing published afterwards is missed
	if _, err := ps.Receive(); err != nil {
		ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	sub := &subscription{
		ps:   ps,
		out:  make(chan []byte, 32),
		done: make(chan struct{}),
	}
	go sub.forward(b.logger)
	return sub, nil
}

func (b *Broker) Close() error {
	return b.client.Close()
}

type subscription struct {
	ps   *redis.PubSub
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (s *subscription) forward(logger *Logger.Logger) {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		select {
		case s.out <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
	logger.Debugf("redis subscription channel closed")
}

func (s *subscription) Messages() <-chan []byte {
	return s.out
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}

var _ pubsub.Broker = (*Broker)(nil)
