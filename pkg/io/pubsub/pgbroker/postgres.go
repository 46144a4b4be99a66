// Package pgbroker carries the command channel over Postgres LISTEN/NOTIFY.
// Notifications from one session are delivered in commit order, which gives
// the per-sender FIFO the command channel needs.
package pgbroker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

// NOTIFY payloads are capped by the server.
const maxPayload = 7999

type Broker struct {
	dsn    string
	pool   *pgxpool.Pool
	logger *Logger.Logger
}

func New(ctx context.Context, cfg config.PostgresConfig, logger *Logger.Logger) (*Broker, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &Broker{dsn: cfg.DSN, pool: pool, logger: logger}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	if len(payload) > maxPayload {
		return fmt.Errorf("payload of %d bytes exceeds notify limit", len(payload))
	}
	_, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload))
	return err
}

// Subscribe dedicates one connection to LISTEN on channel.
func (b *Broker) Subscribe(ctx context.Context, channel string) (pubsub.Subscription, error) {
	conn, err := pgx.Connect(ctx, b.dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres listen connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("postgres listen %s: %w", channel, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{
		conn:    conn,
		out:     make(chan []byte, 32),
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
	go sub.listen(loopCtx, b.logger)
	return sub, nil
}

func (b *Broker) Close() error {
	b.pool.Close()
	return nil
}

type subscription struct {
	conn    *pgx.Conn
	out     chan []byte
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
}

func (s *subscription) listen(ctx context.Context, logger *Logger.Logger) {
	defer close(s.stopped)
	defer close(s.out)
	for {
		n, err := s.conn.WaitForNotification(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Errorf("postgres listen stopped: %v", err)
			}
			return
		}
		select {
		case s.out <- []byte(n.Payload):
		case <-ctx.Done():
			return
		}
	}
}

func (s *subscription) Messages() <-chan []byte {
	return s.out
}

func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		err = s.conn.Close(context.Background())
	})
	return err
}

var _ pubsub.Broker = (*Broker)(nil)
