package app

import (
	"context"
	"fmt"

	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub/memory"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub/pgbroker"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub/redisbroker"
)

// NewBroker builds the pub/sub primitive selected by broker.kind. The memory
// broker only pairs endpoints living in the same process.
func NewBroker(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (pubsub.Broker, error) {
	switch cfg.Broker.Kind {
	case "memory":
		logger.Warnf("memory broker only pairs endpoints inside this process")
		return memory.New(), nil
	case "redis":
		b, err := redisbroker.New(cfg.Redis, logger.Named("redis"))
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		return b, nil
	case "postgres":
		b, err := pgbroker.New(ctx, cfg.Postgres, logger.Named("postgres"))
		if err != nil {
			return nil, fmt.Errorf("postgres broker: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Broker.Kind)
	}
}
