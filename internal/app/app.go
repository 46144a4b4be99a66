package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xpanvictor/vibesync/internal/actuator"
	"github.com/xpanvictor/vibesync/internal/channel"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/internal/controller"
	"github.com/xpanvictor/vibesync/internal/generator"
	"github.com/xpanvictor/vibesync/internal/handlers"
	"github.com/xpanvictor/vibesync/internal/handlers/websocket"
	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/playback"
	"github.com/xpanvictor/vibesync/internal/server"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
)

// App represents one endpoint with all its dependencies
type App struct {
	Config     *config.Settings
	Logger     *Logger.Logger
	Metrics    *metrics.Metrics
	Broker     pubsub.Broker
	Channel    *channel.Channel
	Devices    *websocket.ConnectionManager
	Actuator   actuator.Actuator
	Player     *playback.Player
	Generator  generator.Generator
	Controller *controller.Controller
	ServerDeps server.Dependencies

	clock        playback.Clock
	subscription *channel.Subscription
	wsHandler    *websocket.WebSocketHandler

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*App)

// WithClock replaces the wall clock used for auto-reset timers.
func WithClock(c playback.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithActuator forces an actuator instead of WebSocket devices or the log
// actuator.
func WithActuator(act actuator.Actuator) Option {
	return func(a *App) { a.Actuator = act }
}

// NewApp creates a new endpoint with all dependencies wired. The broker is
// owned by the caller.
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger, broker pubsub.Broker, opts ...Option) (*App, error) {
	if cfg.EndpointName == "" {
		cfg.EndpointName = "endpoint-" + uuid.NewString()[:8]
	}
	app := &App{
		Config:  cfg,
		Logger:  logger.With("endpoint", cfg.EndpointName),
		Metrics: metrics.New(),
		Broker:  broker,
		clock:   playback.RealClock(),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.setupDependencies(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies(ctx context.Context) error {
	cfg := a.Config

	// 1. Command channel; subscribes immediately
	ch, err := channel.Open(ctx, a.Broker, channel.Options{
		Name:        cfg.Broker.Channel,
		OutboxBytes: cfg.Broker.OutboxBytes,
	}, a.Logger.Named("channel"), a.Metrics)
	if err != nil {
		return fmt.Errorf("open command channel: %w", err)
	}
	a.Channel = ch

	// 2. Actuator
	switch {
	case a.Actuator != nil:
	case cfg.Playback.Headless:
		a.Actuator = actuator.NewLogActuator(a.Logger.Named("actuator"))
	default:
		a.Devices = websocket.NewConnectionManager(a.Logger.Named("devices"), a.Metrics, cfg.Server.DeviceTimeout)
		a.wsHandler = websocket.NewWebSocketHandler(a.Logger.Named("ws"), a.Devices, cfg.Server.AllowedOrigins)
		a.Actuator = a.Devices
	}

	// 3. Playback state machine, fed by the channel
	machine := playback.NewMachine(a.Actuator, a.Logger.Named("playback"), a.Metrics)
	a.Player = playback.NewPlayer(machine, a.clock, a.Logger.Named("player"), a.Metrics, cfg.Playback.QueueSize)
	if a.Devices != nil {
		a.Player.Watch(a.Devices.PublishStatus)
	}
	a.subscription = a.Channel.Subscribe(a.Player.Handle)

	// 4. Sending side
	gen, err := generator.FromConfig(ctx, *cfg, a.Logger.Named("generator"), a.Metrics)
	if err != nil {
		return fmt.Errorf("pattern generator: %w", err)
	}
	a.Generator = gen
	a.Controller = controller.New(a.Channel, gen, controller.Options{
		PresetPulse: cfg.Playback.PresetPulse(),
		HoldCeiling: cfg.Playback.HoldCeiling(),
	}, a.Logger.Named("controller"))

	// 5. HTTP surface
	a.ServerDeps = server.NewServerDependencies(
		handlers.NewHapticsHandler(a.Controller, a.Player, a.Logger.Named("http")),
		a.wsHandler,
		a.Metrics,
		a.Logger,
		cfg.EndpointName,
	)
	return nil
}

// Start runs the playback loop until Close.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})
	go func() {
		defer close(a.done)
		if err := a.Player.Run(ctx); err != nil {
			a.Logger.Errorf("player stopped: %v", err)
		}
	}()
	a.Logger.Infof("endpoint %s listening on channel %q", a.Config.EndpointName, a.Channel.Name())
}

func (a *App) Router() *gin.Engine {
	r := gin.New()
	server.InitializeRoutes(a.Config, r, a.ServerDeps)
	return r
}

// Close stops receiving, halts playback, drains the outbox and drops
// devices, in that order. The broker is left open.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		if a.subscription != nil {
			a.subscription.Cancel()
		}

		a.mu.Lock()
		cancel, done := a.cancel, a.done
		a.mu.Unlock()
		if cancel != nil {
			cancel()
			<-done
		}

		if a.Channel != nil {
			if err := a.Channel.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if a.wsHandler != nil {
			if err := a.wsHandler.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if c, ok := a.Generator.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
