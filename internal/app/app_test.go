package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/vibesync/internal/actuator"
	"github.com/xpanvictor/vibesync/internal/config"
	"github.com/xpanvictor/vibesync/internal/playback"
	"github.com/xpanvictor/vibesync/pkg/Logger"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub"
	"github.com/xpanvictor/vibesync/pkg/io/pubsub/memory"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type endpoint struct {
	app   *App
	rec   *actuator.Recorder
	clock *playback.ManualClock
}

func testSettings(t *testing.T, name string) *config.Settings {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New())
	require.NoError(t, err)
	cfg.EndpointName = name
	cfg.Playback.Headless = true
	cfg.Generator.Kind = "static"
	return cfg
}

func startEndpoint(t *testing.T, broker pubsub.Broker, name string) endpoint {
	t.Helper()
	rec := actuator.NewRecorder(true)
	clock := playback.NewManualClock(epoch)

	a, err := NewApp(context.Background(), testSettings(t, name), Logger.NewNop(), broker,
		WithActuator(rec), WithClock(clock))
	require.NoError(t, err)
	a.Start()
	t.Cleanup(func() { _ = a.Close() })
	return endpoint{app: a, rec: rec, clock: clock}
}

func (e endpoint) session(t *testing.T) playback.Session {
	t.Helper()
	s, err := e.app.Player.Session(context.Background())
	require.NoError(t, err)
	return s
}

func (e endpoint) eventuallyCalls(t *testing.T, want [][]int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, e.rec.Calls())
	}, 2*time.Second, 5*time.Millisecond, "actuator calls: %v", e.rec.Calls())
}

func TestPairedEndpoints_PulseReachesBoth(t *testing.T) {
	broker := memory.New()
	defer broker.Close()

	alice := startEndpoint(t, broker, "alice")
	bob := startEndpoint(t, broker, "bob")

	notice, err := alice.app.Controller.Pulse(10 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Sent 10s Vibrate", notice)

	want := [][]int{{0}, {10000}}
	alice.eventuallyCalls(t, want)
	bob.eventuallyCalls(t, want)

	s := bob.session(t)
	assert.Equal(t, playback.StatusActive, s.Status)
	assert.Equal(t, playback.LabelContinuous, s.Label)
	require.NotNil(t, s.ExpectedEnd)
	assert.True(t, epoch.Add(10*time.Second).Equal(*s.ExpectedEnd))

	bob.clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool {
		return !bob.session(t).Active()
	}, 2*time.Second, 5*time.Millisecond)

	// alice's clock has not moved
	assert.True(t, alice.session(t).Active())
}

func TestPairedEndpoints_StopOverHTTP(t *testing.T) {
	broker := memory.New()
	defer broker.Close()

	alice := startEndpoint(t, broker, "alice")
	bob := startEndpoint(t, broker, "bob")

	_, err := bob.app.Controller.SendPattern([]int{300, 100, 300}, "triple")
	require.NoError(t, err)
	alice.eventuallyCalls(t, [][]int{{0}, {300, 100, 300}})
	assert.Equal(t, "triple", alice.session(t).Label)

	router := alice.app.Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/stop", nil))
	require.Equal(t, http.StatusAccepted, w.Code)

	bob.eventuallyCalls(t, [][]int{{0}, {300, 100, 300}, {0}})
	s := bob.session(t)
	assert.False(t, s.Active())
	assert.Equal(t, uint64(2), s.Generation)
}

func TestNewApp_DefaultsEndpointName(t *testing.T) {
	broker := memory.New()
	defer broker.Close()

	cfg := testSettings(t, "")
	a, err := NewApp(context.Background(), cfg, Logger.NewNop(), broker)
	require.NoError(t, err)
	defer a.Close()

	assert.Regexp(t, `^endpoint-[0-9a-f]{8}$`, cfg.EndpointName)
	assert.Nil(t, a.Devices, "headless endpoints drive no devices")
	assert.IsType(t, &actuator.LogActuator{}, a.Actuator)
}

func TestNewApp_UnknownGenerator(t *testing.T) {
	broker := memory.New()
	defer broker.Close()

	cfg := testSettings(t, "x")
	cfg.Generator.Kind = "crystal-ball"
	_, err := NewApp(context.Background(), cfg, Logger.NewNop(), broker)
	require.Error(t, err)
}

func TestNewBroker(t *testing.T) {
	cfg := testSettings(t, "x")
	b, err := NewBroker(context.Background(), cfg, Logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	cfg.Broker.Kind = "carrier-pigeon"
	_, err = NewBroker(context.Background(), cfg, Logger.NewNop())
	require.Error(t, err)
}
