package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/vibesync/internal/controller"
	"github.com/xpanvictor/vibesync/internal/generator"
	"github.com/xpanvictor/vibesync/internal/playback"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

type captureSender struct {
	mu   sync.Mutex
	sent []protocol.Command
}

func (s *captureSender) Send(cmd protocol.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, cmd)
}

func (s *captureSender) last() protocol.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return nil
	}
	return s.sent[len(s.sent)-1]
}

type fixedSessions struct {
	session playback.Session
	err     error
}

func (f fixedSessions) Session(context.Context) (playback.Session, error) {
	return f.session, f.err
}

func newRouter(sessions SessionSource) (*gin.Engine, *captureSender) {
	gin.SetMode(gin.TestMode)
	sender := &captureSender{}
	ctrl := controller.New(sender, generator.NewStatic(), controller.Options{
		PresetPulse: 10 * time.Second,
		HoldCeiling: 30 * time.Second,
	}, Logger.NewNop())

	r := gin.New()
	NewHapticsHandler(ctrl, sessions, Logger.NewNop()).RegisterRoutes(r)
	return r, sender
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPulse_DefaultsToPreset(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	w := do(r, http.MethodPost, "/api/pulse", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Sent 10s Vibrate", decode[NoticeResponse](t, w).Notice)
	assert.Equal(t, protocol.Simple{DurationMs: 10000}, sender.last())
}

func TestPulse_CustomDuration(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	w := do(r, http.MethodPost, "/api/pulse", `{"duration_ms":2500}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Sent 2.5s Vibrate", decode[NoticeResponse](t, w).Notice)
	assert.Equal(t, protocol.Simple{DurationMs: 2500}, sender.last())

	w = do(r, http.MethodPost, "/api/pulse", `{"duration_ms":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/pulse", `{"duration_ms":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPulse_RejectsOversizedDuration(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	for _, body := range []string{
		`{"duration_ms":9300000000000}`,
		`{"duration_ms":18446744073709}`,
		`{"duration_ms":86400001}`,
	} {
		w := do(r, http.MethodPost, "/api/pulse", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Nil(t, sender.last())
}

func TestStopAndHold(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	w := do(r, http.MethodPost, "/api/stop", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Sent Stop", decode[NoticeResponse](t, w).Notice)

	w = do(r, http.MethodPost, "/api/hold/start", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, HoldResponse{Accepted: true, Holding: true}, decode[HoldResponse](t, w))
	assert.Equal(t, protocol.Simple{DurationMs: 30000}, sender.last())

	w = do(r, http.MethodPost, "/api/hold/start", "")
	assert.Equal(t, HoldResponse{Accepted: false, Holding: true}, decode[HoldResponse](t, w))

	w = do(r, http.MethodPost, "/api/hold/end", "")
	assert.Equal(t, HoldResponse{Accepted: true, Holding: false}, decode[HoldResponse](t, w))
	assert.Equal(t, protocol.Stop{}, sender.last())
}

func TestGeneratePattern(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	w := do(r, http.MethodPost, "/api/pattern", `{"prompt":"heartbeat"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, `Sent "heartbeat"`, decode[NoticeResponse](t, w).Notice)
	assert.Equal(t, protocol.Pattern{IntervalsMs: protocol.DefaultPattern(), Label: "heartbeat"}, sender.last())

	w = do(r, http.MethodPost, "/api/pattern", `{"prompt":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Prompt is required", decode[ErrorResponse](t, w).Error)
}

func TestSendRawPattern(t *testing.T) {
	r, sender := newRouter(fixedSessions{})

	w := do(r, http.MethodPost, "/api/pattern/raw", `{"pattern":[500,200,500],"name":"double"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, protocol.Pattern{IntervalsMs: []int{500, 200, 500}, Label: "double"}, sender.last())

	for _, body := range []string{`{"pattern":[]}`, `{"pattern":[0,-5]}`, `{}`} {
		w = do(r, http.MethodPost, "/api/pattern/raw", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestGetSession(t *testing.T) {
	end := time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC)
	r, _ := newRouter(fixedSessions{session: playback.Session{
		Status:      playback.StatusActive,
		Label:       "Continuous",
		ExpectedEnd: &end,
		Generation:  7,
	}})

	w := do(r, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[SessionResponse](t, w)
	assert.Equal(t, playback.StatusActive, got.Status)
	assert.Equal(t, "Receiving: Continuous", got.StatusText)
	assert.Equal(t, uint64(7), got.Generation)
	require.NotNil(t, got.ExpectedEnd)
	assert.True(t, end.Equal(*got.ExpectedEnd))
}

func TestGetSession_PlayerStopped(t *testing.T) {
	r, _ := newRouter(fixedSessions{err: errors.New("stopped")})

	w := do(r, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
