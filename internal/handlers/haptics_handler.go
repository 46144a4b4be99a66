package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/vibesync/internal/controller"
	"github.com/xpanvictor/vibesync/internal/playback"
	"github.com/xpanvictor/vibesync/internal/protocol"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// SessionSource is satisfied by *playback.Player.
type SessionSource interface {
	Session(ctx context.Context) (playback.Session, error)
}

// HapticsHandler exposes the controller and the local playback session.
type HapticsHandler struct {
	controller *controller.Controller
	sessions   SessionSource
	logger     *Logger.Logger
}

func NewHapticsHandler(ctrl *controller.Controller, sessions SessionSource, logger *Logger.Logger) *HapticsHandler {
	return &HapticsHandler{
		controller: ctrl,
		sessions:   sessions,
		logger:     logger,
	}
}

func (h *HapticsHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.POST("/pulse", h.Pulse)
		api.POST("/stop", h.Stop)
		api.POST("/hold/start", h.HoldStart)
		api.POST("/hold/end", h.HoldEnd)
		api.POST("/pattern", h.GeneratePattern)
		api.POST("/pattern/raw", h.SendPattern)
		api.GET("/session", h.GetSession)
	}
}

// Pulse handles a continuous vibration request
// @Summary Send a continuous vibration
// @Description Sends SIMPLE to every paired endpoint. Without a body the preset duration is used.
// @Tags Haptics
// @Accept json
// @Produce json
// @Param request body PulseRequest false "Pulse duration"
// @Success 202 {object} NoticeResponse "Command queued"
// @Failure 400 {object} ErrorResponse "Invalid duration"
// @Router /api/pulse [post]
func (h *HapticsHandler) Pulse(c *gin.Context) {
	var req PulseRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	var (
		notice string
		err    error
	)
	if req.DurationMs == nil {
		notice, err = h.controller.Preset()
	} else if err = (protocol.Simple{DurationMs: *req.DurationMs}).Validate(); err == nil {
		notice, err = h.controller.Pulse(time.Duration(*req.DurationMs) * time.Millisecond)
	}
	if err != nil {
		commandError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NoticeResponse{Notice: notice})
}

// Stop handles stop requests
// @Summary Stop vibration everywhere
// @Tags Haptics
// @Produce json
// @Success 202 {object} NoticeResponse "Command queued"
// @Router /api/stop [post]
func (h *HapticsHandler) Stop(c *gin.Context) {
	c.JSON(http.StatusAccepted, NoticeResponse{Notice: h.controller.Stop()})
}

// HoldStart handles the press half of the hold gesture
// @Summary Start holding
// @Description Sends a long SIMPLE capped at the hold ceiling. Ignored while already held.
// @Tags Haptics
// @Produce json
// @Success 200 {object} HoldResponse
// @Router /api/hold/start [post]
func (h *HapticsHandler) HoldStart(c *gin.Context) {
	accepted := h.controller.HoldStart()
	c.JSON(http.StatusOK, HoldResponse{Accepted: accepted, Holding: h.controller.Holding()})
}

// HoldEnd handles the release half of the hold gesture
// @Summary Stop holding
// @Description Sends STOP. Ignored when nothing is held.
// @Tags Haptics
// @Produce json
// @Success 200 {object} HoldResponse
// @Router /api/hold/end [post]
func (h *HapticsHandler) HoldEnd(c *gin.Context) {
	accepted := h.controller.HoldEnd()
	c.JSON(http.StatusOK, HoldResponse{Accepted: accepted, Holding: h.controller.Holding()})
}

// GeneratePattern handles generated pattern requests
// @Summary Send a generated pattern
// @Description Turns a description into a pattern and sends it. Generation failures fall back to a short default.
// @Tags Haptics
// @Accept json
// @Produce json
// @Param request body PromptRequest true "Pattern description"
// @Success 202 {object} NoticeResponse "Command queued"
// @Failure 400 {object} ErrorResponse "Empty prompt"
// @Router /api/pattern [post]
func (h *HapticsHandler) GeneratePattern(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	notice, err := h.controller.SendPrompt(c.Request.Context(), req.Prompt)
	if err != nil {
		commandError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NoticeResponse{Notice: notice})
}

// SendPattern handles explicit pattern requests
// @Summary Send an explicit pattern
// @Tags Haptics
// @Accept json
// @Produce json
// @Param request body PatternRequest true "Intervals in milliseconds"
// @Success 202 {object} NoticeResponse "Command queued"
// @Failure 400 {object} ErrorResponse "Invalid pattern"
// @Router /api/pattern/raw [post]
func (h *HapticsHandler) SendPattern(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	notice, err := h.controller.SendPattern(req.Pattern, req.Name)
	if err != nil {
		commandError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, NoticeResponse{Notice: notice})
}

// GetSession handles session lookups
// @Summary Local playback session
// @Tags Haptics
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 503 {object} ErrorResponse "Player not running"
// @Router /api/session [get]
func (h *HapticsHandler) GetSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	s, err := h.sessions.Session(ctx)
	if err != nil {
		h.logger.Warnf("session lookup failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Playback unavailable"})
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(s))
}
