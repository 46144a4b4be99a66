package handlers

import (
	"time"

	"github.com/xpanvictor/vibesync/internal/playback"
)

// Response wrapper types for Swagger documentation

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// NoticeResponse carries the short feedback line shown after sending.
type NoticeResponse struct {
	Notice string `json:"notice" example:"Sent 10s Vibrate"`
}

// HoldResponse reports whether the gesture changed anything.
type HoldResponse struct {
	Accepted bool `json:"accepted"`
	Holding  bool `json:"holding"`
}

// SessionResponse represents the local playback session
type SessionResponse struct {
	Status      playback.Status `json:"status" example:"active"`
	Label       string          `json:"label,omitempty" example:"Continuous"`
	ExpectedEnd *time.Time      `json:"expected_end,omitempty"`
	Generation  uint64          `json:"generation" example:"4"`
	StatusText  string          `json:"status_text" example:"Receiving: Continuous"`
}

// PulseRequest asks for a continuous buzz. DurationMs defaults to the preset.
type PulseRequest struct {
	DurationMs *int `json:"duration_ms,omitempty" example:"10000"`
}

type PromptRequest struct {
	Prompt string `json:"prompt" example:"heartbeat"`
}

type PatternRequest struct {
	Pattern []int  `json:"pattern" binding:"required" example:"500,200,500"`
	Name    string `json:"name,omitempty" example:"double tap"`
}

func newSessionResponse(s playback.Session) SessionResponse {
	return SessionResponse{
		Status:      s.Status,
		Label:       s.Label,
		ExpectedEnd: s.ExpectedEnd,
		Generation:  s.Generation,
		StatusText:  s.StatusLine(),
	}
}
