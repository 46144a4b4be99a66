package websocket

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeInit    MessageType = "init"
	MessageTypeVibrate MessageType = "vibrate"
	MessageTypeStatus  MessageType = "status"
	MessageTypePing    MessageType = "ping"
	MessageTypePong    MessageType = "pong"
	MessageTypeError   MessageType = "error"
)

// Reasons carried by vibrate messages.
const (
	ReasonUnlock  = "unlock"
	ReasonCommand = "command"
	ReasonStop    = "stop"
)

// WSMessage represents the structure of WebSocket messages
type WSMessage struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	SessionID string      `json:"sessionId,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// VibrateMessage asks the device to run navigator.vibrate-style intervals.
// [0] stops.
type VibrateMessage struct {
	Pattern []int  `json:"pattern"`
	Reason  string `json:"reason"`
}

// StatusMessage mirrors the playback session.
type StatusMessage struct {
	Status      string     `json:"status"`
	Label       string     `json:"label,omitempty"`
	ExpectedEnd *time.Time `json:"expectedEnd,omitempty"`
	Generation  uint64     `json:"generation"`
	Text        string     `json:"text"`
}

// InitMessage is sent by the device after connecting.
type InitMessage struct {
	Name       string `json:"name,omitempty"`
	CanVibrate *bool  `json:"canVibrate,omitempty"`
}

// ErrorMessage contains error information
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
