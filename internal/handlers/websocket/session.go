package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 16
)

var (
	errSessionClosed = errors.New("session not active")
	errSendQueueFull = errors.New("device send queue full")
)

// Session is one connected vibration device.
type Session struct {
	DeviceID  uuid.UUID
	SessionID uuid.UUID
	Conn      *websocket.Conn

	// State
	ConnectedAt time.Time
	lastActive  time.Time
	name        string
	canVibrate  bool
	IsActive    bool
	mutex       sync.RWMutex

	outbound chan WSMessage
	done     chan struct{}
}

// NewSession creates a new device session. Devices are assumed to vibrate
// until they say otherwise in their init message.
func NewSession(deviceID uuid.UUID, name string, conn *websocket.Conn) *Session {
	s := newSession(deviceID, name, conn, sendQueueSize)
	go s.writePump()
	return s
}

func newSession(deviceID uuid.UUID, name string, conn *websocket.Conn, queueSize int) *Session {
	return &Session{
		DeviceID:    deviceID,
		SessionID:   uuid.New(),
		Conn:        conn,
		ConnectedAt: time.Now(),
		lastActive:  time.Now(),
		name:        name,
		canVibrate:  true,
		IsActive:    true,
		outbound:    make(chan WSMessage, queueSize),
		done:        make(chan struct{}),
	}
}

// SendWebSocketMessage queues a message for the device and returns without
// waiting for the write. A device that stops reading fills its queue and
// further messages are refused.
func (s *Session) SendWebSocketMessage(msgType MessageType, data interface{}) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.IsActive {
		return errSessionClosed
	}

	msg := WSMessage{
		Type:      msgType,
		Data:      data,
		SessionID: s.SessionID.String(),
		Timestamp: time.Now(),
	}

	select {
	case s.outbound <- msg:
		return nil
	default:
		return errSendQueueFull
	}
}

// writePump is the only writer on Conn. A failed write closes the session,
// which also ends the read loop.
func (s *Session) writePump() {
	for {
		select {
		case msg := <-s.outbound:
			if err := s.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.Close()
				return
			}
			if err := s.Conn.WriteJSON(msg); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// SendError sends an error message to the client
func (s *Session) SendError(code, message string) error {
	return s.SendWebSocketMessage(MessageTypeError, ErrorMessage{
		Code:    code,
		Message: message,
	})
}

func (s *Session) Vibrate(pattern []int, reason string) error {
	return s.SendWebSocketMessage(MessageTypeVibrate, VibrateMessage{
		Pattern: pattern,
		Reason:  reason,
	})
}

// ApplyInit records what the device told us about itself.
func (s *Session) ApplyInit(init InitMessage) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if init.Name != "" {
		s.name = init.Name
	}
	if init.CanVibrate != nil {
		s.canVibrate = *init.CanVibrate
	}
}

func (s *Session) Name() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.name
}

func (s *Session) CanVibrate() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.canVibrate
}

// UpdateLastActive updates the last activity timestamp
func (s *Session) UpdateLastActive() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

// Close closes the session. Safe to call more than once.
func (s *Session) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.IsActive {
		return nil
	}
	s.IsActive = false
	close(s.done)
	if s.Conn == nil {
		return nil
	}
	return s.Conn.Close()
}

// IsExpired checks if the session has expired based on inactivity
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return time.Since(s.lastActive) > timeout
}

func (s *Session) IsAlive() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.IsActive
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}
