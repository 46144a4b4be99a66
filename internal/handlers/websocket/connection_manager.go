package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/vibesync/internal/actuator"
	"github.com/xpanvictor/vibesync/internal/metrics"
	"github.com/xpanvictor/vibesync/internal/playback"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// ConnectionManager tracks connected devices and is the endpoint's actuator:
// vibration requests fan out to every device that can vibrate.
type ConnectionManager struct {
	logger         *Logger.Logger
	metrics        *metrics.Metrics
	sessions       map[uuid.UUID]*Session
	mutex          sync.RWMutex
	cleanupTicker  *time.Ticker
	stopCleanup    chan struct{}
	closeOnce      sync.Once
	sessionTimeout time.Duration

	statusMu   sync.RWMutex
	lastStatus StatusMessage
}

var _ actuator.Actuator = (*ConnectionManager)(nil)

// NewConnectionManager creates a new connection manager. Devices silent for
// longer than sessionTimeout are dropped.
func NewConnectionManager(logger *Logger.Logger, m *metrics.Metrics, sessionTimeout time.Duration) *ConnectionManager {
	if sessionTimeout <= 0 {
		sessionTimeout = 30 * time.Minute
	}
	cm := &ConnectionManager{
		logger:         logger,
		metrics:        m,
		sessions:       make(map[uuid.UUID]*Session),
		stopCleanup:    make(chan struct{}),
		sessionTimeout: sessionTimeout,
		lastStatus:     statusFrom(playback.Session{Status: playback.StatusIdle}),
	}

	cm.startCleanupRoutine(cleanupInterval(sessionTimeout))
	return cm
}

func cleanupInterval(timeout time.Duration) time.Duration {
	interval := timeout / 6
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

// RegisterConnection registers a device, replacing a previous connection
// with the same device ID.
func (cm *ConnectionManager) RegisterConnection(session *Session) {
	cm.mutex.Lock()
	if old, exists := cm.sessions[session.DeviceID]; exists && old != session {
		cm.logger.Infof("Device %s reconnected, closing previous session %s", session.DeviceID, old.SessionID)
		old.Close()
	}
	cm.sessions[session.DeviceID] = session
	count := len(cm.sessions)
	cm.mutex.Unlock()

	cm.metrics.SetDevicesConnected(count)
	cm.logger.Infof("Registered device %s %q (session: %s)", session.DeviceID, session.Name(), session.SessionID)
}

// UnregisterConnection removes a session if it is still the current one
// for its device.
func (cm *ConnectionManager) UnregisterConnection(session *Session) {
	cm.mutex.Lock()
	current, exists := cm.sessions[session.DeviceID]
	if exists && current == session {
		delete(cm.sessions, session.DeviceID)
	}
	count := len(cm.sessions)
	cm.mutex.Unlock()

	if err := session.Close(); err != nil {
		cm.logger.Debugf("Error closing session for device %s: %v", session.DeviceID, err)
	}
	cm.metrics.SetDevicesConnected(count)
	cm.logger.Infof("Unregistered device %s (session: %s)", session.DeviceID, session.SessionID)
}

func (cm *ConnectionManager) GetSession(deviceID uuid.UUID) (*Session, bool) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	session, exists := cm.sessions[deviceID]
	return session, exists
}

func (cm *ConnectionManager) GetSessionCount() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return len(cm.sessions)
}

func (cm *ConnectionManager) snapshot() []*Session {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	sessions := make([]*Session, 0, len(cm.sessions))
	for _, session := range cm.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// BroadcastMessage broadcasts a message to all connected devices
func (cm *ConnectionManager) BroadcastMessage(msgType MessageType, data interface{}) int {
	delivered := 0
	for _, session := range cm.snapshot() {
		if err := session.SendWebSocketMessage(msgType, data); err != nil {
			cm.logger.Errorf("Failed to send %s to device %s: %v", msgType, session.DeviceID, err)
			continue
		}
		delivered++
	}
	return delivered
}

// Actuate queues the intervals for every vibrating device and does not wait
// for the writes. It is accepted when at least one device queue took it; a
// stop is always accepted.
func (cm *ConnectionManager) Actuate(intervalsMs []int) bool {
	reason := ReasonCommand
	if actuator.IsStop(intervalsMs) {
		reason = ReasonStop
	}

	delivered := 0
	for _, session := range cm.snapshot() {
		if !session.CanVibrate() {
			continue
		}
		if err := session.Vibrate(intervalsMs, reason); err != nil {
			cm.logger.Warnf("Device %s missed vibrate: %v", session.DeviceID, err)
			continue
		}
		delivered++
	}

	if reason == ReasonStop {
		return true
	}
	if delivered == 0 {
		cm.logger.Debugf("No device accepted vibrate %v", intervalsMs)
		return false
	}
	return true
}

// PublishStatus pushes the playback session to every device. It has the
// playback.Player watcher signature.
func (cm *ConnectionManager) PublishStatus(s playback.Session) {
	status := statusFrom(s)
	cm.statusMu.Lock()
	cm.lastStatus = status
	cm.statusMu.Unlock()

	cm.BroadcastMessage(MessageTypeStatus, status)
}

// LastStatus is sent to devices as they connect.
func (cm *ConnectionManager) LastStatus() StatusMessage {
	cm.statusMu.RLock()
	defer cm.statusMu.RUnlock()
	return cm.lastStatus
}

func statusFrom(s playback.Session) StatusMessage {
	return StatusMessage{
		Status:      string(s.Status),
		Label:       s.Label,
		ExpectedEnd: s.ExpectedEnd,
		Generation:  s.Generation,
		Text:        s.StatusLine(),
	}
}

func (cm *ConnectionManager) startCleanupRoutine(interval time.Duration) {
	cm.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-cm.cleanupTicker.C:
				cm.cleanupExpiredSessions()
			case <-cm.stopCleanup:
				cm.cleanupTicker.Stop()
				return
			}
		}
	}()
}

// cleanupExpiredSessions removes expired sessions
func (cm *ConnectionManager) cleanupExpiredSessions() {
	cm.mutex.Lock()
	expired := make([]*Session, 0)
	for deviceID, session := range cm.sessions {
		if session.IsExpired(cm.sessionTimeout) {
			expired = append(expired, session)
			delete(cm.sessions, deviceID)
		}
	}
	count := len(cm.sessions)
	cm.mutex.Unlock()

	for _, session := range expired {
		cm.logger.Infof("Cleaning up expired session for device %s", session.DeviceID)
		session.Close()
	}
	if len(expired) > 0 {
		cm.metrics.SetDevicesConnected(count)
		cm.logger.Infof("Cleaned up %d expired sessions", len(expired))
	}
}

// Close shuts down the connection manager
func (cm *ConnectionManager) Close() error {
	cm.closeOnce.Do(func() { close(cm.stopCleanup) })

	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for deviceID, session := range cm.sessions {
		if err := session.Close(); err != nil {
			cm.logger.Errorf("Error closing session for device %s: %v", deviceID, err)
		}
	}
	cm.sessions = make(map[uuid.UUID]*Session)
	cm.metrics.SetDevicesConnected(0)

	cm.logger.Infof("Connection manager closed")
	return nil
}

// GetStats returns connection manager statistics
func (cm *ConnectionManager) GetStats() map[string]interface{} {
	sessions := cm.snapshot()

	devices := make([]map[string]interface{}, 0, len(sessions))
	for _, session := range sessions {
		devices = append(devices, map[string]interface{}{
			"device_id":    session.DeviceID.String(),
			"session_id":   session.SessionID.String(),
			"name":         session.Name(),
			"can_vibrate":  session.CanVibrate(),
			"connected_at": session.ConnectedAt,
			"last_active":  session.LastActive(),
		})
	}

	return map[string]interface{}{
		"active_sessions": len(sessions),
		"session_timeout": cm.sessionTimeout.String(),
		"devices":         devices,
	}
}
