package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/vibesync/pkg/Logger"
)

// UnlockPulseMs is sent to every device on connect. Browsers only allow
// vibration after a user gesture has triggered one.
const UnlockPulseMs = 50

// WebSocketHandler attaches vibration devices to the endpoint.
type WebSocketHandler struct {
	logger            *Logger.Logger
	connectionManager *ConnectionManager
	upgrader          websocket.Upgrader
}

type inboundMessage struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewWebSocketHandler(logger *Logger.Logger, manager *ConnectionManager, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		logger:            logger,
		connectionManager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin:     originChecker(allowedOrigins),
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(origin, o) {
				return true
			}
		}
		return false
	}
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router gin.IRouter) {
	ws := router.Group("/ws")
	{
		ws.GET("/device", h.HandleDevice)
		ws.GET("/stats", h.HandleStats)
	}
}

// HandleDevice godoc
// @Summary      Attach a vibration device
// @Description  Upgrades to a WebSocket. The device receives vibrate and status messages.
// @Tags         devices
// @Param        deviceId  query  string  false  "Stable device id (uuid); generated when absent"
// @Param        name      query  string  false  "Display name"
// @Router       /ws/device [get]
func (h *WebSocketHandler) HandleDevice(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	deviceID := uuid.New()
	if raw := c.Query("deviceId"); raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			deviceID = parsed
		} else {
			h.logger.Warnf("Invalid deviceId format received: '%s', generating new UUID", raw)
		}
	}

	session := NewSession(deviceID, c.Query("name"), conn)
	h.connectionManager.RegisterConnection(session)
	defer h.connectionManager.UnregisterConnection(session)

	if err := session.SendWebSocketMessage(MessageTypeInit, map[string]interface{}{
		"status":    "connected",
		"deviceId":  session.DeviceID.String(),
		"sessionId": session.SessionID.String(),
	}); err != nil {
		h.logger.Errorf("Failed to greet device %s: %v", deviceID, err)
		return
	}
	if err := session.Vibrate([]int{UnlockPulseMs}, ReasonUnlock); err != nil {
		h.logger.Warnf("Failed to unlock device %s: %v", deviceID, err)
	}
	if err := session.SendWebSocketMessage(MessageTypeStatus, h.connectionManager.LastStatus()); err != nil {
		h.logger.Warnf("Failed to send status to device %s: %v", deviceID, err)
	}

	h.handleConnection(session)
}

// HandleStats provides connection statistics
func (h *WebSocketHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.connectionManager.GetStats(),
	})
}

func (h *WebSocketHandler) handleConnection(session *Session) {
	h.logger.Debugf("Starting WebSocket connection handling for session %s", session.SessionID)

	for {
		messageType, data, err := session.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && session.IsAlive() {
				h.logger.Errorf("WebSocket read error: %v", err)
			} else {
				h.logger.Infof("WebSocket connection closed for session %s", session.SessionID)
			}
			return
		}

		session.UpdateLastActive()

		switch messageType {
		case websocket.TextMessage:
			h.handleTextMessage(session, data)
		case websocket.BinaryMessage:
			session.SendError("UNSUPPORTED", "binary frames are not supported")
		}
	}
}

func (h *WebSocketHandler) handleTextMessage(session *Session, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Debugf("Failed to unmarshal WebSocket message: %v", err)
		session.SendError("INVALID_MESSAGE", "Invalid message format")
		return
	}

	switch msg.Type {
	case MessageTypeInit:
		var init InitMessage
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &init); err != nil {
				session.SendError("INVALID_MESSAGE", "Invalid init payload")
				return
			}
		}
		session.ApplyInit(init)
		h.logger.Infof("Device %s initialised as %q (vibrate: %t)", session.DeviceID, session.Name(), session.CanVibrate())
		session.SendWebSocketMessage(MessageTypeInit, map[string]interface{}{
			"status":     "ready",
			"deviceId":   session.DeviceID.String(),
			"canVibrate": session.CanVibrate(),
		})

	case MessageTypePing:
		session.SendWebSocketMessage(MessageTypePong, nil)

	default:
		h.logger.Warnf("Unknown message type: %s", msg.Type)
		session.SendError("UNKNOWN_MESSAGE_TYPE", fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *WebSocketHandler) Close() error {
	return h.connectionManager.Close()
}
