package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
	"golang.org/x/time/rate"
)

// WSMessage is the envelope for every message sent to clients
type WSMessage struct {
	Type             string      `json:"type"`
	Payload          interface{} `json:"payload"`
	ServerInstanceID string      `json:"serverInstanceId"` // Unique ID per server startup - clients clear state on change
}

// StatusProvider builds the status snapshot sent to newly connected clients
type StatusProvider interface {
	Status(r *http.Request) (*StatusResponse, error)
}

type WebSocketHandler struct {
	logger           arbor.ILogger
	upgrader         websocket.Upgrader
	clients          map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	status           StatusProvider
	throttlers       map[interfaces.EventType]*rate.Limiter
	pingInterval     time.Duration
	serverInstanceID string
}

// NewWebSocketHandler creates the status stream handler. status may be nil.
func NewWebSocketHandler(eventService interfaces.EventService, status StatusProvider, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		status:           status,
		throttlers:       make(map[interfaces.EventType]*rate.Limiter),
		pingInterval:     30 * time.Second,
		serverInstanceID: uuid.New().String(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	if config != nil {
		h.pingInterval = common.ParseDuration(config.PingInterval, h.pingInterval)
		if config.AllowAllOrigins {
			h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
		}

		// Per-article events are throttled; run state changes always go out
		if limit := common.ParseDuration(config.BroadcastLimit, 0); limit > 0 {
			h.throttlers[interfaces.EventArticleAcquired] = rate.NewLimiter(rate.Every(limit), 1)
			h.throttlers[interfaces.EventArticleEnhanced] = rate.NewLimiter(rate.Every(limit), 1)
		}
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")
	return h
}

// SubscribeToEvents forwards pipeline events to connected clients
func (h *WebSocketHandler) SubscribeToEvents() error {
	if h.eventService == nil {
		return nil
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventRunStateChanged,
		interfaces.EventArticleAcquired,
		interfaces.EventArticleEnhanced,
		interfaces.EventEnhancementFailed,
	} {
		eventType := eventType
		if err := h.eventService.Subscribe(eventType, func(ctx context.Context, event interfaces.Event) error {
			if limiter := h.throttlers[eventType]; limiter != nil && !limiter.Allow() {
				return nil
			}
			h.Broadcast(string(event.Type), event.Payload)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	mutex := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = mutex
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", clientCount).Msg("WebSocket client connected")

	if h.status != nil {
		if status, err := h.status.Status(r); err == nil {
			h.send(conn, mutex, "status", status)
		} else {
			h.logger.Warn().Err(err).Msg("Failed to build initial status")
		}
	}

	done := make(chan struct{})
	defer func() {
		close(done)
		h.mu.Lock()
		delete(h.clients, conn)
		remaining := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Debug().Int("clients", remaining).Msg("WebSocket client disconnected")
	}()

	go h.pingLoop(conn, mutex, done)

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			return
		}
	}
}

func (h *WebSocketHandler) pingLoop(conn *websocket.Conn, mutex *sync.Mutex, done <-chan struct{}) {
	defer common.Recover(h.logger, "websocket.ping")

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			mutex.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			mutex.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *WebSocketHandler) Broadcast(messageType string, payload interface{}) {
	data, err := h.marshal(messageType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", messageType).Msg("Failed to marshal broadcast message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn, mutex := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, mutex)
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutexes[i].Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutexes[i].Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("type", messageType).Msg("Failed to send message to client")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *WebSocketHandler) send(conn *websocket.Conn, mutex *sync.Mutex, messageType string, payload interface{}) {
	data, err := h.marshal(messageType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("type", messageType).Msg("Failed to marshal message")
		return
	}

	mutex.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	mutex.Unlock()
	if err != nil {
		h.logger.Warn().Err(err).Str("type", messageType).Msg("Failed to send message to client")
	}
}

func (h *WebSocketHandler) marshal(messageType string, payload interface{}) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:             messageType,
		Payload:          payload,
		ServerInstanceID: h.serverInstanceID,
	})
}
