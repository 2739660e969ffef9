package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/dfs-lineup/internal/metrics"
	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

const (
	EventLineupGenerated = "lineup_generated"
	EventRunCompleted    = "run_completed"
	EventRunFailed       = "run_failed"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is a progress message pushed to subscribers.
type Event struct {
	Type      string                    `json:"type"`
	RequestID string                    `json:"request_id,omitempty"`
	RunID     string                    `json:"run_id,omitempty"`
	Provider  string                    `json:"provider"`
	Sport     string                    `json:"sport"`
	Index     int                       `json:"index,omitempty"`
	Total     int                       `json:"total,omitempty"`
	Lineup    *optimizer.RenderedLineup `json:"lineup,omitempty"`
	Error     string                    `json:"error,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Client is one websocket subscriber. An empty filter receives every event;
// otherwise only events whose "provider/sport" matches.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	filter string
}

// Hub maintains active WebSocket connections and broadcasts events
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *logrus.Logger
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles client registration and fan-out until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			metrics.WebSocketClients.Set(0)
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.WebSocketClients.Set(float64(total))

			h.logger.WithFields(logrus.Fields{
				"filter":        client.filter,
				"total_clients": total,
			}).Info("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			metrics.WebSocketClients.Set(float64(total))

			h.logger.WithField("total_clients", total).Info("WebSocket client disconnected")

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal WebSocket message")
				continue
			}
			topic := topicOf(event.Provider, event.Sport)

			h.mutex.Lock()
			for client := range h.clients {
				if client.filter != "" && client.filter != topic {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow consumer
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// HandleWebSocket upgrades the request. Optional provider and sport query
// parameters restrict the events the client receives.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	filter := ""
	if provider, sport := c.Query("provider"), c.Query("sport"); provider != "" || sport != "" {
		if provider == "" || sport == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider and sport must be given together"})
			return
		}
		filter = topicOf(provider, sport)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    h,
		filter: filter,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Publish queues an event for delivery. Events are dropped when the queue is
// full so optimization never blocks on slow subscribers.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.WithField("type", event.Type).Warn("WebSocket broadcast queue full, dropping event")
	}
}

// GetConnectionCount returns the total number of active connections
func (h *Hub) GetConnectionCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Listener reports each generated lineup of one request to subscribers.
func (h *Hub) Listener(requestID string) optimizer.Listener {
	return &runListener{hub: h, requestID: requestID}
}

type runListener struct {
	hub       *Hub
	requestID string
}

func (l *runListener) LineupGenerated(settings optimizer.Settings, lineup optimizer.RenderedLineup, total int) {
	l.hub.Publish(Event{
		Type:      EventLineupGenerated,
		RequestID: l.requestID,
		Provider:  string(settings.Provider),
		Sport:     string(settings.Sport),
		Index:     lineup.Number,
		Total:     total,
		Lineup:    &lineup,
	})
}

func topicOf(provider, sport string) string {
	return strings.ToLower(provider) + "/" + strings.ToLower(sport)
}

// readPump drains client frames so control messages are processed.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.WithError(err).Error("WebSocket error")
			}
			return
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.WithError(err).Error("Failed to write WebSocket message")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
