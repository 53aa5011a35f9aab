package network

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Client represents an active WebSocket subscriber bound to one session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// NewClient creates a new WebSocket client for a session.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string, sendBuffer int) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		sessionID: sessionID,
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ClientAction represents an incoming command from the frontend.
type ClientAction struct {
	Type    string          `json:"type"` // SCHEDULE_EVENT, SET_TIME_SCALE, SET_PAUSED, APPLY_STRESS, APPLY_SLEEP
	Payload json.RawMessage `json:"payload"`
}

// ReadPump pumps messages from the websocket connection into engine calls.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket read error: %v", err)
				metrics.Get().RecordWSError()
			}
			break
		}
		metrics.Get().RecordWSMessage(true)

		var action ClientAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.hub.logger.Error("Failed to parse ClientAction from WebSocket: %v", err)
			continue
		}

		c.handleAction(action)
	}
}

func (c *Client) handleAction(action ClientAction) {
	sess, err := c.hub.manager.Get(c.sessionID)
	if err != nil {
		c.hub.logger.Error("Action for unknown session %s: %v", c.sessionID, err)
		return
	}
	loop := sess.Loop

	switch action.Type {
	case "SCHEDULE_EVENT":
		var ev events.ScheduledEvent
		if err := json.Unmarshal(action.Payload, &ev); err != nil {
			c.hub.logger.Warn("Failed to parse scheduled event: %v", err)
			return
		}
		// Re-wrap the payload as raw JSON; the loop decodes per type.
		var envelope struct {
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(action.Payload, &envelope); err == nil {
			ev.Payload = envelope.Payload
		}
		loop.ScheduleEvent(ev)

	case "SET_TIME_SCALE":
		var p struct {
			Scale float64 `json:"scale"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return
		}
		if err := loop.SetTimeScale(p.Scale); err != nil {
			c.hub.logger.Warn("Rejected time scale %v for session %s: %v", p.Scale, c.sessionID, err)
		}

	case "SET_PAUSED":
		var p struct {
			Paused bool `json:"paused"`
		}
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return
		}
		loop.SetPaused(p.Paused)

	case "APPLY_STRESS":
		var p events.StressPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return
		}
		loop.ApplyStress(p.Intensity)

	case "APPLY_SLEEP":
		var p events.SleepPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return
		}
		loop.ApplySleep(p.Hours, p.Quality)

	default:
		c.hub.logger.Warn("Unknown ClientAction type: %s", action.Type)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
