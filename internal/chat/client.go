package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"skillnest/internal/apperr"
	rt "skillnest/internal/realtime"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Must be less than pongWait.
	maxMessageSize = 8192                // Maximum inbound frame size.
	eventTimeout   = 5 * time.Second     // Budget for handling one inbound event.
)

// EventFunc handles one raw frame sent by userID.
type EventFunc func(ctx context.Context, userID string, raw []byte) error

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte // Buffered channel of outbound frames.
	UserID string
	handle EventFunc
}

// ReadPump pumps frames from the websocket connection to the event handler.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket read failed", "user", c.UserID, "err", err)
			}
			break
		}
		if c.handle == nil {
			continue
		}

		// The upgrade request's context is gone once ServeWs returns.
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		err = c.handle(ctx, c.UserID, raw)
		cancel()
		if err != nil {
			c.reject(err)
		}
	}
}

// reject tells this connection, and only this one, that its frame failed.
func (c *Client) reject(err error) {
	msg := err.Error()
	if apperr.Status(err) >= 500 {
		log.Error("websocket event failed", "user", c.UserID, "err", err)
		msg = "internal error"
	}
	payload, _ := json.Marshal(map[string]string{"error": msg})
	b, _ := json.Marshal(frame{Channel: rt.ChannelErrors, Payload: payload})

	// The hub owns Send; it may have closed it already.
	c.Hub.sendTo(c, b)
}

// WritePump pumps frames from the hub to the websocket connection.
func (c *Client) WritePump() {
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
				// The Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per websocket message; clients parse each as JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
