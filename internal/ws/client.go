package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/lexc24/tictactoe/internal/model"
)

const (
	// writeWait is the per-frame write deadline
	writeWait = 10 * time.Second

	// pongWait bounds how long a connection may stay silent
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outgoing queue depth
	sendBuffer = 32
)

// Client is one websocket connection
type Client struct {
	id   model.ParticipantID
	conn *websocket.Conn
	hub  *Hub
	send chan OutgoingMessage
}

func newClient(id model.ParticipantID, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan OutgoingMessage, sendBuffer),
	}
}

// Send queues a message for this client alone, dropping it if the client
// is too far behind
func (c *Client) Send(msg OutgoingMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// writePump drains the send queue to the connection and keeps it alive
// with pings. One per client, started by the handler.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
