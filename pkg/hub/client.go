package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Subscribers only send control frames.
	maxMessageSize = 4 * 1024

	sendBuffer = 64
)

// Conn is the subset of a websocket connection the pumps use.
// *websocket.Conn from gofiber/websocket satisfies it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Client is one subscriber.
type Client struct {
	hub  *Hub
	conn Conn
	send chan Message
}

// NewClient registers conn with the hub. Initial messages, such as the state
// at the moment of subscribing, are buffered ahead of any broadcast. It
// returns nil once the hub has stopped.
func NewClient(hub *Hub, conn Conn, initial ...Message) *Client {
	if len(initial) > sendBuffer {
		initial = initial[len(initial)-sendBuffer:]
	}
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}
	for _, msg := range initial {
		c.send <- msg
	}
	select {
	case hub.register <- c:
		return c
	case <-hub.done:
		return nil
	}
}

// Run pumps until the connection or the hub closes.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection. Sequenced messages older
// than the last one written are skipped, so a broadcast encoded before the
// initial state never follows it.
func (c *Client) writePump() {
	var last uint64
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if msg.Seq != 0 && msg.Seq <= last {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.Data); err != nil {
				return
			}
			if msg.Seq != 0 {
				last = msg.Seq
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
