package websocket

import (
	"time"

	"padsync-server/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is one websocket connection editing one note. It owns a server-side
// edit session whose debounce decides when the note is persisted.
type Client struct {
	ID      string
	NoteID  string
	Conn    *websocket.Conn
	Manager *Manager
	Session *service.Session
	Send    chan []byte

	logger zerolog.Logger
}

func NewClient(id, noteID string, conn *websocket.Conn, manager *Manager, session *service.Session, logger zerolog.Logger) *Client {
	return &Client{
		ID:      id,
		NoteID:  noteID,
		Conn:    conn,
		Manager: manager,
		Session: session,
		Send:    make(chan []byte, 256),
		logger:  logger.With().Str("client", id).Str("note", noteID).Logger(),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Manager.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			break
		}

		c.Manager.HandleMessage <- &ClientMessage{
			Client:  c,
			Message: message,
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.Manager.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
