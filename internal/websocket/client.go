package websocket

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mzhurov/commune/internal/realtime"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512 * 1024 // 512KB
)

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		Hub:    hub,
	}
}

// ReadPump consumes control frames from the client. The channel is
// receive-only for content: mutations go over HTTP, the socket only carries
// the open-conversation declaration and ping/pong.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame Frame
		err := c.Conn.ReadJSON(&frame)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		switch frame.Type {
		case TypePong:
			continue

		case TypeConversationOpen:
			target, ok := frameTarget(&frame)
			if !ok {
				c.SendError(ErrInvalidFrame.Error())
				continue
			}
			c.Hub.router.Open(c.ID, c.UserID, target)

		case TypeConversationClose:
			c.Hub.router.Close(c.ID)

		default:
			// Unrecognized frames fail loudly instead of being silently
			// swallowed.
			c.SendError(ErrInvalidFrame.Error())
		}
	}
}

func frameTarget(frame *Frame) (realtime.Target, bool) {
	switch {
	case frame.PeerID != nil:
		return realtime.Target{Kind: realtime.TargetDirect, ID: *frame.PeerID}, true
	case frame.RoomID != nil:
		return realtime.Target{Kind: realtime.TargetRoom, ID: *frame.RoomID}, true
	default:
		return realtime.Target{}, false
	}
}

// WritePump delivers queued frames to the client connection.
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
				// Hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.Conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) SendError(errorMsg string) {
	frame := Frame{
		Type:      TypeError,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(map[string]string{"error": errorMsg}); err == nil {
		frame.Data = data
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}

	select {
	case c.Send <- payload:
	default:
	}
}
