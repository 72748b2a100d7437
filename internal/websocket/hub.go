package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/realtime"
)

// FrameType tags control and push frames on the realtime channel.
type FrameType string

const (
	TypePing FrameType = "ping"
	TypePong FrameType = "pong"

	// Server -> client push events, shape per the realtime payload contract.
	TypeMessage         FrameType = "message"
	TypeMessageReaction FrameType = "message_reaction"

	// Server -> client instruction to refetch the listed cache tags.
	TypeCacheInvalidate FrameType = "cache_invalidate"

	// Client -> server: declare or clear the open conversation.
	TypeConversationOpen  FrameType = "conversation_open"
	TypeConversationClose FrameType = "conversation_close"

	TypeError FrameType = "error"
)

// Frame is the wire envelope for control frames. Push events are written
// directly as realtime.Event JSON, whose "type" field is one of the push
// frame types above.
type Frame struct {
	Type      FrameType       `json:"type"`
	PeerID    *uuid.UUID      `json:"peer_id,omitempty"`
	RoomID    *uuid.UUID      `json:"room,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// PresenceTracker records which users currently hold at least one
// connection.
type PresenceTracker interface {
	SetOnline(ctx context.Context, userID uuid.UUID)
	SetOffline(ctx context.Context, userID uuid.UUID)
}

// Hub owns every websocket connection, fans push events out to recipients
// and feeds them through the realtime router.
type Hub struct {
	clients map[uuid.UUID]*Client

	// One user may hold several connections.
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	router   *realtime.Router
	presence PresenceTracker

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(router *realtime.Router, presence PresenceTracker) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		router:      router,
		presence:    presence,
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}
	router.SetNotify(h.notifyInvalidate)
	return h
}

func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ticker.C:
			h.ping()
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		h.router.Close(client.ID)
		close(client.Send)
		client.Conn.Close()
	}
	h.clients = make(map[uuid.UUID]*Client)
	h.userClients = make(map[uuid.UUID]map[uuid.UUID]*Client)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	log.Printf("Client registered: %s (User: %s)", client.ID, client.UserID)

	if h.presence != nil {
		h.presence.SetOnline(h.ctx, client.UserID)
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}

	h.router.Close(client.ID)

	if userClients, ok := h.userClients[client.UserID]; ok {
		delete(userClients, client.ID)
		if len(userClients) == 0 {
			delete(h.userClients, client.UserID)
			if h.presence != nil {
				h.presence.SetOffline(h.ctx, client.UserID)
			}
		}
	}

	delete(h.clients, client.ID)
	close(client.Send)

	log.Printf("Client unregistered: %s (User: %s)", client.ID, client.UserID)
}

// Publish sends the push event to every connection of the listed users and
// routes it so open subscriptions get their cache tags invalidated.
// Implements chat.Publisher.
func (h *Hub) Publish(ev realtime.Event, recipients []uuid.UUID) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal push event: %v", err)
		return
	}

	h.mu.RLock()
	for _, userID := range recipients {
		for _, client := range h.userClients[userID] {
			select {
			case client.Send <- data:
			default:
				log.Printf("Client %s: %v", client.ID, ErrClientQueueFull)
			}
		}
	}
	h.mu.RUnlock()

	h.router.Route(ev)
}

// notifyInvalidate tells one connection which tags went stale so its views
// refetch.
func (h *Hub) notifyInvalidate(connID uuid.UUID, tags []cache.Tag) {
	frame := Frame{
		Type:      TypeCacheInvalidate,
		Timestamp: time.Now(),
	}
	if data, err := json.Marshal(tags); err == nil {
		frame.Data = data
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[connID]; ok {
		select {
		case client.Send <- payload:
		default:
			log.Printf("Client %s: %v", client.ID, ErrClientQueueFull)
		}
	}
}

func (h *Hub) ping() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	frame := Frame{
		Type:      TypePing,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}

	// Presence entries carry a TTL; the ping tick doubles as the refresh.
	if h.presence != nil {
		for userID := range h.userClients {
			h.presence.SetOnline(h.ctx, userID)
		}
	}
}

// OnlineUsers returns the ids of users holding at least one connection.
func (h *Hub) OnlineUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]uuid.UUID, 0, len(h.userClients))
	for userID := range h.userClients {
		users = append(users, userID)
	}
	return users
}
