package realtime

import (
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/models"
)

type TargetKind string

const (
	TargetDirect TargetKind = "direct"
	TargetRoom   TargetKind = "room"
)

// Target is the conversation a connection currently has open: the peer user
// for direct conversations, the room for group ones.
type Target struct {
	Kind TargetKind
	ID   uuid.UUID
}

// MessageSource resolves a reaction event to the message it belongs to.
// Satisfied by database.Database.
type MessageSource interface {
	GetMessage(id string) (*models.Message, error)
}

type subscription struct {
	connID uuid.UUID
	userID uuid.UUID
	target Target
}

// Router holds one subscription per connection with an open conversation and
// resolves inbound push events to cache-invalidation instructions. Events
// irrelevant to every open subscription are dropped without cache effect.
type Router struct {
	mu       sync.RWMutex
	caches   *cache.Registry
	messages MessageSource
	subs     map[uuid.UUID]*subscription

	// notify pushes the invalidated tags to the owning transport connection
	// so the client refetches; nil when no transport is attached.
	notify func(connID uuid.UUID, tags []cache.Tag)
}

func NewRouter(caches *cache.Registry, messages MessageSource) *Router {
	return &Router{
		caches:   caches,
		messages: messages,
		subs:     make(map[uuid.UUID]*subscription),
	}
}

func (r *Router) SetNotify(fn func(connID uuid.UUID, tags []cache.Tag)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = fn
}

// Open registers the conversation a connection is viewing. Re-opening under
// the same connection replaces the previous subscription, so a parameter
// change never duplicates invalidation handlers.
func (r *Router) Open(connID, userID uuid.UUID, target Target) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[connID] = &subscription{connID: connID, userID: userID, target: target}
}

// Close tears down the connection's subscription, if any.
func (r *Router) Close(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, connID)
}

// Route maps an inbound push event onto every open subscription it is
// relevant to, invalidating that subscriber's tags.
func (r *Router) Route(ev Event) {
	r.mu.RLock()
	subs := make([]*subscription, 0, len(r.subs))
	for _, s := range r.subs {
		subs = append(subs, s)
	}
	notify := r.notify
	r.mu.RUnlock()

	for _, s := range subs {
		tags := r.relevantTags(ev, s)
		if len(tags) == 0 {
			continue
		}
		r.caches.Invalidate(s.userID, tags...)
		if notify != nil {
			notify(s.connID, tags)
		}
	}
}

func (r *Router) relevantTags(ev Event, s *subscription) []cache.Tag {
	switch ev.Type {
	case EventMessage:
		m := ev.Message
		if m == nil {
			return nil
		}
		if m.RoomID != nil {
			if s.target.Kind == TargetRoom && s.target.ID == *m.RoomID {
				return []cache.Tag{cache.MessagesTag(*m.RoomID), cache.TagChatRooms}
			}
			return nil
		}
		if m.ReceiverID != nil && r.matchesDirect(s, m.SenderID, *m.ReceiverID) {
			return []cache.Tag{cache.MessagesTag(s.target.ID), cache.TagConversations}
		}
		return nil

	case EventMessageReaction:
		if ev.Reaction == nil {
			return nil
		}
		if ev.RoomID != nil {
			if s.target.Kind == TargetRoom && s.target.ID == *ev.RoomID {
				return []cache.Tag{cache.MessagesTag(*ev.RoomID)}
			}
			return nil
		}
		if s.target.Kind != TargetDirect {
			return nil
		}
		msg, err := r.messages.GetMessage(ev.Reaction.MessageID.String())
		if err != nil {
			log.Printf("realtime: cannot resolve reaction message %s: %v", ev.Reaction.MessageID, err)
			return nil
		}
		if msg.ReceiverID != nil && r.matchesDirect(s, msg.SenderID, *msg.ReceiverID) {
			return []cache.Tag{cache.MessagesTag(s.target.ID)}
		}
		return nil
	}

	return nil
}

// matchesDirect reports whether the message's sender/receiver pair is exactly
// the subscriber and their open peer.
func (r *Router) matchesDirect(s *subscription, sender, receiver uuid.UUID) bool {
	if s.target.Kind != TargetDirect {
		return false
	}
	u, p := s.userID, s.target.ID
	return (sender == u && receiver == p) || (sender == p && receiver == u)
}
