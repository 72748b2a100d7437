package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mzhurov/commune/internal/cache"
	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/models"
	"github.com/mzhurov/commune/internal/realtime"
)

// Publisher fans a push event out to the given users' open connections and
// feeds it through the realtime router. Implemented by the websocket hub.
type Publisher interface {
	Publish(ev realtime.Event, recipients []uuid.UUID)
}

type ReactionOutcome string

const (
	ReactionAdded   ReactionOutcome = "added"
	ReactionRemoved ReactionOutcome = "removed"
	ReactionUpdated ReactionOutcome = "updated"
)

// SendResult is what a direct send produced: a delivered message, or a
// message request when the conversation is still gated.
type SendResult struct {
	Message   *models.Message
	Request   *models.MessageRequest
	IsRequest bool
}

// Pipeline performs send/edit/delete/react mutations. Every successful
// mutation invalidates exactly the cached views it could have made stale;
// failed mutations touch no tag.
type Pipeline struct {
	db     *database.Database
	caches *cache.Registry
	gate   *AccessGate
	guard  *BlockGuard
	events Publisher
}

func NewPipeline(db *database.Database, caches *cache.Registry, gate *AccessGate, guard *BlockGuard, events Publisher) *Pipeline {
	return &Pipeline{db: db, caches: caches, gate: gate, guard: guard, events: events}
}

// SendDirect delivers a message to the peer, or creates a message request
// when the gate has not unlocked the conversation yet. A block in either
// direction short-circuits before anything is written.
func (p *Pipeline) SendDirect(sender, receiver uuid.UUID, content string) (*SendResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if sender == receiver {
		return nil, ErrSelfTarget
	}

	flags, err := p.guard.Flags(sender, receiver)
	if err != nil {
		return nil, err
	}
	if flags.Any() {
		return nil, ErrBlocked
	}

	unlocked, err := p.gate.Unlocked(sender, receiver)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		req, err := p.gate.CreateRequest(sender, receiver, content)
		if err != nil {
			return nil, err
		}
		return &SendResult{Request: req, IsRequest: true}, nil
	}

	msg := &models.Message{
		SenderID:   sender,
		ReceiverID: &receiver,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	if err := p.db.SaveMessage(msg); err != nil {
		return nil, err
	}

	// The conversations list shows a last-message preview, so it goes stale
	// together with the per-peer history.
	p.caches.Invalidate(sender, cache.MessagesTag(receiver), cache.TagConversations)
	p.caches.Invalidate(receiver, cache.MessagesTag(sender), cache.TagConversations)

	p.publish(realtime.MessageEvent(msg), []uuid.UUID{sender, receiver})

	return &SendResult{Message: msg}, nil
}

// SendRoom delivers a message to a group room. Sender must be a member.
func (p *Pipeline) SendRoom(sender, roomID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	room, err := p.db.GetRoom(roomID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !room.IsMember(sender) {
		return nil, ErrNotMember
	}

	msg := &models.Message{
		SenderID:  sender,
		RoomID:    &roomID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := p.db.SaveMessage(msg); err != nil {
		return nil, err
	}

	members := memberIDs(room)
	for _, id := range members {
		p.caches.Invalidate(id, cache.MessagesTag(roomID), cache.TagChatRooms)
	}

	p.publish(realtime.MessageEvent(msg), members)

	return msg, nil
}

// Edit replaces the message content. Sender-only.
func (p *Pipeline) Edit(actor, messageID uuid.UUID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	msg, err := p.getMessage(messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != actor {
		return nil, ErrForbidden
	}

	now := time.Now()
	msg.Content = content
	msg.EditedAt = &now
	if err := p.db.UpdateMessage(msg); err != nil {
		return nil, err
	}

	affected := p.invalidateMessage(msg)
	p.publish(realtime.MessageEvent(msg), affected)

	return msg, nil
}

// Delete removes a message. Sender-only for direct messages; room admins may
// additionally delete any room message.
func (p *Pipeline) Delete(actor, messageID uuid.UUID) error {
	msg, err := p.getMessage(messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != actor {
		allowed := false
		if msg.RoomID != nil {
			room, err := p.db.GetRoom(msg.RoomID.String())
			if err == nil && room.IsAdmin(actor) {
				allowed = true
			}
		}
		if !allowed {
			return ErrForbidden
		}
	}

	if err := p.db.DeleteMessage(messageID.String()); err != nil {
		return err
	}

	affected := p.invalidateMessage(msg)
	p.publish(realtime.MessageEvent(msg), affected)

	return nil
}

// ToggleReaction is tri-state: no existing reaction adds one, the same type
// removes it, a different type replaces it.
func (p *Pipeline) ToggleReaction(actor, messageID uuid.UUID, reactionType string) (ReactionOutcome, error) {
	if strings.TrimSpace(reactionType) == "" {
		return "", ErrEmptyContent
	}

	msg, err := p.getMessage(messageID)
	if err != nil {
		return "", err
	}
	if err := p.canSee(actor, msg); err != nil {
		return "", err
	}

	existing, err := p.db.GetReaction(messageID, actor)
	if err != nil {
		return "", err
	}

	var outcome ReactionOutcome
	switch {
	case existing == nil:
		reaction := &models.Reaction{
			MessageID: messageID,
			UserID:    actor,
			Type:      reactionType,
			CreatedAt: time.Now(),
		}
		if err := p.db.CreateReaction(reaction); err != nil {
			return "", err
		}
		outcome = ReactionAdded

	case existing.Type == reactionType:
		if err := p.db.DeleteReaction(existing.ID); err != nil {
			return "", err
		}
		outcome = ReactionRemoved

	default:
		existing.Type = reactionType
		if err := p.db.UpdateReaction(existing); err != nil {
			return "", err
		}
		outcome = ReactionUpdated
	}

	// Reactions only affect the message view, not the list previews.
	affected := p.invalidateMessage(msg)
	p.publish(realtime.ReactionEvent(msg, actor), affected)

	return outcome, nil
}

func (p *Pipeline) getMessage(messageID uuid.UUID) (*models.Message, error) {
	msg, err := p.db.GetMessage(messageID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

// canSee allows only conversation participants or room members to act on a
// message.
func (p *Pipeline) canSee(actor uuid.UUID, msg *models.Message) error {
	if msg.RoomID != nil {
		room, err := p.db.GetRoom(msg.RoomID.String())
		if err != nil {
			return err
		}
		if !room.IsMember(actor) {
			return ErrForbidden
		}
		return nil
	}
	if msg.SenderID == actor || (msg.ReceiverID != nil && *msg.ReceiverID == actor) {
		return nil
	}
	return ErrForbidden
}

// invalidateMessage marks the message history stale for everyone who can see
// it and returns the affected users.
func (p *Pipeline) invalidateMessage(msg *models.Message) []uuid.UUID {
	if msg.RoomID != nil {
		room, err := p.db.GetRoom(msg.RoomID.String())
		if err != nil {
			return nil
		}
		members := memberIDs(room)
		for _, id := range members {
			p.caches.Invalidate(id, cache.MessagesTag(*msg.RoomID))
		}
		return members
	}

	if msg.ReceiverID == nil {
		return nil
	}
	p.caches.Invalidate(msg.SenderID, cache.MessagesTag(*msg.ReceiverID))
	p.caches.Invalidate(*msg.ReceiverID, cache.MessagesTag(msg.SenderID))
	return []uuid.UUID{msg.SenderID, *msg.ReceiverID}
}

func (p *Pipeline) publish(ev realtime.Event, recipients []uuid.UUID) {
	if p.events != nil {
		p.events.Publish(ev, recipients)
	}
}

func memberIDs(room *models.Room) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(room.Members))
	for _, m := range room.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
