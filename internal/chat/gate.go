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
)

// State is the position of a direct conversation in the message-request
// lifecycle.
type State string

const (
	StateNone      State = "none"
	StateRequested State = "requested"
	StateAccepted  State = "accepted"
	StateRejected  State = "rejected"
	StateCancelled State = "cancelled"
)

// Policy decides whether two users may exchange free-form messages. The exact
// first-contact rule is not part of the state machine, so it is injected;
// DefaultPolicy matches the backend contract we run against.
type Policy func(hasHistory bool, latest *models.MessageRequest) bool

// DefaultPolicy: unlocked iff the pair's sole request is accepted, or a
// message already exists and no request is open.
func DefaultPolicy(hasHistory bool, latest *models.MessageRequest) bool {
	if latest != nil {
		switch latest.Status {
		case models.RequestAccepted:
			return true
		case models.RequestPending:
			return false
		}
	}
	return hasHistory
}

// AccessGate is the message-request state machine for direct conversations.
type AccessGate struct {
	db     *database.Database
	caches *cache.Registry
	policy Policy
}

func NewAccessGate(db *database.Database, caches *cache.Registry, policy Policy) *AccessGate {
	if policy == nil {
		policy = DefaultPolicy
	}
	return &AccessGate{db: db, caches: caches, policy: policy}
}

// StateBetween returns the current gate state for the pair and the request
// that put it there, if any.
func (g *AccessGate) StateBetween(userA, userB uuid.UUID) (State, *models.MessageRequest, error) {
	latest, err := g.db.GetLatestRequestBetween(userA, userB)
	if err != nil {
		return StateNone, nil, err
	}
	if latest == nil {
		return StateNone, nil, nil
	}

	switch latest.Status {
	case models.RequestPending:
		return StateRequested, latest, nil
	case models.RequestAccepted:
		return StateAccepted, latest, nil
	case models.RequestRejected:
		return StateRejected, latest, nil
	default:
		return StateCancelled, latest, nil
	}
}

// Unlocked reports whether free bidirectional messaging is permitted.
func (g *AccessGate) Unlocked(userA, userB uuid.UUID) (bool, error) {
	hasHistory, err := g.db.DirectMessageExists(userA, userB)
	if err != nil {
		return false, err
	}
	latest, err := g.db.GetLatestRequestBetween(userA, userB)
	if err != nil {
		return false, err
	}
	return g.policy(hasHistory, latest), nil
}

// CreateRequest opens a fresh pending request for first contact. At most one
// pending request may exist between the pair at a time.
func (g *AccessGate) CreateRequest(sender, receiver uuid.UUID, content string) (*models.MessageRequest, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if sender == receiver {
		return nil, ErrSelfTarget
	}

	pending, err := g.db.GetPendingRequestBetween(sender, receiver)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrRequestPending
	}

	req := &models.MessageRequest{
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Status:     models.RequestPending,
		CreatedAt:  time.Now(),
	}
	if err := g.db.CreateMessageRequest(req); err != nil {
		return nil, err
	}

	g.invalidateTransition(req)

	return req, nil
}

// Accept resolves the request and turns its content into the conversation's
// first message. Receiver-only.
func (g *AccessGate) Accept(actor uuid.UUID, requestID string) (*models.Message, error) {
	req, err := g.resolve(requestID, actor, false)
	if err != nil {
		return nil, err
	}

	msg, err := g.db.AcceptMessageRequest(req)
	if err != nil {
		return nil, err
	}

	g.invalidateTransition(req)

	return msg, nil
}

// Reject resolves the request without creating a message. Receiver-only.
func (g *AccessGate) Reject(actor uuid.UUID, requestID string) error {
	req, err := g.resolve(requestID, actor, false)
	if err != nil {
		return err
	}

	if err := g.db.UpdateMessageRequestStatus(requestID, models.RequestRejected); err != nil {
		return err
	}

	g.invalidateTransition(req)

	return nil
}

// Cancel withdraws the request. Sender-only.
func (g *AccessGate) Cancel(actor uuid.UUID, requestID string) error {
	req, err := g.resolve(requestID, actor, true)
	if err != nil {
		return err
	}

	if err := g.db.UpdateMessageRequestStatus(requestID, models.RequestCancelled); err != nil {
		return err
	}

	g.invalidateTransition(req)

	return nil
}

// resolve loads a request and checks it is still pending and that the actor
// holds the required role.
func (g *AccessGate) resolve(requestID string, actor uuid.UUID, asSender bool) (*models.MessageRequest, error) {
	req, err := g.db.GetMessageRequest(requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Resolved() {
		return nil, ErrStateConflict
	}

	if asSender && req.SenderID != actor {
		return nil, ErrForbidden
	}
	if !asSender && req.ReceiverID != actor {
		return nil, ErrForbidden
	}

	return req, nil
}

// Any transition invalidates both participants' conversation list, request
// list and the direct conversation tag for the pair.
func (g *AccessGate) invalidateTransition(req *models.MessageRequest) {
	g.caches.Invalidate(req.SenderID,
		cache.TagConversations,
		cache.TagMessageRequests,
		cache.MessagesTag(req.ReceiverID),
	)
	g.caches.Invalidate(req.ReceiverID,
		cache.TagConversations,
		cache.TagMessageRequests,
		cache.MessagesTag(req.SenderID),
	)
}
