package chat

import (
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/database"
	"github.com/mzhurov/commune/internal/models"
)

// ConversationSummary is one row of the viewer's conversation list: the peer,
// the last-message preview, and the gate/guard state that decides which
// controls the view renders.
type ConversationSummary struct {
	Peer           models.User
	LastMessage    *models.Message
	UnreadCount    int
	Flags          Flags
	State          State
	PendingRequest *models.MessageRequest
}

// ConversationService assembles the per-user conversation list.
type ConversationService struct {
	db    *database.Database
	gate  *AccessGate
	guard *BlockGuard
}

func NewConversationService(db *database.Database, gate *AccessGate, guard *BlockGuard) *ConversationService {
	return &ConversationService{db: db, gate: gate, guard: guard}
}

// List folds the viewer's direct messages and open requests into one summary
// per peer, newest conversation first.
func (s *ConversationService) List(viewer uuid.UUID) ([]ConversationSummary, error) {
	messages, err := s.db.ListDirectMessagesInvolving(viewer)
	if err != nil {
		return nil, err
	}

	var order []uuid.UUID
	byPeer := make(map[uuid.UUID]*ConversationSummary)

	for i := range messages {
		msg := &messages[i]
		peerID := msg.SenderID
		if peerID == viewer && msg.ReceiverID != nil {
			peerID = *msg.ReceiverID
		}

		summary, ok := byPeer[peerID]
		if !ok {
			summary = &ConversationSummary{LastMessage: msg}
			byPeer[peerID] = summary
			order = append(order, peerID)
		}
		if msg.SenderID == peerID && !msg.IsRead {
			summary.UnreadCount++
		}
	}

	// A pending request is a conversation-to-be; it renders accept/reject or
	// cancel controls instead of a composer.
	requests, err := s.db.ListRequestsForUser(viewer)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		req := &requests[i]
		peerID := req.SenderID
		if peerID == viewer {
			peerID = req.ReceiverID
		}
		if _, ok := byPeer[peerID]; !ok {
			byPeer[peerID] = &ConversationSummary{}
			order = append(order, peerID)
		}
	}

	result := make([]ConversationSummary, 0, len(order))
	for _, peerID := range order {
		summary := byPeer[peerID]

		peer, err := s.db.GetUser(peerID.String())
		if err != nil {
			continue
		}
		summary.Peer = *peer

		flags, err := s.guard.Flags(viewer, peerID)
		if err != nil {
			return nil, err
		}
		summary.Flags = flags

		state, req, err := s.gate.StateBetween(viewer, peerID)
		if err != nil {
			return nil, err
		}
		summary.State = state
		if req != nil && !req.Resolved() {
			summary.PendingRequest = req
		}

		result = append(result, *summary)
	}

	return result, nil
}
