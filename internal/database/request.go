package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mzhurov/commune/internal/models"
)

func (d *Database) CreateMessageRequest(req *models.MessageRequest) error {
	return d.db.Create(req).Error
}

func (d *Database) GetMessageRequest(id string) (*models.MessageRequest, error) {
	var req models.MessageRequest
	err := d.db.
		Preload("Sender").
		Preload("Receiver").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// AcceptMessageRequest resolves the request and turns its content into the
// conversation's first message. Both writes happen in one transaction so a
// failed insert never leaves an accepted request with no message behind.
func (d *Database) AcceptMessageRequest(req *models.MessageRequest) (*models.Message, error) {
	receiverID := req.ReceiverID
	msg := &models.Message{
		SenderID:   req.SenderID,
		ReceiverID: &receiverID,
		Content:    req.Content,
		IsRead:     true,
		CreatedAt:  time.Now(),
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MessageRequest{}).
			Where("id = ?", req.ID).
			Update("status", models.RequestAccepted).Error; err != nil {
			return err
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (d *Database) UpdateMessageRequestStatus(id string, status models.RequestStatus) error {
	return d.db.Model(&models.MessageRequest{}).Where("id = ?", id).Update("status", status).Error
}

// GetPendingRequestBetween returns the pending request between the two users
// in either direction, or nil if none exists.
func (d *Database) GetPendingRequestBetween(userA, userB uuid.UUID) (*models.MessageRequest, error) {
	var reqs []models.MessageRequest
	err := d.db.
		Where(
			"status = ? AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			models.RequestPending, userA, userB, userB, userA,
		).
		Limit(1).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

// GetLatestRequestBetween returns the most recent request for the pair in
// either direction, or nil if the users have never exchanged one.
func (d *Database) GetLatestRequestBetween(userA, userB uuid.UUID) (*models.MessageRequest, error) {
	var reqs []models.MessageRequest
	err := d.db.
		Where(
			"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA,
		).
		Order("created_at DESC").
		Limit(1).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	return &reqs[0], nil
}

// ListRequestsForUser returns every pending request addressed to or sent by
// the user, newest first.
func (d *Database) ListRequestsForUser(userID uuid.UUID) ([]models.MessageRequest, error) {
	var reqs []models.MessageRequest
	err := d.db.
		Where("status = ? AND (sender_id = ? OR receiver_id = ?)", models.RequestPending, userID, userID).
		Order("created_at DESC").
		Preload("Sender").
		Preload("Receiver").
		Find(&reqs).Error
	return reqs, err
}
