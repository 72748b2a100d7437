package database

import (
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/models"
)

func (d *Database) SaveMessage(message *models.Message) error {
	return d.db.Create(message).Error
}

func (d *Database) GetMessage(id string) (*models.Message, error) {
	var message models.Message
	err := d.db.
		Preload("Sender").
		Preload("Reactions").
		First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (d *Database) UpdateMessage(message *models.Message) error {
	return d.db.Save(message).Error
}

func (d *Database) DeleteMessage(id string) error {
	if err := d.db.Delete(&models.Reaction{}, "message_id = ?", id).Error; err != nil {
		return err
	}
	return d.db.Delete(&models.Message{}, "id = ?", id).Error
}

// GetDirectMessages returns the history between two users with pagination,
// oldest first.
func (d *Database) GetDirectMessages(userA, userB uuid.UUID, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where(
		"room_id IS NULL AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
		userA, userB, userB, userA,
	)

	if beforeID != nil {
		var beforeMsg models.Message
		if err := d.db.First(&beforeMsg, "id = ?", beforeID).Error; err == nil {
			query = query.Where("created_at < ?", beforeMsg.CreatedAt)
		}
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Preload("Reactions").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// GetRoomMessages returns the room history with pagination, oldest first.
func (d *Database) GetRoomMessages(roomID string, limit int, beforeID *uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	query := d.db.Where("room_id = ?", roomID)

	if beforeID != nil {
		var beforeMsg models.Message
		if err := d.db.First(&beforeMsg, "id = ?", beforeID).Error; err == nil {
			query = query.Where("created_at < ?", beforeMsg.CreatedAt)
		}
	}

	err := query.
		Order("created_at DESC").
		Limit(limit).
		Preload("Sender").
		Preload("Reactions").
		Find(&messages).Error

	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// DirectMessageExists reports whether any message has ever been exchanged
// between the two users.
func (d *Database) DirectMessageExists(userA, userB uuid.UUID) (bool, error) {
	var count int64
	err := d.db.Model(&models.Message{}).
		Where(
			"room_id IS NULL AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))",
			userA, userB, userB, userA,
		).
		Count(&count).Error
	return count > 0, err
}

// MarkDirectMessagesRead flags everything the peer sent to the viewer as read
// and reports how many rows actually flipped.
func (d *Database) MarkDirectMessagesRead(viewer, peer uuid.UUID) (int64, error) {
	res := d.db.Model(&models.Message{}).
		Where("room_id IS NULL AND sender_id = ? AND receiver_id = ? AND is_read = ?", peer, viewer, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ListDirectMessagesInvolving returns every direct message the user sent or
// received, newest first. Used to fold the conversation list.
func (d *Database) ListDirectMessagesInvolving(userID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := d.db.
		Where("room_id IS NULL AND (sender_id = ? OR receiver_id = ?)", userID, userID).
		Order("created_at DESC").
		Preload("Sender").
		Find(&messages).Error
	return messages, err
}
