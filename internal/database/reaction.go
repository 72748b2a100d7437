package database

import (
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/models"
)

// GetReaction returns the user's reaction on a message, or nil if there is
// none.
func (d *Database) GetReaction(messageID, userID uuid.UUID) (*models.Reaction, error) {
	var reactions []models.Reaction
	err := d.db.
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Limit(1).
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	if len(reactions) == 0 {
		return nil, nil
	}
	return &reactions[0], nil
}

func (d *Database) CreateReaction(reaction *models.Reaction) error {
	return d.db.Create(reaction).Error
}

func (d *Database) UpdateReaction(reaction *models.Reaction) error {
	return d.db.Save(reaction).Error
}

func (d *Database) DeleteReaction(id uuid.UUID) error {
	return d.db.Delete(&models.Reaction{}, "id = ?", id).Error
}
