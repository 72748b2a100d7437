package database

import (
	"github.com/google/uuid"

	"github.com/mzhurov/commune/internal/models"
)

func (d *Database) CreateBlock(block *models.BlockRelationship) error {
	return d.db.Create(block).Error
}

func (d *Database) DeleteBlock(blockerID, blockedID uuid.UUID) error {
	return d.db.
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.BlockRelationship{}).Error
}

// GetBlocksBetween returns every block edge between the two users, in either
// direction (zero, one or two rows).
func (d *Database) GetBlocksBetween(userA, userB uuid.UUID) ([]models.BlockRelationship, error) {
	var blocks []models.BlockRelationship
	err := d.db.
		Where(
			"(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA,
		).
		Find(&blocks).Error
	return blocks, err
}

func (d *Database) ListBlockedUsers(blockerID uuid.UUID) ([]models.BlockRelationship, error) {
	var blocks []models.BlockRelationship
	err := d.db.
		Where("blocker_id = ?", blockerID).
		Order("created_at DESC").
		Preload("Blocked").
		Find(&blocks).Error
	return blocks, err
}
