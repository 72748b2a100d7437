package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockRelationship is a directed edge: blocker blocks blocked.
type BlockRelationship struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	BlockerID uuid.UUID `gorm:"type:uuid;not null;index:idx_block_pair,unique"`
	BlockedID uuid.UUID `gorm:"type:uuid;not null;index:idx_block_pair,unique"`
	CreatedAt time.Time

	Blocker User `gorm:"foreignKey:BlockerID"`
	Blocked User `gorm:"foreignKey:BlockedID"`
}

func (b *BlockRelationship) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
