package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction: at most one live entry per (message, user) pair.
type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageID uuid.UUID `gorm:"type:uuid;not null;index:idx_reaction_pair,unique"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_reaction_pair,unique"`
	Type      string    `gorm:"not null"`
	CreatedAt time.Time
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
