package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	CreatedBy uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	Members []User `gorm:"many2many:room_members"`
	Admins  []User `gorm:"many2many:room_admins"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Room) IsMember(userID uuid.UUID) bool {
	for _, m := range r.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

func (r *Room) IsAdmin(userID uuid.UUID) bool {
	for _, a := range r.Admins {
		if a.ID == userID {
			return true
		}
	}
	return false
}
