package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message belongs either to a direct conversation (ReceiverID set) or to a
// room (RoomID set), never both.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ReceiverID *uuid.UUID `gorm:"type:uuid;index"`
	RoomID     *uuid.UUID `gorm:"type:uuid;index"`
	Content    string     `gorm:"not null"`
	IsRead     bool       `gorm:"default:false"`
	CreatedAt  time.Time
	EditedAt   *time.Time

	Sender    User       `gorm:"foreignKey:SenderID"`
	Reactions []Reaction `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
