package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestCancelled RequestStatus = "cancelled"
)

// MessageRequest gates first contact between two users. At most one pending
// request may exist per ordered (sender, receiver) pair.
type MessageRequest struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	SenderID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_request_pending,unique,where:status = 'pending'"`
	ReceiverID uuid.UUID     `gorm:"type:uuid;not null;index:idx_request_pending,unique,where:status = 'pending'"`
	Content    string        `gorm:"not null"`
	Status     RequestStatus `gorm:"not null;default:'pending'"`
	CreatedAt  time.Time

	Sender   User `gorm:"foreignKey:SenderID"`
	Receiver User `gorm:"foreignKey:ReceiverID"`
}

func (r *MessageRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *MessageRequest) Resolved() bool {
	return r.Status != RequestPending
}
