package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserReport is an independent moderation signal; it has no effect on the
// access gate or block guard.
type UserReport struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReporterID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ReportedID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Reason      string    `gorm:"not null"`
	Description string
	CreatedAt   time.Time

	Reporter User `gorm:"foreignKey:ReporterID"`
	Reported User `gorm:"foreignKey:ReportedID"`
}

func (r *UserReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
