package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Activity struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID        uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	ParticipantID uuid.UUID `gorm:"type:uuid" json:"participant_id"`
	Type          string    `gorm:"not null;size:30" json:"type"` // expense_added, expense_updated, expense_deleted, item_claimed, settlement_recorded
	ReferenceID   uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
