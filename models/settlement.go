package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement is a real-world payment already made between two participants,
// always in the settlement currency.
type Settlement struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TripID          uuid.UUID   `gorm:"type:uuid;index" json:"trip_id"`
	FromParticipant uuid.UUID   `gorm:"type:uuid" json:"from_participant"`
	Payer           Participant `gorm:"foreignKey:FromParticipant" json:"payer,omitempty"`
	ToParticipant   uuid.UUID   `gorm:"type:uuid" json:"to_participant"`
	Payee           Participant `gorm:"foreignKey:ToParticipant" json:"payee,omitempty"`
	Amount          float64     `gorm:"type:decimal(12,2);not null" json:"amount"`
	SettledAt       time.Time   `gorm:"type:date" json:"settled_at"`
	Method          string      `gorm:"size:50" json:"method,omitempty"` // cash, bank transfer, ...
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CreateSettlementRequest struct {
	FromParticipant string  `json:"from_participant" binding:"required"`
	ToParticipant   string  `json:"to_participant" binding:"required"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	SettledAt       string  `json:"settled_at"` // YYYY-MM-DD
	Method          string  `json:"method"`
	Notes           string  `json:"notes"`
}
