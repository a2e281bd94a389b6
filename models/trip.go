package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Trip struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string        `gorm:"not null;size:100" json:"name"`
	Location     string        `gorm:"size:100" json:"location,omitempty"`
	StartDate    *time.Time    `gorm:"type:date" json:"start_date,omitempty"`
	EndDate      *time.Time    `gorm:"type:date" json:"end_date,omitempty"`
	Participants []Participant `gorm:"foreignKey:TripID" json:"participants,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Participant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TripID   uuid.UUID `gorm:"type:uuid;index" json:"trip_id"`
	Name     string    `gorm:"not null;size:100" json:"name"`
	Email    string    `gorm:"size:255" json:"email,omitempty"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateTripRequest struct {
	Name         string   `json:"name" binding:"required"`
	Location     string   `json:"location"`
	StartDate    string   `json:"start_date"` // YYYY-MM-DD
	EndDate      string   `json:"end_date"`   // YYYY-MM-DD
	Participants []string `json:"participants"` // participant names
}

type UpdateTripRequest struct {
	Name      string `json:"name"`
	Location  string `json:"location"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type AddParticipantRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}
