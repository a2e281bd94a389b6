package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Expense struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	TripID      uuid.UUID   `gorm:"type:uuid;index" json:"trip_id"`
	Trip        Trip        `gorm:"foreignKey:TripID" json:"-"`
	PaidBy      uuid.UUID   `gorm:"type:uuid" json:"paid_by"`
	Payer       Participant `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	Description string      `gorm:"not null;size:255" json:"description"`
	Amount      float64     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency    string      `gorm:"not null;size:3" json:"currency"`
	Category    string      `gorm:"size:50" json:"category"` // food, transport, lodging, activities, other
	SplitType   string      `gorm:"not null;size:20" json:"split_type"` // equal, custom, percentage, itemized
	Notes       string      `json:"notes,omitempty"`
	PaymentDate time.Time   `gorm:"type:date" json:"payment_date"`

	// Frozen at creation (re-derived on edit, never reused): the settlement-currency
	// view of this expense. Null only while conversion is pending.
	SettlementAmount *float64   `gorm:"type:decimal(12,2)" json:"settlement_amount,omitempty"`
	FXRate           *float64   `gorm:"type:decimal(16,8)" json:"fx_rate,omitempty"`
	FXRateDate       *time.Time `gorm:"type:date" json:"fx_rate_date,omitempty"`
	FXRateSource     string     `gorm:"size:10" json:"fx_rate_source,omitempty"` // identity, live, cached, fallback

	Splits    []ExpenseSplit `gorm:"foreignKey:ExpenseID" json:"splits,omitempty"`
	Items     []ExpenseItem  `gorm:"foreignKey:ExpenseID" json:"items,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type ExpenseSplit struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID        uuid.UUID `gorm:"type:uuid;index" json:"expense_id"`
	ParticipantID    uuid.UUID `gorm:"type:uuid" json:"participant_id"`
	Amount           float64   `gorm:"type:decimal(12,2);not null;check:amount > 0" json:"amount"` // original currency
	Percentage       *float64  `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`
	SettlementAmount *float64  `gorm:"type:decimal(12,2)" json:"settlement_amount,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func (es *ExpenseSplit) BeforeCreate(tx *gorm.DB) error {
	if es.ID == uuid.Nil {
		es.ID = uuid.New()
	}
	return nil
}

// ExpenseItem is one line item of an itemized expense.
type ExpenseItem struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID uuid.UUID   `gorm:"type:uuid;index" json:"expense_id"`
	Name      string      `gorm:"not null;size:255" json:"name"`
	Quantity  float64     `gorm:"type:decimal(10,3);not null" json:"quantity"`
	UnitPrice float64     `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Claims    []ItemClaim `gorm:"foreignKey:ItemID" json:"claims,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (ei *ExpenseItem) BeforeCreate(tx *gorm.DB) error {
	if ei.ID == uuid.Nil {
		ei.ID = uuid.New()
	}
	return nil
}

// ItemClaim is a participant's declared (possibly fractional) share of one line item.
type ItemClaim struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID        uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	ParticipantID uuid.UUID `gorm:"type:uuid" json:"participant_id"`
	Quantity      float64   `gorm:"type:decimal(10,3);not null" json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ic *ItemClaim) BeforeCreate(tx *gorm.DB) error {
	if ic.ID == uuid.Nil {
		ic.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateExpenseRequest struct {
	PaidBy      string       `json:"paid_by" binding:"required"`
	Description string       `json:"description" binding:"required"`
	Amount      float64      `json:"amount" binding:"required,gt=0"`
	Currency    string       `json:"currency"`
	Category    string       `json:"category"`
	SplitType   string       `json:"split_type" binding:"required,oneof=equal custom percentage itemized"`
	Notes       string       `json:"notes"`
	PaymentDate string       `json:"payment_date"` // YYYY-MM-DD
	Splits      []SplitInput `json:"splits"`       // required for custom, percentage
	Items       []ItemInput  `json:"items"`        // required for itemized
}

type SplitInput struct {
	ParticipantID string  `json:"participant_id" binding:"required"`
	Amount        float64 `json:"amount"`     // custom split
	Percentage    float64 `json:"percentage"` // percentage split
}

type ItemInput struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"required,gt=0"`
}

type UpdateExpenseRequest struct {
	Description string       `json:"description"`
	Amount      float64      `json:"amount"`
	Currency    string       `json:"currency"`
	Category    string       `json:"category"`
	SplitType   string       `json:"split_type"`
	Notes       string       `json:"notes"`
	PaymentDate string       `json:"payment_date"`
	Splits      []SplitInput `json:"splits"`
	Items       []ItemInput  `json:"items"`
}

type ClaimRequest struct {
	ItemID        string  `json:"item_id" binding:"required"`
	ParticipantID string  `json:"participant_id" binding:"required"`
	Quantity      float64 `json:"quantity" binding:"required,gt=0"`
}

// Response structs
type ExpenseResponse struct {
	ID               uuid.UUID       `json:"id"`
	TripID           uuid.UUID       `json:"trip_id"`
	PaidBy           uuid.UUID       `json:"paid_by"`
	PayerName        string          `json:"payer_name"`
	Description      string          `json:"description"`
	Amount           float64         `json:"amount"`
	Currency         string          `json:"currency"`
	Category         string          `json:"category"`
	SplitType        string          `json:"split_type"`
	Notes            string          `json:"notes,omitempty"`
	PaymentDate      time.Time       `json:"payment_date"`
	SettlementAmount *float64        `json:"settlement_amount,omitempty"`
	FXRate           *float64        `json:"fx_rate,omitempty"`
	FXRateDate       *time.Time      `json:"fx_rate_date,omitempty"`
	FXRateSource     string          `json:"fx_rate_source,omitempty"`
	Splits           []SplitResponse `json:"splits"`
	Items            []ItemResponse  `json:"items,omitempty"`
	// Fraction of total item quantity claimed so far (itemized expenses only).
	AllocationProgress *float64  `json:"allocation_progress,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type SplitResponse struct {
	ParticipantID    uuid.UUID `json:"participant_id"`
	ParticipantName  string    `json:"participant_name"`
	Amount           float64   `json:"amount"`
	Percentage       *float64  `json:"percentage,omitempty"`
	SettlementAmount *float64  `json:"settlement_amount,omitempty"`
}

type ItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Quantity  float64         `json:"quantity"`
	UnitPrice float64         `json:"unit_price"`
	Claims    []ClaimResponse `json:"claims"`
}

type ClaimResponse struct {
	ID              uuid.UUID `json:"id"`
	ParticipantID   uuid.UUID `json:"participant_id"`
	ParticipantName string    `json:"participant_name"`
	Quantity        float64   `json:"quantity"`
}
