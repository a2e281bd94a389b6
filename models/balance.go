package models

import "github.com/google/uuid"

// ParticipantBalance is one participant's net position in the settlement
// currency. Derived per request, never persisted.
type ParticipantBalance struct {
	ParticipantID       uuid.UUID `json:"participant_id"`
	Name                string    `json:"name"`
	TotalPaid           float64   `json:"total_paid"`
	TotalOwed           float64   `json:"total_owed"`
	SettlementsReceived float64   `json:"settlements_received"`
	SettlementsPaid     float64   `json:"settlements_paid"`
	Net                 float64   `json:"net"` // positive = the group owes them
	Currency            string    `json:"currency"`
}

// SuggestedTransaction is one payment from the debt minimizer.
type SuggestedTransaction struct {
	From     uuid.UUID `json:"from"`
	FromName string    `json:"from_name"`
	To       uuid.UUID `json:"to"`
	ToName   string    `json:"to_name"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
}

// TripBalanceSummary is returned for GET /api/trips/:id/balances
type TripBalanceSummary struct {
	TripID                uuid.UUID              `json:"trip_id"`
	TripName              string                 `json:"trip_name"`
	Currency              string                 `json:"currency"`
	TotalSpent            float64                `json:"total_spent"`
	Balances              []ParticipantBalance   `json:"balances"`
	SuggestedTransactions []SuggestedTransaction `json:"suggested_transactions"`
}

// ParticipantBalanceView is the personalized "you owe / you are owed" view.
type ParticipantBalanceView struct {
	Balance   ParticipantBalance     `json:"balance"`
	ToPay     []SuggestedTransaction `json:"to_pay"`
	ToReceive []SuggestedTransaction `json:"to_receive"`
}

// FXRateResponse is returned for GET /api/fx/rate
type FXRateResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	Date   string  `json:"date"`
	Source string  `json:"source"`
}
