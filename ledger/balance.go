package ledger

import "github.com/google/uuid"

// Expense is the aggregator's view of one persisted expense: who paid, the
// frozen settlement conversion, the policy-based splits and any itemized
// claim charges (original currency).
type Expense struct {
	ID               uuid.UUID
	PaidBy           uuid.UUID
	Amount           float64  // original currency
	SettlementAmount *float64 // nil when conversion never succeeded
	FXRate           *float64 // frozen original→settlement rate
	Splits           []Split
	Claims           []ClaimCharge
}

// ClaimCharge is one participant's itemized charge in the expense's original
// currency (claimed quantity × unit price plus allocated surcharge).
type ClaimCharge struct {
	ParticipantID uuid.UUID
	Amount        float64
}

// SettlementPayment is a recorded real-world payment in the settlement currency.
type SettlementPayment struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount float64
}

// Balance is one participant's net position in the settlement currency.
// Positive net means the group owes them; negative means they owe the group.
type Balance struct {
	ParticipantID       uuid.UUID
	TotalPaid           float64
	TotalOwed           float64
	SettlementsReceived float64
	SettlementsPaid     float64
	Net                 float64
}

// ComputeBalances folds all expenses and settlements of a trip into one
// balance per participant. It is pure and total: participants with no
// activity get all-zero balances, and the nets of all participants sum to
// zero up to rounding. Itemized claim charges are converted with the parent
// expense's frozen rate (1 when absent), never a freshly resolved one, so
// they stay consistent with what the payer was credited.
func ComputeBalances(participantIDs []uuid.UUID, expenses []Expense, settlements []SettlementPayment) []Balance {
	index := make(map[uuid.UUID]int, len(participantIDs))
	balances := make([]Balance, 0, len(participantIDs))

	ensure := func(id uuid.UUID) *Balance {
		if i, ok := index[id]; ok {
			return &balances[i]
		}
		balances = append(balances, Balance{ParticipantID: id})
		index[id] = len(balances) - 1
		return &balances[len(balances)-1]
	}

	for _, id := range participantIDs {
		ensure(id)
	}

	for _, e := range expenses {
		paid := e.Amount
		if e.SettlementAmount != nil {
			paid = *e.SettlementAmount
		}
		ensure(e.PaidBy).TotalPaid += paid

		for _, s := range e.Splits {
			owed := s.Amount
			if s.SettlementAmount != nil {
				owed = *s.SettlementAmount
			}
			ensure(s.ParticipantID).TotalOwed += owed
		}

		rate := 1.0
		if e.FXRate != nil {
			rate = *e.FXRate
		}
		for _, c := range e.Claims {
			ensure(c.ParticipantID).TotalOwed += c.Amount * rate
		}
	}

	for _, s := range settlements {
		ensure(s.From).SettlementsPaid += s.Amount
		ensure(s.To).SettlementsReceived += s.Amount
	}

	for i := range balances {
		b := &balances[i]
		b.TotalPaid = round2(b.TotalPaid)
		b.TotalOwed = round2(b.TotalOwed)
		b.SettlementsPaid = round2(b.SettlementsPaid)
		b.SettlementsReceived = round2(b.SettlementsReceived)
		b.Net = round2(b.TotalPaid - b.TotalOwed + b.SettlementsPaid - b.SettlementsReceived)
	}

	return balances
}
