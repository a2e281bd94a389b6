package ledger

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Tolerance for money comparisons, in currency units.
const Tolerance = 0.01

// ValidationError reports split input that violates an invariant. Delta
// carries the numeric mismatch where one applies (sum vs. total, sum vs. 100).
type ValidationError struct {
	Message string
	Delta   float64
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Conversion is the settlement-currency view of an expense: the frozen
// original→settlement rate and the converted total.
type Conversion struct {
	Rate   float64
	Amount float64
}

// Split is one participant's share of one expense.
type Split struct {
	ParticipantID    uuid.UUID
	Amount           float64 // original currency
	Percentage       *float64
	SettlementAmount *float64
}

// SplitPolicy is the closed set of split strategies. Exactly one variant
// applies per expense.
type SplitPolicy interface {
	splitPolicy()
}

// EqualSplit divides the amount evenly across the selected participants.
type EqualSplit struct{}

// CustomSplit takes each participant's amount verbatim.
type CustomSplit struct {
	Shares []CustomShare
}

type CustomShare struct {
	ParticipantID uuid.UUID
	Amount        float64
}

// PercentageSplit assigns each participant a percentage of the total.
type PercentageSplit struct {
	Shares []PercentageShare
}

type PercentageShare struct {
	ParticipantID uuid.UUID
	Percent       float64
}

// ItemizedSplit derives shares from per-item claims. Partial allocation is a
// valid state: claimed totals need not cover the whole expense.
type ItemizedSplit struct {
	Items  []LineItem
	Claims []Claim
}

type LineItem struct {
	ID        uuid.UUID
	Quantity  float64
	UnitPrice float64
}

type Claim struct {
	ItemID        uuid.UUID
	ParticipantID uuid.UUID
	Quantity      float64
}

func (EqualSplit) splitPolicy()      {}
func (CustomSplit) splitPolicy()     {}
func (PercentageSplit) splitPolicy() {}
func (ItemizedSplit) splitPolicy()   {}

// ComputeSplits turns one expense amount into per-participant shares.
// participants is the selected set for equal splits; the other policies carry
// their own participant sets. conv, when non-nil, also produces
// settlement-currency share amounts. Shares that compute to zero or less are
// dropped, never returned.
func ComputeSplits(amount float64, policy SplitPolicy, participants []uuid.UUID, conv *Conversion) ([]Split, error) {
	var splits []Split

	switch p := policy.(type) {
	case EqualSplit:
		if len(participants) == 0 {
			return nil, &ValidationError{Message: "no participants to split between"}
		}

		n := float64(len(participants))
		perPerson := round2(amount / n)
		// The rounding remainder is deliberately not redistributed.
		var perSettlement float64
		if conv != nil {
			perSettlement = round2(conv.Amount / n)
		}

		for _, id := range participants {
			split := Split{ParticipantID: id, Amount: perPerson}
			if conv != nil {
				v := perSettlement
				split.SettlementAmount = &v
			}
			splits = append(splits, split)
		}

	case CustomSplit:
		if len(p.Shares) == 0 {
			return nil, &ValidationError{Message: "splits required for custom split type"}
		}

		var total float64
		for _, s := range p.Shares {
			if s.Amount <= 0 {
				return nil, &ValidationError{
					Message: fmt.Sprintf("split amount for participant %s must be greater than 0", s.ParticipantID),
				}
			}
			total += s.Amount
		}

		if delta := total - amount; math.Abs(delta) > Tolerance {
			return nil, &ValidationError{
				Message: fmt.Sprintf("split amounts (%.2f) don't add up to total (%.2f)", total, amount),
				Delta:   round2(delta),
			}
		}

		for _, s := range p.Shares {
			split := Split{ParticipantID: s.ParticipantID, Amount: round2(s.Amount)}
			if conv != nil {
				v := round2(s.Amount * conv.Rate)
				split.SettlementAmount = &v
			}
			splits = append(splits, split)
		}

	case PercentageSplit:
		if len(p.Shares) == 0 {
			return nil, &ValidationError{Message: "splits required for percentage split type"}
		}

		var totalPercent float64
		for _, s := range p.Shares {
			if s.Percent <= 0 {
				return nil, &ValidationError{
					Message: fmt.Sprintf("percentage for participant %s must be greater than 0", s.ParticipantID),
				}
			}
			totalPercent += s.Percent
		}

		if delta := totalPercent - 100; math.Abs(delta) > Tolerance {
			return nil, &ValidationError{
				Message: fmt.Sprintf("percentages must add up to 100, got %.2f", totalPercent),
				Delta:   round2(delta),
			}
		}

		for _, s := range p.Shares {
			pct := s.Percent
			split := Split{
				ParticipantID: s.ParticipantID,
				Amount:        round2(amount * pct / 100),
				Percentage:    &pct,
			}
			if conv != nil {
				v := round2(conv.Amount * pct / 100)
				split.SettlementAmount = &v
			}
			splits = append(splits, split)
		}

	case ItemizedSplit:
		var err error
		splits, err = itemizedSplits(amount, p, conv)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unsupported split policy %T", policy)
	}

	// Zero-value obligations are never persisted.
	kept := splits[:0]
	for _, s := range splits {
		if s.Amount > 0 {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

// itemizedSplits charges each claimant quantity × unit price plus a
// proportional share of the surcharge (tax/service: expense total minus the
// item subtotal, allocated by claimed subtotal).
func itemizedSplits(amount float64, p ItemizedSplit, conv *Conversion) ([]Split, error) {
	if len(p.Items) == 0 {
		return nil, &ValidationError{Message: "items required for itemized split type"}
	}

	prices := make(map[uuid.UUID]float64, len(p.Items))
	var subtotal float64
	for _, item := range p.Items {
		prices[item.ID] = item.UnitPrice
		subtotal += item.Quantity * item.UnitPrice
	}
	if subtotal <= 0 {
		return nil, &ValidationError{Message: "itemized subtotal must be greater than 0"}
	}

	surcharge := amount - subtotal

	// Accumulate claimed subtotals in first-claim order.
	var order []uuid.UUID
	claimed := make(map[uuid.UUID]float64)
	for _, claim := range p.Claims {
		price, ok := prices[claim.ItemID]
		if !ok {
			return nil, &ValidationError{
				Message: fmt.Sprintf("claim references unknown item %s", claim.ItemID),
			}
		}
		if claim.Quantity <= 0 {
			return nil, &ValidationError{
				Message: fmt.Sprintf("claim quantity for participant %s must be greater than 0", claim.ParticipantID),
			}
		}
		if _, seen := claimed[claim.ParticipantID]; !seen {
			order = append(order, claim.ParticipantID)
		}
		claimed[claim.ParticipantID] += claim.Quantity * price
	}

	var splits []Split
	for _, id := range order {
		base := claimed[id]
		owed := base + base*(surcharge/subtotal)
		split := Split{ParticipantID: id, Amount: round2(owed)}
		if conv != nil {
			v := round2(owed * conv.Rate)
			split.SettlementAmount = &v
		}
		splits = append(splits, split)
	}
	return splits, nil
}

// AllocationProgress is the fraction of total item quantity claimed so far,
// in [0, 1]. Partial allocation is a displayed state, not an error.
func AllocationProgress(items []LineItem, claims []Claim) float64 {
	var total, claimed float64
	for _, item := range items {
		total += item.Quantity
	}
	if total <= 0 {
		return 0
	}
	for _, c := range claims {
		claimed += c.Quantity
	}
	return claimed / total
}

func round2(val float64) float64 {
	return math.Round(val*100) / 100
}
