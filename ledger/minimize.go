package ledger

import (
	"sort"

	"github.com/google/uuid"
)

// Transaction is one suggested payment. Never persisted, recomputed each
// time balances are displayed.
type Transaction struct {
	From   uuid.UUID
	To     uuid.UUID
	Amount float64
}

// MinimizeDebts reduces net balances to a small list of payments that would
// zero every balance, by greedily matching the largest creditor with the
// largest debtor. The result is optimal for common small groups but this is
// a heuristic, not a minimum-transaction-count solver (that problem is
// NP-hard in general).
func MinimizeDebts(balances []Balance) []Transaction {
	type remaining struct {
		id     uuid.UUID
		amount float64
	}

	var creditors, debtors []remaining
	for _, b := range balances {
		if b.Net > Tolerance {
			creditors = append(creditors, remaining{b.ParticipantID, b.Net})
		} else if b.Net < -Tolerance {
			debtors = append(debtors, remaining{b.ParticipantID, -b.Net})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	var transactions []Transaction
	i, j := 0, 0

	for i < len(debtors) && j < len(creditors) {
		amount := debtors[i].amount
		if creditors[j].amount < amount {
			amount = creditors[j].amount
		}
		amount = round2(amount)

		transactions = append(transactions, Transaction{
			From:   debtors[i].id,
			To:     creditors[j].id,
			Amount: amount,
		})

		debtors[i].amount = round2(debtors[i].amount - amount)
		creditors[j].amount = round2(creditors[j].amount - amount)

		if debtors[i].amount < Tolerance {
			i++
		}
		if creditors[j].amount < Tolerance {
			j++
		}
	}

	return transactions
}

// TransactionsFor partitions the full transaction list from one
// participant's perspective into payments they make and payments they
// receive.
func TransactionsFor(transactions []Transaction, participantID uuid.UUID) (toPay, toReceive []Transaction) {
	for _, t := range transactions {
		switch participantID {
		case t.From:
			toPay = append(toPay, t)
		case t.To:
			toReceive = append(toReceive, t)
		}
	}
	return toPay, toReceive
}
