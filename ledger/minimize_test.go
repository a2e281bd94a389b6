package ledger

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func balanceList(nets map[uuid.UUID]float64) []Balance {
	// Build in fixed participant order for determinism.
	var balances []Balance
	for _, id := range []uuid.UUID{p1, p2, p3} {
		if net, ok := nets[id]; ok {
			balances = append(balances, Balance{ParticipantID: id, Net: net})
		}
	}
	return balances
}

func TestMinimizeDebts(t *testing.T) {
	tests := []struct {
		name         string
		nets         map[uuid.UUID]float64
		wantCount    int
		validateFunc func(t *testing.T, transactions []Transaction)
	}{
		{
			name:      "one creditor two debtors",
			nets:      map[uuid.UUID]float64{p1: 50, p2: -30, p3: -20},
			wantCount: 2,
			validateFunc: func(t *testing.T, transactions []Transaction) {
				// Largest debtor first: p2 pays 30, then p3 pays 20, both to p1.
				if transactions[0].From != p2 || transactions[0].To != p1 || math.Abs(transactions[0].Amount-30) > 0.01 {
					t.Errorf("first transaction = %+v, want p2→p1 30", transactions[0])
				}
				if transactions[1].From != p3 || transactions[1].To != p1 || math.Abs(transactions[1].Amount-20) > 0.01 {
					t.Errorf("second transaction = %+v, want p3→p1 20", transactions[1])
				}
			},
		},
		{
			name:      "already settled group needs no transactions",
			nets:      map[uuid.UUID]float64{p1: 0, p2: 0.005, p3: -0.005},
			wantCount: 0,
		},
		{
			name:      "single pair",
			nets:      map[uuid.UUID]float64{p1: 25.5, p2: -25.5},
			wantCount: 1,
		},
		{
			name:      "creditor split across debtors",
			nets:      map[uuid.UUID]float64{p1: -60, p2: 40, p3: 20},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := balanceList(tt.nets)
			transactions := MinimizeDebts(balances)

			if len(transactions) != tt.wantCount {
				t.Fatalf("got %d transactions, want %d", len(transactions), tt.wantCount)
			}

			for _, tr := range transactions {
				if tr.Amount <= 0 {
					t.Errorf("transaction amount %v, want strictly positive", tr.Amount)
				}
				if tr.From == tr.To {
					t.Errorf("self-transaction for %s", tr.From)
				}
			}

			// Transactions exactly realize the balances: received minus paid
			// equals each participant's net.
			for _, b := range balances {
				var flow float64
				for _, tr := range transactions {
					if tr.To == b.ParticipantID {
						flow += tr.Amount
					}
					if tr.From == b.ParticipantID {
						flow -= tr.Amount
					}
				}
				if math.Abs(flow-b.Net) > 0.011 {
					t.Errorf("participant %s flow = %v, want net %v", b.ParticipantID, flow, b.Net)
				}
			}

			if tt.validateFunc != nil {
				tt.validateFunc(t, transactions)
			}
		})
	}
}

func TestTransactionsFor(t *testing.T) {
	transactions := []Transaction{
		{From: p2, To: p1, Amount: 30},
		{From: p3, To: p1, Amount: 20},
		{From: p1, To: p3, Amount: 5},
	}

	toPay, toReceive := TransactionsFor(transactions, p1)
	if len(toPay) != 1 || toPay[0].To != p3 {
		t.Errorf("toPay = %+v, want single payment to p3", toPay)
	}
	if len(toReceive) != 2 {
		t.Errorf("got %d incoming transactions, want 2", len(toReceive))
	}

	toPay, toReceive = TransactionsFor(transactions, p2)
	if len(toPay) != 1 || len(toReceive) != 0 {
		t.Errorf("p2 partition = %d/%d, want 1 to pay, 0 to receive", len(toPay), len(toReceive))
	}
}
