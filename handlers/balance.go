package handlers

import (
	"net/http"
	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/ledger"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GET /api/trips/:id/balances
func GetTripBalances(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var trip models.Trip
	if err := database.DB.First(&trip, tripID).Error; err != nil {
		utils.NotFound(c, "Trip not found")
		return
	}

	balances, transactions := computeTripLedger(tripID)

	var totalSpent float64
	for _, b := range balances {
		totalSpent += b.TotalPaid
	}

	summary := models.TripBalanceSummary{
		TripID:                tripID,
		TripName:              trip.Name,
		Currency:              config.AppConfig.SettlementCurrency,
		TotalSpent:            utils.RoundToTwo(totalSpent),
		Balances:              toBalanceResponses(balances),
		SuggestedTransactions: toTransactionResponses(transactions),
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/trips/:id/balances/:pid — personalized "you owe / you are owed" view
func GetParticipantBalance(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}
	participantID, err := uuid.Parse(c.Param("pid"))
	if err != nil || !isParticipant(tripID, participantID) {
		utils.NotFound(c, "Participant not found on this trip")
		return
	}

	balances, transactions := computeTripLedger(tripID)
	toPay, toReceive := ledger.TransactionsFor(transactions, participantID)

	view := models.ParticipantBalanceView{
		ToPay:     toTransactionResponses(toPay),
		ToReceive: toTransactionResponses(toReceive),
	}
	for _, b := range toBalanceResponses(balances) {
		if b.ParticipantID == participantID {
			view.Balance = b
			break
		}
	}

	utils.SuccessResponse(c, http.StatusOK, "", view)
}

// computeTripLedger folds all persisted expenses, splits, claims and
// settlements of a trip into net balances and minimized transactions.
// Recomputed on every request; nothing here is cached.
func computeTripLedger(tripID uuid.UUID) ([]ledger.Balance, []ledger.Transaction) {
	var expenses []models.Expense
	database.DB.Where("trip_id = ?", tripID).Find(&expenses)

	ledgerExpenses := make([]ledger.Expense, 0, len(expenses))
	for _, e := range expenses {
		le := ledger.Expense{
			ID:               e.ID,
			PaidBy:           e.PaidBy,
			Amount:           e.Amount,
			SettlementAmount: e.SettlementAmount,
			FXRate:           e.FXRate,
		}

		if e.SplitType == "itemized" {
			// Charges go through the same allocation as the displayed
			// shares, so each claimant carries their slice of the
			// tax/service surcharge and a fully claimed expense nets out.
			items, _ := loadItemized(e.ID)
			lineItems, lineClaims := itemizedInputs(items)
			shares, err := ledger.ComputeSplits(e.Amount, ledger.ItemizedSplit{Items: lineItems, Claims: lineClaims}, nil, nil)
			if err == nil {
				for _, s := range shares {
					le.Claims = append(le.Claims, ledger.ClaimCharge{
						ParticipantID: s.ParticipantID,
						Amount:        s.Amount,
					})
				}
			}
		} else {
			var rows []models.ExpenseSplit
			database.DB.Where("expense_id = ?", e.ID).Find(&rows)
			for _, r := range rows {
				le.Splits = append(le.Splits, ledger.Split{
					ParticipantID:    r.ParticipantID,
					Amount:           r.Amount,
					Percentage:       r.Percentage,
					SettlementAmount: r.SettlementAmount,
				})
			}
		}

		ledgerExpenses = append(ledgerExpenses, le)
	}

	var settlements []models.Settlement
	database.DB.Where("trip_id = ?", tripID).Find(&settlements)

	payments := make([]ledger.SettlementPayment, 0, len(settlements))
	for _, s := range settlements {
		payments = append(payments, ledger.SettlementPayment{
			From:   s.FromParticipant,
			To:     s.ToParticipant,
			Amount: s.Amount,
		})
	}

	balances := ledger.ComputeBalances(tripParticipantIDs(tripID), ledgerExpenses, payments)
	return balances, ledger.MinimizeDebts(balances)
}

func toBalanceResponses(balances []ledger.Balance) []models.ParticipantBalance {
	out := make([]models.ParticipantBalance, 0, len(balances))
	for _, b := range balances {
		out = append(out, models.ParticipantBalance{
			ParticipantID:       b.ParticipantID,
			Name:                participantName(b.ParticipantID),
			TotalPaid:           b.TotalPaid,
			TotalOwed:           b.TotalOwed,
			SettlementsReceived: b.SettlementsReceived,
			SettlementsPaid:     b.SettlementsPaid,
			Net:                 b.Net,
			Currency:            config.AppConfig.SettlementCurrency,
		})
	}
	return out
}

func toTransactionResponses(transactions []ledger.Transaction) []models.SuggestedTransaction {
	out := make([]models.SuggestedTransaction, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, models.SuggestedTransaction{
			From:     t.From,
			FromName: participantName(t.From),
			To:       t.To,
			ToName:   participantName(t.To),
			Amount:   t.Amount,
			Currency: config.AppConfig.SettlementCurrency,
		})
	}
	return out
}
