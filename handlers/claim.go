package handlers

import (
	"fmt"
	"net/http"
	"tripledger-backend/database"
	"tripledger-backend/ledger"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/expenses/:id/claims
func CreateClaim(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}
	if expense.SplitType != "itemized" {
		utils.BadRequest(c, "Claims are only valid on itemized expenses")
		return
	}

	var req models.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		utils.BadRequest(c, "Invalid item ID")
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil || !isParticipant(expense.TripID, participantID) {
		utils.BadRequest(c, "participant_id must be a participant of this trip")
		return
	}

	var item models.ExpenseItem
	if err := database.DB.Where("id = ? AND expense_id = ?", itemID, expenseID).First(&item).Error; err != nil {
		utils.NotFound(c, "Item not found on this expense")
		return
	}

	// Claims may be fractional and partial, but never exceed what's left.
	var claimed float64
	database.DB.Model(&models.ItemClaim{}).Where("item_id = ?", itemID).
		Select("COALESCE(SUM(quantity), 0)").Scan(&claimed)

	remaining := item.Quantity - claimed
	if req.Quantity > remaining+ledger.Tolerance {
		utils.BadRequest(c, fmt.Sprintf("only %.3f of %.3f remains unclaimed on \"%s\"", remaining, item.Quantity, item.Name))
		return
	}

	claim := models.ItemClaim{
		ItemID:        itemID,
		ParticipantID: participantID,
		Quantity:      req.Quantity,
	}
	if err := database.DB.Create(&claim).Error; err != nil {
		utils.InternalError(c, "Failed to record claim")
		return
	}

	logActivity(expense.TripID, participantID, "item_claimed", expense.ID,
		fmt.Sprintf("%s claimed %.3g × \"%s\"", participantName(participantID), req.Quantity, item.Name))

	utils.SuccessResponse(c, http.StatusCreated, "Claim recorded", buildExpenseResponse(expenseID))
}

// DELETE /api/claims/:id
func DeleteClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid claim ID")
		return
	}

	var claim models.ItemClaim
	if err := database.DB.First(&claim, claimID).Error; err != nil {
		utils.NotFound(c, "Claim not found")
		return
	}

	var item models.ExpenseItem
	database.DB.First(&item, claim.ItemID)

	database.DB.Delete(&claim)
	utils.SuccessResponse(c, http.StatusOK, "Claim removed", buildExpenseResponse(item.ExpenseID))
}
