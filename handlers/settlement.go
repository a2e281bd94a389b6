package handlers

import (
	"fmt"
	"net/http"
	"time"
	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/trips/:id/settlements
func CreateSettlement(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if !tripExists(tripID) {
		utils.NotFound(c, "Trip not found")
		return
	}

	var req models.CreateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	from, err := uuid.Parse(req.FromParticipant)
	if err != nil || !isParticipant(tripID, from) {
		utils.BadRequest(c, "from_participant must be a participant of this trip")
		return
	}
	to, err := uuid.Parse(req.ToParticipant)
	if err != nil || !isParticipant(tripID, to) {
		utils.BadRequest(c, "to_participant must be a participant of this trip")
		return
	}
	if from == to {
		utils.BadRequest(c, "A settlement needs two different participants")
		return
	}

	settledAt := time.Now()
	if req.SettledAt != "" {
		if parsed, err := time.Parse("2006-01-02", req.SettledAt); err == nil {
			settledAt = parsed
		}
	}

	settlement := models.Settlement{
		TripID:          tripID,
		FromParticipant: from,
		ToParticipant:   to,
		Amount:          req.Amount,
		SettledAt:       settledAt,
		Method:          req.Method,
		Notes:           req.Notes,
	}

	if err := database.DB.Create(&settlement).Error; err != nil {
		utils.InternalError(c, "Failed to record settlement")
		return
	}

	logActivity(tripID, from, "settlement_recorded", settlement.ID,
		fmt.Sprintf("%s paid %s %s %.2f", participantName(from), participantName(to),
			config.AppConfig.SettlementCurrency, req.Amount))

	utils.SuccessResponse(c, http.StatusCreated, "Settlement recorded", settlement)
}

// GET /api/trips/:id/settlements
func GetTripSettlements(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var settlements []models.Settlement
	database.DB.Where("trip_id = ?", tripID).
		Preload("Payer").Preload("Payee").
		Order("settled_at DESC, created_at DESC").
		Find(&settlements)

	utils.SuccessResponse(c, http.StatusOK, "", settlements)
}
