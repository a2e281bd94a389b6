package handlers

import (
	"net/http"
	"time"
	"tripledger-backend/database"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/trips
func CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	trip := models.Trip{
		Name:      req.Name,
		Location:  req.Location,
		StartDate: parseDatePtr(req.StartDate),
		EndDate:   parseDatePtr(req.EndDate),
	}

	if err := database.DB.Create(&trip).Error; err != nil {
		utils.InternalError(c, "Failed to create trip")
		return
	}

	for _, name := range req.Participants {
		if name == "" {
			continue
		}
		database.DB.Create(&models.Participant{TripID: trip.ID, Name: name})
	}

	database.DB.Preload("Participants").First(&trip, trip.ID)
	utils.SuccessResponse(c, http.StatusCreated, "Trip created", trip)
}

// GET /api/trips
func GetTrips(c *gin.Context) {
	var trips []models.Trip
	database.DB.Preload("Participants").Order("created_at DESC").Find(&trips)
	utils.SuccessResponse(c, http.StatusOK, "", trips)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var trip models.Trip
	if err := database.DB.Preload("Participants").First(&trip, tripID).Error; err != nil {
		utils.NotFound(c, "Trip not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", trip)
}

// PUT /api/trips/:id
func UpdateTrip(c *gin.Context) {
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

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if d := parseDatePtr(req.StartDate); d != nil {
		updates["start_date"] = d
	}
	if d := parseDatePtr(req.EndDate); d != nil {
		updates["end_date"] = d
	}

	database.DB.Model(&trip).Updates(updates)
	database.DB.Preload("Participants").First(&trip, tripID)
	utils.SuccessResponse(c, http.StatusOK, "Trip updated", trip)
}

// POST /api/trips/:id/participants
func AddParticipant(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if !tripExists(tripID) {
		utils.NotFound(c, "Trip not found")
		return
	}

	var req models.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	participant := models.Participant{
		TripID: tripID,
		Name:   req.Name,
		Email:  req.Email,
	}

	if err := database.DB.Create(&participant).Error; err != nil {
		utils.InternalError(c, "Failed to add participant")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Participant added", participant)
}

// GET /api/trips/:id/participants
func GetParticipants(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var participants []models.Participant
	database.DB.Where("trip_id = ?", tripID).Order("joined_at ASC").Find(&participants)
	utils.SuccessResponse(c, http.StatusOK, "", participants)
}

// DELETE /api/trips/:id/participants/:pid
func RemoveParticipant(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}
	participantID, err := uuid.Parse(c.Param("pid"))
	if err != nil {
		utils.BadRequest(c, "Invalid participant ID")
		return
	}

	var participant models.Participant
	if err := database.DB.Where("trip_id = ? AND id = ?", tripID, participantID).First(&participant).Error; err != nil {
		utils.NotFound(c, "Participant not found")
		return
	}

	// A participant woven into the ledger can't be removed without breaking
	// the balance history.
	var count int64
	database.DB.Model(&models.Expense{}).Where("trip_id = ? AND paid_by = ?", tripID, participantID).Count(&count)
	if count == 0 {
		database.DB.Model(&models.ExpenseSplit{}).Where("participant_id = ?", participantID).Count(&count)
	}
	if count > 0 {
		utils.BadRequest(c, "Participant has expenses or splits and cannot be removed")
		return
	}

	database.DB.Delete(&participant)
	utils.SuccessResponse(c, http.StatusOK, "Participant removed", nil)
}

func tripExists(tripID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.Trip{}).Where("id = ?", tripID).Count(&count)
	return count > 0
}

func isParticipant(tripID, participantID uuid.UUID) bool {
	var count int64
	database.DB.Model(&models.Participant{}).Where("trip_id = ? AND id = ?", tripID, participantID).Count(&count)
	return count > 0
}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &parsed
}
