package handlers

import (
	"net/http"

	"evara-backend/database"
	"evara-backend/models"
	"evara-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/guests
func CreateGuest(c *gin.Context) {
	var req models.CreateGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var event models.Event
	if err := database.DB.First(&event, "id = ?", eventID).Error; err != nil {
		utils.NotFound(c, "Event not found")
		return
	}

	guest := models.Guest{
		EventID:   eventID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		GroupName: req.GroupName,
	}

	if err := database.DB.Create(&guest).Error; err != nil {
		utils.InternalError(c, "Failed to create guest")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Guest created", guest)
}

// GET /api/guests/by-event/:eventId
func GetGuestsByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var guests []models.Guest
	database.DB.Where("event_id = ?", eventID).Order("first_name ASC").Find(&guests)
	utils.SuccessResponse(c, http.StatusOK, "", guests)
}
