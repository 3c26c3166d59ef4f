package handlers

import (
	"net/http"
	"time"

	"evara-backend/database"
	"evara-backend/models"
	"evara-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Clients and events are managed by the wider platform; these endpoints are
// the minimal surface the invite engine needs for valid references.

type CreateClientRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// POST /api/clients
func CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	client := models.Client{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	}

	if err := database.DB.Create(&client).Error; err != nil {
		utils.InternalError(c, "Failed to create client")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Client created", client)
}

// POST /api/events
func CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		utils.BadRequest(c, "Invalid client ID")
		return
	}

	var client models.Client
	if err := database.DB.First(&client, "id = ?", clientID).Error; err != nil {
		utils.NotFound(c, "Client not found")
		return
	}

	event := models.Event{
		ClientID: clientID,
		Name:     req.Name,
		Type:     req.Type,
		Venue:    req.Venue,
	}
	if event.Type == "" {
		event.Type = "other"
	}
	if req.StartDate != "" {
		if d, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			event.StartDate = d
		}
	}
	if req.EndDate != "" {
		if d, err := time.Parse("2006-01-02", req.EndDate); err == nil {
			event.EndDate = d
		}
	}

	if err := database.DB.Create(&event).Error; err != nil {
		utils.InternalError(c, "Failed to create event")
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Event created", event)
}

// GET /api/events
func GetEvents(c *gin.Context) {
	var events []models.Event
	database.DB.Order("created_at DESC").Find(&events)
	utils.SuccessResponse(c, http.StatusOK, "", events)
}
