package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"evara-backend/config"
	"evara-backend/models"
	"evara-backend/services"
	"evara-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxUploadFiles = 5
const maxUploadSize = 50 << 20 // 50MB per file

// InviteHandler wires the invite engine's services to the REST surface. All
// dependencies are injected so tests can run against fakes and an in-memory DB.
type InviteHandler struct {
	DB         *gorm.DB
	Versions   *services.VersionService
	Dispatcher *services.Dispatcher
	Reconciler *services.Reconciler
	Analytics  *services.AnalyticsService
	WhatsApp   *services.WhatsAppService
	Email      *services.EmailService
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFound(c, "Not found")
	case errors.Is(err, services.ErrNotConfigured):
		utils.BadRequest(c, "WhatsApp service not configured")
	case services.IsValidation(err):
		utils.BadRequest(c, err.Error())
	default:
		utils.InternalError(c, err.Error())
	}
}

// GET /api/invites/by-event/:eventId
func (h *InviteHandler) GetInvitesByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		utils.BadRequest(c, "Invalid event ID")
		return
	}

	var invites []models.Invite
	h.DB.Where("event_id = ?", eventID).Order("created_at DESC").Find(&invites)

	summaries := make([]models.InviteSummaryResponse, 0, len(invites))
	for _, invite := range invites {
		summary := models.InviteSummaryResponse{
			ID:          invite.ID,
			ClientID:    invite.ClientID,
			EventID:     invite.EventID,
			Name:        invite.Name,
			Description: invite.Description,
			CreatedAt:   invite.CreatedAt,
		}

		var creator models.User
		if err := h.DB.First(&creator, "id = ?", invite.CreatedBy).Error; err == nil {
			summary.CreatedByName = creator.Name
		}

		var active models.InviteVersion
		if err := h.DB.Where("invite_id = ? AND is_active = ?", invite.ID, true).
			First(&active).Error; err == nil {
			summary.VersionID = &active.ID
			summary.VersionNumber = active.VersionNumber
			summary.Title = active.Title
			h.DB.Model(&models.Distribution{}).
				Where("invite_version_id = ?", active.ID).
				Count(&summary.TotalSent)
		}

		summaries = append(summaries, summary)
	}

	utils.SuccessResponse(c, http.StatusOK, "", summaries)
}

// GET /api/invites/:id/versions
func (h *InviteHandler) GetInviteVersions(c *gin.Context) {
	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid invite ID")
		return
	}

	versions, err := h.Versions.ListVersions(inviteID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	responses := make([]models.VersionResponse, 0, len(versions))
	for _, v := range versions {
		var totalSent int64
		h.DB.Model(&models.Distribution{}).
			Where("invite_version_id = ?", v.ID).
			Count(&totalSent)
		responses = append(responses, v.ToResponse(totalSent))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// POST /api/invites
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	var req models.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	invite, version, err := h.Versions.CreateInvite(req, utils.GetCurrentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Invite created", gin.H{
		"invite":  invite,
		"version": version.ToResponse(0),
	})
}

// POST /api/invites/:id/versions
func (h *InviteHandler) CreateVersion(c *gin.Context) {
	inviteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid invite ID")
		return
	}

	var req models.InviteContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	version, err := h.Versions.CreateVersion(inviteID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Version created", version.ToResponse(0))
}

// POST /api/invites/upload-media
func (h *InviteHandler) UploadMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequest(c, "Invalid multipart form")
		return
	}

	files := form.File["media"]
	if len(files) == 0 {
		utils.BadRequest(c, "No files uploaded")
		return
	}
	if len(files) > maxUploadFiles {
		utils.BadRequest(c, fmt.Sprintf("At most %d files per upload", maxUploadFiles))
		return
	}

	uploadDir := config.AppConfig.UploadDir
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		utils.InternalError(c, "Failed to prepare upload directory")
		return
	}

	type uploadedFile struct {
		Filename     string `json:"filename"`
		OriginalName string `json:"original_name"`
		MimeType     string `json:"mimetype"`
		Size         int64  `json:"size"`
		URL          string `json:"url"`
	}

	var uploaded []uploadedFile
	for _, file := range files {
		mimeType := file.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
			utils.BadRequest(c, "Only image and video files are allowed")
			return
		}
		if file.Size > maxUploadSize {
			utils.BadRequest(c, "File exceeds the 50MB limit")
			return
		}

		name := fmt.Sprintf("media-%s%s", uuid.New().String(), filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, name)); err != nil {
			utils.InternalError(c, "Failed to store uploaded file")
			return
		}

		uploaded = append(uploaded, uploadedFile{
			Filename:     name,
			OriginalName: file.Filename,
			MimeType:     mimeType,
			Size:         file.Size,
			URL:          "/uploads/invites/" + name,
		})
	}

	utils.SuccessResponse(c, http.StatusOK, "Files uploaded", gin.H{"files": uploaded})
}

type PreviewRequest struct {
	PhoneNumber string                 `json:"phone_number" binding:"required"`
	InviteData  services.InviteContent `json:"invite_data" binding:"required"`
}

// POST /api/invites/send-preview
func (h *InviteHandler) SendPreview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// Development convenience: preview works without provider credentials.
	if !h.WhatsApp.IsConfigured() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Preview sent (mock response - WhatsApp not configured)",
			"status":  "delivered",
			"mock":    true,
		})
		return
	}

	result := h.WhatsApp.SendInvite(c.Request.Context(), req.PhoneNumber, req.InviteData)
	c.JSON(http.StatusOK, result)
}

type EmailPreviewRequest struct {
	Email      string                 `json:"email" binding:"required,email"`
	Name       string                 `json:"name"`
	InviteData services.InviteContent `json:"invite_data" binding:"required"`
}

// POST /api/invites/send-email-preview
func (h *InviteHandler) SendEmailPreview(c *gin.Context) {
	var req EmailPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if !h.Email.IsConfigured() {
		utils.BadRequest(c, "Email service not configured")
		return
	}

	if err := h.Email.SendInvitePreview(req.Email, req.Name, req.InviteData); err != nil {
		utils.InternalError(c, "Failed to send email preview")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Email preview sent", nil)
}

type SendInvitesRequest struct {
	GuestIDs []string `json:"guest_ids" binding:"required"`
}

// POST /api/invites/:id/send — :id is an invite *version* id.
func (h *InviteHandler) SendInvites(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid version ID")
		return
	}

	var req SendInvitesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	guestIDs := make([]uuid.UUID, 0, len(req.GuestIDs))
	for _, raw := range req.GuestIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.BadRequest(c, "Invalid guest ID: "+raw)
			return
		}
		guestIDs = append(guestIDs, id)
	}

	batch, err := h.Dispatcher.Dispatch(c.Request.Context(), versionID, guestIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     fmt.Sprintf("Invite sent to %d guests, %d failed", batch.SentCount, batch.FailedCount),
		"sentCount":   batch.SentCount,
		"failedCount": batch.FailedCount,
		"totalGuests": batch.TotalGuests,
		"results":     batch.Results,
	})
}

// GET /api/invites/:id/analytics — :id is an invite *version* id.
func (h *InviteHandler) GetAnalytics(c *gin.Context) {
	versionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid version ID")
		return
	}

	analytics, err := h.Analytics.Get(versionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var distributions []models.Distribution
	h.DB.Where("invite_version_id = ?", versionID).
		Order("sent_at DESC").
		Find(&distributions)

	responses := make([]models.DistributionResponse, 0, len(distributions))
	for _, d := range distributions {
		resp := models.DistributionResponse{
			ID:             d.ID,
			GuestID:        d.GuestID,
			PhoneNumber:    d.PhoneNumber,
			DeliveryStatus: d.DeliveryStatus,
			SentAt:         d.SentAt,
			UpdatedAt:      d.UpdatedAt,
		}
		var guest models.Guest
		if err := h.DB.First(&guest, "id = ?", d.GuestID).Error; err == nil {
			resp.GuestName = guest.FullName()
			resp.GuestEmail = guest.Email
		}
		responses = append(responses, resp)
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"analytics":     analytics,
		"distributions": responses,
	})
}

type SendWhatsAppRequest struct {
	GuestID string `json:"guest_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// POST /api/invites/send-whatsapp — ad hoc single message, no bookkeeping.
func (h *InviteHandler) SendWhatsApp(c *gin.Context) {
	var req SendWhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	guestID, err := uuid.Parse(req.GuestID)
	if err != nil {
		utils.BadRequest(c, "Invalid guest ID")
		return
	}

	if !h.WhatsApp.IsConfigured() {
		utils.BadRequest(c, "WhatsApp service not configured")
		return
	}

	var guest models.Guest
	if err := h.DB.First(&guest, "id = ? AND phone IS NOT NULL AND phone <> ''", guestID).Error; err != nil {
		utils.NotFound(c, "Guest not found or has no phone number")
		return
	}

	result := h.WhatsApp.SendText(c.Request.Context(), guest.Phone, req.Message)
	c.JSON(http.StatusOK, result)
}
