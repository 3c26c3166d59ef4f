package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite is the master record for one logical invitation. Content lives in
// InviteVersions; the master row never changes after creation.
type Invite struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID    uuid.UUID       `gorm:"type:uuid;index" json:"client_id"`
	EventID     uuid.UUID       `gorm:"type:uuid;index" json:"event_id"`
	Name        string          `gorm:"not null;size:150" json:"name"`
	Description string          `json:"description,omitempty"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid" json:"created_by"`
	Creator     User            `gorm:"foreignKey:CreatedBy" json:"-"`
	Versions    []InviteVersion `gorm:"foreignKey:InviteID" json:"versions,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InviteVersion is one content revision. At most one version per invite is
// active; version numbers start at 1 and strictly increase.
type InviteVersion struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InviteID        uuid.UUID `gorm:"type:uuid;index" json:"invite_id"`
	VersionNumber   int       `gorm:"not null" json:"version_number"`
	Title           string    `gorm:"not null;size:200" json:"title"`
	Text            string    `gorm:"not null" json:"text"`
	Images          string    `gorm:"default:'[]'" json:"-"` // JSON array of URLs
	Videos          string    `gorm:"default:'[]'" json:"-"` // JSON array of URLs
	BackgroundColor string    `gorm:"default:#ffffff;size:20" json:"background_color"`
	TextColor       string    `gorm:"default:#000000;size:20" json:"text_color"`
	FontFamily      string    `gorm:"default:Arial;size:50" json:"font_family"`
	TemplateStyle   string    `gorm:"default:'{}'" json:"template_style"`
	IsActive        bool      `gorm:"default:false;index" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

func (v *InviteVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (v *InviteVersion) ImageList() []string {
	return decodeURLList(v.Images)
}

func (v *InviteVersion) VideoList() []string {
	return decodeURLList(v.Videos)
}

func (v *InviteVersion) SetMedia(images, videos []string) {
	v.Images = encodeURLList(images)
	v.Videos = encodeURLList(videos)
}

func decodeURLList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return []string{}
	}
	return urls
}

func encodeURLList(urls []string) string {
	if urls == nil {
		urls = []string{}
	}
	data, _ := json.Marshal(urls)
	return string(data)
}

// Request structs
type InviteContentRequest struct {
	InviteTitle     string            `json:"invite_title" binding:"required"`
	InviteText      string            `json:"invite_text" binding:"required"`
	InviteImages    []string          `json:"invite_images"`
	InviteVideos    []string          `json:"invite_videos"`
	BackgroundColor string            `json:"background_color"`
	TextColor       string            `json:"text_color"`
	FontFamily      string            `json:"font_family"`
	TemplateStyle   map[string]string `json:"template_style"`
}

type CreateInviteRequest struct {
	ClientID          string `json:"client_id" binding:"required"`
	EventID           string `json:"event_id" binding:"required"`
	InviteName        string `json:"invite_name" binding:"required"`
	InviteDescription string `json:"invite_description"`
	InviteContentRequest
}

// Response structs
type VersionResponse struct {
	ID              uuid.UUID `json:"id"`
	InviteID        uuid.UUID `json:"invite_id"`
	VersionNumber   int       `json:"version_number"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	Images          []string  `json:"images"`
	Videos          []string  `json:"videos"`
	BackgroundColor string    `json:"background_color"`
	TextColor       string    `json:"text_color"`
	FontFamily      string    `json:"font_family"`
	IsActive        bool      `json:"is_active"`
	TotalSent       int64     `json:"total_sent"`
	CreatedAt       time.Time `json:"created_at"`
}

func (v *InviteVersion) ToResponse(totalSent int64) VersionResponse {
	return VersionResponse{
		ID:              v.ID,
		InviteID:        v.InviteID,
		VersionNumber:   v.VersionNumber,
		Title:           v.Title,
		Text:            v.Text,
		Images:          v.ImageList(),
		Videos:          v.VideoList(),
		BackgroundColor: v.BackgroundColor,
		TextColor:       v.TextColor,
		FontFamily:      v.FontFamily,
		IsActive:        v.IsActive,
		TotalSent:       totalSent,
		CreatedAt:       v.CreatedAt,
	}
}

type InviteSummaryResponse struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	EventID       uuid.UUID  `json:"event_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	CreatedByName string     `json:"created_by_name,omitempty"`
	VersionID     *uuid.UUID `json:"active_version_id,omitempty"`
	VersionNumber int        `json:"version_number,omitempty"`
	Title         string     `json:"invite_title,omitempty"`
	TotalSent     int64      `json:"total_sent"`
	CreatedAt     time.Time  `json:"created_at"`
}
