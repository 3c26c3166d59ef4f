package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is the account an event belongs to. Managed elsewhere; the invite
// engine only validates references against it.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Event struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	Client    Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Name      string    `gorm:"not null;size:150" json:"name"`
	Type      string    `gorm:"default:other;size:30" json:"type"` // wedding, corporate, birthday, other
	Venue     string    `gorm:"size:255" json:"venue,omitempty"`
	StartDate time.Time `gorm:"type:date" json:"start_date"`
	EndDate   time.Time `gorm:"type:date" json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type CreateEventRequest struct {
	ClientID  string `json:"client_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type"`
	Venue     string `json:"venue"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
}
