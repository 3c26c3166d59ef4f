package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery statuses, in funnel order. The provider reports delivered/read;
// responded is set when the recipient replies.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusResponded = "responded"
	StatusFailed    = "failed"
)

// Distribution records one send attempt of one version to one guest. The
// phone number is snapshotted at send time; a resend appends a new row.
type Distribution struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	InviteVersionID  uuid.UUID     `gorm:"type:uuid;index" json:"invite_version_id"`
	Version          InviteVersion `gorm:"foreignKey:InviteVersionID" json:"-"`
	GuestID          uuid.UUID     `gorm:"type:uuid;index" json:"guest_id"`
	PhoneNumber      string        `gorm:"size:20" json:"phone_number"`
	DeliveryStatus   string        `gorm:"not null;size:20;index" json:"delivery_status"`
	DeliveryResponse string        `json:"delivery_response,omitempty"` // serialized provider payload
	SentAt           time.Time     `gorm:"autoCreateTime" json:"sent_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (d *Distribution) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

type DistributionResponse struct {
	ID             uuid.UUID `json:"id"`
	GuestID        uuid.UUID `json:"guest_id"`
	GuestName      string    `json:"guest_name"`
	GuestEmail     string    `json:"guest_email,omitempty"`
	PhoneNumber    string    `json:"phone_number"`
	DeliveryStatus string    `json:"delivery_status"`
	SentAt         time.Time `json:"sent_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
