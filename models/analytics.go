package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteAnalytics keeps cumulative per-version counters, exactly one row per
// InviteVersion, created inside the same transaction as the version. Counters
// are running event tallies (sent→delivered→read increments both delivered
// and read), never recomputed from Distribution rows.
type InviteAnalytics struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	InviteID        uuid.UUID  `gorm:"type:uuid;index" json:"invite_id"`
	InviteVersionID uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"invite_version_id"`
	TotalSent       int64      `gorm:"default:0" json:"total_sent"`
	TotalDelivered  int64      `gorm:"default:0" json:"total_delivered"`
	TotalFailed     int64      `gorm:"default:0" json:"total_failed"`
	TotalRead       int64      `gorm:"default:0" json:"total_read"`
	TotalResponded  int64      `gorm:"default:0" json:"total_responded"`
	LastSentAt      *time.Time `json:"last_sent_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (a *InviteAnalytics) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
