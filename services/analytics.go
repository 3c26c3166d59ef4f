package services

import (
	"time"

	"evara-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsService maintains the per-version counters. All writes are atomic
// SQL increments (`total_x = total_x + ?`) so dispatcher updates and webhook
// updates can race without losing counts.
type AnalyticsService struct {
	DB *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{DB: db}
}

// Initialize creates the zeroed counters row for a new version. Only called
// inside the version-creating transaction, so it takes the tx handle.
func (as *AnalyticsService) Initialize(tx *gorm.DB, inviteID, versionID uuid.UUID) error {
	return tx.Create(&models.InviteAnalytics{
		InviteID:        inviteID,
		InviteVersionID: versionID,
	}).Error
}

// RecordDispatch applies one batch's sent/failed totals and stamps last_sent_at.
func (as *AnalyticsService) RecordDispatch(versionID uuid.UUID, sentDelta, failedDelta int) error {
	now := time.Now()
	return as.DB.Model(&models.InviteAnalytics{}).
		Where("invite_version_id = ?", versionID).
		Updates(map[string]interface{}{
			"total_sent":   gorm.Expr("total_sent + ?", sentDelta),
			"total_failed": gorm.Expr("total_failed + ?", failedDelta),
			"last_sent_at": now,
		}).Error
}

// RecordStatusChange bumps the counter matching the new status. Counters are
// cumulative funnel tallies: a sent→delivered→read distribution increments
// both total_delivered and total_read, and nothing is ever decremented.
func (as *AnalyticsService) RecordStatusChange(versionID uuid.UUID, fromStatus, toStatus string) error {
	var column string
	switch toStatus {
	case models.StatusDelivered:
		column = "total_delivered"
	case models.StatusRead:
		column = "total_read"
	case models.StatusResponded:
		column = "total_responded"
	default:
		return nil
	}

	return as.DB.Model(&models.InviteAnalytics{}).
		Where("invite_version_id = ?", versionID).
		Update(column, gorm.Expr(column+" + 1")).Error
}

// Get returns the counters row for a version.
func (as *AnalyticsService) Get(versionID uuid.UUID) (*models.InviteAnalytics, error) {
	var analytics models.InviteAnalytics
	if err := as.DB.Where("invite_version_id = ?", versionID).First(&analytics).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &analytics, nil
}
