package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"evara-backend/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Reconciler applies asynchronous provider delivery-status callbacks onto
// Distribution rows and keeps the analytics counters in step. It never
// returns errors to the webhook boundary: the provider retries on anything
// but a success acknowledgement, so failures are logged and swallowed.
type Reconciler struct {
	DB        *gorm.DB
	WhatsApp  *WhatsAppService
	Analytics *AnalyticsService
	Redis     *redis.Client // optional; nil disables callback dedupe
}

func NewReconciler(db *gorm.DB, wa *WhatsAppService, analytics *AnalyticsService, rdb *redis.Client) *Reconciler {
	return &Reconciler{DB: db, WhatsApp: wa, Analytics: analytics, Redis: rdb}
}

// HandleCallback classifies a raw webhook body and applies whatever it
// carries. Malformed payloads are "nothing to do".
func (r *Reconciler) HandleCallback(body []byte) {
	event := r.WhatsApp.ProcessWebhook(body)
	if event == nil {
		return
	}

	switch event.Type {
	case "status":
		for _, status := range event.Statuses {
			r.applyStatus(status)
		}
	case "message":
		// Inbound replies are not part of the distribution flow yet; log them
		// so nothing disappears silently.
		for _, msg := range event.Messages {
			log.Printf("💬 Inbound WhatsApp message %s from %s (type %s)", msg.ID, msg.From, msg.Type)
		}
	}
}

// applyStatus updates the matching Distribution row to the incoming status.
// Writes are last-write-wins: an out-of-order `delivered` arriving after
// `read` will regress the row. That matches the provider's at-least-once,
// unordered delivery; the analytics funnel counters are cumulative so they
// are unaffected by the ordering.
func (r *Reconciler) applyStatus(status WebhookStatus) {
	if status.ID == "" || status.Status == "" {
		return
	}

	if r.seenBefore(status) {
		return
	}

	distribution, err := r.correlate(status.ID)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("❌ Webhook status lookup failed for message %s: %v", status.ID, err)
		}
		return
	}

	previous := distribution.DeliveryStatus
	if previous == status.Status {
		return
	}

	err = r.DB.Model(&models.Distribution{}).
		Where("id = ?", distribution.ID).
		Updates(map[string]interface{}{
			"delivery_status": status.Status,
			"updated_at":      time.Now(),
		}).Error
	if err != nil {
		log.Printf("❌ Failed to update distribution %s: %v", distribution.ID, err)
		return
	}

	if err := r.Analytics.RecordStatusChange(distribution.InviteVersionID, previous, status.Status); err != nil {
		log.Printf("❌ Failed to update analytics for version %s: %v", distribution.InviteVersionID, err)
	}
}

// correlate finds the Distribution row whose stored provider response
// contains the given provider message id. No indexed column holds the id, so
// this is a substring match over the serialized response blob — isolated
// here so it can be swapped for a real provider_message_id column later.
func (r *Reconciler) correlate(providerMessageID string) (*models.Distribution, error) {
	var distribution models.Distribution
	pattern := "%" + providerMessageID + "%"
	if err := r.DB.Where("delivery_response LIKE ?", pattern).First(&distribution).Error; err != nil {
		return nil, err
	}
	return &distribution, nil
}

// seenBefore marks (message id, status) pairs in Redis for a day so provider
// redeliveries of the same callback are skipped. Without Redis every
// callback is processed; the status write is idempotent anyway.
func (r *Reconciler) seenBefore(status WebhookStatus) bool {
	if r.Redis == nil {
		return false
	}

	key := fmt.Sprintf("wa:status:%s:%s", status.ID, status.Status)
	set, err := r.Redis.SetNX(context.Background(), key, 1, 24*time.Hour).Result()
	if err != nil {
		return false
	}
	return !set
}
