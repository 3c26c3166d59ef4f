package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"evara-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteSender is the slice of the channel adapter the dispatcher needs.
type InviteSender interface {
	IsConfigured() bool
	SendInvite(ctx context.Context, to string, content InviteContent) InviteSendResult
}

// Dispatcher sends one invite version to a list of guests. Sends within a
// batch are strictly sequential with a fixed pause between recipients — the
// provider rate limit is the bottleneck, not our CPU. Independent batches
// (different versions) may run concurrently.
type Dispatcher struct {
	DB        *gorm.DB
	Sender    InviteSender
	Analytics *AnalyticsService
	SendDelay time.Duration // pause between recipients
}

func NewDispatcher(db *gorm.DB, sender InviteSender, analytics *AnalyticsService) *Dispatcher {
	return &Dispatcher{
		DB:        db,
		Sender:    sender,
		Analytics: analytics,
		SendDelay: 2 * time.Second,
	}
}

type GuestSendResult struct {
	GuestID     uuid.UUID        `json:"guest_id"`
	GuestName   string           `json:"guest_name"`
	PhoneNumber string           `json:"phone_number"`
	Result      InviteSendResult `json:"result"`
}

type BatchResult struct {
	SentCount   int               `json:"sent_count"`
	FailedCount int               `json:"failed_count"`
	TotalGuests int               `json:"total_guests"`
	Results     []GuestSendResult `json:"results"`
}

// Dispatch sends a version to the given guests. Preconditions (version
// exists, provider configured) fail before any recipient is touched. Guests
// without a phone number are excluded from the batch, not counted as
// failures. One recipient's provider error never aborts the rest; every
// attempted recipient gets exactly one Distribution row.
func (d *Dispatcher) Dispatch(ctx context.Context, versionID uuid.UUID, guestIDs []uuid.UUID) (*BatchResult, error) {
	var version models.InviteVersion
	if err := d.DB.First(&version, "id = ?", versionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !d.Sender.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var guests []models.Guest
	if err := d.DB.Where("id IN ? AND phone IS NOT NULL AND phone <> ''", guestIDs).
		Find(&guests).Error; err != nil {
		return nil, err
	}

	content := InviteContent{
		Title:  version.Title,
		Text:   version.Text,
		Images: version.ImageList(),
		Videos: version.VideoList(),
	}

	// One bounded queue, one worker. Cancellation stops the worker from
	// taking new jobs; the in-flight send still gets its row written.
	jobs := make(chan models.Guest, len(guests))
	for _, g := range guests {
		jobs <- g
	}
	close(jobs)

	batch := &BatchResult{TotalGuests: len(guests)}
	done := make(chan struct{})

	go func() {
		defer close(done)
		first := true
		for guest := range jobs {
			// Cancellation stops new sends; the current one, once started,
			// always finishes its row write inside sendToGuest.
			if ctx.Err() != nil {
				return
			}
			if !first {
				if err := sleepCtx(ctx, d.SendDelay); err != nil {
					return
				}
			}
			first = false

			result := d.sendToGuest(ctx, version.ID, guest, content)
			batch.Results = append(batch.Results, result)
			if result.Result.Success {
				batch.SentCount++
			} else {
				batch.FailedCount++
			}
		}
	}()
	<-done

	if err := d.Analytics.RecordDispatch(versionID, batch.SentCount, batch.FailedCount); err != nil {
		return nil, err
	}

	log.Printf("📨 Dispatched version %s: %d sent, %d failed (%d guests)",
		versionID, batch.SentCount, batch.FailedCount, batch.TotalGuests)

	return batch, nil
}

// sendToGuest performs one send and records its Distribution row. The row is
// written no matter how the send ended, so a started send is never invisible.
func (d *Dispatcher) sendToGuest(ctx context.Context, versionID uuid.UUID, guest models.Guest, content InviteContent) GuestSendResult {
	result := d.Sender.SendInvite(ctx, guest.Phone, content)

	status := models.StatusSent
	if !result.Success {
		status = models.StatusFailed
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		serialized = []byte(`{"error":"failed to serialize provider response"}`)
	}

	distribution := models.Distribution{
		InviteVersionID:  versionID,
		GuestID:          guest.ID,
		PhoneNumber:      guest.Phone,
		DeliveryStatus:   status,
		DeliveryResponse: string(serialized),
	}
	if err := d.DB.Create(&distribution).Error; err != nil {
		log.Printf("❌ Failed to record distribution for guest %s: %v", guest.ID, err)
	}

	return GuestSendResult{
		GuestID:     guest.ID,
		GuestName:   guest.FullName(),
		PhoneNumber: guest.Phone,
		Result:      result,
	}
}
