package services

import (
	"fmt"
	"testing"

	"evara-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReconciler(t *testing.T) (*Reconciler, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	analytics := NewAnalyticsService(db)
	return NewReconciler(db, testWhatsApp(), analytics, nil), db
}

// seedDistribution creates a version with analytics and one sent
// distribution whose stored response carries the given provider message id.
func seedDistribution(t *testing.T, db *gorm.DB, messageID string) models.Distribution {
	t.Helper()

	client, event := seedEvent(t, db)
	vs := NewVersionService(db, NewAnalyticsService(db))
	_, version, err := vs.CreateInvite(models.CreateInviteRequest{
		ClientID:             client.ID.String(),
		EventID:              event.ID.String(),
		InviteName:           "Invite",
		InviteContentRequest: contentRequest("Title", "Text"),
	}, uuid.New())
	require.NoError(t, err)

	guest := seedGuest(t, db, event, "Asha", "919876543210")

	dist := models.Distribution{
		InviteVersionID: version.ID,
		GuestID:         guest.ID,
		PhoneNumber:     guest.Phone,
		DeliveryStatus:  models.StatusSent,
		DeliveryResponse: fmt.Sprintf(
			`{"success":true,"status":"sent","results":[{"success":true,"messageId":"%s","status":"sent"}]}`,
			messageID,
		),
	}
	require.NoError(t, db.Create(&dist).Error)
	return dist
}

func statusCallback(messageID, status string) []byte {
	return []byte(fmt.Sprintf(`{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {"statuses": [{"id": "%s", "status": "%s"}]}}]}]
	}`, messageID, status))
}

func TestHandleCallbackUpdatesDistributionAndAnalytics(t *testing.T) {
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.abc123")

	r.HandleCallback(statusCallback("wamid.abc123", models.StatusDelivered))

	var updated models.Distribution
	require.NoError(t, db.First(&updated, "id = ?", dist.ID).Error)
	assert.Equal(t, models.StatusDelivered, updated.DeliveryStatus)

	var analytics models.InviteAnalytics
	require.NoError(t, db.Where("invite_version_id = ?", dist.InviteVersionID).First(&analytics).Error)
	assert.Equal(t, int64(1), analytics.TotalDelivered)
}

func TestHandleCallbackFunnelCounters(t *testing.T) {
	// sent → delivered → read bumps both delivered and read: the counters
	// are a cumulative funnel, not a histogram of current states.
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.funnel")

	r.HandleCallback(statusCallback("wamid.funnel", models.StatusDelivered))
	r.HandleCallback(statusCallback("wamid.funnel", models.StatusRead))

	var analytics models.InviteAnalytics
	require.NoError(t, db.Where("invite_version_id = ?", dist.InviteVersionID).First(&analytics).Error)
	assert.Equal(t, int64(1), analytics.TotalDelivered)
	assert.Equal(t, int64(1), analytics.TotalRead)
}

func TestHandleCallbackLastWriteWins(t *testing.T) {
	// Out-of-order callbacks overwrite unconditionally: a late `delivered`
	// regresses a `read` row. Kept for provider compatibility.
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.order")

	r.HandleCallback(statusCallback("wamid.order", models.StatusRead))
	r.HandleCallback(statusCallback("wamid.order", models.StatusDelivered))

	var updated models.Distribution
	require.NoError(t, db.First(&updated, "id = ?", dist.ID).Error)
	assert.Equal(t, models.StatusDelivered, updated.DeliveryStatus)
}

func TestHandleCallbackRepeatedStatusCountsOnce(t *testing.T) {
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.dup")

	r.HandleCallback(statusCallback("wamid.dup", models.StatusDelivered))
	r.HandleCallback(statusCallback("wamid.dup", models.StatusDelivered))

	var analytics models.InviteAnalytics
	require.NoError(t, db.Where("invite_version_id = ?", dist.InviteVersionID).First(&analytics).Error)
	assert.Equal(t, int64(1), analytics.TotalDelivered)
}

func TestHandleCallbackUnknownMessageID(t *testing.T) {
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.known")

	r.HandleCallback(statusCallback("wamid.other", models.StatusDelivered))

	var updated models.Distribution
	require.NoError(t, db.First(&updated, "id = ?", dist.ID).Error)
	assert.Equal(t, models.StatusSent, updated.DeliveryStatus)
}

func TestHandleCallbackMalformedPayloads(t *testing.T) {
	r, db := newReconciler(t)
	dist := seedDistribution(t, db, "wamid.safe")

	assert.NotPanics(t, func() {
		r.HandleCallback([]byte("not json"))
		r.HandleCallback([]byte(`{}`))
		r.HandleCallback([]byte(`{"entry":[{"changes":[{"value":{"statuses":[{"id":"","status":""}]}}]}]}`))
	})

	var updated models.Distribution
	require.NoError(t, db.First(&updated, "id = ?", dist.ID).Error)
	assert.Equal(t, models.StatusSent, updated.DeliveryStatus)
}

func TestHandleCallbackInboundMessage(t *testing.T) {
	r, _ := newReconciler(t)

	assert.NotPanics(t, func() {
		r.HandleCallback([]byte(`{
			"entry": [{"changes": [{"value": {
				"messages": [{"id": "wamid.in", "from": "919876543210", "type": "text"}]
			}}]}]
		}`))
	})
}
