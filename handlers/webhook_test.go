package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"evara-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyWebhookEchoesChallenge(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, &stubSender{configured: true})

	req, _ := http.NewRequest("GET",
		"/api/invites/webhook?hub.mode=subscribe&hub.verify_token=secret-verify&hub.challenge=challenge-42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "challenge-42", w.Body.String())
}

func TestVerifyWebhookRejectsWrongToken(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, &stubSender{configured: true})

	req, _ := http.NewRequest("GET",
		"/api/invites/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=challenge-42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "challenge-42")
}

func TestReceiveWebhookAlwaysAcknowledges(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, &stubSender{configured: true})

	for _, body := range []string{"not json", "{}", `{"entry":[]}`} {
		req, _ := http.NewRequest("POST", "/api/invites/webhook", stringReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "payload %q must still be acknowledged", body)
	}
}

func stringReader(s string) *strings.Reader {
	return strings.NewReader(s)
}

func TestReceiveWebhookUpdatesDistribution(t *testing.T) {
	db := setupTestDB(t)
	r, _ := newTestRouter(t, db, &stubSender{configured: true})
	_, _, guests := seedEventWithGuests(t, db)

	version := models.InviteVersion{
		InviteID:      uuid.New(),
		VersionNumber: 1,
		Title:         "Save the Date",
		Text:          "Join us",
		IsActive:      true,
	}
	require.NoError(t, db.Create(&version).Error)
	require.NoError(t, db.Create(&models.InviteAnalytics{
		InviteID:        version.InviteID,
		InviteVersionID: version.ID,
	}).Error)

	dist := models.Distribution{
		InviteVersionID:  version.ID,
		GuestID:          guests[0].ID,
		PhoneNumber:      guests[0].Phone,
		DeliveryStatus:   models.StatusSent,
		DeliveryResponse: `{"results":[{"messageId":"wamid.web1","status":"sent"}]}`,
	}
	require.NoError(t, db.Create(&dist).Error)

	payload := fmt.Sprintf(`{
		"entry": [{"changes": [{"value": {"statuses": [{"id": "%s", "status": "read"}]}}]}]
	}`, "wamid.web1")

	req, _ := http.NewRequest("POST", "/api/invites/webhook", stringReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var updated models.Distribution
	require.NoError(t, db.First(&updated, "id = ?", dist.ID).Error)
	assert.Equal(t, models.StatusRead, updated.DeliveryStatus)

	var analytics models.InviteAnalytics
	require.NoError(t, db.Where("invite_version_id = ?", version.ID).First(&analytics).Error)
	assert.Equal(t, int64(1), analytics.TotalRead)
}
