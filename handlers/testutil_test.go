package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"evara-backend/models"
	"evara-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Event{},
		&models.Guest{},
		&models.Invite{},
		&models.InviteVersion{},
		&models.Distribution{},
		&models.InviteAnalytics{},
	))

	return db
}

// stubSender satisfies services.InviteSender for handler tests.
type stubSender struct {
	configured bool
	fail       bool
}

func (s *stubSender) IsConfigured() bool { return s.configured }

func (s *stubSender) SendInvite(ctx context.Context, to string, content services.InviteContent) services.InviteSendResult {
	if s.fail {
		return services.InviteSendResult{
			Success: false,
			Status:  "partial_failure",
			Results: []services.SendResult{{Success: false, Status: "failed", Error: "stub failure"}},
		}
	}
	return services.InviteSendResult{
		Success: true,
		Status:  "sent",
		Results: []services.SendResult{{Success: true, Status: "sent", MessageID: "wamid." + to}},
	}
}

func testWhatsAppService() *services.WhatsAppService {
	return &services.WhatsAppService{
		APIURL:        "https://graph.example.test/v18.0",
		PhoneNumberID: "12345",
		AccessToken:   "token",
		VerifyToken:   "secret-verify",
		CountryCode:   "91",
		HTTPClient:    http.DefaultClient,
	}
}

// newTestRouter wires the invite routes exactly like main.go, minus auth.
func newTestRouter(t *testing.T, db *gorm.DB, sender *stubSender) (*gin.Engine, *InviteHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	whatsapp := testWhatsAppService()
	analytics := services.NewAnalyticsService(db)
	versions := services.NewVersionService(db, analytics)
	dispatcher := services.NewDispatcher(db, sender, analytics)
	dispatcher.SendDelay = 0
	reconciler := services.NewReconciler(db, whatsapp, analytics, nil)

	h := &InviteHandler{
		DB:         db,
		Versions:   versions,
		Dispatcher: dispatcher,
		Reconciler: reconciler,
		Analytics:  analytics,
		WhatsApp:   whatsapp,
		Email:      &services.EmailService{},
	}

	r := gin.New()
	r.GET("/api/invites/webhook", h.VerifyWebhook)
	r.POST("/api/invites/webhook", h.ReceiveWebhook)
	r.GET("/api/invites/by-event/:eventId", h.GetInvitesByEvent)
	r.GET("/api/invites/:id/versions", h.GetInviteVersions)
	r.POST("/api/invites", h.CreateInvite)
	r.POST("/api/invites/:id/versions", h.CreateVersion)
	r.POST("/api/invites/send-preview", h.SendPreview)
	r.POST("/api/invites/:id/send", h.SendInvites)
	r.GET("/api/invites/:id/analytics", h.GetAnalytics)

	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedEventWithGuests(t *testing.T, db *gorm.DB) (models.Client, models.Event, []models.Guest) {
	t.Helper()

	client := models.Client{Name: "Sharma Family"}
	require.NoError(t, db.Create(&client).Error)
	event := models.Event{ClientID: client.ID, Name: "Sharma Wedding", Type: "wedding"}
	require.NoError(t, db.Create(&event).Error)

	guests := []models.Guest{
		{EventID: event.ID, FirstName: "Asha", Phone: "911111111101", Email: "asha@example.com"},
		{EventID: event.ID, FirstName: "Bilal", Phone: "911111111102"},
		{EventID: event.ID, FirstName: "Chitra"}, // no phone
	}
	for i := range guests {
		require.NoError(t, db.Create(&guests[i]).Error)
	}

	return client, event, guests
}
