package services

import (
	"fmt"
	"testing"

	"evara-backend/models"

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

func seedEvent(t *testing.T, db *gorm.DB) (models.Client, models.Event) {
	t.Helper()

	client := models.Client{Name: "Sharma Family"}
	require.NoError(t, db.Create(&client).Error)

	event := models.Event{ClientID: client.ID, Name: "Sharma Wedding", Type: "wedding"}
	require.NoError(t, db.Create(&event).Error)

	return client, event
}

func seedGuest(t *testing.T, db *gorm.DB, event models.Event, first, phone string) models.Guest {
	t.Helper()

	guest := models.Guest{
		EventID:   event.ID,
		FirstName: first,
		Phone:     phone,
	}
	require.NoError(t, db.Create(&guest).Error)
	return guest
}

func contentRequest(title, text string) models.InviteContentRequest {
	return models.InviteContentRequest{
		InviteTitle: title,
		InviteText:  text,
	}
}
