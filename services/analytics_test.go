package services

import (
	"sync"
	"testing"

	"evara-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAnalyticsRow(t *testing.T, db *gorm.DB) (*AnalyticsService, uuid.UUID) {
	t.Helper()

	as := NewAnalyticsService(db)
	versionID := uuid.New()
	require.NoError(t, as.Initialize(db, uuid.New(), versionID))
	return as, versionID
}

func TestRecordDispatchAccumulates(t *testing.T) {
	db := setupTestDB(t)
	as, versionID := seedAnalyticsRow(t, db)

	require.NoError(t, as.RecordDispatch(versionID, 3, 1))
	require.NoError(t, as.RecordDispatch(versionID, 2, 0))

	analytics, err := as.Get(versionID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), analytics.TotalSent)
	assert.Equal(t, int64(1), analytics.TotalFailed)
	assert.NotNil(t, analytics.LastSentAt)
}

func TestRecordStatusChangeCounters(t *testing.T) {
	db := setupTestDB(t)
	as, versionID := seedAnalyticsRow(t, db)

	require.NoError(t, as.RecordStatusChange(versionID, models.StatusSent, models.StatusDelivered))
	require.NoError(t, as.RecordStatusChange(versionID, models.StatusDelivered, models.StatusRead))
	require.NoError(t, as.RecordStatusChange(versionID, models.StatusRead, models.StatusResponded))
	// failed and sent are not reconciler counters; no-ops
	require.NoError(t, as.RecordStatusChange(versionID, models.StatusSent, models.StatusFailed))
	require.NoError(t, as.RecordStatusChange(versionID, models.StatusFailed, models.StatusSent))

	analytics, err := as.Get(versionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), analytics.TotalDelivered)
	assert.Equal(t, int64(1), analytics.TotalRead)
	assert.Equal(t, int64(1), analytics.TotalResponded)
	assert.Zero(t, analytics.TotalSent)
	assert.Zero(t, analytics.TotalFailed)
}

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	db := setupTestDB(t)
	as, versionID := seedAnalyticsRow(t, db)

	const callers = 20
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, as.RecordDispatch(versionID, 1, 1))
			assert.NoError(t, as.RecordStatusChange(versionID, models.StatusSent, models.StatusDelivered))
		}()
	}
	wg.Wait()

	analytics, err := as.Get(versionID)
	require.NoError(t, err)
	assert.Equal(t, int64(callers), analytics.TotalSent)
	assert.Equal(t, int64(callers), analytics.TotalFailed)
	assert.Equal(t, int64(callers), analytics.TotalDelivered)
}

func TestGetUnknownVersion(t *testing.T) {
	db := setupTestDB(t)
	as := NewAnalyticsService(db)

	_, err := as.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
