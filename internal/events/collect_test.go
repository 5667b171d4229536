package events_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"
)

func TestCollectEvent(t *testing.T) {
	t.Run("persists a valid event with server-assigned fields", func(t *testing.T) {
		dbManager, logger := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		event := validEvent()
		event.ID = 999 // client-supplied ids are ignored

		stored, err := events.CollectEvent(dbManager, logger, &event, "203.0.113.7")
		require.NoError(t, err)
		assert.NotZero(t, stored.ID)
		assert.NotEqual(t, uint(999), stored.ID)
		assert.False(t, stored.VisitedAt.IsZero())

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("returns the validation error without persisting", func(t *testing.T) {
		dbManager, logger := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		event := events.AnalyticsEvent{PageURL: "/"}

		_, err := events.CollectEvent(dbManager, logger, &event, "203.0.113.7")
		var validationErr *events.ValidationError
		require.ErrorAs(t, err, &validationErr)

		var count int64
		require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&count).Error)
		assert.Equal(t, int64(0), count)
	})

	t.Run("clears conversion attributes on non-converted events", func(t *testing.T) {
		dbManager, logger := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		event := validEvent()
		event.Converted = false
		event.ConversionType = "registration"
		event.ConversionValue = testsupport.IntPtr(100)

		stored, err := events.CollectEvent(dbManager, logger, &event, "203.0.113.7")
		require.NoError(t, err)
		assert.Empty(t, stored.ConversionType)
		assert.Nil(t, stored.ConversionValue)

		var persisted events.AnalyticsEvent
		require.NoError(t, db.First(&persisted, stored.ID).Error)
		assert.Empty(t, persisted.ConversionType)
	})
}

func TestPruneOlderThan(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	now := time.Now().UTC()
	testsupport.CreateTestEvent(t, db, testsupport.WithVisitedAt(now.AddDate(0, 0, -400)))
	testsupport.CreateTestEvent(t, db, testsupport.WithVisitedAt(now.AddDate(0, 0, -400)))
	testsupport.CreateTestEvent(t, db, testsupport.WithVisitedAt(now.AddDate(0, 0, -10)))

	deleted, err := events.PruneOlderThan(logger, db, now.AddDate(0, 0, -365), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var remaining int64
	require.NoError(t, db.Model(&events.AnalyticsEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
