package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/timeframe"
)

func TestGetTimelineZeroFillsEmptyDates(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	now := time.Now().UTC()
	testsupport.CreateTestEvent(t, db, testsupport.WithNewUser(true))
	testsupport.CreateTestEvent(t, db)
	testsupport.CreateTestEvent(t, db, testsupport.WithVisitedAt(now.AddDate(0, 0, -2)))

	window := timeframe.NewDayWindow(7, now)
	timeline, err := analytics.GetTimeline(db, analytics.NewQueryParams(window))
	require.NoError(t, err)

	// One point per calendar date in the window, ascending, no gaps.
	require.Len(t, timeline, 7)
	labels := window.DateLabels()
	for i, point := range timeline {
		assert.Equal(t, labels[i], point.Date)
	}

	today := timeline[6]
	assert.Equal(t, int64(2), today.Visits)
	assert.Equal(t, int64(1), today.NewUsers)

	twoDaysAgo := timeline[4]
	assert.Equal(t, int64(1), twoDaysAgo.Visits)

	yesterday := timeline[5]
	assert.Equal(t, int64(0), yesterday.Visits)
}

func TestGetTimelineIsIdempotent(t *testing.T) {
	testsupport.SetTestEnv(t)
	db := testsupport.SetupTestDB(t)

	testsupport.CreateTestEvent(t, db)

	params := analytics.NewQueryParams(timeframe.NewDayWindow(3, time.Now().UTC()))

	first, err := analytics.GetTimeline(db, params)
	require.NoError(t, err)
	second, err := analytics.GetTimeline(db, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
